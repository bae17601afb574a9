package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "net"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// defaultPublishTimeout bounds a Publish whose context carries no deadline.
const defaultPublishTimeout = 5 * time.Second

// Publisher sends BookEvents to the book.events queue.  Each Publish dials
// the broker, declares the queue and sends one persistent message; failures
// are logged and returned so callers can ignore them without interrupting
// the request.  The whole exchange, handshake included, is bounded by the
// context passed to Publish.
type Publisher struct {
    url string
    log *slog.Logger
}

func NewPublisher(url string, log *slog.Logger) *Publisher {
    return &Publisher{url: url, log: log}
}

// Publish sends ev as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, ev BookEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    if _, ok := ctx.Deadline(); !ok {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, defaultPublishTimeout)
        defer cancel()
    }

    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      contextDialer(ctx),
    })
    if err != nil {
        p.log.Warn("rabbitmq dial failed", "error", err)
        return err
    }
    defer func() { _ = conn.Close() }()
    // a broker that stalls after the handshake is cut off when ctx ends
    stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
    defer stop()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("rabbitmq channel open failed", "error", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if err := declareQueue(ch); err != nil {
        p.log.Warn("rabbitmq queue declare failed", "error", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", BookEventsQueue, false, false, pub); err != nil {
        p.log.Warn("rabbitmq publish failed", "type", ev.Type, "book_id", ev.BookID, "error", err)
        return err
    }
    return nil
}

// contextDialer connects with ctx and sets the connection deadline to ctx's
// deadline.  amqp091 clears the deadline once the handshake completes.
func contextDialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
    return func(network, addr string) (net.Conn, error) {
        var d net.Dialer
        conn, err := d.DialContext(ctx, network, addr)
        if err != nil {
            return nil, err
        }
        if deadline, ok := ctx.Deadline(); ok {
            if err := conn.SetDeadline(deadline); err != nil {
                _ = conn.Close()
                return nil, err
            }
        }
        return conn, nil
    }
}

// declareQueue makes sure the durable queue exists; safe to call repeatedly.
func declareQueue(ch *amqp.Channel) error {
    _, err := ch.QueueDeclare(
        BookEventsQueue, // name
        true,            // durable
        false,           // autoDelete
        false,           // exclusive
        false,           // noWait
        nil,             // args
    )
    return err
}
