// Package queue defines the book lifecycle events exchanged over RabbitMQ,
// together with their publisher and the consumer used by cmd/book-events.
package queue

import (
    "fmt"
    "time"

    "github.com/jackyYam/mybooklist/internal/model"
)

// BookEventsQueue is the durable queue carrying BookEvent messages.
const BookEventsQueue = "book.events"

// Event types.
const (
    EventBookCreated = "book.created"
    EventBookUpdated = "book.updated"
    EventBookDeleted = "book.deleted"
)

// BookEvent is published after a book is created, updated or deleted.  It
// carries enough of the book for consumers to log or index it without
// querying the primary database.
type BookEvent struct {
    Type            string `json:"type"`
    BookID          uint64 `json:"book_id"`
    Title           string `json:"title"`
    Author          string `json:"author"`
    ISBN            string `json:"isbn"`
    PublicationYear int    `json:"publication_year"`
    CreatorID       uint64 `json:"creator_id"`
    ActorID         uint64 `json:"actor_id"`
    OccurredAt      string `json:"occurred_at"` // RFC3339, UTC
}

// NewBookEvent builds an event of type typ for b performed by actor.
func NewBookEvent(typ string, b model.Book, actor uint64, at time.Time) BookEvent {
    return BookEvent{
        Type:            typ,
        BookID:          b.ID,
        Title:           b.Title,
        Author:          b.Author,
        ISBN:            b.ISBN,
        PublicationYear: b.PublicationYear,
        CreatorID:       b.CreatorID,
        ActorID:         actor,
        OccurredAt:      at.UTC().Format(time.RFC3339),
    }
}

// FormatLine renders ev as a single log line terminated by a newline.
func (ev BookEvent) FormatLine() string {
    return fmt.Sprintf("[%s] %s | book_id=%d | title=%q | author=%q | isbn=%s | year=%d | creator_id=%d | actor_id=%d\n",
        ev.OccurredAt, ev.Type, ev.BookID, ev.Title, ev.Author, ev.ISBN, ev.PublicationYear, ev.CreatorID, ev.ActorID)
}
