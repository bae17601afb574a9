package middleware

import (
    "log/slog"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
)

// RequestLogger writes one structured access log line per request.
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:   true,
        LogURI:      true,
        LogStatus:   true,
        LogLatency:  true,
        LogRemoteIP: true,
        LogError:    true,
        HandleError: true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            attrs := []slog.Attr{
                slog.String("method", v.Method),
                slog.String("uri", v.URI),
                slog.Int("status", v.Status),
                slog.Duration("latency", v.Latency),
                slog.String("remote_ip", v.RemoteIP),
            }
            if id := IdentityFrom(c); id != nil {
                attrs = append(attrs, slog.Uint64("user_id", id.UserID))
            }
            level := slog.LevelInfo
            if v.Error != nil {
                level = slog.LevelError
                attrs = append(attrs, slog.String("error", v.Error.Error()))
            } else if v.Status >= 500 {
                level = slog.LevelWarn
            }
            log.LogAttrs(c.Request().Context(), level, "request", attrs...)
            return nil
        },
    })
}
