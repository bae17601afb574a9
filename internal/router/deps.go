package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/jackyYam/mybooklist/internal/handler"
	"github.com/jackyYam/mybooklist/internal/middleware"
)

// Deps is everything New needs to assemble the server.
type Deps struct {
	Log             *slog.Logger
	Validator       echo.Validator
	AccessValidator middleware.AccessValidator
	Limiter         echo.MiddlewareFunc
	DB              handler.Pinger
	Auth            *handler.AuthHandler
	Books           *handler.BookHandler
}
