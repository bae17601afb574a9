package router // package router defines how HTTP routes are registered for the API

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jackyYam/mybooklist/internal/handler"
	"github.com/jackyYam/mybooklist/internal/middleware"
)

// Pre installs the pre-routing middleware: API paths are normalised to end
// in a slash so /api/books and /api/books/ reach the same route.
func Pre(e *echo.Echo) {
	e.Pre(echomw.AddTrailingSlashWithConfig(echomw.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().URL.Path, "/api/")
		},
	}))
}

// RegisterRoutes registers operational endpoints that sit outside the API:
// the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the session endpoints under /api/auth.  limiter
// guards every route of the group; auth resolves the caller for logout.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth", limiter)
	g.POST("/register/", a.Register)
	g.POST("/login/", a.Login)
	g.POST("/refresh/", a.Refresh)
	// logout needs an access token; the handler rejects anonymous callers
	g.POST("/logout/", a.Logout, auth)
}

// RegisterBooks registers the catalog and favourites endpoints.  auth only
// resolves the caller; each handler applies the authorization policy itself
// so that reads stay public.
func RegisterBooks(e *echo.Echo, b *handler.BookHandler, auth echo.MiddlewareFunc) {
	api := e.Group("/api", auth)

	api.GET("/books/", b.List)
	api.POST("/books/", b.Create)
	api.GET("/books/:id/", b.Get)
	api.PUT("/books/:id/", b.Update)
	api.PATCH("/books/:id/", b.Update)
	api.DELETE("/books/:id/", b.Delete)

	api.GET("/favourites/", b.ListFavourites)
	api.POST("/favourites/:book_id/", b.AddFavourite)
	api.DELETE("/favourites/:book_id/", b.RemoveFavourite)
}

// New builds an echo instance with the shared middleware stack and every
// route registered.
func New(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = deps.Validator
	e.HTTPErrorHandler = handler.ErrorHandler(deps.Log)

	Pre(e)
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(deps.Log))

	limiter := deps.Limiter
	if limiter == nil {
		limiter = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	auth := middleware.JWTAuth(deps.AccessValidator)
	RegisterRoutes(e, deps.DB)
	RegisterAuth(e, deps.Auth, auth, limiter)
	RegisterBooks(e, deps.Books, auth)
	return e
}
