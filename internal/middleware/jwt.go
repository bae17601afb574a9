package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/jackyYam/mybooklist/internal/apperr"
    "github.com/jackyYam/mybooklist/internal/service"
)

// AccessValidator turns a raw access token into an identity.
type AccessValidator interface {
    ValidateAccess(raw string) (service.Identity, error)
}

// JWTAuth returns an Echo middleware that resolves the caller's identity from
// a Bearer access token.  Requests without an Authorization header continue
// anonymously; whether that is acceptable is up to the authorization policy
// in the handler.  A header that is present but carries an invalid token is
// rejected with 401 right away.
func JWTAuth(tokens AccessValidator) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if auth == "" {
                return next(c)
            }
            scheme, raw, ok := strings.Cut(auth, " ")
            if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authorization header must contain two space-delimited values"})
            }

            id, err := tokens.ValidateAccess(strings.TrimSpace(raw))
            if err != nil {
                msg := "invalid token"
                var appErr *apperr.Error
                if errors.As(err, &appErr) {
                    msg = appErr.Message
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
            }
            setIdentity(c, id)
            return next(c)
        }
    }
}
