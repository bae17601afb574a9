package middleware

// identity.go holds the context plumbing shared by the middleware and the
// handlers: where the authenticated identity lives on the echo.Context and
// how to read it back.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/jackyYam/mybooklist/internal/service"
)

const identityKey = "identity"

func setIdentity(c echo.Context, id service.Identity) {
    c.Set(identityKey, &id)
}

// IdentityFrom returns the authenticated caller, or nil for anonymous
// requests.
func IdentityFrom(c echo.Context) *service.Identity {
    if id, ok := c.Get(identityKey).(*service.Identity); ok {
        return id
    }
    return nil
}

// userID returns the caller's id as a string for rate limit keys, or "anon".
func userID(c echo.Context) string {
    if id := IdentityFrom(c); id != nil {
        return strconv.FormatUint(id.UserID, 10)
    }
    return "anon"
}
