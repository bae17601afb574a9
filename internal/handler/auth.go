package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jackyYam/mybooklist/internal/apperr"
	"github.com/jackyYam/mybooklist/internal/metrics"
	"github.com/jackyYam/mybooklist/internal/middleware"
	"github.com/jackyYam/mybooklist/internal/repository"
	"github.com/jackyYam/mybooklist/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users      UserStore
	Tokens     Tokens
	BcryptCost int
	Log        *slog.Logger
}

func NewAuthHandler(u UserStore, t Tokens, bcryptCost int, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Users: u, Tokens: t, BcryptCost: bcryptCost, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
}
type refreshReq struct {
	Refresh string `json:"refresh" validate:"required"`
}

type registerResp struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Refresh  string `json:"refresh"`
	Access   string `json:"access"`
}
type loginResp struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Refresh  string `json:"refresh"`
	Access   string `json:"access"`
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, h.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrUsernameExists):
		return writeError(c, h.Log, apperr.ValidationFields("A user with that username already exists.",
			map[string]string{"username": "already exists"}))
	case errors.Is(err, repository.ErrEmailExists):
		return writeError(c, h.Log, apperr.ValidationFields("A user with that email already exists.",
			map[string]string{"email": "already exists"}))
	case err != nil:
		return writeError(c, h.Log, err)
	}

	pair, err := h.Tokens.Issue(u)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	metrics.UserRegistered()
	h.Log.Info("user registered", "user_id", u.ID)

	return c.JSON(http.StatusCreated, registerResp{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Refresh:  pair.Refresh,
		Access:   pair.Access,
	})
}

// Login: verify credentials and return a new pair.  Every failure, including
// missing fields, is reported as invalid credentials.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return writeError(c, h.Log, apperr.Validation("invalid body"))
	}
	invalid := func() error {
		metrics.LoginAttempt("failure")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid Credentials"})
	}
	if req.Username == "" || req.Password == "" {
		return invalid()
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid()
	}
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return invalid()
	}

	pair, err := h.Tokens.Issue(u)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	metrics.LoginAttempt("success")

	return c.JSON(http.StatusOK, loginResp{
		ID:       u.ID,
		Username: u.Username,
		Refresh:  pair.Refresh,
		Access:   pair.Access,
	})
}

// Logout blacklists the refresh token in the body.  The caller must hold a
// valid access token.
func (h *AuthHandler) Logout(c echo.Context) error {
	if middleware.IdentityFrom(c) == nil {
		return writeError(c, h.Log, apperr.ErrUnauthenticated)
	}

	var req logoutReq
	if err := c.Bind(&req); err != nil {
		return writeError(c, h.Log, apperr.Validation("invalid body"))
	}
	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Refresh token not provided"})
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	if err := h.Tokens.Revoke(ctx, raw); err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Code == apperr.CodeInvalidToken {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": appErr.Message})
		}
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusResetContent, echo.Map{"success": true})
}

// Refresh exchanges a live refresh token for a new access token.  The
// refresh token itself is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	id, err := h.Tokens.ValidateRefresh(ctx, strings.TrimSpace(req.Refresh))
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Code == apperr.CodeInvalidToken {
			return writeAppError(c, http.StatusUnauthorized, appErr)
		}
		return writeError(c, h.Log, err)
	}
	access, err := h.Tokens.IssueAccess(id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"access": access})
}
