// Package service holds the token lifecycle and the authorization rules that
// handlers compose before touching a repository.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackyYam/mybooklist/internal/apperr"
	"github.com/jackyYam/mybooklist/internal/metrics"
	"github.com/jackyYam/mybooklist/internal/model"
	"github.com/jackyYam/mybooklist/internal/utils"
)

// Identity is the authenticated caller extracted from an access token.  It is
// passed explicitly from handler to policy to repository.
type Identity struct {
	UserID   uint64
	Username string
}

// Blacklist stores revoked refresh token identifiers.  Add must report false
// when jti is already present, atomically with respect to concurrent adds.
type Blacklist interface {
	Add(ctx context.Context, jti string, userID uint64, expiresAt time.Time) (bool, error)
	Contains(ctx context.Context, jti string) (bool, error)
}

// TokenPair is what register and login hand back to the client.
type TokenPair struct {
	Access  string
	Refresh string
}

// TokenService signs, validates and revokes JWTs.
type TokenService struct {
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	blacklist  Blacklist
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, blacklist Blacklist) *TokenService {
	return &TokenService{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		blacklist:  blacklist,
	}
}

// Issue signs a fresh access/refresh pair for u.
func (s *TokenService) Issue(u model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.secret, u.ID, u.Username, s.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.secret, u.ID, u.Username, s.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return TokenPair{Access: access.Token, Refresh: refresh.Token}, nil
}

// IssueAccess signs a new access token only.
func (s *TokenService) IssueAccess(id Identity) (string, error) {
	access, err := utils.NewAccessToken(s.secret, id.UserID, id.Username, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access.Token, nil
}

// ValidateAccess returns the identity carried by an access token.  Any
// failure (signature, expiry, malformed, refresh token presented) is
// Unauthenticated.
func (s *TokenService) ValidateAccess(raw string) (Identity, error) {
	claims, err := utils.ParseToken(s.secret, raw, utils.TokenTypeAccess)
	if err != nil {
		return Identity{}, apperr.Unauthenticated("Given token not valid for any token type").WithCause(err)
	}
	uid, err := claims.UserID()
	if err != nil || uid == 0 {
		return Identity{}, apperr.Unauthenticated("Token contained no recognizable user identification")
	}
	return Identity{UserID: uid, Username: claims.Username}, nil
}

// ValidateRefresh checks a refresh token including its blacklist state.
func (s *TokenService) ValidateRefresh(ctx context.Context, raw string) (Identity, error) {
	claims, id, err := s.parseRefresh(raw)
	if err != nil {
		return Identity{}, err
	}
	revoked, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return Identity{}, fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return Identity{}, apperr.InvalidToken("Token is blacklisted")
	}
	return id, nil
}

// Revoke blacklists a refresh token until it expires.  Revoking a token a
// second time fails with InvalidToken; of two concurrent revocations exactly
// one succeeds.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	claims, id, err := s.parseRefresh(raw)
	if err != nil {
		return err
	}
	added, err := s.blacklist.Add(ctx, claims.ID, id.UserID, claims.ExpiresAt.Time)
	if err != nil {
		return fmt.Errorf("blacklist refresh token: %w", err)
	}
	if !added {
		return apperr.InvalidToken("Token is blacklisted")
	}
	metrics.TokenRevoked()
	return nil
}

func (s *TokenService) parseRefresh(raw string) (*utils.Claims, Identity, error) {
	claims, err := utils.ParseToken(s.secret, raw, utils.TokenTypeRefresh)
	if err != nil {
		return nil, Identity{}, apperr.ErrInvalidToken.WithCause(err)
	}
	uid, err := claims.UserID()
	if err != nil || uid == 0 || claims.ID == "" {
		return nil, Identity{}, apperr.ErrInvalidToken
	}
	return claims, Identity{UserID: uid, Username: claims.Username}, nil
}
