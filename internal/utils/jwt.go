package utils // package utils provides helper functions for token creation, hashing and field checks

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
	"github.com/google/uuid"       // unique token identifiers (jti)
)

// Token types carried in the token_type claim.  A refresh token presented
// where an access token is expected (or the reverse) is rejected.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrWrongTokenType is returned by ParseToken when the token_type claim does
// not match the expected type.
var ErrWrongTokenType = errors.New("token has wrong type")

// Claims is the payload of both access and refresh tokens.  The subject (sub)
// holds the user ID in decimal form and ID (jti) a random UUID.
type Claims struct {
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID decodes the subject claim.
func (c *Claims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// SignedToken is a serialized JWT together with the values callers need to
// track it: the token identifier and the UTC expiry.
type SignedToken struct {
	Token string    // the serialized JWT string
	JTI   string    // the jti claim
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 access token for a user.
func NewAccessToken(secret string, userID uint64, username string, ttl time.Duration) (SignedToken, error) {
	return newToken(secret, userID, username, TokenTypeAccess, ttl)
}

// NewRefreshToken builds and signs an HS256 refresh token for a user.  The
// jti claim is what gets blacklisted on logout.
func NewRefreshToken(secret string, userID uint64, username string, ttl time.Duration) (SignedToken, error) {
	return newToken(secret, userID, username, TokenTypeRefresh, ttl)
}

func newToken(secret string, userID uint64, username, tokenType string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	jti := uuid.NewString()
	claims := Claims{
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, JTI: jti, Exp: exp}, nil
}

// ParseToken verifies the signature and expiry of raw and checks that its
// token_type equals wantType.  Errors from the jwt library are returned as-is
// so callers can distinguish jwt.ErrTokenExpired.
func ParseToken(secret, raw, wantType string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
