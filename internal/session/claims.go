package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/filmx/internal/shared"
)

// Claims is the unverified content of the credential, for display only.
//
// The signature is never checked here; the server remains the authority and [Session.FetchProfile]
// decides whether the credential is accepted.
type Claims struct {
	UserID    int64
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the credential carries an expiry that has passed at now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims decodes the current credential without verifying it.
func (s *Session) Claims() (*Claims, error) {
	cred := s.Credential()
	if cred == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return ParseClaims(cred)
}

// ParseClaims decodes a JWT credential without verifying its signature.
func ParseClaims(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("%w: credential is not a JWT: %w", shared.ErrInvalidInput, err)
	}

	c := &Claims{}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if name, ok := mc["username"].(string); ok {
		c.Username = name
	}

	switch id := mc["userId"].(type) {
	case float64:
		c.UserID = int64(id)
	case string:
		c.UserID, _ = strconv.ParseInt(id, 10, 64)
	}
	if c.UserID == 0 {
		if sub, err := mc.GetSubject(); err == nil {
			c.UserID, _ = strconv.ParseInt(sub, 10, 64)
		}
	}
	return c, nil
}
