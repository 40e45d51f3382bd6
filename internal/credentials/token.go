// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package credentials

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrEmptyToken is returned when saving an empty token.
	ErrEmptyToken = errors.New("token cannot be empty")

	// ErrTokenExpired is returned when saving a token whose exp has passed.
	ErrTokenExpired = errors.New("token has expired")

	// ErrNotJWT is returned by Inspect for tokens that are not JWTs.
	ErrNotJWT = errors.New("token is not a JWT")
)

// Claims are the fields the client reads from a service token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Credential is a stored token with the claims read from it.
type Credential struct {
	Token     string    `json:"-"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
}

// Expired reports whether the credential has an expiry at or before now.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Inspect reads the claims of a JWT without verifying its signature.
func Inspect(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return nil, ErrNotJWT
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}
	return claims, nil
}

// NewCredential builds a Credential for token, reading its claims when it is
// a JWT. It fails for an empty or already expired token.
func NewCredential(token string, now time.Time) (Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credential{}, ErrEmptyToken
	}
	cred := Credential{Token: token, SavedAt: now.UTC()}
	if claims, err := Inspect(token); err == nil {
		cred.Email = claims.Email
		if claims.ExpiresAt != nil {
			cred.ExpiresAt = claims.ExpiresAt.UTC()
		}
	}
	if cred.Expired(now) {
		return Credential{}, ErrTokenExpired
	}
	return cred, nil
}

// Redact shortens token for logs: the last four characters and the length.
func Redact(token string) string {
	if len(token) <= 8 {
		return "[redacted]"
	}
	return fmt.Sprintf("…%s (%d chars)", token[len(token)-4:], len(token))
}
