// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package feedauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrJWTNotConfigured is returned when a JWTManager is asked to operate
// with an empty secret.
var ErrJWTNotConfigured = errors.New("feedauth: no JWT secret configured")

// PushClaims is the claim set carried by a push-scoped bearer token: just
// enough to identify the caller for audit logging. Unlike the teacher's
// session claims this carries no role, since every bearer token that
// passes ValidateToken is equally authorized to push/remove.
type PushClaims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates HS256 bearer tokens as an alternative to
// the static API key, for deployments that front the feed with an
// identity provider instead of a single shared secret. Grounded on the
// teacher's internal/auth JWTManager; adapted to a single push-scope
// claim instead of a username/role session pair, since there is no login
// flow here to populate those fields from.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager builds a manager around secret (at least 32 bytes,
// matching the teacher's production requirement) and a token lifetime.
func NewJWTManager(secret string, timeout time.Duration) (*JWTManager, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("feedauth: JWT secret must be at least 32 characters")
	}
	return &JWTManager{secret: []byte(secret), timeout: timeout}, nil
}

// IssueToken signs a bearer token identifying subject (an operator name
// or service account, for audit logging).
func (m *JWTManager) IssueToken(subject string) (string, error) {
	now := time.Now()
	claims := &PushClaims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and verifies tokenString, rejecting anything not
// signed with HMAC (blocking algorithm-confusion attacks the same way the
// teacher's ValidateToken does).
func (m *JWTManager) ValidateToken(tokenString string) (*PushClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PushClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("feedauth: unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("feedauth: parse token: %w", err)
	}
	claims, ok := token.Claims.(*PushClaims)
	if !ok || !token.Valid {
		return nil, errors.New("feedauth: invalid token claims")
	}
	return claims, nil
}
