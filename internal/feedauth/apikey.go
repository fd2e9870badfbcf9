// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package feedauth authenticates push/remove requests against a single
// bcrypt-hashed API key, the same comparison idiom the teacher uses for
// password and personal-access-token checks, applied here to the
// NuGet-style X-NuGet-ApiKey push header instead of a login form.
package feedauth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrNoAPIKeyConfigured is returned by Authenticate when no hash was
// configured, meaning push/remove endpoints must reject every request
// rather than silently allow them.
var ErrNoAPIKeyConfigured = errors.New("feedauth: no API key configured")

// bcryptCost mirrors the teacher's production cost factor for credential
// hashing (internal/auth/pat.go).
const bcryptCost = 12

// HashAPIKey bcrypt-hashes a plaintext API key for storage in
// configuration. Run this once, offline, to produce the value that goes
// into the apiKeyHash config field.
func HashAPIKey(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// APIKeyAuthenticator compares a presented key against a single configured
// bcrypt hash.
type APIKeyAuthenticator struct {
	hash []byte
}

// NewAPIKeyAuthenticator wraps a bcrypt hash produced by HashAPIKey. An
// empty hash means push/remove endpoints are permanently closed.
func NewAPIKeyAuthenticator(hash string) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{hash: []byte(hash)}
}

// Authenticate reports whether presented matches the configured key.
func (a *APIKeyAuthenticator) Authenticate(presented string) (bool, error) {
	if len(a.hash) == 0 {
		return false, ErrNoAPIKeyConfigured
	}
	if presented == "" {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword(a.hash, []byte(presented))
	return err == nil, nil
}
