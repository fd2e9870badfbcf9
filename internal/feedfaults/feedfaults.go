// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package feedfaults gives the repository's error returns a small, typed
// taxonomy so HTTP handlers can map them to status codes with errors.Is
// instead of matching error strings.
package feedfaults

import "errors"

var (
	// ErrInvalidInput covers a push rejected by an admissibility rule
	// (duplicate identity with overwrite disabled, a symbols package with
	// ignoreSymbolsPackages set) and malformed query arguments (mismatched
	// GetUpdates name/constraint lengths).
	ErrInvalidInput = errors.New("feedvault: invalid input")

	// ErrNotFound marks a lookup that found nothing. FindPackage callers
	// that want a bare (record, ok) result don't need this; it exists for
	// callers one layer up (the HTTP surface) that want a typed 404.
	ErrNotFound = errors.New("feedvault: package not found")

	// ErrConflict marks a collision with existing state. The HTTP layer
	// maps it to 409; no repository operation returns it (a duplicate push
	// with overwrite disabled is ErrInvalidInput).
	ErrConflict = errors.New("feedvault: conflict")

	// ErrShutdown is returned by repository operations invoked after
	// Dispose.
	ErrShutdown = errors.New("feedvault: repository is shut down")
)

// Invalid wraps err with ErrInvalidInput so callers can both log a
// descriptive message and errors.Is(err, ErrInvalidInput).
func Invalid(msg string) error {
	return &fault{msg: msg, sentinel: ErrInvalidInput}
}

// Conflict wraps msg with ErrConflict.
func Conflict(msg string) error {
	return &fault{msg: msg, sentinel: ErrConflict}
}

type fault struct {
	msg      string
	sentinel error
}

func (f *fault) Error() string { return f.msg }
func (f *fault) Unwrap() error { return f.sentinel }
