// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package version

import "strings"

// Identity is a (Id, Version) pair. Id comparison is ASCII case-insensitive;
// Version comparison is on the normalized string.
type Identity struct {
	ID      string
	Version Version
}

// Key returns the case-insensitive, normalized-version key used by the
// metadata cache and expanded store to index records. It is not meant for
// display.
func (i Identity) Key() string {
	return strings.ToLower(i.ID) + "@" + i.Version.Normalized()
}

// EqualID reports whether two ids are the same under ASCII case-insensitive
// comparison.
func EqualID(a, b string) bool {
	return strings.EqualFold(a, b)
}

// LowerID returns the case-folded id used as a cache/store bucket key.
func LowerID(id string) string {
	return strings.ToLower(id)
}
