// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package metadata

import "github.com/tomtom215/feedvault/internal/version"

// Compatibility carries the declared client semver level used to gate
// query results. AllowSemVer2 is true iff SemVerLevel.Major >= 2.
type Compatibility struct {
	SemVerLevel version.Version
}

// DefaultCompat is the SemVer1-only client level (1.0.0).
var DefaultCompat = Compatibility{SemVerLevel: version.MustParse("1.0.0")}

// MaxCompat is the SemVer2-aware client level (2.0.0).
var MaxCompat = Compatibility{SemVerLevel: version.MustParse("2.0.0")}

// AllowSemVer2 reports whether this compatibility level admits SemVer2
// packages into the query domain.
func (c Compatibility) AllowSemVer2() bool {
	return c.SemVerLevel.Major() >= 2
}

// CompatibilityFromLevel parses a declared semver-level string into a
// Compatibility. An unparseable or empty level collapses to DefaultCompat,
// per spec.
func CompatibilityFromLevel(level string) Compatibility {
	if level == "" {
		return DefaultCompat
	}
	v, err := version.Parse(level)
	if err != nil {
		return DefaultCompat
	}
	return Compatibility{SemVerLevel: v}
}
