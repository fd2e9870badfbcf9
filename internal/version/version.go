// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package version implements the package feed's semantic version type:
// four numeric segments, an optional dot-separated pre-release label, and
// an optional build-metadata tag. Two versions compare equal iff their
// normalized strings compare equal, where normalization drops build
// metadata and a trailing zero fourth segment.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVersion is returned by Parse when the input cannot be read as a
// four-segment semantic version.
var ErrInvalidVersion = errors.New("version: invalid format")

// Version is a four-segment semantic version, e.g. 1.2.3.4-beta.1+sha.abc123.
//
// The zero value is not a valid Version; always construct one via Parse.
type Version struct {
	original   string
	major      int
	minor      int
	patch      int
	revision   int
	release    []string // dot-separated pre-release identifiers, nil if none
	metadata   string   // build metadata after '+', "" if none
	hasFourth  bool     // true if the input carried an explicit 4th segment
}

// Parse reads a version string of the form
//
//	major.minor[.patch[.revision]][-release.labels][+build.metadata]
//
// Missing patch/revision segments default to zero. Parse is tolerant of a
// three-segment (standard semver) or two-segment input, which is common for
// manifest-declared dependency ranges.
func Parse(s string) (Version, error) {
	original := s
	if s == "" {
		return Version{}, fmt.Errorf("%w: empty string", ErrInvalidVersion)
	}

	metadata := ""
	if i := strings.IndexByte(s, '+'); i >= 0 {
		metadata = s[i+1:]
		s = s[:i]
	}

	var release []string
	if i := strings.IndexByte(s, '-'); i >= 0 {
		release = strings.Split(s[i+1:], ".")
		s = s[:i]
	}

	segments := strings.Split(s, ".")
	if len(segments) < 2 || len(segments) > 4 {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, original)
	}

	nums := make([]int, 4)
	for i, seg := range segments {
		n, err := strconv.Atoi(seg)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("%w: %q: segment %q is not a non-negative integer", ErrInvalidVersion, original, seg)
		}
		nums[i] = n
	}

	return Version{
		original:  original,
		major:     nums[0],
		minor:     nums[1],
		patch:     nums[2],
		revision:  nums[3],
		release:   release,
		metadata:  metadata,
		hasFourth: len(segments) == 4,
	}, nil
}

// MustParse parses s and panics on error. Intended for constants in tests
// and fixtures, never for untrusted input.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Original returns the exact string Parse was given.
func (v Version) Original() string { return v.original }

// Major returns the first numeric segment.
func (v Version) Major() int { return v.major }

// IsPrerelease reports whether the version carries a dot-separated
// pre-release label (the part after '-').
func (v Version) IsPrerelease() bool { return len(v.release) > 0 }

// HasMetadata reports whether the version carries build metadata (the part
// after '+').
func (v Version) HasMetadata() bool { return v.metadata != "" }

// IsSemVer2 reports whether this version by itself requires SemVer2-aware
// clients: a dot-separated pre-release label, or build metadata.
func (v Version) IsSemVer2() bool {
	if v.HasMetadata() {
		return true
	}
	if len(v.release) > 1 {
		return true
	}
	return false
}

// Full renders major.minor.patch.revision-release+metadata with all four
// numeric segments always present.
func (v Version) Full() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d.%d", v.major, v.minor, v.patch, v.revision)
	if len(v.release) > 0 {
		b.WriteByte('-')
		b.WriteString(strings.Join(v.release, "."))
	}
	if v.metadata != "" {
		b.WriteByte('+')
		b.WriteString(v.metadata)
	}
	return b.String()
}

// Normalized renders the canonical comparison key: build metadata is
// dropped, and the fourth segment is dropped when it is zero.
func (v Version) Normalized() string {
	var b strings.Builder
	if v.revision == 0 {
		fmt.Fprintf(&b, "%d.%d.%d", v.major, v.minor, v.patch)
	} else {
		fmt.Fprintf(&b, "%d.%d.%d.%d", v.major, v.minor, v.patch, v.revision)
	}
	if len(v.release) > 0 {
		b.WriteByte('-')
		b.WriteString(strings.Join(v.release, "."))
	}
	return b.String()
}

// String implements fmt.Stringer, returning the normalized form.
func (v Version) String() string { return v.Normalized() }

// Equal reports whether two versions share the same normalized form.
func (v Version) Equal(other Version) bool {
	return v.Normalized() == other.Normalized()
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other, following semantic-version precedence: numeric segments first,
// then pre-release (a version without a pre-release label outranks one
// with), then lexicographic/numeric comparison of release identifiers.
// Build metadata never participates in comparison.
func (v Version) Compare(other Version) int {
	if c := compareInt(v.major, other.major); c != 0 {
		return c
	}
	if c := compareInt(v.minor, other.minor); c != 0 {
		return c
	}
	if c := compareInt(v.patch, other.patch); c != 0 {
		return c
	}
	if c := compareInt(v.revision, other.revision); c != 0 {
		return c
	}
	return compareRelease(v.release, other.release)
}

// LessThan reports whether v precedes other.
func (v Version) LessThan(other Version) bool { return v.Compare(other) < 0 }

// GreaterThan reports whether v follows other.
func (v Version) GreaterThan(other Version) bool { return v.Compare(other) > 0 }

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareRelease implements semver precedence 11 from semver.org, extended
// to a dot-separated identifier list: no pre-release outranks any
// pre-release; identifiers compare numerically if both are numeric,
// otherwise lexicographically; a release that is a proper prefix of the
// other is smaller.
func compareRelease(a, b []string) int {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) == 0 {
		return 1
	}
	if len(b) == 0 {
		return -1
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareIdentifier(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(a), len(b))
}

func compareIdentifier(a, b string) int {
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		return compareInt(an, bn)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
