// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package query implements the read-only operations the repository runs
// against a point-in-time cache snapshot: id/version lookups, the search
// predicate, the update-check algorithm, and latest-version collapsing.
// Nothing here touches the cache or the store directly; every function
// takes a []*metadata.Record snapshot so it composes cleanly with
// MetadataCache.GetAll() and with the client-compatibility filter.
package query

import (
	"strings"

	"github.com/tomtom215/feedvault/internal/feedfaults"
	"github.com/tomtom215/feedvault/internal/metadata"
	"github.com/tomtom215/feedvault/internal/version"
)

// ApplyCompat drops every SemVer2 record from records when compat does not
// admit SemVer2 packages into the query domain. Every other query helper
// in this package expects to run on a snapshot already passed through
// this filter.
func ApplyCompat(records []*metadata.Record, compat metadata.Compatibility) []*metadata.Record {
	if compat.AllowSemVer2() {
		return records
	}
	out := make([]*metadata.Record, 0, len(records))
	for _, r := range records {
		if !r.IsSemVer2Flag {
			out = append(out, r)
		}
	}
	return out
}

// FindPackagesById returns every record matching id, case-insensitively.
func FindPackagesById(records []*metadata.Record, id string) []*metadata.Record {
	lower := version.LowerID(id)
	var out []*metadata.Record
	for _, r := range records {
		if version.LowerID(r.ID) == lower {
			out = append(out, r)
		}
	}
	return out
}

// FindPackage returns the record matching id and v's normalized version,
// if present.
func FindPackage(records []*metadata.Record, id string, v version.Version) (*metadata.Record, bool) {
	lower := version.LowerID(id)
	normVersion := v.Normalized()
	for _, r := range records {
		if version.LowerID(r.ID) == lower && r.VersionNormalized == normVersion {
			return r, true
		}
	}
	return nil, false
}

// Exists reports whether id/v is present in records.
func Exists(records []*metadata.Record, id string, v version.Version) bool {
	_, ok := FindPackage(records, id, v)
	return ok
}

// SearchOptions carries the two feature flags Search's post-filter
// consults; both default to off, matching the repository's configuration
// defaults.
type SearchOptions struct {
	EnableDelisting          bool
	EnableFrameworkFiltering bool
}

// Search tokenizes term on whitespace and keeps records where every token
// case-insensitively substring-matches id, tags, description, or authors.
// An empty term matches everything. The result is then filtered by
// allowPrerelease, listed state (when EnableDelisting), and target
// framework compatibility (when EnableFrameworkFiltering and
// targetFrameworks is nonempty).
func Search(records []*metadata.Record, term string, targetFrameworks []string, allowPrerelease bool, opts SearchOptions) []*metadata.Record {
	tokens := strings.Fields(strings.ToLower(term))

	var out []*metadata.Record
	for _, r := range records {
		if !matchesTokens(r, tokens) {
			continue
		}
		if !allowPrerelease {
			if v, err := version.Parse(r.VersionFull); err == nil && v.IsPrerelease() {
				continue
			}
		}
		if opts.EnableDelisting && !r.Listed {
			continue
		}
		if opts.EnableFrameworkFiltering && len(targetFrameworks) > 0 {
			declared := metadata.ParseFrameworks(r.SupportedFrameworksFlat)
			if !frameworksCompatible(declared, targetFrameworks) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func matchesTokens(r *metadata.Record, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{r.ID, r.Tags, r.Description, r.Authors}, " "))
	for _, tok := range tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}

// frameworksCompatible reports whether a record declaring no supported
// frameworks (unrestricted) or at least one framework exactly matching a
// requested target is usable by that target. This is deliberately the
// simple case of TFM compatibility (exact moniker match), not the full
// NuGet framework-compatibility graph, which is out of scope for a
// storage-layer filter.
func frameworksCompatible(declared, targets []string) bool {
	if len(declared) == 0 {
		return true
	}
	declaredSet := make(map[string]struct{}, len(declared))
	for _, d := range declared {
		declaredSet[strings.ToLower(d)] = struct{}{}
	}
	for _, t := range targets {
		if _, ok := declaredSet[strings.ToLower(t)]; ok {
			return true
		}
	}
	return false
}

// CollapseById reduces records to one per case-insensitive id: the
// highest version under semver ordering wins.
func CollapseById(records []*metadata.Record) []*metadata.Record {
	winners := make(map[string]*metadata.Record)
	winnerVersions := make(map[string]version.Version)
	for _, r := range records {
		v, err := version.Parse(r.VersionFull)
		if err != nil {
			continue
		}
		lower := version.LowerID(r.ID)
		if _, ok := winners[lower]; !ok || v.GreaterThan(winnerVersions[lower]) {
			winners[lower] = r
			winnerVersions[lower] = v
		}
	}
	out := make([]*metadata.Record, 0, len(winners))
	for _, r := range winners {
		out = append(out, r)
	}
	return out
}

// GetUpdates implements the update-check algorithm: for each (names[i],
// currentVersions[i]) pair, with the matching optional versionConstraints[i],
// it collects every listed record sharing the id with a strictly higher
// version than currentVersions[i], satisfying the constraint (if any) and
// a target framework (if targetFrameworks is nonempty and a declared
// framework is present). When includeAllVersions is false the result is
// collapsed to the highest matching version per id.
//
// names and versionConstraints must agree in length; a mismatch is an
// InvalidInput error, per the source contract.
func GetUpdates(
	records []*metadata.Record,
	names []string,
	currentVersions []version.Version,
	versionConstraints []string,
	includePrerelease bool,
	includeAllVersions bool,
	targetFrameworks []string,
) ([]*metadata.Record, error) {
	if len(names) != len(currentVersions) {
		return nil, feedfaults.Invalid("query: names and currentVersions must have the same length")
	}
	if versionConstraints != nil && len(versionConstraints) != len(names) {
		return nil, feedfaults.Invalid("query: versionConstraints must have the same length as names, when provided")
	}

	var matched []*metadata.Record
	for i, name := range names {
		var constraint version.Range
		if versionConstraints != nil && versionConstraints[i] != "" {
			c, err := version.ParseRange(versionConstraints[i])
			if err != nil {
				return nil, feedfaults.Invalid("query: invalid version constraint for " + name + ": " + err.Error())
			}
			constraint = c
		}

		candidates := FindPackagesById(records, name)
		var best []*metadata.Record
		for _, r := range candidates {
			if !r.Listed {
				continue
			}
			v, err := version.Parse(r.VersionFull)
			if err != nil {
				continue
			}
			if !v.GreaterThan(currentVersions[i]) {
				continue
			}
			if !includePrerelease && v.IsPrerelease() {
				continue
			}
			if !constraint.Satisfies(v) {
				continue
			}
			if len(targetFrameworks) > 0 {
				declared := metadata.ParseFrameworks(r.SupportedFrameworksFlat)
				if !frameworksCompatible(declared, targetFrameworks) {
					continue
				}
			}
			best = append(best, r)
		}
		matched = append(matched, best...)
	}

	if includeAllVersions {
		return matched, nil
	}
	return CollapseById(matched), nil
}
