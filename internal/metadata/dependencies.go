// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package metadata

import "strings"

// Dependency is one entry of a package's flattened dependency set: a
// required id, an optional version range spec, and the target framework
// group it belongs to. An empty Id denotes a framework group carrying no
// dependencies; an empty VersionSpec denotes "any version".
type Dependency struct {
	ID              string
	VersionSpec     string
	TargetFramework string
}

const (
	dependencyFieldSep = ":"
	dependencyListSep  = "|"
)

// FlattenDependencies renders deps into the stable on-wire
// "id:versionSpec:targetFramework|..." format stored in
// Record.DependenciesFlat.
func FlattenDependencies(deps []Dependency) string {
	if len(deps) == 0 {
		return ""
	}
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = d.ID + dependencyFieldSep + d.VersionSpec + dependencyFieldSep + d.TargetFramework
	}
	return strings.Join(parts, dependencyListSep)
}

// ParseDependencies reverses FlattenDependencies. It tolerates the
// empty-middle case ("id::framework") and an empty input (no dependencies).
func ParseDependencies(flat string) []Dependency {
	if flat == "" {
		return nil
	}
	entries := strings.Split(flat, dependencyListSep)
	deps := make([]Dependency, 0, len(entries))
	for _, entry := range entries {
		fields := strings.SplitN(entry, dependencyFieldSep, 3)
		d := Dependency{}
		if len(fields) > 0 {
			d.ID = fields[0]
		}
		if len(fields) > 1 {
			d.VersionSpec = fields[1]
		}
		if len(fields) > 2 {
			d.TargetFramework = fields[2]
		}
		deps = append(deps, d)
	}
	return deps
}

// DependenciesReferenceSemVer2 reports whether any dependency's version
// range references a pre-release label or build metadata, which makes the
// owning record SemVer2 even if its own version does not. The check is
// textual and the same for every range grammar: a '+' or '-' anywhere in a
// dependency's version spec counts, so "[1.2.3-beta,)" and "1.2.3-beta" are
// SemVer2 here while "1.2.3" and "[1.0,2.0)" are not. The range itself is
// not parsed.
func DependenciesReferenceSemVer2(flat string) bool {
	for _, d := range ParseDependencies(flat) {
		if versionSpecHasSemVer2Trait(d.VersionSpec) {
			return true
		}
	}
	return false
}

func versionSpecHasSemVer2Trait(spec string) bool {
	if spec == "" {
		return false
	}
	return strings.ContainsAny(spec, "+") || strings.Contains(spec, "-")
}

// FlattenFrameworks renders a list of supported target framework monikers
// into the stable comma-joined on-wire format stored in
// Record.SupportedFrameworksFlat.
func FlattenFrameworks(frameworks []string) string {
	return strings.Join(frameworks, ",")
}

// ParseFrameworks reverses FlattenFrameworks.
func ParseFrameworks(flat string) []string {
	if flat == "" {
		return nil
	}
	parts := strings.Split(flat, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
