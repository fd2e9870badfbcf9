// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenAndParseDependenciesRoundTrip(t *testing.T) {
	deps := []Dependency{
		{ID: "Newtonsoft.Json", VersionSpec: "[9.0.1,)", TargetFramework: "net45"},
		{ID: "", VersionSpec: "", TargetFramework: "net6.0"},
	}
	flat := FlattenDependencies(deps)
	assert.Equal(t, "Newtonsoft.Json:[9.0.1,):net45|::net6.0", flat)

	parsed := ParseDependencies(flat)
	assert.Equal(t, deps, parsed)
}

func TestParseDependenciesEmptyMiddle(t *testing.T) {
	parsed := ParseDependencies("SomeId::net472")
	assert.Equal(t, []Dependency{{ID: "SomeId", VersionSpec: "", TargetFramework: "net472"}}, parsed)
}

func TestParseDependenciesEmptyInput(t *testing.T) {
	assert.Nil(t, ParseDependencies(""))
}

func TestFlattenAndParseFrameworksRoundTrip(t *testing.T) {
	fw := []string{"net45", "net6.0", "netstandard2.0"}
	flat := FlattenFrameworks(fw)
	assert.Equal(t, "net45,net6.0,netstandard2.0", flat)
	assert.Equal(t, fw, ParseFrameworks(flat))
}

func TestDependenciesReferenceSemVer2(t *testing.T) {
	assert.True(t, DependenciesReferenceSemVer2("Foo:1.2.3-beta:net6.0"))
	assert.False(t, DependenciesReferenceSemVer2("Foo:1.2.3:net6.0"))
	assert.False(t, DependenciesReferenceSemVer2(""))
}
