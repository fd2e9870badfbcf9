// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/feedvault/internal/metadata"
	"github.com/tomtom215/feedvault/internal/version"
)

func rec(id, v string, listed bool, tags, frameworks string) *metadata.Record {
	parsed := version.MustParse(v)
	return &metadata.Record{
		ID:                      id,
		VersionFull:             parsed.Full(),
		VersionNormalized:       parsed.Normalized(),
		Listed:                  listed,
		Tags:                    tags,
		SupportedFrameworksFlat: frameworks,
		IsSemVer2Flag:           parsed.IsSemVer2(),
	}
}

func TestFindPackagesByIdCaseInsensitive(t *testing.T) {
	records := []*metadata.Record{rec("Pkg.A", "1.0.0", true, "", ""), rec("Pkg.B", "1.0.0", true, "", "")}
	got := FindPackagesById(records, "pkg.a")
	require.Len(t, got, 1)
	assert.Equal(t, "Pkg.A", got[0].ID)
}

func TestFindPackageMatchesNormalizedVersion(t *testing.T) {
	records := []*metadata.Record{rec("Pkg.A", "1.0.0.0", true, "", "")}
	got, ok := FindPackage(records, "Pkg.A", version.MustParse("1.0.0"))
	require.True(t, ok)
	assert.Equal(t, "1.0.0", got.VersionNormalized)
}

func TestSearchEmptyTermMatchesAll(t *testing.T) {
	records := []*metadata.Record{rec("A", "1.0.0", true, "", ""), rec("B", "1.0.0", true, "", "")}
	got := Search(records, "", nil, true, SearchOptions{})
	assert.Len(t, got, 2)
}

func TestSearchTokenMustMatchAllTerms(t *testing.T) {
	records := []*metadata.Record{
		rec("Logging.Json", "1.0.0", true, "logging json", ""),
		rec("Logging.Xml", "1.0.0", true, "logging xml", ""),
	}
	got := Search(records, "logging json", nil, true, SearchOptions{})
	require.Len(t, got, 1)
	assert.Equal(t, "Logging.Json", got[0].ID)
}

func TestSearchExcludesPrereleaseUnlessAllowed(t *testing.T) {
	records := []*metadata.Record{rec("A", "2.0.0-beta", true, "", "")}
	assert.Empty(t, Search(records, "", nil, false, SearchOptions{}))
	assert.Len(t, Search(records, "", nil, true, SearchOptions{}), 1)
}

func TestSearchExcludesDelistedWhenEnabled(t *testing.T) {
	records := []*metadata.Record{rec("A", "1.0.0", false, "", "")}
	assert.Len(t, Search(records, "", nil, true, SearchOptions{}), 1, "delisting disabled shows unlisted too")
	assert.Empty(t, Search(records, "", nil, true, SearchOptions{EnableDelisting: true}))
}

func TestSearchFrameworkFilteringRequiresMatch(t *testing.T) {
	records := []*metadata.Record{rec("A", "1.0.0", true, "", "net6.0")}
	opts := SearchOptions{EnableFrameworkFiltering: true}
	assert.Empty(t, Search(records, "", []string{"net472"}, true, opts))
	assert.Len(t, Search(records, "", []string{"net6.0"}, true, opts), 1)
}

func TestCollapseByIdKeepsHighestVersion(t *testing.T) {
	records := []*metadata.Record{rec("A", "1.0.0", true, "", ""), rec("A", "2.0.0", true, "", ""), rec("B", "1.0.0", true, "", "")}
	got := CollapseById(records)
	require.Len(t, got, 2)
	for _, r := range got {
		if r.ID == "A" {
			assert.Equal(t, "2.0.0", r.VersionNormalized)
		}
	}
}

func TestGetUpdatesReturnsOnlyHigherListedVersions(t *testing.T) {
	records := []*metadata.Record{
		rec("A", "1.0.0", true, "", ""),
		rec("A", "1.1.0", true, "", ""),
		rec("A", "0.9.0", true, "", ""),
		rec("A", "2.0.0", false, "", ""),
	}
	got, err := GetUpdates(records, []string{"A"}, []version.Version{version.MustParse("1.0.0")}, nil, false, true, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1.1.0", got[0].VersionNormalized)
}

func TestGetUpdatesCollapsesWhenIncludeAllVersionsFalse(t *testing.T) {
	records := []*metadata.Record{
		rec("A", "1.1.0", true, "", ""),
		rec("A", "1.2.0", true, "", ""),
	}
	got, err := GetUpdates(records, []string{"A"}, []version.Version{version.MustParse("1.0.0")}, nil, false, false, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1.2.0", got[0].VersionNormalized)
}

func TestGetUpdatesRespectsVersionConstraint(t *testing.T) {
	records := []*metadata.Record{
		rec("A", "1.1.0", true, "", ""),
		rec("A", "1.5.0", true, "", ""),
	}
	got, err := GetUpdates(records, []string{"A"}, []version.Version{version.MustParse("1.0.0")}, []string{"(,1.2.0]"}, false, true, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1.1.0", got[0].VersionNormalized)
}

func TestGetUpdatesRejectsMismatchedLengths(t *testing.T) {
	_, err := GetUpdates(nil, []string{"A", "B"}, []version.Version{version.MustParse("1.0.0")}, nil, false, true, nil)
	require.Error(t, err)
}

func TestApplyCompatExcludesSemVer2WhenNotAllowed(t *testing.T) {
	records := []*metadata.Record{rec("A", "1.0.0", true, "", ""), rec("B", "1.0.0-beta.1", true, "", "")}
	got := ApplyCompat(records, metadata.DefaultCompat)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].ID)

	gotMax := ApplyCompat(records, metadata.MaxCompat)
	assert.Len(t, gotMax, 2)
}
