// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package metadata defines the shape of a cached package record, its
// durable JSON snapshot, and the dependency-string flattening format used
// to keep that snapshot round-trippable without a nested schema.
package metadata

import (
	"time"

	"github.com/tomtom215/feedvault/internal/version"
)

// Record is the unit the metadata cache holds: one (id, version) package's
// manifest-derived fields, its on-disk storage details, and the latest-flag
// bits derived in bulk by the cache. Collection-valued manifest fields
// (dependencies, supported frameworks) are stored pre-flattened to strings
// per the on-wire format of FlattenDependencies/FlattenFrameworks, so the record
// round-trips through JSON without a nested schema.
type Record struct {
	// Manifest-derived.
	ID                       string `json:"id"`
	VersionFull              string `json:"version"`      // Version.Full(): all four segments, release, metadata
	VersionNormalized        string `json:"normalizedVersion"`
	Title                    string `json:"title,omitempty"`
	Authors                  string `json:"authors,omitempty"`
	Owners                   string `json:"owners,omitempty"`
	IconURL                  string `json:"iconUrl,omitempty"`
	LicenseURL               string `json:"licenseUrl,omitempty"`
	ProjectURL               string `json:"projectUrl,omitempty"`
	RequireLicenseAcceptance bool   `json:"requireLicenseAcceptance"`
	DevelopmentDependency    bool   `json:"developmentDependency"`
	Description              string `json:"description,omitempty"`
	Summary                  string `json:"summary,omitempty"`
	ReleaseNotes              string `json:"releaseNotes,omitempty"`
	Language                  string `json:"language,omitempty"`
	Tags                      string `json:"tags,omitempty"`
	Copyright                 string `json:"copyright,omitempty"`
	MinClientVersion          string `json:"minClientVersion,omitempty"`
	ReportAbuseURL            string `json:"reportAbuseUrl,omitempty"`
	DownloadCount             int64  `json:"downloadCount"`
	DependenciesFlat          string `json:"dependencies,omitempty"`
	SupportedFrameworksFlat   string `json:"supportedFrameworks,omitempty"`
	Published                 time.Time `json:"published"`
	Listed                    bool      `json:"listed"`

	// Storage-derived.
	PackageSize           int64     `json:"packageSize"`
	PackageHash           string    `json:"packageHash,omitempty"`
	PackageHashAlgorithm  string    `json:"packageHashAlgorithm,omitempty"`
	LastUpdated           time.Time `json:"lastUpdated"`
	Created               time.Time `json:"created"`
	FullPath              string    `json:"fullPath,omitempty"`

	// Computed flags. Never ground truth; recomputed by
	// feedcache's updateLatestFlagsLocked on every mutation and never trusted from a
	// loaded snapshot.
	SemVer1IsLatest         bool `json:"semVer1IsLatest"`
	SemVer1IsAbsoluteLatest bool `json:"semVer1IsAbsoluteLatest"`
	SemVer2IsLatest         bool `json:"semVer2IsLatest"`
	SemVer2IsAbsoluteLatest bool `json:"semVer2IsAbsoluteLatest"`
	IsSemVer2Flag           bool `json:"isSemVer2"`
}

// Identity returns the (id, version) pair this record is keyed on. Version
// is re-parsed from VersionFull; callers that already hold a parsed version
// should prefer carrying it alongside rather than calling this repeatedly
// in a hot loop.
func (r *Record) Identity() (version.Identity, error) {
	v, err := version.Parse(r.VersionFull)
	if err != nil {
		return version.Identity{}, err
	}
	return version.Identity{ID: r.ID, Version: v}, nil
}

// Key returns the case-insensitive id / normalized-version cache key.
func (r *Record) Key() string {
	return version.LowerID(r.ID) + "@" + r.VersionNormalized
}

// ClearLatestFlags resets all four derived latest-flag bits to false. Called
// by the cache before every UpdateLatestFlags pass so stale winners from a
// prior ranking never survive a recomputation.
func (r *Record) ClearLatestFlags() {
	r.SemVer1IsLatest = false
	r.SemVer1IsAbsoluteLatest = false
	r.SemVer2IsLatest = false
	r.SemVer2IsAbsoluteLatest = false
}
