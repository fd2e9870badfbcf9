// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package feedapi

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/feedvault/internal/feedfaults"
	"github.com/tomtom215/feedvault/internal/logging"
	"github.com/tomtom215/feedvault/internal/metadata"
)

// packageView is the wire shape of a package record: the cache's Record
// minus its storage-internal FullPath, plus nothing else. A dedicated
// view type keeps the filesystem layout out of the HTTP contract even
// though today the fields happen to match one-for-one.
type packageView struct {
	ID                       string `json:"id"`
	Version                  string `json:"version"`
	NormalizedVersion        string `json:"normalizedVersion"`
	Title                    string `json:"title,omitempty"`
	Authors                  string `json:"authors,omitempty"`
	Owners                   string `json:"owners,omitempty"`
	IconURL                  string `json:"iconUrl,omitempty"`
	LicenseURL               string `json:"licenseUrl,omitempty"`
	ProjectURL               string `json:"projectUrl,omitempty"`
	Description              string `json:"description,omitempty"`
	Summary                  string `json:"summary,omitempty"`
	ReleaseNotes             string `json:"releaseNotes,omitempty"`
	Tags                     string `json:"tags,omitempty"`
	Copyright                string `json:"copyright,omitempty"`
	RequireLicenseAcceptance bool   `json:"requireLicenseAcceptance"`
	DevelopmentDependency    bool   `json:"developmentDependency"`
	Listed                   bool   `json:"listed"`
	DownloadCount            int64  `json:"downloadCount"`
	PackageSize              int64  `json:"packageSize"`
	PackageHash              string `json:"packageHash,omitempty"`
	PackageHashAlgorithm     string `json:"packageHashAlgorithm,omitempty"`
	Published                string `json:"published"`
	Dependencies             string `json:"dependencies,omitempty"`
	SupportedFrameworks      string `json:"supportedFrameworks,omitempty"`
	SemVer1IsLatest          bool   `json:"semVer1IsLatest"`
	SemVer1IsAbsoluteLatest  bool   `json:"semVer1IsAbsoluteLatest"`
	SemVer2IsLatest          bool   `json:"semVer2IsLatest"`
	SemVer2IsAbsoluteLatest  bool   `json:"semVer2IsAbsoluteLatest"`
}

func toView(r *metadata.Record) packageView {
	return packageView{
		ID:                       r.ID,
		Version:                  r.VersionFull,
		NormalizedVersion:        r.VersionNormalized,
		Title:                    r.Title,
		Authors:                  r.Authors,
		Owners:                   r.Owners,
		IconURL:                  r.IconURL,
		LicenseURL:               r.LicenseURL,
		ProjectURL:               r.ProjectURL,
		Description:              r.Description,
		Summary:                  r.Summary,
		ReleaseNotes:             r.ReleaseNotes,
		Tags:                     r.Tags,
		Copyright:                r.Copyright,
		RequireLicenseAcceptance: r.RequireLicenseAcceptance,
		DevelopmentDependency:    r.DevelopmentDependency,
		Listed:                   r.Listed,
		DownloadCount:            r.DownloadCount,
		PackageSize:              r.PackageSize,
		PackageHash:              r.PackageHash,
		PackageHashAlgorithm:     r.PackageHashAlgorithm,
		Published:                r.Published.UTC().Format("2006-01-02T15:04:05Z"),
		Dependencies:             r.DependenciesFlat,
		SupportedFrameworks:      r.SupportedFrameworksFlat,
		SemVer1IsLatest:          r.SemVer1IsLatest,
		SemVer1IsAbsoluteLatest:  r.SemVer1IsAbsoluteLatest,
		SemVer2IsLatest:          r.SemVer2IsLatest,
		SemVer2IsAbsoluteLatest:  r.SemVer2IsAbsoluteLatest,
	}
}

func toViews(records []*metadata.Record) []packageView {
	out := make([]packageView, 0, len(records))
	for _, r := range records {
		out = append(out, toView(r))
	}
	return out
}

// errorBody is the envelope every non-2xx response carries, matching the
// teacher's status/error/metadata convention at a reduced field set (this
// feed has no "data" payload worth echoing back on an error path).
type errorBody struct {
	Status string `json:"status"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if err := enc.Encode(body); err != nil {
		logging.Warn().Err(err).Msg("feedapi: failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	var body errorBody
	body.Status = "error"
	body.Error.Message = message
	writeJSON(w, status, body)
}

// writeRepositoryError maps a repository/query error to an HTTP status via
// errors.Is against the feedfaults sentinel taxonomy, defaulting to 500
// for anything unrecognized.
func writeRepositoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, feedfaults.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, feedfaults.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, feedfaults.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, feedfaults.ErrShutdown):
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		logging.Error().Err(err).Msg("feedapi: unhandled repository error")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
