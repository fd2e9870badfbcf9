// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package feedapi is the HTTP surface named but not specified by the
// storage engine's own contract: push, remove, list, search, and
// update-check, each a thin adapter from net/http onto
// internal/repository. Grounded on the teacher's Chi-based router
// (internal/api/chi_router.go, chi_middleware.go) and Swaggo doc
// annotations (cmd/server/docs.go), generalized from the teacher's
// media-analytics routes to this feed's package operations.
package feedapi

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/feedvault/internal/metadata"
	"github.com/tomtom215/feedvault/internal/nupkg"
	"github.com/tomtom215/feedvault/internal/repository"
	"github.com/tomtom215/feedvault/internal/version"
)

// maxPushBodyBytes bounds an in-memory push body. A feed accepting
// larger archives should front this with a streaming upload path; out of
// scope here since the store itself buffers a full archive in memory to
// hash it (internal/nupkg.Hash).
const maxPushBodyBytes = 512 << 20 // 512 MiB

// Handler adapts internal/repository.Repository to net/http.
type Handler struct {
	repo *repository.Repository
}

// NewHandler builds a Handler around repo.
func NewHandler(repo *repository.Repository) *Handler {
	return &Handler{repo: repo}
}

func compatFromRequest(r *http.Request) metadata.Compatibility {
	return metadata.CompatibilityFromLevel(r.URL.Query().Get("semVerLevel"))
}

// PushPackage godoc
//
//	@Summary		Push a package
//	@Description	Uploads a .nupkg archive, either as a raw request body or as a multipart/form-data field named "package".
//	@Tags			packages
//	@Accept			octet-stream
//	@Produce		json
//	@Param			X-NuGet-ApiKey	header	string	false	"Push API key"
//	@Success		201	{object}	packageView
//	@Failure		400	{object}	errorBody
//	@Failure		401	{object}	errorBody
//	@Router			/packages [put]
func (h *Handler) PushPackage(w http.ResponseWriter, r *http.Request) {
	data, err := readPushBody(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "could not read package body: "+err.Error())
		return
	}

	archive, err := nupkg.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "not a valid package archive: "+err.Error())
		return
	}

	rec, err := h.repo.AddPackage(r.Context(), archive, bytes.NewReader(data))
	if err != nil {
		writeRepositoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toView(rec))
}

func readPushBody(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxPushBodyBytes)
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxPushBodyBytes); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("package")
		if err != nil {
			return nil, err
		}
		defer file.Close() //nolint:errcheck // read-only upload handle
		return io.ReadAll(file)
	}
	defer r.Body.Close() //nolint:errcheck // read-only request body
	return io.ReadAll(r.Body)
}

// RemovePackage godoc
//
//	@Summary		Remove or unlist a package
//	@Tags			packages
//	@Produce		json
//	@Param			id		path	string	true	"Package ID"
//	@Param			version	path	string	true	"Package version"
//	@Success		204
//	@Failure		401	{object}	errorBody
//	@Router			/packages/{id}/{version} [delete]
func (h *Handler) RemovePackage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := version.Parse(chi.URLParam(r, "version"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid version: "+err.Error())
		return
	}
	if err := h.repo.RemovePackage(r.Context(), id, v); err != nil {
		writeRepositoryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPackages godoc
//
//	@Summary		List every package record
//	@Tags			packages
//	@Produce		json
//	@Param			semVerLevel	query	string	false	"Client SemVer compatibility level"
//	@Success		200	{array}	packageView
//	@Router			/packages [get]
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.GetPackages(r.Context(), compatFromRequest(r))
	if err != nil {
		writeRepositoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toViews(records))
}

// FindPackagesById godoc
//
//	@Summary		List every version of a package ID
//	@Tags			packages
//	@Produce		json
//	@Param			id	path	string	true	"Package ID"
//	@Success		200	{array}	packageView
//	@Router			/packages/{id} [get]
func (h *Handler) FindPackagesById(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	records, err := h.repo.FindPackagesById(r.Context(), id, compatFromRequest(r))
	if err != nil {
		writeRepositoryError(w, r, err)
		return
	}
	if len(records) == 0 {
		writeError(w, r, http.StatusNotFound, "no package found for id "+id)
		return
	}
	writeJSON(w, http.StatusOK, toViews(records))
}

// Search godoc
//
//	@Summary		Search packages
//	@Tags			packages
//	@Produce		json
//	@Param			q					query	string	false	"Search term"
//	@Param			targetFramework		query	string	false	"Comma-separated target framework monikers"
//	@Param			prerelease			query	bool	false	"Include prerelease versions"
//	@Param			semVerLevel			query	string	false	"Client SemVer compatibility level"
//	@Success		200	{array}	packageView
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := q.Get("q")
	allowPrerelease, _ := strconv.ParseBool(q.Get("prerelease"))
	var frameworks []string
	if tf := q.Get("targetFramework"); tf != "" {
		frameworks = strings.Split(tf, ",")
	}

	records, err := h.repo.Search(r.Context(), term, frameworks, allowPrerelease, compatFromRequest(r))
	if err != nil {
		writeRepositoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toViews(records))
}

// GetUpdates godoc
//
//	@Summary		Check for updates to a set of installed packages
//	@Tags			packages
//	@Produce		json
//	@Param			id					query	[]string	true	"Installed package IDs"
//	@Param			version				query	[]string	true	"Installed package versions, aligned with id"
//	@Param			versionConstraint	query	[]string	false	"Optional version range per id"
//	@Param			includePrerelease	query	bool		false	"Include prerelease candidates"
//	@Param			includeAllVersions	query	bool		false	"Return every matching version instead of just the highest"
//	@Param			targetFramework		query	string		false	"Comma-separated target framework monikers"
//	@Param			semVerLevel			query	string		false	"Client SemVer compatibility level"
//	@Success		200	{array}	packageView
//	@Failure		400	{object}	errorBody
//	@Router			/packages/updates [get]
func (h *Handler) GetUpdates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	names := q["id"]
	versionStrs := q["version"]
	if len(names) != len(versionStrs) {
		writeError(w, r, http.StatusBadRequest, "id and version query parameters must repeat in equal counts")
		return
	}

	currentVersions := make([]version.Version, 0, len(versionStrs))
	for _, vs := range versionStrs {
		v, err := version.Parse(vs)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid version "+vs+": "+err.Error())
			return
		}
		currentVersions = append(currentVersions, v)
	}

	var constraints []string
	if c, ok := q["versionConstraint"]; ok {
		constraints = c
	}

	includePrerelease, _ := strconv.ParseBool(q.Get("includePrerelease"))
	includeAllVersions, _ := strconv.ParseBool(q.Get("includeAllVersions"))
	var frameworks []string
	if tf := q.Get("targetFramework"); tf != "" {
		frameworks = strings.Split(tf, ",")
	}

	records, err := h.repo.GetUpdates(r.Context(), names, currentVersions, constraints, includePrerelease, includeAllVersions, frameworks, compatFromRequest(r))
	if err != nil {
		writeRepositoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toViews(records))
}
