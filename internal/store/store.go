// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package store implements the canonical on-disk package layout:
// {id}/{normVersion}/{id}.{normVersion}.nupkg with a hash sidecar
// alongside it. It is the durable ground truth the metadata cache is
// rebuilt from.
package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/feedvault/internal/fsx"
	"github.com/tomtom215/feedvault/internal/logging"
	"github.com/tomtom215/feedvault/internal/metadata"
	"github.com/tomtom215/feedvault/internal/nupkg"
	"github.com/tomtom215/feedvault/internal/version"
)

// hashSidecarExt is the suffix appended to a package's normalized identity
// to name its hash sidecar file.
const hashSidecarExt = ".nupkg.sha512"

// Store is the canonical on-disk package archive. All paths it produces
// are case-preserving; callers that need case-insensitive lookups match on
// version.LowerID themselves.
type Store struct {
	root string
	fs   fsx.FileSystem
}

// New returns a Store rooted at root, using fs for all filesystem access.
// Pass fsx.NewLocal() in production.
func New(root string, fs fsx.FileSystem) *Store {
	return &Store{root: root, fs: fs}
}

// Root returns the store's archive root directory.
func (s *Store) Root() string { return s.root }

// packageDir returns {root}/{id}/{normVersion}.
func (s *Store) packageDir(id, normVersion string) string {
	return filepath.Join(s.root, id, normVersion)
}

// ArchivePath returns the canonical path of a package's .nupkg file.
func (s *Store) ArchivePath(id, normVersion string) string {
	return filepath.Join(s.packageDir(id, normVersion), fmt.Sprintf("%s.%s.nupkg", id, normVersion))
}

// HashSidecarPath returns the canonical path of a package's hash sidecar.
func (s *Store) HashSidecarPath(id, normVersion string) string {
	return filepath.Join(s.packageDir(id, normVersion), id+"."+normVersion+hashSidecarExt)
}

// Exists reports whether a package identity has a canonical archive on
// disk, hidden (unlisted) or not. The version is normalized before the
// lookup; the id is used as given, so whether its case must match the
// on-disk directory name depends on the filesystem.
func (s *Store) Exists(id string, v version.Version) bool {
	resolved, _, err := fsx.ResolveHidden(s.fs, s.ArchivePath(id, v.Normalized()))
	return err == nil && s.fs.Exists(resolved)
}

// Add writes archive's raw bytes (read from r) to its canonical path along
// with a hash sidecar, and returns a freshly hydrated metadata record. r
// must be positioned at the start of the archive; Add reads it exactly
// once. Add does not itself serialize concurrent writes to the same
// identity — callers (the repository, behind its gate) are responsible for
// that.
func (s *Store) Add(archive *nupkg.Archive, r io.Reader) (*metadata.Record, error) {
	v, err := version.Parse(archive.Manifest.Version)
	if err != nil {
		return nil, fmt.Errorf("store: add %s: %w", archive.Manifest.ID, err)
	}
	normVersion := v.Normalized()

	if err := s.fs.MkdirAll(s.packageDir(archive.Manifest.ID, normVersion)); err != nil {
		return nil, fmt.Errorf("store: create package directory: %w", err)
	}

	archivePath := s.ArchivePath(archive.Manifest.ID, normVersion)
	hash, size, err := s.writeArchiveAndHash(archivePath, r)
	if err != nil {
		return nil, err
	}

	if err := s.writeSidecar(s.HashSidecarPath(archive.Manifest.ID, normVersion), hash); err != nil {
		// Partial-write cleanup: an archive with no sidecar would otherwise
		// survive as a half-ingested package until the next rebuild.
		_ = s.fs.Remove(archivePath) //nolint:errcheck // best-effort cleanup of the partial write
		return nil, err
	}

	return s.hydrate(archive.Manifest, v, archivePath, hash, size, true)
}

func (s *Store) writeArchiveAndHash(path string, r io.Reader) (hash string, size int64, err error) {
	w, err := s.fs.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("store: create archive file: %w", err)
	}

	digest, hashErr := nupkg.Hash(io.TeeReader(r, w))
	if hashErr != nil {
		w.Close() //nolint:errcheck // already failing
		return "", 0, fmt.Errorf("store: hash archive: %w", hashErr)
	}
	if err := w.Close(); err != nil {
		return "", 0, fmt.Errorf("store: close archive file: %w", err)
	}
	n, err := s.fs.Size(path)
	if err != nil {
		return "", 0, fmt.Errorf("store: stat archive file: %w", err)
	}
	return digest, n, nil
}

func (s *Store) writeSidecar(path, hash string) error {
	w, err := s.fs.Create(path)
	if err != nil {
		return fmt.Errorf("store: create hash sidecar: %w", err)
	}
	if _, err := w.Write([]byte(hash)); err != nil {
		w.Close() //nolint:errcheck // already failing
		return fmt.Errorf("store: write hash sidecar: %w", err)
	}
	return w.Close()
}

// HardDelete removes a package's archive and sidecar. Idempotent.
func (s *Store) HardDelete(id string, v version.Version) error {
	normVersion := v.Normalized()
	archivePath, _, err := fsx.ResolveHidden(s.fs, s.ArchivePath(id, normVersion))
	if err != nil {
		return fmt.Errorf("store: hard delete archive: %w", err)
	}
	if err := s.fs.Remove(archivePath); err != nil {
		return fmt.Errorf("store: hard delete archive: %w", err)
	}
	if err := s.fs.Remove(s.HashSidecarPath(id, normVersion)); err != nil {
		return fmt.Errorf("store: hard delete sidecar: %w", err)
	}
	return nil
}

// SoftDelete (unlist) sets the archive's hidden attribute, leaving the
// sidecar intact. The archive stays on disk, reachable by direct
// id+version lookup, but is reported as unlisted. Idempotent.
func (s *Store) SoftDelete(id string, v version.Version) error {
	path, hidden, err := fsx.ResolveHidden(s.fs, s.ArchivePath(id, v.Normalized()))
	if err != nil {
		return fmt.Errorf("store: soft delete: %w", err)
	}
	if hidden {
		return nil
	}
	if _, err := s.fs.SetHidden(path); err != nil {
		return fmt.Errorf("store: soft delete: %w", err)
	}
	return nil
}

// Relist clears a package's hidden attribute, the inverse of SoftDelete.
// Used when a push overwrites a previously-unlisted identity (spec.md
// §9's "allow overwrite and re-list" resolution of the
// enableDelisting/allowOverride interplay).
func (s *Store) Relist(id string, v version.Version) error {
	path, hidden, err := fsx.ResolveHidden(s.fs, s.ArchivePath(id, v.Normalized()))
	if err != nil || !hidden {
		return nil //nolint:nilerr // a missing/unhidden file is not an error here
	}
	return s.fs.Unhide(path)
}

// EnumerateOptions parameterises EnumerateAll over concerns the store
// itself has no opinion on.
type EnumerateOptions struct {
	// EnableUnlisting controls how the Listed field on a hydrated record
	// is derived: from the archive's hidden attribute when true, always
	// true otherwise.
	EnableUnlisting bool
	// Concurrency bounds how many packages are parsed in parallel.
	// A value <= 0 defaults to 8.
	Concurrency int
}

// EnumerateResult is one yielded element of EnumerateAll: either a
// successfully hydrated record, or a non-fatal per-package error (logged
// by the caller, never aborting the walk).
type EnumerateResult struct {
	Record *metadata.Record
	Err    error
}

// EnumerateAll walks every {id}/{normVersion} directory under the store
// root, parses each archive's manifest, and hydrates a record from
// archive + sidecar + filesystem metadata. Per-package errors are reported
// on the channel rather than aborting the walk; a root-level I/O error
// (the root itself is inaccessible) is returned directly and no results
// are produced.
func (s *Store) EnumerateAll(ctx context.Context, opts EnumerateOptions) (<-chan EnumerateResult, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}

	ids, err := s.fs.ListDirs(s.root)
	if err != nil {
		return nil, fmt.Errorf("store: enumerate root: %w", err)
	}

	type job struct {
		id, normVersion string
	}
	jobs := make(chan job)
	out := make(chan EnumerateResult)

	go func() {
		defer close(jobs)
		for _, id := range ids {
			versions, err := s.fs.ListDirs(filepath.Join(s.root, id))
			if err != nil {
				logging.Warn().Str("id", id).Err(err).Msg("store: skipping unreadable package directory")
				continue
			}
			for _, nv := range versions {
				select {
				case jobs <- job{id: id, normVersion: nv}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var workers int
	if opts.Concurrency < len(ids)+1 {
		workers = opts.Concurrency
	} else {
		workers = len(ids) + 1
	}
	if workers <= 0 {
		workers = 1
	}

	done := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				rec, err := s.hydrateFromDisk(j.id, j.normVersion, opts.EnableUnlisting)
				select {
				case out <- EnumerateResult{Record: rec, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		for i := 0; i < workers; i++ {
			<-done
		}
		close(out)
	}()

	return out, nil
}

func (s *Store) hydrateFromDisk(id, normVersion string, enableUnlisting bool) (*metadata.Record, error) {
	archivePath := s.ArchivePath(id, normVersion)
	onDiskPath := archivePath
	hidden := false
	if enableUnlisting {
		resolved, h, err := fsx.ResolveHidden(s.fs, archivePath)
		if err != nil {
			return nil, fmt.Errorf("store: resolve %s/%s: %w", id, normVersion, err)
		}
		onDiskPath, hidden = resolved, h
	}

	f, err := s.fs.Open(onDiskPath)
	if err != nil {
		return nil, fmt.Errorf("store: open %s/%s: %w", id, normVersion, err)
	}
	data, err := io.ReadAll(f)
	f.Close() //nolint:errcheck // read-only handle
	if err != nil {
		return nil, fmt.Errorf("store: read %s/%s: %w", id, normVersion, err)
	}
	size := int64(len(data))

	archive, err := nupkg.Parse(bytes.NewReader(data), size)
	if err != nil {
		return nil, fmt.Errorf("store: parse %s/%s: %w", id, normVersion, err)
	}

	v, err := version.Parse(archive.Manifest.Version)
	if err != nil {
		return nil, fmt.Errorf("store: invalid version for %s/%s: %w", id, normVersion, err)
	}

	hash := s.readSidecar(s.HashSidecarPath(id, normVersion))

	rec, err := s.hydrate(archive.Manifest, v, onDiskPath, hash, size, !hidden || !enableUnlisting)
	if err != nil {
		return nil, err
	}
	if enableUnlisting {
		rec.Listed = !hidden
	}
	return rec, nil
}

func (s *Store) readSidecar(path string) string {
	f, err := s.fs.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close() //nolint:errcheck // read-only handle
	data, err := io.ReadAll(f)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (s *Store) hydrate(m nupkg.Manifest, v version.Version, archivePath, hash string, size int64, listed bool) (*metadata.Record, error) {
	modTime, err := s.fs.ModTime(archivePath)
	if err != nil {
		modTime = time.Now().UTC()
	}

	deps := make([]metadata.Dependency, len(m.Dependencies))
	frameworks := map[string]struct{}{}
	for i, d := range m.Dependencies {
		deps[i] = metadata.Dependency{ID: d.ID, VersionSpec: d.VersionSpec, TargetFramework: d.TargetFramework}
		if d.TargetFramework != "" {
			frameworks[d.TargetFramework] = struct{}{}
		}
	}
	fwList := make([]string, 0, len(frameworks))
	for fw := range frameworks {
		fwList = append(fwList, fw)
	}

	return &metadata.Record{
		ID:                       m.ID,
		VersionFull:              v.Full(),
		VersionNormalized:        v.Normalized(),
		Title:                    m.Title,
		Authors:                  m.Authors,
		Owners:                   m.Owners,
		IconURL:                  m.IconURL,
		LicenseURL:               m.LicenseURL,
		ProjectURL:               m.ProjectURL,
		RequireLicenseAcceptance: m.RequireLicenseAcceptance,
		DevelopmentDependency:    m.DevelopmentDependency,
		Description:              m.Description,
		Summary:                  m.Summary,
		ReleaseNotes:             m.ReleaseNotes,
		Language:                 m.Language,
		Tags:                     m.Tags,
		Copyright:                m.Copyright,
		MinClientVersion:         m.MinClientVersion,
		ReportAbuseURL:           m.ReportAbuseURL,
		DependenciesFlat:         metadata.FlattenDependencies(deps),
		SupportedFrameworksFlat:  metadata.FlattenFrameworks(fwList),
		Published:                modTime,
		Listed:                   listed,
		PackageSize:              size,
		PackageHash:              hash,
		PackageHashAlgorithm:     nupkg.HashAlgorithm,
		LastUpdated:              modTime,
		Created:                  modTime,
		FullPath:                 archivePath,
	}, nil
}
