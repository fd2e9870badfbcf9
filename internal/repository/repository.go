// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package repository implements the controller that coordinates
// cold-start rebuild, drop-folder ingestion, filesystem-watch
// invalidation, background persistence, and push/remove operations
// against the package store and metadata cache, behind a single
// concurrency gate that suppresses the watcher for its duration.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/feedvault/internal/feedcache"
	"github.com/tomtom215/feedvault/internal/feedfaults"
	"github.com/tomtom215/feedvault/internal/feedmetrics"
	"github.com/tomtom215/feedvault/internal/fsx"
	"github.com/tomtom215/feedvault/internal/logging"
	"github.com/tomtom215/feedvault/internal/metadata"
	"github.com/tomtom215/feedvault/internal/nupkg"
	"github.com/tomtom215/feedvault/internal/query"
	"github.com/tomtom215/feedvault/internal/store"
	"github.com/tomtom215/feedvault/internal/version"
)

// state is the repository's lifecycle position.
type state int32

const (
	stateFresh state = iota
	stateRebuilding
	stateReady
	stateInvalidated
	stateShutdown
)

// Repository owns the store, the cache, the filesystem watcher, and the
// background timers. It is the only component in this module that writes
// to the archive directory.
type Repository struct {
	root         string
	fs           fsx.FileSystem
	store        *store.Store
	cache        *feedcache.MetadataCache
	cfg          Config
	snapshotPath string

	gate              chan struct{}
	watcherSuppressed atomic.Bool
	needsRebuild      atomic.Bool
	st                atomic.Int32

	startOnce        sync.Once
	background       *backgroundServices
	enumerateBreaker *gobreaker.CircuitBreaker[[]*metadata.Record]
}

// New constructs a Repository rooted at root. It loads any existing
// snapshot (deleting it first if corrupt, per spec) but does not rebuild
// from disk or start background services; those happen lazily on the
// first GetPackages call.
func New(root string, fs fsx.FileSystem, cfg Config) (*Repository, error) {
	if err := fs.MkdirAll(root); err != nil {
		return nil, fmt.Errorf("repository: create root: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	r := &Repository{
		root:         root,
		fs:           fs,
		store:        store.New(root, fs),
		cache:        feedcache.New(),
		cfg:          cfg,
		snapshotPath: metadata.SnapshotPath(root, hostname),
		gate:         make(chan struct{}, 1),
	}

	if err := r.cache.Load(r.snapshotPath); err != nil {
		if errors.Is(err, metadata.ErrCorruptSnapshot) {
			logging.Warn().Str("path", r.snapshotPath).Err(err).Msg("repository: discarding corrupt snapshot")
			if delErr := metadata.DeleteSnapshot(r.snapshotPath); delErr != nil {
				return nil, fmt.Errorf("repository: delete corrupt snapshot: %w", delErr)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("repository: load snapshot: %w", err)
		}
	}

	r.st.Store(int32(stateFresh))
	return r, nil
}

func (r *Repository) acquireGate(ctx context.Context) error {
	select {
	case r.gate <- struct{}{}:
		r.watcherSuppressed.Store(true)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Repository) releaseGate() {
	r.watcherSuppressed.Store(false)
	<-r.gate
}

// AddPackage validates admissibility, then writes archive's content to
// the store and reflects it into the cache under the gate. The open
// question on enableDelisting/allowOverride interplay is resolved per
// spec.md §9: overwriting a previously-unlisted identity re-lists it.
func (r *Repository) AddPackage(ctx context.Context, archive *nupkg.Archive, content io.Reader) (*metadata.Record, error) {
	if r.st.Load() == int32(stateShutdown) {
		return nil, feedfaults.ErrShutdown
	}

	log := logging.Info().Str("correlationId", logging.GenerateCorrelationID()).Str("id", archive.Manifest.ID)

	if r.cfg.IgnoreSymbolsPackages && archive.IsSymbolsPackage() {
		feedmetrics.PackagesPushRejectedTotal.WithLabelValues("symbols_package").Inc()
		return nil, feedfaults.Invalid(fmt.Sprintf("repository: push of %s rejected, symbols packages are disabled", archive.Manifest.ID))
	}

	v, err := version.Parse(archive.Manifest.Version)
	if err != nil {
		feedmetrics.PackagesPushRejectedTotal.WithLabelValues("invalid_version").Inc()
		return nil, fmt.Errorf("repository: push %s: %w", archive.Manifest.ID, err)
	}

	if !r.cfg.AllowOverrideExistingPackageOnPush && r.cache.Exists(archive.Manifest.ID, v) {
		feedmetrics.PackagesPushRejectedTotal.WithLabelValues("duplicate").Inc()
		return nil, feedfaults.Invalid(fmt.Sprintf("repository: %s %s already exists", archive.Manifest.ID, v.Normalized()))
	}

	if err := r.acquireGate(ctx); err != nil {
		return nil, err
	}
	defer r.releaseGate()

	if r.store.Exists(archive.Manifest.ID, v) {
		if err := r.store.Relist(archive.Manifest.ID, v); err != nil {
			return nil, fmt.Errorf("repository: relist %s %s: %w", archive.Manifest.ID, v.Normalized(), err)
		}
	}

	rec, err := r.store.Add(archive, content)
	if err != nil {
		return nil, err
	}
	r.cache.Add(rec)
	feedmetrics.PackagesPushedTotal.Inc()
	feedmetrics.CachedPackageCount.Set(float64(r.cache.Stats().PackageCount))
	log.Str("version", v.Normalized()).Msg("repository: package pushed")
	return rec, nil
}

// RemovePackage soft- or hard-deletes id/v per the EnableDelisting
// setting. A no-op, logged, if the identity is not present.
func (r *Repository) RemovePackage(ctx context.Context, id string, v version.Version) error {
	if r.st.Load() == int32(stateShutdown) {
		return feedfaults.ErrShutdown
	}
	if !r.cache.Exists(id, v) {
		logging.Info().Str("id", id).Str("version", v.Normalized()).Msg("repository: remove no-op, package not present")
		return nil
	}

	if err := r.acquireGate(ctx); err != nil {
		return err
	}
	defer r.releaseGate()

	var err error
	kind := "hard"
	if r.cfg.EnableDelisting {
		kind = "soft"
		err = r.store.SoftDelete(id, v)
	} else {
		err = r.store.HardDelete(id, v)
	}
	if err != nil {
		return fmt.Errorf("repository: remove %s %s: %w", id, v.Normalized(), err)
	}
	r.cache.Remove(id, v, r.cfg.EnableDelisting)
	feedmetrics.PackagesRemovedTotal.WithLabelValues(kind).Inc()
	feedmetrics.CachedPackageCount.Set(float64(r.cache.Stats().PackageCount))
	return nil
}

// GetPackages triggers a rebuild if one is needed (cold start or a prior
// invalidation), binds the watcher and starts background timers on the
// first call, and returns a compat-filtered snapshot.
func (r *Repository) GetPackages(ctx context.Context, compat metadata.Compatibility) ([]*metadata.Record, error) {
	if r.st.Load() == int32(stateShutdown) {
		return nil, feedfaults.ErrShutdown
	}

	r.startOnce.Do(func() { r.startBackground() })

	if r.needsRebuild.Load() || r.cache.IsEmpty() {
		if err := r.acquireGate(ctx); err != nil {
			return nil, err
		}
		if r.needsRebuild.Load() || r.cache.IsEmpty() {
			r.st.Store(int32(stateRebuilding))
			if err := r.rebuildLocked(ctx); err != nil {
				r.releaseGate()
				return nil, err
			}
		}
		r.releaseGate()
		r.st.Store(int32(stateReady))
	}

	return query.ApplyCompat(r.cache.GetAll(), compat), nil
}

// Search runs the search predicate over a rebuild-checked snapshot.
func (r *Repository) Search(ctx context.Context, term string, targetFrameworks []string, allowPrerelease bool, compat metadata.Compatibility) ([]*metadata.Record, error) {
	snapshot, err := r.GetPackages(ctx, compat)
	if err != nil {
		return nil, err
	}
	opts := query.SearchOptions{EnableDelisting: r.cfg.EnableDelisting, EnableFrameworkFiltering: r.cfg.EnableFrameworkFiltering}
	return query.Search(snapshot, term, targetFrameworks, allowPrerelease, opts), nil
}

// FindPackagesById returns every record matching id, compat-gated.
func (r *Repository) FindPackagesById(ctx context.Context, id string, compat metadata.Compatibility) ([]*metadata.Record, error) {
	snapshot, err := r.GetPackages(ctx, compat)
	if err != nil {
		return nil, err
	}
	return query.FindPackagesById(snapshot, id), nil
}

// FindPackage returns the single record matching id and v, if any.
func (r *Repository) FindPackage(ctx context.Context, id string, v version.Version) (*metadata.Record, bool, error) {
	snapshot, err := r.GetPackages(ctx, metadata.MaxCompat)
	if err != nil {
		return nil, false, err
	}
	rec, ok := query.FindPackage(snapshot, id, v)
	return rec, ok, nil
}

// Exists reports whether id/v is present.
func (r *Repository) Exists(ctx context.Context, id string, v version.Version) (bool, error) {
	_, ok, err := r.FindPackage(ctx, id, v)
	return ok, err
}

// GetUpdates runs the update-check algorithm over a rebuild-checked
// snapshot.
func (r *Repository) GetUpdates(
	ctx context.Context,
	names []string,
	currentVersions []version.Version,
	versionConstraints []string,
	includePrerelease, includeAllVersions bool,
	targetFrameworks []string,
	compat metadata.Compatibility,
) ([]*metadata.Record, error) {
	snapshot, err := r.GetPackages(ctx, compat)
	if err != nil {
		return nil, err
	}
	return query.GetUpdates(snapshot, names, currentVersions, versionConstraints, includePrerelease, includeAllVersions, targetFrameworks)
}

// ClearCache purges the cache and persists an empty snapshot, then marks
// the repository for rebuild on the next GetPackages call.
func (r *Repository) ClearCache(ctx context.Context) error {
	if err := r.acquireGate(ctx); err != nil {
		return err
	}
	defer r.releaseGate()

	r.cache.Clear()
	if err := r.cache.Persist(r.snapshotPath); err != nil {
		return fmt.Errorf("repository: persist after clear: %w", err)
	}
	r.needsRebuild.Store(true)
	r.st.Store(int32(stateInvalidated))
	return nil
}

// Dispose stops background services, unbinds the watcher, performs a
// final PersistIfDirty, and marks the repository shut down. Further
// operations return ErrShutdown.
func (r *Repository) Dispose() error {
	prev := r.st.Swap(int32(stateShutdown))
	if prev == int32(stateShutdown) {
		return nil
	}
	if r.background != nil {
		r.background.stop()
	}
	return r.cache.PersistIfDirty(r.snapshotPath)
}
