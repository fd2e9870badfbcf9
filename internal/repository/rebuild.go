// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/feedvault/internal/feedmetrics"
	"github.com/tomtom215/feedvault/internal/logging"
	"github.com/tomtom215/feedvault/internal/metadata"
	"github.com/tomtom215/feedvault/internal/nupkg"
	"github.com/tomtom215/feedvault/internal/store"
	"github.com/tomtom215/feedvault/internal/version"
)

// newEnumerateBreaker wraps a single store enumeration call so a
// persistently unreadable archive root trips the breaker instead of being
// retried on every GetPackages call that finds the cache empty.
func newEnumerateBreaker() *gobreaker.CircuitBreaker[[]*metadata.Record] {
	return gobreaker.NewCircuitBreaker[[]*metadata.Record](gobreaker.Settings{
		Name:        "feedvault-store-enumerate",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

// rebuildLocked re-derives the cache from the store, ingests any files
// sitting loose in the drop folder (the archive root itself), and persists
// the result. The caller must already hold the concurrency gate.
func (r *Repository) rebuildLocked(ctx context.Context) error {
	started := time.Now()
	logging.Info().Msg("repository: rebuild starting")

	records, err := r.enumerateStore(ctx)
	if err != nil {
		feedmetrics.RebuildsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("repository: rebuild enumerate: %w", err)
	}

	r.cache.Clear()
	r.cache.AddMany(records)

	if err := r.scanDropFolder(ctx); err != nil {
		logging.Warn().Err(err).Msg("repository: drop-folder scan encountered an error")
	}

	if err := r.cache.PersistIfDirty(r.snapshotPath); err != nil {
		feedmetrics.RebuildsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("repository: rebuild persist: %w", err)
	}

	r.needsRebuild.Store(false)
	feedmetrics.RebuildDuration.Observe(time.Since(started).Seconds())
	feedmetrics.RebuildsTotal.WithLabelValues("success").Inc()
	feedmetrics.CachedPackageCount.Set(float64(r.cache.Stats().PackageCount))
	logging.Info().Str("durationMs", fmt.Sprintf("%d", time.Since(started).Milliseconds())).
		Int("packages", len(r.cache.GetAll())).Msg("repository: rebuild complete")
	return nil
}

func (r *Repository) enumerateStore(ctx context.Context) ([]*metadata.Record, error) {
	if r.enumerateBreaker == nil {
		r.enumerateBreaker = newEnumerateBreaker()
	}
	return r.enumerateBreaker.Execute(func() ([]*metadata.Record, error) {
		results, err := r.store.EnumerateAll(ctx, store.EnumerateOptions{EnableUnlisting: r.cfg.EnableDelisting})
		if err != nil {
			return nil, err
		}
		var records []*metadata.Record
		for res := range results {
			if res.Err != nil {
				logging.Warn().Err(res.Err).Msg("repository: skipping unreadable package during rebuild")
				continue
			}
			records = append(records, res.Record)
		}
		return records, nil
	})
}

// scanDropFolder ingests every *.nupkg file sitting directly in the
// archive root (as opposed to already living in its canonical
// {id}/{normVersion} directory), throttled to
// DropFolderScanRatePerSecond so a folder full of thousands of dropped
// archives cannot starve concurrent readers of I/O bandwidth. Each file is
// deleted from the drop folder on successful ingestion; a file that fails
// admissibility or parsing is logged and left in place for an operator to
// inspect.
func (r *Repository) scanDropFolder(ctx context.Context) error {
	if r.cfg.DropFolderScanRatePerSecond <= 0 {
		return nil
	}

	names, err := r.fs.ListFiles(r.root)
	if err != nil {
		return fmt.Errorf("list drop folder: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(r.cfg.DropFolderScanRatePerSecond), 1)
	for _, name := range names {
		if !strings.EqualFold(filepath.Ext(name), ".nupkg") {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		r.ingestDropFolderFile(filepath.Join(r.root, name))
	}
	return nil
}

func (r *Repository) ingestDropFolderFile(path string) {
	f, err := r.fs.Open(path)
	if err != nil {
		logging.Warn().Str("path", path).Err(err).Msg("repository: drop-folder file unreadable")
		return
	}
	data, err := io.ReadAll(f)
	f.Close() //nolint:errcheck // read-only handle
	if err != nil {
		logging.Warn().Str("path", path).Err(err).Msg("repository: drop-folder file unreadable")
		return
	}

	archive, err := nupkg.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logging.Warn().Str("path", path).Err(err).Msg("repository: drop-folder file is not a valid package, leaving in place")
		return
	}

	if r.cfg.IgnoreSymbolsPackages && archive.IsSymbolsPackage() {
		logging.Info().Str("path", path).Msg("repository: drop-folder symbols package ignored, leaving in place")
		return
	}

	v, err := version.Parse(archive.Manifest.Version)
	if err != nil {
		logging.Warn().Str("path", path).Err(err).Msg("repository: drop-folder file has an invalid version, leaving in place")
		return
	}

	if !r.cfg.AllowOverrideExistingPackageOnPush && r.cache.Exists(archive.Manifest.ID, v) {
		feedmetrics.PackagesPushRejectedTotal.WithLabelValues("duplicate").Inc()
		logging.Warn().Str("path", path).Str("id", archive.Manifest.ID).Str("version", v.Normalized()).
			Msg("repository: drop-folder file rejected, identity already exists and override is disabled, leaving in place")
		return
	}

	rec, err := r.store.Add(archive, bytes.NewReader(data))
	if err != nil {
		logging.Warn().Str("path", path).Err(err).Msg("repository: drop-folder ingestion failed, leaving in place")
		return
	}
	r.cache.Add(rec)
	feedmetrics.DropFolderIngestedTotal.Inc()

	if err := r.fs.Remove(path); err != nil {
		logging.Warn().Str("path", path).Err(err).Msg("repository: failed to remove ingested drop-folder file")
	}
}

