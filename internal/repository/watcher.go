// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/tomtom215/feedvault/internal/logging"
)

// newWatcher creates an fsnotify watcher recursively bound to every
// directory under the archive root, so drops into {id}/{normVersion}
// subdirectories and into the drop folder itself are both observed.
func (r *Repository) newWatcher() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := filepath.WalkDir(r.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	}); err != nil {
		w.Close() //nolint:errcheck // already failing
		return nil, err
	}
	return w, nil
}

// watchLoop dispatches filesystem events to cache invalidation. Events
// during a gated operation (push, remove, rebuild) are ignored, since the
// repository itself is the source of those changes and has already
// updated the cache directly. A drop-folder file arriving from outside
// the process instead marks a rebuild needed, which the next GetPackages
// call (or the hourly backstop timer) picks up.
func (r *Repository) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			r.handleWatchEvent(event)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logging.Warn().Err(err).Msg("repository: watcher error")
		}
	}
}

func (r *Repository) handleWatchEvent(event fsnotify.Event) {
	if r.watcherSuppressed.Load() {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	if filepath.Dir(event.Name) == r.root && strings.EqualFold(filepath.Ext(event.Name), ".nupkg") {
		logging.Info().Str("path", event.Name).Msg("repository: drop-folder activity detected")
		r.needsRebuild.Store(true)
		return
	}

	logging.Info().Str("path", event.Name).Msg("repository: external filesystem change detected, invalidating cache")
	r.needsRebuild.Store(true)
}
