// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package repository

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/feedvault/internal/logging"
)

// backgroundServices holds the repository's supervised timer services and
// watcher, started lazily on the first GetPackages call and stopped once
// by Dispose.
type backgroundServices struct {
	supervisor *suture.Supervisor
	watcher    *fsnotify.Watcher
	cancel     context.CancelFunc
}

func (b *backgroundServices) stop() {
	if b.watcher != nil {
		_ = b.watcher.Close() //nolint:errcheck // best-effort on shutdown
	}
	if b.cancel != nil {
		b.cancel()
	}
}

// startBackground binds the filesystem watcher (if enabled) and starts the
// persist and rebuild timer services under a suture supervisor. Called
// exactly once, via Repository.startOnce.
func (r *Repository) startBackground() {
	handler := &sutureslog.Handler{Logger: slog.New(slog.NewTextHandler(os.Stderr, nil))}
	sup := suture.New("feedvault-repository", suture.Spec{EventHook: handler.MustHook()})

	sup.Add(&persistTimerService{r: r})
	sup.Add(&rebuildTimerService{r: r})

	ctx, cancel := context.WithCancel(context.Background())
	b := &backgroundServices{supervisor: sup, cancel: cancel}

	if r.cfg.EnableFileSystemMonitoring {
		w, err := r.newWatcher()
		if err != nil {
			logging.Warn().Err(err).Msg("repository: filesystem watcher disabled, failed to start")
		} else {
			b.watcher = w
			go r.watchLoop(ctx, w)
		}
	}

	r.background = b
	go func() {
		if err := sup.Serve(ctx); err != nil && ctx.Err() == nil {
			logging.Error().Err(err).Msg("repository: background supervisor exited")
		}
	}()
}

// persistTimerService persists the cache to disk (if dirty) once a minute.
type persistTimerService struct{ r *Repository }

func (s *persistTimerService) String() string { return "feedvault-persist-timer" }

func (s *persistTimerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(persistTimerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.r.cache.PersistIfDirty(s.r.snapshotPath); err != nil {
				logging.Warn().Err(err).Msg("repository: periodic persist failed")
			}
		}
	}
}

// rebuildTimerService forces a full rebuild after the configured initial
// delay, then once an hour thereafter, as a backstop against any
// invalidation the watcher missed.
type rebuildTimerService struct{ r *Repository }

func (s *rebuildTimerService) String() string { return "feedvault-rebuild-timer" }

func (s *rebuildTimerService) Serve(ctx context.Context) error {
	initial := time.Duration(s.r.cfg.InitialCacheRebuildAfterSeconds) * time.Second
	timer := time.NewTimer(initial)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := s.r.acquireGate(ctx); err != nil {
				timer.Reset(rebuildTimerInterval)
				continue
			}
			if err := s.r.rebuildLocked(ctx); err != nil {
				logging.Warn().Err(err).Msg("repository: backstop rebuild failed")
			}
			s.r.releaseGate()
			timer.Reset(rebuildTimerInterval)
		}
	}
}
