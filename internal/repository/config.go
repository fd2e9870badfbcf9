// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package repository

import "time"

// Config holds the repository's recognized options, loaded by
// internal/feedconfig and passed in at construction. Field names mirror the
// on-wire configuration keys.
type Config struct {
	// AllowOverrideExistingPackageOnPush allows a push to replace an
	// existing identity. When false, AddPackage rejects a duplicate.
	AllowOverrideExistingPackageOnPush bool `koanf:"allowOverrideExistingPackageOnPush" validate:"-"`
	// IgnoreSymbolsPackages rejects a push of a symbols package.
	IgnoreSymbolsPackages bool `koanf:"ignoreSymbolsPackages" validate:"-"`
	// EnableDelisting makes RemovePackage soft-delete (unlist) instead of
	// hard-deleting, and excludes unlisted records from search.
	EnableDelisting bool `koanf:"enableDelisting" validate:"-"`
	// EnableFrameworkFiltering applies the target-framework compatibility
	// filter in Search.
	EnableFrameworkFiltering bool `koanf:"enableFrameworkFiltering" validate:"-"`
	// EnableFileSystemMonitoring binds the filesystem watcher after the
	// first GetPackages call.
	EnableFileSystemMonitoring bool `koanf:"enableFileSystemMonitoring" validate:"-"`
	// InitialCacheRebuildAfterSeconds delays the first background rebuild
	// timer tick.
	InitialCacheRebuildAfterSeconds int `koanf:"initialCacheRebuildAfterSeconds" validate:"min=0"`
	// DropFolderScanRatePerSecond throttles how many drop-folder files the
	// repository ingests per second during a scan, so a directory full of
	// thousands of dropped archives doesn't starve concurrent readers.
	DropFolderScanRatePerSecond float64 `koanf:"dropFolderScanRatePerSecond" validate:"min=0"`
}

// DefaultConfig returns the recognized defaults.
func DefaultConfig() Config {
	return Config{
		AllowOverrideExistingPackageOnPush: true,
		IgnoreSymbolsPackages:              false,
		EnableDelisting:                    false,
		EnableFrameworkFiltering:           false,
		EnableFileSystemMonitoring:         true,
		InitialCacheRebuildAfterSeconds:    15,
		DropFolderScanRatePerSecond:        20,
	}
}

const (
	persistTimerInterval = time.Minute
	rebuildTimerInterval = time.Hour
)
