// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
)

// SchemaVersion is the only schemaVersion a Snapshot loader accepts. Any
// other value, a missing schemaVersion, or a missing/null packages array
// causes the snapshot to be treated as corrupt.
const SchemaVersion = "3.0.0"

// ErrCorruptSnapshot wraps any reason a snapshot file was rejected: bad
// JSON, wrong schema version, or a missing packages array. Callers delete
// the file and start from an empty cache on this error, per spec.
var ErrCorruptSnapshot = errors.New("metadata: corrupt snapshot")

// Snapshot is the top-level persisted shape: { schemaVersion, packages }.
type Snapshot struct {
	SchemaVersion string    `json:"schemaVersion"`
	Packages      []*Record `json:"packages"`
}

// SnapshotFileName returns the host-qualified snapshot filename
// ("{machine-lowercased}.cache.bin") so that multiple engine instances
// sharing one archive root do not collide.
func SnapshotFileName(hostname string) string {
	return strings.ToLower(hostname) + ".cache.bin"
}

// SnapshotPath joins root and the host-qualified snapshot filename.
func SnapshotPath(root, hostname string) string {
	return filepath.Join(root, SnapshotFileName(hostname))
}

// LoadSnapshot reads and validates the snapshot file at path. A missing
// file is reported via os.IsNotExist on the returned error, distinguishing
// "never persisted" from "corrupt" for callers that want different log
// lines; both cases leave the cache empty.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the engine's own snapshot file
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if snap.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: schemaVersion %q, want %q", ErrCorruptSnapshot, snap.SchemaVersion, SchemaVersion)
	}
	if snap.Packages == nil {
		return nil, fmt.Errorf("%w: missing packages array", ErrCorruptSnapshot)
	}
	return &snap, nil
}

// WriteSnapshot serializes records and writes them to path atomically
// (write to a temp file in the same directory, then rename) so a crash
// mid-write never leaves a half-written snapshot behind.
func WriteSnapshot(path string, records []*Record) error {
	snap := Snapshot{SchemaVersion: SchemaVersion, Packages: records}
	if snap.Packages == nil {
		snap.Packages = []*Record{}
	}

	data, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return fmt.Errorf("metadata: marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("metadata: create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("metadata: write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("metadata: close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("metadata: rename temp snapshot: %w", err)
	}
	return nil
}

// DeleteSnapshot removes a corrupt or stale snapshot file. It is not an
// error for the file to already be gone.
func DeleteSnapshot(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("metadata: delete snapshot: %w", err)
	}
	return nil
}
