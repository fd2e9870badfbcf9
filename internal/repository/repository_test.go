// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package repository

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/feedvault/internal/feedfaults"
	"github.com/tomtom215/feedvault/internal/fsx"
	"github.com/tomtom215/feedvault/internal/metadata"
	"github.com/tomtom215/feedvault/internal/nupkg"
	"github.com/tomtom215/feedvault/internal/version"
)

func buildArchive(t *testing.T, id, v string) (*nupkg.Archive, []byte) {
	t.Helper()
	nuspec := `<package><metadata><id>` + id + `</id><version>` + v + `</version></metadata></package>`
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("pkg.nuspec")
	require.NoError(t, err)
	_, err = w.Write([]byte(nuspec))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	data := buf.Bytes()
	archive, err := nupkg.Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return archive, data
}

func newTestRepository(t *testing.T, cfg Config) *Repository {
	t.Helper()
	r, err := New(t.TempDir(), fsx.NewLocal(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Dispose() })
	return r
}

func TestColdStartWithPopulatedDirectoryAndNoSnapshotRebuildsOnFirstGetPackages(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFileSystemMonitoring = false
	r := newTestRepository(t, cfg)

	archive, data := buildArchive(t, "Pkg.A", "1.0.0")
	_, err := r.store.Add(archive, bytes.NewReader(data))
	require.NoError(t, err)

	records, err := r.GetPackages(context.Background(), metadata.MaxCompat)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Pkg.A", records[0].ID)
}

func TestDropThenReadEndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFileSystemMonitoring = false
	r := newTestRepository(t, cfg)

	_, data := buildArchive(t, "pkg-A", "1.0.0")
	dropPath := filepath.Join(r.root, "pkg-A.1.0.0.nupkg")
	require.NoError(t, os.WriteFile(dropPath, data, 0o644))

	records, err := r.GetPackages(context.Background(), metadata.MaxCompat)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "pkg-A", records[0].ID)
	assert.Equal(t, "1.0.0", records[0].VersionNormalized)
	assert.True(t, records[0].SemVer1IsLatest)
	assert.True(t, records[0].SemVer2IsLatest)

	_, err = os.Stat(dropPath)
	assert.True(t, os.IsNotExist(err), "drop file should have been removed after ingestion")
}

func TestUnlistSemanticsUnderEnableDelisting(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFileSystemMonitoring = false
	cfg.EnableDelisting = true
	r := newTestRepository(t, cfg)

	archive, data := buildArchive(t, "A", "1.0.0")
	_, err := r.AddPackage(context.Background(), archive, bytes.NewReader(data))
	require.NoError(t, err)

	v := version.MustParse("1.0.0")
	require.NoError(t, r.RemovePackage(context.Background(), "A", v))

	results, err := r.Search(context.Background(), "A", nil, true, metadata.MaxCompat)
	require.NoError(t, err)
	assert.Empty(t, results)

	records, err := r.GetPackages(context.Background(), metadata.MaxCompat)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Listed)

	assert.True(t, r.store.Exists("A", v))
}

func TestDuplicateOnPushRejectedWhenOverrideDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFileSystemMonitoring = false
	cfg.AllowOverrideExistingPackageOnPush = false
	r := newTestRepository(t, cfg)

	first, data1 := buildArchive(t, "A", "1.0.0-beta.1+foo")
	rec1, err := r.AddPackage(context.Background(), first, bytes.NewReader(data1))
	require.NoError(t, err)

	second, data2 := buildArchive(t, "A", "1.0.0-beta.1+bar")
	_, err = r.AddPackage(context.Background(), second, bytes.NewReader(data2))
	require.Error(t, err)
	assert.ErrorIs(t, err, feedfaults.ErrInvalidInput)

	rec, ok, err := r.FindPackage(context.Background(), "A", version.MustParse("1.0.0-beta.1+foo"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec1.VersionFull, rec.VersionFull)
}

func TestCorruptSnapshotIsDeletedAndCacheRebuildsFromDisk(t *testing.T) {
	root := t.TempDir()
	hostname, err := os.Hostname()
	require.NoError(t, err)
	snapshotPath := metadata.SnapshotPath(root, hostname)
	require.NoError(t, os.WriteFile(snapshotPath, []byte(`{"schemaVersion":"4.0.0","packages":[]}`), 0o644))

	cfg := DefaultConfig()
	cfg.EnableFileSystemMonitoring = false
	r, err := New(root, fsx.NewLocal(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Dispose() })

	_, err = os.Stat(snapshotPath)
	assert.True(t, os.IsNotExist(err), "corrupt snapshot should have been deleted")

	records, err := r.GetPackages(context.Background(), metadata.MaxCompat)
	require.NoError(t, err)
	assert.Empty(t, records)

	archive, data := buildArchive(t, "A", "1.0.0")
	_, err = r.store.Add(archive, bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, r.ClearCache(context.Background()))

	records, err = r.GetPackages(context.Background(), metadata.MaxCompat)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestSemVer2GatingOnGetPackages(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFileSystemMonitoring = false
	r := newTestRepository(t, cfg)

	for _, v := range []string{"1.0.0-beta", "1.0.0-beta.1"} {
		archive, data := buildArchive(t, "B", v)
		_, err := r.AddPackage(context.Background(), archive, bytes.NewReader(data))
		require.NoError(t, err)
	}

	def, err := r.GetPackages(context.Background(), metadata.DefaultCompat)
	require.NoError(t, err)
	require.Len(t, def, 1)
	assert.Equal(t, "1.0.0-beta", def[0].VersionNormalized)

	max, err := r.GetPackages(context.Background(), metadata.MaxCompat)
	require.NoError(t, err)
	assert.Len(t, max, 2)
}

func TestGatePreventsConcurrentPushes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFileSystemMonitoring = false
	r := newTestRepository(t, cfg)

	require.NoError(t, r.acquireGate(context.Background()))
	defer r.releaseGate()

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	err := r.acquireGate(ctx)
	assert.Error(t, err, "gate should be held by the outer acquire")
}

func TestDisposeIsIdempotentAndRejectsFurtherOperations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFileSystemMonitoring = false
	r := newTestRepository(t, cfg)

	require.NoError(t, r.Dispose())
	require.NoError(t, r.Dispose())

	_, err := r.GetPackages(context.Background(), metadata.MaxCompat)
	assert.ErrorIs(t, err, feedfaults.ErrShutdown)
}
