// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package nupkg

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, nuspec string, extraFiles map[string]string) (*bytes.Reader, int64) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("pkg.nuspec")
	require.NoError(t, err)
	_, err = w.Write([]byte(nuspec))
	require.NoError(t, err)

	for name, content := range extraFiles {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes()), int64(buf.Len())
}

const basicNuspec = `<?xml version="1.0"?>
<package>
  <metadata>
    <id>Pkg.A</id>
    <version>1.0.0</version>
    <authors>Someone</authors>
    <dependencies>
      <group targetFramework="net6.0">
        <dependency id="Newtonsoft.Json" version="[9.0.1,)" />
      </group>
      <group targetFramework="net472" />
    </dependencies>
  </metadata>
</package>`

func TestParseReadsManifestAndGroupedDependencies(t *testing.T) {
	r, size := buildArchive(t, basicNuspec, nil)
	a, err := Parse(r, size)
	require.NoError(t, err)

	assert.Equal(t, "Pkg.A", a.Manifest.ID)
	assert.Equal(t, "1.0.0", a.Manifest.Version)
	require.Len(t, a.Manifest.Dependencies, 2)
	assert.Equal(t, Dependency{ID: "Newtonsoft.Json", VersionSpec: "[9.0.1,)", TargetFramework: "net6.0"}, a.Manifest.Dependencies[0])
	assert.Equal(t, Dependency{TargetFramework: "net472"}, a.Manifest.Dependencies[1])
}

func TestParseRejectsMissingManifest(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("readme.txt")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.ErrorIs(t, err, ErrNoManifest)
}

func TestIsSymbolsPackageByIDSuffix(t *testing.T) {
	nuspec := `<package><metadata><id>Pkg.A.symbols</id><version>1.0.0</version></metadata></package>`
	r, size := buildArchive(t, nuspec, nil)
	a, err := Parse(r, size)
	require.NoError(t, err)
	assert.True(t, a.IsSymbolsPackage())
}

func TestIsSymbolsPackageByContent(t *testing.T) {
	r, size := buildArchive(t, basicNuspec, map[string]string{"lib/net6.0/Pkg.pdb": "debug"})
	a, err := Parse(r, size)
	require.NoError(t, err)
	assert.True(t, a.IsSymbolsPackage())
}

func TestIsSymbolsPackageFalseForOrdinaryPackage(t *testing.T) {
	r, size := buildArchive(t, basicNuspec, map[string]string{"lib/net6.0/Pkg.dll": "binary"})
	a, err := Parse(r, size)
	require.NoError(t, err)
	assert.False(t, a.IsSymbolsPackage())
}

func TestHashIsDeterministic(t *testing.T) {
	h1, err := Hash(bytes.NewReader([]byte("content")))
	require.NoError(t, err)
	h2, err := Hash(bytes.NewReader([]byte("content")))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.NotEmpty(t, h1)
}
