// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package nupkg implements the minimal archive-parsing collaborator named
// by spec.md §6: given a package archive, yield its id, version, and
// manifest fields. The archive format itself (an OPC/zip container holding
// a single .nuspec XML manifest) is treated as a stable external contract,
// not as something this module owns or evolves — see DESIGN.md for why no
// pack library covers this bespoke format.
package nupkg

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoManifest is returned when an archive contains no .nuspec entry.
var ErrNoManifest = errors.New("nupkg: archive has no .nuspec manifest")

// ErrMultipleManifests is returned when an archive contains more than one
// root-level .nuspec entry, which makes it ambiguous which one is the
// package manifest.
var ErrMultipleManifests = errors.New("nupkg: archive has multiple .nuspec manifests")

// dependencyXML mirrors a single <dependency> element.
type dependencyXML struct {
	ID      string `xml:"id,attr"`
	Version string `xml:"version,attr"`
}

// dependencyGroupXML mirrors a <group> of dependencies scoped to one
// target framework. A group with no <dependency> children denotes "this
// framework has no dependencies".
type dependencyGroupXML struct {
	TargetFramework string          `xml:"targetFramework,attr"`
	Dependencies    []dependencyXML `xml:"dependency"`
}

type dependenciesXML struct {
	Groups       []dependencyGroupXML `xml:"group"`
	Dependencies []dependencyXML      `xml:"dependency"` // flat form, no groups
}

type metadataXML struct {
	ID                       string          `xml:"id"`
	Version                  string          `xml:"version"`
	Title                    string          `xml:"title"`
	Authors                  string          `xml:"authors"`
	Owners                   string          `xml:"owners"`
	IconURL                  string          `xml:"iconUrl"`
	LicenseURL               string          `xml:"licenseUrl"`
	ProjectURL               string          `xml:"projectUrl"`
	RequireLicenseAcceptance bool            `xml:"requireLicenseAcceptance"`
	DevelopmentDependency    bool            `xml:"developmentDependency"`
	Description              string          `xml:"description"`
	Summary                  string          `xml:"summary"`
	ReleaseNotes             string          `xml:"releaseNotes"`
	Copyright                string          `xml:"copyright"`
	Language                 string          `xml:"language"`
	Tags                     string          `xml:"tags"`
	MinClientVersion         string          `xml:"minClientVersion,attr"`
	ReportAbuseURL           string          `xml:"reportAbuseUrl"`
	Dependencies             dependenciesXML `xml:"dependencies"`
}

type packageXML struct {
	Metadata metadataXML `xml:"metadata"`
}

// Manifest is the parsed, Go-native form of a .nuspec manifest.
type Manifest struct {
	ID                       string
	Version                  string
	Title                    string
	Authors                  string
	Owners                   string
	IconURL                  string
	LicenseURL               string
	ProjectURL               string
	RequireLicenseAcceptance bool
	DevelopmentDependency    bool
	Description              string
	Summary                  string
	ReleaseNotes             string
	Copyright                string
	Language                 string
	Tags                     string
	MinClientVersion         string
	ReportAbuseURL           string
	Dependencies             []Dependency
}

// Dependency is one manifest-declared dependency, scoped to a target
// framework (empty string means "all frameworks" / flat form).
type Dependency struct {
	ID              string
	VersionSpec     string
	TargetFramework string
}

// Archive is an opened package archive: its manifest plus enough of the zip
// index to compute a hash or report a size without re-reading the whole
// file from disk.
type Archive struct {
	Manifest  Manifest
	Size      int64
	entries   []*zip.File
	sourceLen int64
}

// Parse reads a .nupkg (or compatible zip+manifest archive) from r, which
// must support io.ReaderAt (as *os.File and bytes.Reader do) and reports
// its total length as size.
func Parse(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("nupkg: open zip: %w", err)
	}

	var manifestFile *zip.File
	for _, f := range zr.File {
		if !strings.Contains(f.Name, "/") && strings.HasSuffix(strings.ToLower(f.Name), ".nuspec") {
			if manifestFile != nil {
				return nil, ErrMultipleManifests
			}
			manifestFile = f
		}
	}
	if manifestFile == nil {
		return nil, ErrNoManifest
	}

	manifest, err := parseManifest(manifestFile)
	if err != nil {
		return nil, fmt.Errorf("nupkg: parse manifest %s: %w", manifestFile.Name, err)
	}

	return &Archive{
		Manifest:  manifest,
		Size:      size,
		entries:   zr.File,
		sourceLen: size,
	}, nil
}

func parseManifest(f *zip.File) (Manifest, error) {
	rc, err := f.Open()
	if err != nil {
		return Manifest{}, err
	}
	defer rc.Close() //nolint:errcheck // read-only zip entry

	var pkg packageXML
	if err := xml.NewDecoder(rc).Decode(&pkg); err != nil {
		return Manifest{}, err
	}

	m := Manifest{
		ID:                       strings.TrimSpace(pkg.Metadata.ID),
		Version:                  strings.TrimSpace(pkg.Metadata.Version),
		Title:                    pkg.Metadata.Title,
		Authors:                  pkg.Metadata.Authors,
		Owners:                   pkg.Metadata.Owners,
		IconURL:                  pkg.Metadata.IconURL,
		LicenseURL:               pkg.Metadata.LicenseURL,
		ProjectURL:               pkg.Metadata.ProjectURL,
		RequireLicenseAcceptance: pkg.Metadata.RequireLicenseAcceptance,
		DevelopmentDependency:    pkg.Metadata.DevelopmentDependency,
		Description:              pkg.Metadata.Description,
		Summary:                  pkg.Metadata.Summary,
		ReleaseNotes:             pkg.Metadata.ReleaseNotes,
		Copyright:                pkg.Metadata.Copyright,
		Language:                 pkg.Metadata.Language,
		Tags:                     pkg.Metadata.Tags,
		MinClientVersion:         pkg.Metadata.MinClientVersion,
		ReportAbuseURL:           pkg.Metadata.ReportAbuseURL,
	}

	if len(pkg.Metadata.Dependencies.Groups) > 0 {
		for _, g := range pkg.Metadata.Dependencies.Groups {
			if len(g.Dependencies) == 0 {
				m.Dependencies = append(m.Dependencies, Dependency{TargetFramework: g.TargetFramework})
				continue
			}
			for _, d := range g.Dependencies {
				m.Dependencies = append(m.Dependencies, Dependency{
					ID: d.ID, VersionSpec: d.Version, TargetFramework: g.TargetFramework,
				})
			}
		}
	} else {
		for _, d := range pkg.Metadata.Dependencies.Dependencies {
			m.Dependencies = append(m.Dependencies, Dependency{ID: d.ID, VersionSpec: d.Version})
		}
	}

	if m.ID == "" || m.Version == "" {
		return Manifest{}, errors.New("nupkg: manifest missing id or version")
	}
	return m, nil
}

// IsSymbolsPackage reports whether this archive looks like a symbols
// package: its id carries the conventional ".symbols" suffix, or every file
// entry is a debug artifact (.pdb / .dll.mdb). Either signal alone is
// sufficient; this is a heuristic, not a format guarantee, since symbols
// packages are not specified by a formal schema.
func (a *Archive) IsSymbolsPackage() bool {
	if strings.HasSuffix(strings.ToLower(a.Manifest.ID), ".symbols") {
		return true
	}
	if len(a.entries) == 0 {
		return false
	}
	sawDebugArtifact := false
	for _, f := range a.entries {
		name := strings.ToLower(f.Name)
		if strings.HasSuffix(name, ".nuspec") || strings.Contains(name, "/") && strings.HasPrefix(name, "_rels") {
			continue
		}
		if strings.HasSuffix(name, ".pdb") || strings.HasSuffix(name, ".dll.mdb") {
			sawDebugArtifact = true
			continue
		}
		if strings.HasSuffix(name, "/") {
			continue
		}
		return false
	}
	return sawDebugArtifact
}
