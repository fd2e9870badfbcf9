// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package fsx abstracts the local filesystem operations the expanded
// store needs: enumerate, open, create, delete, a hidden attribute used to
// implement package unlisting, and file timestamps. A thin abstraction
// keeps ExpandedStore testable against a temp directory without reaching
// for a virtual-filesystem dependency the pack does not carry (see
// DESIGN.md).
package fsx

import (
	"io"
	"os"
	"path/filepath"
	"time"
)

// FileSystem is the local filesystem surface the expanded store depends
// on. The default implementation is *Local; tests may substitute a fake.
type FileSystem interface {
	// Exists reports whether path names a regular file.
	Exists(path string) bool
	// MkdirAll creates path and any missing parents.
	MkdirAll(path string) error
	// Create opens path for writing, truncating it if it already exists.
	Create(path string) (io.WriteCloser, error)
	// Open opens path for reading.
	Open(path string) (io.ReadCloser, error)
	// Remove deletes path. It is not an error for path to already be gone.
	Remove(path string) error
	// ListFiles returns the regular-file entries directly inside dir
	// (non-recursive), or nil if dir does not exist.
	ListFiles(dir string) ([]string, error)
	// ListDirs returns the directory entries directly inside dir, or nil
	// if dir does not exist.
	ListDirs(dir string) ([]string, error)
	// SetHidden marks path hidden, in whatever way the host OS expresses
	// that, and returns the path's new location (some OS hide files by
	// renaming them). Idempotent.
	SetHidden(path string) (string, error)
	// Unhide is the inverse of SetHidden, restoring path's visible form.
	// Idempotent.
	Unhide(path string) error
	// IsHidden reports whether path is currently marked hidden.
	IsHidden(path string) (bool, error)
	// ModTime returns path's last-modified time.
	ModTime(path string) (time.Time, error)
	// Size returns path's size in bytes.
	Size(path string) (int64, error)
}

// ResolveHidden locates the on-disk form of path whether or not it is
// currently hidden, since the two backends express "hidden" differently:
// Windows keeps the path and flips an attribute bit; the Unix backend
// renames to a dotfile. Callers that only have the canonical (visible)
// path use this to find the package archive either way.
func ResolveHidden(fs FileSystem, path string) (resolved string, hidden bool, err error) {
	if fs.Exists(path) {
		h, err := fs.IsHidden(path)
		if err != nil {
			return path, false, err
		}
		return path, h, nil
	}

	dir, base := filepath.Split(path)
	dotted := filepath.Join(dir, "."+base)
	if fs.Exists(dotted) {
		return dotted, true, nil
	}
	return path, false, nil
}

// Local is the production FileSystem backed directly by the os package.
type Local struct{}

// NewLocal returns a FileSystem rooted at the real OS filesystem.
func NewLocal() *Local { return &Local{} }

func (Local) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (Local) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755) //nolint:gosec // archive directories are not secrets
}

func (Local) Create(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // package archives are served back verbatim
}

func (Local) Open(path string) (io.ReadCloser, error) {
	return os.Open(path) //nolint:gosec // path is constructed from the store's own canonical layout
}

func (Local) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (Local) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func (Local) ListDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func (Local) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (Local) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
