// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

//go:build !windows

package fsx

import (
	"os"
	"path/filepath"
	"strings"
)

// SetHidden marks path hidden using the Unix convention of a leading dot
// on the basename, since POSIX filesystems carry no hidden-attribute bit.
// Returns the (possibly renamed) path.
func (Local) SetHidden(path string) (string, error) {
	dir, base := filepath.Split(path)
	if strings.HasPrefix(base, ".") {
		return path, nil
	}
	hidden := filepath.Join(dir, "."+base)
	if err := os.Rename(path, hidden); err != nil {
		return path, err
	}
	return hidden, nil
}

// Unhide strips the leading-dot convention from path's basename, if
// present.
func (Local) Unhide(path string) error {
	dir, base := filepath.Split(path)
	if !strings.HasPrefix(base, ".") {
		return nil
	}
	return os.Rename(path, filepath.Join(dir, strings.TrimPrefix(base, ".")))
}

// IsHidden reports whether path's basename carries the leading-dot
// convention.
func (Local) IsHidden(path string) (bool, error) {
	return strings.HasPrefix(filepath.Base(path), "."), nil
}
