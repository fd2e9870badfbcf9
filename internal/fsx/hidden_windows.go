// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

//go:build windows

package fsx

import "golang.org/x/sys/windows"

// SetHidden sets the Windows FILE_ATTRIBUTE_HIDDEN bit on path, leaving its
// name unchanged.
func (Local) SetHidden(path string) (string, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return path, err
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return path, err
	}
	if attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0 {
		return path, nil
	}
	return path, windows.SetFileAttributes(p, attrs|windows.FILE_ATTRIBUTE_HIDDEN)
}

// Unhide clears the Windows FILE_ATTRIBUTE_HIDDEN bit on path.
func (Local) Unhide(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return err
	}
	if attrs&windows.FILE_ATTRIBUTE_HIDDEN == 0 {
		return nil
	}
	return windows.SetFileAttributes(p, attrs&^windows.FILE_ATTRIBUTE_HIDDEN)
}

// IsHidden reports whether path carries the FILE_ATTRIBUTE_HIDDEN bit.
func (Local) IsHidden(path string) (bool, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false, err
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false, err
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0, nil
}
