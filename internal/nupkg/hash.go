// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package nupkg

import (
	"crypto/sha512"
	"encoding/base64"
	"io"
)

// HashAlgorithm identifies the digest used for a package's hash sidecar.
const HashAlgorithm = "SHA512"

// Hash computes the canonical base64-encoded SHA-512 digest of r's
// contents, matching the sidecar format ExpandedStore writes and reads.
func Hash(r io.Reader) (string, error) {
	h := sha512.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
