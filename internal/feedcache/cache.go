// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package feedcache holds the engine's in-memory package index: every
// record the store has been hydrated from, keyed by case-insensitive id
// and normalized version, with the four latest-version flags recomputed
// on every mutation. It is the single structure queries read from and the
// repository keeps in sync with the store; nothing here touches disk
// except Persist/Load, which hand off to the metadata snapshot codec.
package feedcache

import (
	"sort"
	"sync"

	"github.com/tomtom215/feedvault/internal/metadata"
	"github.com/tomtom215/feedvault/internal/version"
)

// Stats is a point-in-time snapshot of cache size, read for diagnostics
// and metrics export.
type Stats struct {
	PackageCount int64
	IDCount      int64
}

// MetadataCache is the RW-mutex-protected package index. Entries here
// never expire on their own: a record lives until the repository explicitly removes it, because
// a package's metadata is durable state, not a memoized computation.
type MetadataCache struct {
	mu    sync.RWMutex
	byKey map[string]*metadata.Record
	dirty bool
}

// New returns an empty MetadataCache.
func New() *MetadataCache {
	return &MetadataCache{byKey: make(map[string]*metadata.Record)}
}

func key(id, normVersion string) string {
	return version.LowerID(id) + "@" + normVersion
}

// IsEmpty reports whether the cache holds no records.
func (c *MetadataCache) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey) == 0
}

// Exists reports whether id/v is present, regardless of its listed state.
func (c *MetadataCache) Exists(id string, v version.Version) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byKey[key(id, v.Normalized())]
	return ok
}

// Get returns the record for id/v, if present.
func (c *MetadataCache) Get(id string, v version.Version) (*metadata.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.byKey[key(id, v.Normalized())]
	return rec, ok
}

// GetAll returns every record currently held, in no particular order.
// Callers that need a stable order should sort the result themselves.
func (c *MetadataCache) GetAll() []*metadata.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*metadata.Record, 0, len(c.byKey))
	for _, rec := range c.byKey {
		out = append(out, rec)
	}
	return out
}

// Stats returns the current size of the cache.
func (c *MetadataCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make(map[string]struct{}, len(c.byKey))
	for _, rec := range c.byKey {
		ids[version.LowerID(rec.ID)] = struct{}{}
	}
	return Stats{PackageCount: int64(len(c.byKey)), IDCount: int64(len(ids))}
}

// Add inserts or overwrites rec and recomputes the latest-version flags
// for rec's id. Overwriting an existing (id, version) pair is how a push
// with allowOverrideExistingPackageOnPush replaces a prior record.
func (c *MetadataCache) Add(rec *metadata.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[key(rec.ID, rec.VersionNormalized)] = rec
	c.dirty = true
	c.updateLatestFlagsLocked(rec.ID)
}

// AddMany inserts a batch of records in one locked pass, recomputing
// latest-version flags once per distinct id rather than once per record.
// Used by the repository's cold-start rebuild, where recomputing after
// every single insert would be quadratic in package count.
func (c *MetadataCache) AddMany(recs []*metadata.Record) {
	if len(recs) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	touched := make(map[string]struct{})
	for _, rec := range recs {
		c.byKey[key(rec.ID, rec.VersionNormalized)] = rec
		touched[version.LowerID(rec.ID)] = struct{}{}
	}
	c.dirty = true
	for id := range touched {
		c.updateLatestFlagsLocked(id)
	}
}

// Remove deletes id/v from the cache and recomputes id's latest-version
// flags over its remaining versions. A no-op if id/v is not present.
// softDelete sets listed=false on the record instead of deleting it, for
// the enableDelisting configuration: the package stays findable by exact
// id+version but drops out of search and the latest-version rankings.
func (c *MetadataCache) Remove(id string, v version.Version, softDelete bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(id, v.Normalized())
	if softDelete {
		if rec, ok := c.byKey[k]; ok {
			rec.Listed = false
		} else {
			return
		}
	} else {
		if _, ok := c.byKey[k]; !ok {
			return
		}
		delete(c.byKey, k)
	}
	c.dirty = true
	c.updateLatestFlagsLocked(id)
}

// Clear empties the cache.
func (c *MetadataCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey = make(map[string]*metadata.Record)
	c.dirty = true
}

// Persist writes every held record to path via the metadata snapshot
// codec, unconditionally.
func (c *MetadataCache) Persist(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := metadata.WriteSnapshot(path, c.sortedLocked()); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// PersistIfDirty writes the snapshot only if the cache has changed since
// the last successful Persist/PersistIfDirty call, which is what the
// repository's background persistence timer calls on every tick so an
// idle feed does not rewrite an unchanged snapshot every minute.
func (c *MetadataCache) PersistIfDirty(path string) error {
	c.mu.RLock()
	dirty := c.dirty
	c.mu.RUnlock()
	if !dirty {
		return nil
	}
	return c.Persist(path)
}

// Load replaces the cache's contents with the snapshot at path and
// recomputes latest-version flags for every id, since flags are never
// trusted from a loaded snapshot.
func (c *MetadataCache) Load(path string) error {
	snap, err := metadata.LoadSnapshot(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey = make(map[string]*metadata.Record, len(snap.Packages))
	ids := make(map[string]struct{})
	for _, rec := range snap.Packages {
		rec.ClearLatestFlags()
		c.byKey[key(rec.ID, rec.VersionNormalized)] = rec
		ids[version.LowerID(rec.ID)] = struct{}{}
	}
	for id := range ids {
		c.updateLatestFlagsLocked(id)
	}
	c.dirty = false
	return nil
}

func (c *MetadataCache) sortedLocked() []*metadata.Record {
	out := make([]*metadata.Record, 0, len(c.byKey))
	for _, rec := range c.byKey {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].VersionNormalized < out[j].VersionNormalized
	})
	return out
}

// updateLatestFlagsLocked recomputes the four latest-version flags across
// every version of id. Must be called with mu held for writing.
//
// Two independent rankings are computed: the SemVer1 bucket (listed
// records whose version is not SemVer2) and the SemVer2 bucket (every
// listed record). Within each bucket, AbsoluteLatest is the highest
// version including pre-releases, and Latest is the highest non-prerelease
// version, if the bucket has one.
func (c *MetadataCache) updateLatestFlagsLocked(id string) {
	lowerID := version.LowerID(id)

	var semVer1, semVer2 []*metadata.Record
	for _, rec := range c.byKey {
		if version.LowerID(rec.ID) != lowerID {
			continue
		}
		rec.ClearLatestFlags()
		rec.IsSemVer2Flag = recordIsSemVer2(rec)
		if !rec.Listed {
			continue
		}
		semVer2 = append(semVer2, rec)
		if !rec.IsSemVer2Flag {
			semVer1 = append(semVer1, rec)
		}
	}

	markLatest(semVer1, func(r *metadata.Record) *bool { return &r.SemVer1IsLatest }, func(r *metadata.Record) *bool { return &r.SemVer1IsAbsoluteLatest })
	markLatest(semVer2, func(r *metadata.Record) *bool { return &r.SemVer2IsLatest }, func(r *metadata.Record) *bool { return &r.SemVer2IsAbsoluteLatest })
}

func recordIsSemVer2(rec *metadata.Record) bool {
	v, err := version.Parse(rec.VersionFull)
	if err != nil {
		return false
	}
	return v.IsSemVer2() || metadata.DependenciesReferenceSemVer2(rec.DependenciesFlat)
}

func markLatest(bucket []*metadata.Record, latest, absoluteLatest func(*metadata.Record) *bool) {
	if len(bucket) == 0 {
		return
	}

	parsed := make([]version.Version, len(bucket))
	for i, rec := range bucket {
		v, err := version.Parse(rec.VersionFull)
		if err != nil {
			continue
		}
		parsed[i] = v
	}

	absIdx := 0
	for i := 1; i < len(bucket); i++ {
		if parsed[i].GreaterThan(parsed[absIdx]) {
			absIdx = i
		}
	}
	*absoluteLatest(bucket[absIdx]) = true

	releaseIdx := -1
	for i := range bucket {
		if parsed[i].IsPrerelease() {
			continue
		}
		if releaseIdx == -1 || parsed[i].GreaterThan(parsed[releaseIdx]) {
			releaseIdx = i
		}
	}
	if releaseIdx != -1 {
		*latest(bucket[releaseIdx]) = true
	}
}
