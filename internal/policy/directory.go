// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package policy

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/samber/oops"
)

// CachedDirectory wraps a UserDirectory with an LRU cache of unit rosters.
// Leader-scoped list endpoints resolve the same roster on every request;
// caching keeps that to one store query per unit between membership changes.
// Mutating user operations must call Invalidate for the affected unit.
type CachedDirectory struct {
	inner UserDirectory
	cache *lru.Cache
}

// NewCachedDirectory creates a CachedDirectory holding up to size rosters.
func NewCachedDirectory(inner UserDirectory, size int) (*CachedDirectory, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, oops.Code("DIRECTORY_CACHE_FAILED").With("size", size).Wrap(err)
	}
	return &CachedDirectory{inner: inner, cache: cache}, nil
}

// UnitMemberIDs returns the cached roster for the unit, resolving and
// caching it on miss.
func (d *CachedDirectory) UnitMemberIDs(ctx context.Context, unitID int64) ([]int64, error) {
	if v, ok := d.cache.Get(unitID); ok {
		rosterCacheHits.WithLabelValues("hit").Inc()
		return v.([]int64), nil
	}
	rosterCacheHits.WithLabelValues("miss").Inc()

	ids, err := d.inner.UnitMemberIDs(ctx, unitID)
	if err != nil {
		return nil, err
	}
	d.cache.Add(unitID, ids)
	return ids, nil
}

// Invalidate drops the cached roster for the unit.
func (d *CachedDirectory) Invalidate(unitID int64) {
	d.cache.Remove(unitID)
}

var _ UserDirectory = (*CachedDirectory)(nil)
