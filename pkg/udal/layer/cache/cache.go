// Copyright 2018-2026 CERN
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// In applying this license, CERN does not waive the privileges and immunities
// granted to it by virtue of its status as an Intergovernmental Organization
// or submit itself to any jurisdiction.

// Package cache is a Layer that memoizes Stat results in a ristretto
// cache, invalidating a path's entry whenever a Write, CreateDir, Copy
// (destination) or Rename through this layer could have changed it;
// parent directories' entries are not invalidated. It never caches Read, List or Presign: those carry payloads or
// continuation state too large or too volatile to memoize safely.
package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/oio"
)

// Options configures the cache layer.
type Options struct {
	// TTL is how long a cached stat result is trusted. Zero disables
	// expiry (entries live until evicted or invalidated).
	TTL time.Duration
	// MaxCost bounds the cache's cost budget; ristretto approximates LFU
	// eviction once it's exceeded. Every entry costs 1, so this is an
	// entry count. Defaults to 1<<26 entries when zero.
	MaxCost int64
}

// Layer returns an accessor.Layer caching Stat results per path.
func Layer(opts Options) accessor.Layer {
	maxCost := opts.MaxCost
	if maxCost <= 0 {
		maxCost = 1 << 26
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		panic(err)
	}
	return accessor.LayerFunc(func(inner accessor.Accessor) accessor.Accessor {
		return &cached{inner: inner, cache: c, ttl: opts.TTL}
	})
}

type statEntry struct {
	rp  udal.RpStat
	err error
}

type cached struct {
	inner accessor.Accessor
	cache *ristretto.Cache
	ttl   time.Duration
}

func (c *cached) Info() udal.Info { return c.inner.Info() }

// Stat is only served from cache for the zero-value options case: a
// conditional stat (If-Match etc.) always goes to the backend, since a
// cached unconditional result can't answer it.
func (c *cached) Stat(ctx context.Context, path string, args udal.OpStat) (udal.RpStat, error) {
	if args != (udal.OpStat{}) {
		return c.inner.Stat(ctx, path, args)
	}
	if v, ok := c.cache.Get(path); ok {
		e := v.(statEntry)
		return e.rp, e.err
	}
	rp, err := c.inner.Stat(ctx, path, args)
	c.set(path, statEntry{rp: rp, err: err})
	return rp, err
}

func (c *cached) set(path string, e statEntry) {
	if c.ttl > 0 {
		c.cache.SetWithTTL(path, e, 1, c.ttl)
		return
	}
	c.cache.Set(path, e, 1)
}

func (c *cached) invalidate(path string) {
	c.cache.Del(path)
}

func (c *cached) Read(ctx context.Context, path string, args udal.OpRead) (udal.RpRead, oio.Reader, error) {
	return c.inner.Read(ctx, path, args)
}

func (c *cached) Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error) {
	c.invalidate(path)
	return c.inner.Write(ctx, path, args)
}

func (c *cached) CreateDir(ctx context.Context, path string, args udal.OpCreateDir) (udal.RpCreateDir, error) {
	c.invalidate(path)
	return c.inner.CreateDir(ctx, path, args)
}

// Delete returns the inner BatchDeleter unwrapped: per-path invalidation
// on a batch delete would require intercepting every enqueued path, which
// the oio.BatchDelete interface doesn't expose. Callers relying on stat
// freshness immediately after a batch delete should use a short TTL.
func (c *cached) Delete(ctx context.Context) (udal.RpDelete, oio.BatchDelete, error) {
	return c.inner.Delete(ctx)
}

func (c *cached) Copy(ctx context.Context, from, to string, args udal.OpCopy) (udal.RpCopy, error) {
	c.invalidate(to)
	return c.inner.Copy(ctx, from, to, args)
}

func (c *cached) Rename(ctx context.Context, from, to string, args udal.OpRename) (udal.RpRename, error) {
	rp, err := c.inner.Rename(ctx, from, to, args)
	if err == nil {
		c.invalidate(from)
		c.invalidate(to)
	}
	return rp, err
}

func (c *cached) List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error) {
	return c.inner.List(ctx, path, args)
}

func (c *cached) Presign(ctx context.Context, path string, args udal.OpPresign) (udal.RpPresign, error) {
	return c.inner.Presign(ctx, path, args)
}
