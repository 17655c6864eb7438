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

// Package chaos is a Layer injecting synthetic failures and latency,
// for exercising retry and error-handling paths in tests without a
// flaky real backend.
package chaos

import (
	"context"
	"math/rand"
	"time"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/oio"
	"github.com/cs3org/udal/pkg/udal/udalerr"
)

// Options configures the chaos layer. A zero Options injects nothing.
type Options struct {
	// FailRate is the probability, in [0,1], that a call fails instead of
	// reaching the inner accessor.
	FailRate float64
	// Kind is the error Kind reported for injected failures.
	Kind udalerr.Kind
	// Status is the retry Status attached to injected failures.
	Status udalerr.Status
	// Latency, if non-zero, is added before every call reaches the inner
	// accessor (successful or not).
	Latency time.Duration
	// Rand is the source used to decide injection. A nil Rand uses a new
	// source with the fixed seed 1, created once per Layer call.
	Rand *rand.Rand
}

// Layer returns an accessor.Layer injecting failures per opts.
func Layer(opts Options) accessor.Layer {
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewSource(1))
	}
	return accessor.LayerFunc(func(inner accessor.Accessor) accessor.Accessor {
		return &chaotic{inner: inner, opts: opts, rand: r}
	})
}

type chaotic struct {
	inner accessor.Accessor
	opts  Options
	rand  *rand.Rand
}

func (c *chaotic) inject(ctx context.Context, op string) error {
	if c.opts.Latency > 0 {
		select {
		case <-time.After(c.opts.Latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.opts.FailRate <= 0 || c.rand.Float64() >= c.opts.FailRate {
		return nil
	}
	return udalerr.Newf(c.opts.Kind, "chaos: injected failure on %s", op).WithStatus(c.opts.Status)
}

func (c *chaotic) Info() udal.Info { return c.inner.Info() }

func (c *chaotic) Stat(ctx context.Context, path string, args udal.OpStat) (udal.RpStat, error) {
	if err := c.inject(ctx, "stat"); err != nil {
		return udal.RpStat{}, err
	}
	return c.inner.Stat(ctx, path, args)
}

func (c *chaotic) Read(ctx context.Context, path string, args udal.OpRead) (udal.RpRead, oio.Reader, error) {
	if err := c.inject(ctx, "read"); err != nil {
		return udal.RpRead{}, nil, err
	}
	return c.inner.Read(ctx, path, args)
}

func (c *chaotic) Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error) {
	if err := c.inject(ctx, "write"); err != nil {
		return udal.RpWrite{}, nil, err
	}
	return c.inner.Write(ctx, path, args)
}

func (c *chaotic) CreateDir(ctx context.Context, path string, args udal.OpCreateDir) (udal.RpCreateDir, error) {
	if err := c.inject(ctx, "create_dir"); err != nil {
		return udal.RpCreateDir{}, err
	}
	return c.inner.CreateDir(ctx, path, args)
}

func (c *chaotic) Delete(ctx context.Context) (udal.RpDelete, oio.BatchDelete, error) {
	if err := c.inject(ctx, "delete"); err != nil {
		return udal.RpDelete{}, nil, err
	}
	return c.inner.Delete(ctx)
}

func (c *chaotic) Copy(ctx context.Context, from, to string, args udal.OpCopy) (udal.RpCopy, error) {
	if err := c.inject(ctx, "copy"); err != nil {
		return udal.RpCopy{}, err
	}
	return c.inner.Copy(ctx, from, to, args)
}

func (c *chaotic) Rename(ctx context.Context, from, to string, args udal.OpRename) (udal.RpRename, error) {
	if err := c.inject(ctx, "rename"); err != nil {
		return udal.RpRename{}, err
	}
	return c.inner.Rename(ctx, from, to, args)
}

func (c *chaotic) List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error) {
	if err := c.inject(ctx, "list"); err != nil {
		return udal.RpList{}, nil, err
	}
	return c.inner.List(ctx, path, args)
}

func (c *chaotic) Presign(ctx context.Context, path string, args udal.OpPresign) (udal.RpPresign, error) {
	if err := c.inject(ctx, "presign"); err != nil {
		return udal.RpPresign{}, err
	}
	return c.inner.Presign(ctx, path, args)
}
