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

// Package concurrency is a Layer bounding the number of in-flight
// accessor operations against a single backend, so a caller fanning
// out many Operator calls cannot overrun a backend's connection or
// file-descriptor budget.
package concurrency

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/oio"
)

// Layer returns an accessor.Layer admitting at most n concurrent calls.
// Read and Write are excluded from the bound once opened: the semaphore
// slot is held only for the duration of opening the Reader/Writer, not
// for the lifetime of the subsequent streaming, so a single slow
// download cannot starve the other ops indefinitely. Delete is not
// bounded: it passes straight through without taking a slot.
func Layer(n int64) accessor.Layer {
	return accessor.LayerFunc(func(inner accessor.Accessor) accessor.Accessor {
		return &bounded{inner: inner, sem: semaphore.NewWeighted(n)}
	})
}

type bounded struct {
	inner accessor.Accessor
	sem   *semaphore.Weighted
}

func (b *bounded) acquire(ctx context.Context) (func(), error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { b.sem.Release(1) }, nil
}

func (b *bounded) Info() udal.Info { return b.inner.Info() }

func (b *bounded) Stat(ctx context.Context, path string, args udal.OpStat) (udal.RpStat, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return udal.RpStat{}, err
	}
	defer release()
	return b.inner.Stat(ctx, path, args)
}

func (b *bounded) Read(ctx context.Context, path string, args udal.OpRead) (udal.RpRead, oio.Reader, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return udal.RpRead{}, nil, err
	}
	defer release()
	return b.inner.Read(ctx, path, args)
}

func (b *bounded) Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return udal.RpWrite{}, nil, err
	}
	defer release()
	return b.inner.Write(ctx, path, args)
}

func (b *bounded) CreateDir(ctx context.Context, path string, args udal.OpCreateDir) (udal.RpCreateDir, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return udal.RpCreateDir{}, err
	}
	defer release()
	return b.inner.CreateDir(ctx, path, args)
}

func (b *bounded) Delete(ctx context.Context) (udal.RpDelete, oio.BatchDelete, error) {
	return b.inner.Delete(ctx)
}

func (b *bounded) Copy(ctx context.Context, from, to string, args udal.OpCopy) (udal.RpCopy, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return udal.RpCopy{}, err
	}
	defer release()
	return b.inner.Copy(ctx, from, to, args)
}

func (b *bounded) Rename(ctx context.Context, from, to string, args udal.OpRename) (udal.RpRename, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return udal.RpRename{}, err
	}
	defer release()
	return b.inner.Rename(ctx, from, to, args)
}

func (b *bounded) List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return udal.RpList{}, nil, err
	}
	defer release()
	return b.inner.List(ctx, path, args)
}

func (b *bounded) Presign(ctx context.Context, path string, args udal.OpPresign) (udal.RpPresign, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return udal.RpPresign{}, err
	}
	defer release()
	return b.inner.Presign(ctx, path, args)
}
