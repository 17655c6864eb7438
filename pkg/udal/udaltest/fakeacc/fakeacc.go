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

// Package fakeacc is a minimal, in-memory accessor.Accessor double used
// by layer tests: it counts calls per operation and can be told to fail
// the first N calls to a given operation with a chosen error, so a layer
// wrapping it (retry, metrics, logging, concurrency, cache, chaos) can be
// exercised without a real backend.
package fakeacc

import (
	"context"
	"sync"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/buffer"
	"github.com/cs3org/udal/pkg/udal/oio"
)

// Fake is a trivial in-memory Accessor whose behavior per operation can
// be scripted with the FailXN helpers.
type Fake struct {
	mu    sync.Mutex
	calls map[string]int
	fails map[string]failSpec

	info udal.Info

	statRp   udal.RpStat
	readRp   udal.RpRead
	writeRp  udal.RpWrite
	listRp   udal.RpList
	copyRp   udal.RpCopy
	renameRp udal.RpRename

	// StatHook, if set, runs synchronously inside every Stat call before
	// it returns — tests use it to observe in-flight concurrency.
	StatHook func()
}

type failSpec struct {
	remaining int
	err       error
}

// New returns a Fake advertising full capability under the memory scheme.
func New() *Fake {
	return &Fake{
		calls: map[string]int{},
		fails: map[string]failSpec{},
		info: udal.Info{
			Scheme: udal.SchemeMemory,
			Name:   "fake",
			Capability: udal.Capability{
				Stat: true, Read: true, Write: true, CreateDir: true,
				Delete: true, Copy: true, Rename: true, List: true,
			},
		},
	}
}

func (f *Fake) fail(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	spec, ok := f.fails[op]
	if !ok || spec.remaining <= 0 {
		return nil
	}
	spec.remaining--
	f.fails[op] = spec
	return spec.err
}

func (f *Fake) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// FailStatN makes the next n calls to Stat return err.
func (f *Fake) FailStatN(n int, err error) { f.setFail("stat", n, err) }

// FailReadN makes the next n calls to Read return err.
func (f *Fake) FailReadN(n int, err error) { f.setFail("read", n, err) }

// FailWriteN makes the next n calls to Write return err.
func (f *Fake) FailWriteN(n int, err error) { f.setFail("write", n, err) }

// FailCopyN makes the next n calls to Copy return err.
func (f *Fake) FailCopyN(n int, err error) { f.setFail("copy", n, err) }

func (f *Fake) setFail(op string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[op] = failSpec{remaining: n, err: err}
}

// StatCalls returns how many times Stat has been invoked so far.
func (f *Fake) StatCalls() int { return f.callCount("stat") }

// ReadCalls returns how many times Read has been invoked so far.
func (f *Fake) ReadCalls() int { return f.callCount("read") }

// WriteCalls returns how many times Write has been invoked so far.
func (f *Fake) WriteCalls() int { return f.callCount("write") }

// CopyCalls returns how many times Copy has been invoked so far.
func (f *Fake) CopyCalls() int { return f.callCount("copy") }

func (f *Fake) Info() udal.Info { return f.info }

func (f *Fake) Stat(ctx context.Context, path string, args udal.OpStat) (udal.RpStat, error) {
	if err := f.fail("stat"); err != nil {
		return udal.RpStat{}, err
	}
	if f.StatHook != nil {
		f.StatHook()
	}
	return f.statRp, nil
}

func (f *Fake) Read(ctx context.Context, path string, args udal.OpRead) (udal.RpRead, oio.Reader, error) {
	if err := f.fail("read"); err != nil {
		return udal.RpRead{}, nil, err
	}
	return f.readRp, oio.ReaderFunc(func(ctx context.Context, offset, limit int64) (buffer.Buffer, error) {
		return buffer.Buffer{}, nil
	}), nil
}

func (f *Fake) Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error) {
	if err := f.fail("write"); err != nil {
		return udal.RpWrite{}, nil, err
	}
	return f.writeRp, oio.NewOneShotWriter(noopOneShot{}), nil
}

type noopOneShot struct{}

func (noopOneShot) WriteOnce(ctx context.Context, buf buffer.Buffer) error { return nil }

func (f *Fake) CreateDir(ctx context.Context, path string, args udal.OpCreateDir) (udal.RpCreateDir, error) {
	if err := f.fail("createdir"); err != nil {
		return udal.RpCreateDir{}, err
	}
	return udal.RpCreateDir{}, nil
}

func (f *Fake) Delete(ctx context.Context) (udal.RpDelete, oio.BatchDelete, error) {
	if err := f.fail("delete"); err != nil {
		return udal.RpDelete{}, nil, err
	}
	return udal.RpDelete{}, noopBatchDelete{}, nil
}

type noopBatchDelete struct{}

func (noopBatchDelete) DeleteBatch(ctx context.Context, inputs []oio.DeleteInput) ([]string, error) {
	deleted := make([]string, len(inputs))
	for i, in := range inputs {
		deleted[i] = in.Path
	}
	return deleted, nil
}

func (f *Fake) Copy(ctx context.Context, from, to string, args udal.OpCopy) (udal.RpCopy, error) {
	if err := f.fail("copy"); err != nil {
		return udal.RpCopy{}, err
	}
	return f.copyRp, nil
}

func (f *Fake) Rename(ctx context.Context, from, to string, args udal.OpRename) (udal.RpRename, error) {
	if err := f.fail("rename"); err != nil {
		return udal.RpRename{}, err
	}
	return f.renameRp, nil
}

func (f *Fake) List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error) {
	if err := f.fail("list"); err != nil {
		return udal.RpList{}, nil, err
	}
	return f.listRp, emptyPageList{}, nil
}

type emptyPageList struct{}

func (emptyPageList) NextPage(ctx context.Context, pc *oio.PageContext) error {
	pc.Done = true
	return nil
}

func (f *Fake) Presign(ctx context.Context, path string, args udal.OpPresign) (udal.RpPresign, error) {
	if err := f.fail("presign"); err != nil {
		return udal.RpPresign{}, err
	}
	return udal.RpPresign{}, nil
}

var _ accessor.Accessor = (*Fake)(nil)
