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

// Package retry is a Layer that retries operations whose error carries
// udalerr.StatusTemporary, using an exponential backoff. Retry is a
// layer concern, never built into an accessor (spec §7).
package retry

import (
	"context"

	"github.com/cenkalti/backoff"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/oio"
	"github.com/cs3org/udal/pkg/udal/udalerr"
)

// Layer returns an accessor.Layer retrying temporary errors with the
// given backoff policy. A nil policy uses backoff.NewExponentialBackOff
// with its defaults.
func Layer(policy backoff.BackOff) accessor.Layer {
	return accessor.LayerFunc(func(inner accessor.Accessor) accessor.Accessor {
		return &retrier{inner: inner, policy: policy}
	})
}

type retrier struct {
	inner  accessor.Accessor
	policy backoff.BackOff
}

func (r *retrier) newPolicy() backoff.BackOff {
	if r.policy != nil {
		return r.policy
	}
	return backoff.NewExponentialBackOff()
}

func (r *retrier) Info() udal.Info { return r.inner.Info() }

func (r *retrier) Stat(ctx context.Context, path string, args udal.OpStat) (rp udal.RpStat, err error) {
	err = backoff.Retry(func() error {
		var e error
		rp, e = r.inner.Stat(ctx, path, args)
		return classify(e)
	}, backoff.WithContext(r.newPolicy(), ctx))
	return
}

func (r *retrier) Read(ctx context.Context, path string, args udal.OpRead) (rp udal.RpRead, rd oio.Reader, err error) {
	err = backoff.Retry(func() error {
		var e error
		rp, rd, e = r.inner.Read(ctx, path, args)
		return classify(e)
	}, backoff.WithContext(r.newPolicy(), ctx))
	return
}

// Write is not retried transparently: a failed write leaves the writer
// in an indeterminate state per spec §4.3, and only the caller (having
// called Abort) can safely decide to retry from scratch.
func (r *retrier) Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error) {
	return r.inner.Write(ctx, path, args)
}

func (r *retrier) CreateDir(ctx context.Context, path string, args udal.OpCreateDir) (rp udal.RpCreateDir, err error) {
	err = backoff.Retry(func() error {
		var e error
		rp, e = r.inner.CreateDir(ctx, path, args)
		return classify(e)
	}, backoff.WithContext(r.newPolicy(), ctx))
	return
}

func (r *retrier) Delete(ctx context.Context) (udal.RpDelete, oio.BatchDelete, error) {
	return r.inner.Delete(ctx)
}

func (r *retrier) Copy(ctx context.Context, from, to string, args udal.OpCopy) (rp udal.RpCopy, err error) {
	err = backoff.Retry(func() error {
		var e error
		rp, e = r.inner.Copy(ctx, from, to, args)
		return classify(e)
	}, backoff.WithContext(r.newPolicy(), ctx))
	return
}

func (r *retrier) Rename(ctx context.Context, from, to string, args udal.OpRename) (rp udal.RpRename, err error) {
	err = backoff.Retry(func() error {
		var e error
		rp, e = r.inner.Rename(ctx, from, to, args)
		return classify(e)
	}, backoff.WithContext(r.newPolicy(), ctx))
	return
}

func (r *retrier) List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error) {
	return r.inner.List(ctx, path, args)
}

func (r *retrier) Presign(ctx context.Context, path string, args udal.OpPresign) (rp udal.RpPresign, err error) {
	err = backoff.Retry(func() error {
		var e error
		rp, e = r.inner.Presign(ctx, path, args)
		return classify(e)
	}, backoff.WithContext(r.newPolicy(), ctx))
	return
}

// classify returns nil on success, returns a temporary err unchanged so
// backoff retries it, and wraps any other err in backoff.Permanent to
// stop immediately.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if udalerr.IsTemporary(err) {
		return err
	}
	return backoff.Permanent(err)
}
