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

package oio

import (
	"context"

	"github.com/cs3org/udal/pkg/udal/buffer"
)

// Writer is the primitive every backend's write path must provide. write
// may accept only a prefix of buf, returning how many bytes were
// consumed; the caller retries with the remainder. A write that succeeds
// with n==0 while buf is non-empty is a contract violation.
//
// A failed Write leaves the writer in an indeterminate state: only Abort
// is valid thereafter. Close finalizes the object; after a successful
// Close the object is visible at the target path with exactly the bytes
// written. Abort discards all buffered and in-flight state; after Abort
// the object must not exist, or must remain at its prior version.
type Writer interface {
	Write(ctx context.Context, buf buffer.Buffer) (n int, err error)
	Close(ctx context.Context) error
	Abort(ctx context.Context) error
}

// OneShotWrite is implemented by backends whose native write is a single
// atomic call taking the entire body (fs write-all, S3 PUT Object). Given
// one, OneShotWriter supplies the Writer contract (buffer until Close,
// then issue one call) for free.
type OneShotWrite interface {
	WriteOnce(ctx context.Context, buf buffer.Buffer) error
}

// OneShotWriter buffers every write call and issues a single
// OneShotWrite.WriteOnce at Close.
type OneShotWriter struct {
	inner    OneShotWrite
	buffered []byte
	written  bool
	aborted  bool
}

// NewOneShotWriter wraps inner.
func NewOneShotWriter(inner OneShotWrite) *OneShotWriter {
	return &OneShotWriter{inner: inner}
}

// Write implements Writer.
func (w *OneShotWriter) Write(ctx context.Context, buf buffer.Buffer) (int, error) {
	n := buf.Len()
	w.buffered = append(w.buffered, buf.ToBytes()...)
	return n, nil
}

// Close implements Writer.
func (w *OneShotWriter) Close(ctx context.Context) error {
	if w.written || w.aborted {
		return nil
	}
	w.written = true
	return w.inner.WriteOnce(ctx, buffer.New(w.buffered))
}

// Abort implements Writer.
func (w *OneShotWriter) Abort(ctx context.Context) error {
	w.aborted = true
	w.buffered = nil
	return nil
}
