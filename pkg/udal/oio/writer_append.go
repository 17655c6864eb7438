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
	"sync"

	"github.com/cs3org/udal/pkg/udal/buffer"
)

// Append is implemented by backends that support write_can_append:
// query (and lazily create) the object's current length, then append at
// a tracked offset that advances by the server's acknowledged length.
type Append interface {
	// AppendInit returns the object's current length, creating it if
	// absent.
	AppendInit(ctx context.Context) (offset int64, err error)
	// AppendAt appends buf at offset and returns how many bytes the
	// server acknowledged.
	AppendAt(ctx context.Context, offset int64, buf buffer.Buffer) (n int64, err error)
}

// AppendWriter serializes append RPCs against a tracked offset, per
// spec §5: "Append writers serialize their RPCs."
type AppendWriter struct {
	inner Append

	mu       sync.Mutex
	offset   int64
	inited   bool
	aborted  bool
	finished bool
}

// NewAppendWriter wraps inner.
func NewAppendWriter(inner Append) *AppendWriter {
	return &AppendWriter{inner: inner}
}

// Write implements Writer.
func (w *AppendWriter) Write(ctx context.Context, buf buffer.Buffer) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.inited {
		off, err := w.inner.AppendInit(ctx)
		if err != nil {
			return 0, err
		}
		w.offset = off
		w.inited = true
	}

	n, err := w.inner.AppendAt(ctx, w.offset, buf)
	if err != nil {
		return int(n), err
	}
	w.offset += n
	return int(n), nil
}

// Close implements Writer. Appending has no separate finalization step
// beyond the already-acknowledged appends.
func (w *AppendWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	w.finished = true
	w.mu.Unlock()
	return nil
}

// Abort implements Writer. Append backends have no multi-request upload
// to cancel; the bytes already appended remain, matching the object's
// prior (possibly partially-appended) state per spec §4.3's caveat that
// abort "must not exist (or must remain at its prior version)".
func (w *AppendWriter) Abort(ctx context.Context) error {
	w.mu.Lock()
	w.aborted = true
	w.mu.Unlock()
	return nil
}
