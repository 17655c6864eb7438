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

// BufferedWriter sits on top of any Writer. If the total size is known
// and equals the current call's length, it bypasses buffering entirely;
// otherwise it accumulates into bufSize-sized chunks before flushing,
// per spec §4.3.
type BufferedWriter struct {
	inner      Writer
	bufSize    int64
	totalKnown bool
	total      int64

	buffered []byte
	sent     int64
}

// NewBufferedWriter wraps inner. totalSize<0 means unknown.
func NewBufferedWriter(inner Writer, bufSize int64, totalSize int64) *BufferedWriter {
	return &BufferedWriter{
		inner:      inner,
		bufSize:    bufSize,
		totalKnown: totalSize >= 0,
		total:      totalSize,
	}
}

// Write implements Writer.
func (w *BufferedWriter) Write(ctx context.Context, buf buffer.Buffer) (int, error) {
	n := buf.Len()

	if w.totalKnown && int64(n) == w.total && len(w.buffered) == 0 {
		written, err := w.inner.Write(ctx, buf)
		w.sent += int64(written)
		return written, err
	}

	w.buffered = append(w.buffered, buf.ToBytes()...)
	for int64(len(w.buffered)) >= w.bufSize && w.bufSize > 0 {
		chunk := w.buffered[:w.bufSize]
		if err := w.flush(ctx, chunk); err != nil {
			return n, err
		}
		w.buffered = append([]byte(nil), w.buffered[w.bufSize:]...)
	}
	return n, nil
}

func (w *BufferedWriter) flush(ctx context.Context, data []byte) error {
	remaining := data
	for len(remaining) > 0 {
		written, err := w.inner.Write(ctx, buffer.New(remaining))
		if err != nil {
			return err
		}
		w.sent += int64(written)
		remaining = remaining[written:]
	}
	return nil
}

// Close implements Writer, flushing any remainder before delegating.
func (w *BufferedWriter) Close(ctx context.Context) error {
	if len(w.buffered) > 0 {
		if err := w.flush(ctx, w.buffered); err != nil {
			return err
		}
		w.buffered = nil
	}
	return w.inner.Close(ctx)
}

// Abort implements Writer, dropping the buffer and forwarding to the
// inner writer's abort.
func (w *BufferedWriter) Abort(ctx context.Context) error {
	w.buffered = nil
	return w.inner.Abort(ctx)
}
