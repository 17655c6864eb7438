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

	"golang.org/x/sync/errgroup"

	"github.com/cs3org/udal/pkg/udal/buffer"
	"github.com/cs3org/udal/pkg/udal/udalerr"
)

// MultipartPart identifies one uploaded part on the wire. Numbering is
// 1-based, per backend convention; MultipartWriter tracks parts
// internally from 0 and translates when calling Complete.
type MultipartPart struct {
	Number int
	ETag   string
}

// Multipart is implemented by backends that support write_can_multi:
// initiate an upload, upload parts (possibly out of completion order, but
// MultipartWriter always calls them with ascending part numbers),
// complete or abort.
type Multipart interface {
	InitiateMultipart(ctx context.Context) (uploadID string, err error)
	UploadPart(ctx context.Context, uploadID string, partNumber int, buf buffer.Buffer) (MultipartPart, error)
	CompleteMultipart(ctx context.Context, uploadID string, parts []MultipartPart) error
	AbortMultipart(ctx context.Context, uploadID string) error
}

// MultipartWriter accumulates writes into a minimum-size buffer, flushing
// parts as it fills, and on Close flushes the tail as the final
// (possibly sub-minimum) part before issuing Complete. On Abort it
// issues the backend's abort RPC best-effort; a failure there is
// swallowed, matching spec §4.3's "best-effort cleanup".
type MultipartWriter struct {
	inner      Multipart
	minPartSz  int64
	concurrent int

	mu       sync.Mutex
	uploadID string
	buffered []byte
	nextNum  int // 0-based; translated to 1-based on the wire
	parts    []MultipartPart
	group    *errgroup.Group
	groupCtx context.Context
	closed   bool
	aborted  bool
}

// NewMultipartWriter wraps inner. minPartSize defaults to 5 MiB (spec
// §9's documented cloud-object-store convention) when <= 0. concurrency
// bounds in-flight part uploads; < 1 is treated as 1.
func NewMultipartWriter(ctx context.Context, inner Multipart, minPartSize int64, concurrency int) *MultipartWriter {
	if minPartSize <= 0 {
		minPartSize = 5 << 20
	}
	if concurrency < 1 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	return &MultipartWriter{
		inner:      inner,
		minPartSz:  minPartSize,
		concurrent: concurrency,
		group:      g,
		groupCtx:   gctx,
	}
}

func (w *MultipartWriter) ensureInitiated(ctx context.Context) error {
	if w.uploadID != "" {
		return nil
	}
	id, err := w.inner.InitiateMultipart(ctx)
	if err != nil {
		return err
	}
	w.uploadID = id
	return nil
}

// Write implements Writer.
func (w *MultipartWriter) Write(ctx context.Context, buf buffer.Buffer) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureInitiated(ctx); err != nil {
		return 0, err
	}

	n := buf.Len()
	w.buffered = append(w.buffered, buf.ToBytes()...)

	for int64(len(w.buffered)) >= w.minPartSz {
		part := w.buffered[:w.minPartSz]
		w.buffered = append([]byte(nil), w.buffered[w.minPartSz:]...)
		w.flushPart(part)
	}
	return n, nil
}

// flushPart submits one part upload, reserving its slot in w.parts so
// Complete observes parts in enqueue order regardless of which upload
// finishes first (spec §5: "multipart writers guarantee that complete
// observes parts in the order they were enqueued").
func (w *MultipartWriter) flushPart(data []byte) {
	idx := len(w.parts)
	num := w.nextNum
	w.nextNum++
	w.parts = append(w.parts, MultipartPart{})

	uploadID := w.uploadID
	w.group.Go(func() error {
		part, err := w.inner.UploadPart(w.groupCtx, uploadID, num+1, buffer.New(data))
		if err != nil {
			return err
		}
		w.mu.Lock()
		w.parts[idx] = part
		w.mu.Unlock()
		return nil
	})
}

// Close implements Writer.
func (w *MultipartWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed || w.aborted {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	if err := w.ensureInitiated(ctx); err != nil {
		w.mu.Unlock()
		return err
	}

	// The tail is the only part allowed below the minimum, per spec §4.3.
	if len(w.buffered) > 0 || len(w.parts) == 0 {
		tail := w.buffered
		w.buffered = nil
		w.flushPart(tail)
	}
	uploadID := w.uploadID
	w.mu.Unlock()

	if err := w.group.Wait(); err != nil {
		return udalerr.Wrap(err, udalerr.Unexpected, "multipart: part upload failed")
	}

	return w.inner.CompleteMultipart(ctx, uploadID, w.parts)
}

// Abort implements Writer.
func (w *MultipartWriter) Abort(ctx context.Context) error {
	w.mu.Lock()
	if w.aborted || w.closed {
		w.mu.Unlock()
		return nil
	}
	w.aborted = true
	uploadID := w.uploadID
	w.mu.Unlock()

	_ = w.group.Wait()
	if uploadID == "" {
		return nil
	}
	// Best-effort: ignore the backend abort RPC's failure, per spec §4.3.
	_ = w.inner.AbortMultipart(ctx, uploadID)
	return nil
}
