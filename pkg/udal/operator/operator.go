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

// Package operator is the user-facing entry point: it owns one
// (already layer-wrapped) Accessor and orchestrates the reader and
// writer pipelines on top of it. Callers never touch pkg/udal/accessor
// or pkg/udal/oio directly.
package operator

import (
	"context"
	"io"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/buffer"
	"github.com/cs3org/udal/pkg/udal/oio"
	"github.com/cs3org/udal/pkg/udal/udalerr"
)

// Operator is the façade applications hold onto, one per configured
// backend. It is safe to share across goroutines; the Readers and
// Writers it returns are not.
type Operator struct {
	acc accessor.Accessor
}

// New wraps an already layer-composed Accessor in an Operator.
func New(acc accessor.Accessor) *Operator {
	return &Operator{acc: acc}
}

// Info returns the underlying accessor's capabilities, scheme and root.
// The operator façade intentionally does NOT silently downgrade based on
// capability — callers that need to branch on what's supported should
// inspect Info() themselves (spec §9: "silent downgrade hides
// performance cliffs").
func (o *Operator) Info() udal.Info {
	return o.acc.Info()
}

// Stat returns the metadata for path.
func (o *Operator) Stat(ctx context.Context, path string, args udal.OpStat) (udal.Metadata, error) {
	path = udal.ToRel(path)
	rp, err := o.acc.Stat(ctx, path, args)
	if err != nil {
		return udal.Metadata{}, err
	}
	return rp.Metadata, nil
}

// ReadHandle is the result of opening a read: callers can either drain
// it as a plain io.Reader or, via Seekable, as an io.ReadSeeker.
type ReadHandle struct {
	ctx        context.Context
	reader     oio.Reader
	metadata   udal.Metadata
	chunk      int64
	concurrent int
	rangeOff   int64
	rangeLen   int64
}

// Metadata returns the reply metadata observed when the read was opened.
func (h *ReadHandle) Metadata() udal.Metadata { return h.metadata }

// Stream returns an io.ReadCloser draining the handle's range
// sequentially (internally pipelined via BufferStream).
func (h *ReadHandle) Stream() io.ReadCloser {
	size := int64(-1)
	if h.rangeLen >= 0 {
		size = h.rangeOff + h.rangeLen
	}
	s := oio.NewSeekableReader(h.ctx, h.reader, size, h.chunk, h.concurrent)
	if h.rangeOff != 0 {
		_, _ = s.Seek(h.rangeOff, io.SeekStart)
	}
	return readSeekCloser{s}
}

// Seekable returns an io.ReadSeekCloser over the object, sized from the
// reply metadata's content length when the backend reported one.
func (h *ReadHandle) Seekable() io.ReadSeekCloser {
	size := int64(-1)
	if h.metadata.ContentLength != nil {
		size = *h.metadata.ContentLength
	}
	s := oio.NewSeekableReader(h.ctx, h.reader, size, h.chunk, h.concurrent)
	if h.rangeOff != 0 {
		_, _ = s.Seek(h.rangeOff, io.SeekStart)
	}
	return readSeekCloser{s}
}

type readSeekCloser struct {
	*oio.SeekableReader
}

// Read opens path for reading and returns a handle callers can stream or
// seek over. The accessor's Reader is always wrapped in a BufferStream
// via the returned handle, so every backend gets concurrent chunk
// prefetch for free.
func (o *Operator) Read(ctx context.Context, path string, args udal.OpRead) (*ReadHandle, error) {
	path = udal.ToRel(path)
	rp, r, err := o.acc.Read(ctx, path, args)
	if err != nil {
		return nil, err
	}
	length := int64(-1)
	if args.Range.HasLength() {
		length = args.Range.Size()
	}
	return &ReadHandle{
		ctx:        ctx,
		reader:     r,
		metadata:   rp.Metadata,
		chunk:      args.Chunk,
		concurrent: args.Concurrent,
		rangeOff:   args.Range.Offset,
		rangeLen:   length,
	}, nil
}

// WriteHandle wraps the accessor's Writer in a BufferedWriter. There is
// no automatic abort-on-drop: Go has no destructors, so callers must call
// Close on success or Abort on failure themselves (typically via a
// deferred Abort that becomes a no-op once Close has run). A handle
// dropped without either may leave a dangling multipart upload for the
// backend to reap on its own schedule — see spec §5's cancellation note.
type WriteHandle struct {
	inner  *oio.BufferedWriter
	closed bool
}

// Write hands p to the buffered writer and returns how many bytes it
// accepted. It takes a context, so it does not implement io.Writer.
func (h *WriteHandle) Write(ctx context.Context, p []byte) (int, error) {
	return h.inner.Write(ctx, buffer.New(p))
}

// Close finalizes the write.
func (h *WriteHandle) Close(ctx context.Context) error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.inner.Close(ctx)
}

// Abort discards the write. Safe to call after Close (no-op).
func (h *WriteHandle) Abort(ctx context.Context) error {
	if h.closed {
		return nil
	}
	return h.inner.Abort(ctx)
}

// Write opens path for writing with the given options and a buffering
// threshold (bufSize) and known total size (totalSize, -1 if streaming
// an unknown amount).
func (o *Operator) Write(ctx context.Context, path string, args udal.OpWrite, bufSize, totalSize int64) (*WriteHandle, error) {
	path = udal.ToRel(path)
	_, w, err := o.acc.Write(ctx, path, args)
	if err != nil {
		return nil, err
	}
	return &WriteHandle{inner: oio.NewBufferedWriter(w, bufSize, totalSize)}, nil
}

// CreateDir creates a directory at path. Creating an existing directory
// succeeds (spec §7: idempotence override).
func (o *Operator) CreateDir(ctx context.Context, path string, args udal.OpCreateDir) error {
	path = udal.ToRel(path)
	if !udal.IsDir(path) {
		path += "/"
	}
	_, err := o.acc.CreateDir(ctx, path, args)
	return err
}

// Delete deletes a single path immediately (enqueue + flush + close
// through a one-shot Deleter). For bulk deletes, use NewDeleter.
func (o *Operator) Delete(ctx context.Context, path string, args udal.OpDelete) error {
	path = udal.ToRel(path)
	_, bd, err := o.acc.Delete(ctx)
	if err != nil {
		return err
	}
	d := oio.NewDeleter(bd, o.acc.Info().Capability.DeleteBatchSize(), 3)
	if err := d.Delete(ctx, oio.DeleteInput{Path: path, Version: args.Version}); err != nil {
		return err
	}
	return d.Close(ctx)
}

// NewDeleter opens a Deleter sized to the accessor's declared batch
// capability, for callers deleting many paths.
func (o *Operator) NewDeleter(ctx context.Context) (*oio.Deleter, error) {
	_, bd, err := o.acc.Delete(ctx)
	if err != nil {
		return nil, err
	}
	return oio.NewDeleter(bd, o.acc.Info().Capability.DeleteBatchSize(), 3), nil
}

// Copy copies from to to. Copying a path to itself is an IsSameFile
// error; copying a directory, either as source or destination, is an
// IsADirectory error (spec §8, testable property: copy never silently
// recurses or merges into a directory).
func (o *Operator) Copy(ctx context.Context, from, to string, args udal.OpCopy) error {
	from, to = udal.ToRel(from), udal.ToRel(to)
	if from == to {
		return udalerr.New(udalerr.IsSameFile, "copy source and destination are the same path").WithContext("path", from)
	}
	if rp, err := o.acc.Stat(ctx, from, udal.OpStat{}); udal.IsDir(from) || (err == nil && rp.Metadata.Mode.IsDir()) {
		return udalerr.New(udalerr.IsADirectory, "copy source is a directory").WithContext("path", from)
	}
	if rp, err := o.acc.Stat(ctx, to, udal.OpStat{}); udal.IsDir(to) || (err == nil && rp.Metadata.Mode.IsDir()) {
		return udalerr.New(udalerr.IsADirectory, "copy destination is a directory").WithContext("path", to)
	}
	_, err := o.acc.Copy(ctx, from, to, args)
	return err
}

// Rename renames from to to.
func (o *Operator) Rename(ctx context.Context, from, to string, args udal.OpRename) error {
	from, to = udal.ToRel(from), udal.ToRel(to)
	_, err := o.acc.Rename(ctx, from, to, args)
	return err
}

// List lists path, returning a Lister to stream Entries from.
func (o *Operator) List(ctx context.Context, path string, args udal.OpList) (*oio.Lister, error) {
	path = udal.ToRel(path)
	if !udal.IsDir(path) && path != "" {
		path += "/"
	}
	_, pager, err := o.acc.List(ctx, path, args)
	if err != nil {
		return nil, err
	}
	return oio.NewLister(ctx, pager), nil
}

// Presign returns a fully-formed, unsigned HTTP request descriptor for
// path. The caller is responsible for issuing it.
func (o *Operator) Presign(ctx context.Context, path string, args udal.OpPresign) (udal.RpPresign, error) {
	path = udal.ToRel(path)
	return o.acc.Presign(ctx, path, args)
}
