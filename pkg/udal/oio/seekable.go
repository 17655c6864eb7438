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
	"io"

	"github.com/cs3org/udal/pkg/udal/buffer"
)

// SeekableReader wraps a Reader behind an io.ReadSeeker. Seeking past EOF
// is allowed and produces zero-length reads, never an error; a new
// BufferStream is built from the target offset on every Seek.
type SeekableReader struct {
	ctx        context.Context
	reader     Reader
	size       int64 // -1 if unknown; Seek(io.SeekEnd) requires it
	chunkSize  int64
	concurrent int

	pos    int64
	stream *BufferStream
	cur    buffer.Buffer
}

// NewSeekableReader builds a seekable adapter starting at offset 0. size
// may be -1 if unknown, but then SeekEnd is unsupported.
func NewSeekableReader(ctx context.Context, reader Reader, size, chunkSize int64, concurrency int) *SeekableReader {
	return &SeekableReader{
		ctx:        ctx,
		reader:     reader,
		size:       size,
		chunkSize:  chunkSize,
		concurrent: concurrency,
	}
}

// Seek implements io.Seeker.
func (r *SeekableReader) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		if r.size < 0 {
			return 0, errUnknownSize
		}
		target = r.size + offset
	default:
		return 0, errBadWhence
	}
	if target < 0 {
		return 0, errNegativeOffset
	}

	r.pos = target
	if r.stream != nil {
		_ = r.stream.Close()
		r.stream = nil
	}
	r.cur = buffer.Buffer{}
	return r.pos, nil
}

// Read implements io.Reader, draining buffers from an internally managed
// BufferStream. Reading past the object's end returns (0, io.EOF).
func (r *SeekableReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := 0
	for n < len(p) {
		if r.cur.IsEmpty() {
			if err := r.advance(); err != nil {
				if n > 0 {
					return n, nil
				}
				return 0, err
			}
		}
		c := copy(p[n:], r.cur.Chunk())
		r.cur.Advance(c)
		n += c
		r.pos += int64(c)
	}
	return n, nil
}

func (r *SeekableReader) advance() error {
	if r.stream == nil {
		length := int64(-1)
		if r.size >= 0 {
			length = r.size - r.pos
			if length < 0 {
				length = 0
			}
		}
		r.stream = NewBufferStream(r.ctx, r.reader, r.pos, length, r.chunkSize, r.concurrent)
	}

	buf, ok, err := r.stream.Next()
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	r.cur = buf
	return nil
}

// Close releases the underlying BufferStream's resources, if any.
func (r *SeekableReader) Close() error {
	if r.stream != nil {
		return r.stream.Close()
	}
	return nil
}

type seekErr string

func (e seekErr) Error() string { return string(e) }

const (
	errUnknownSize    = seekErr("oio: seek from end requires a known size")
	errBadWhence      = seekErr("oio: invalid whence")
	errNegativeOffset = seekErr("oio: seek to negative offset")
)
