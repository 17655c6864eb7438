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

	"golang.org/x/sync/errgroup"

	"github.com/cs3org/udal/pkg/udal/buffer"
)

// chunkTask is one contiguous sub-range of a BufferStream's overall range.
type chunkTask struct {
	offset int64
	limit  int64
}

// BufferStream drives concurrent range reads over a Reader and replays
// their results strictly in byte-range order, regardless of which
// request finishes first. Concurrency==1 degenerates to sequential
// prefetch; ChunkSize==0 means one request for the entire range.
type BufferStream struct {
	reader     Reader
	chunkSize  int64
	concurrent int

	tasks        []chunkTask
	next         int
	results      []result
	submittedSet map[int]bool

	ctx    context.Context
	cancel context.CancelCauseFunc
	group  *errgroup.Group

	err error
	eof bool
}

type result struct {
	buf   buffer.Buffer
	done  chan struct{}
	err   error
	short bool
}

// NewBufferStream builds a stream over reader for [offset, offset+length)
// (length<0 means unbounded, read until short/EOF from the first task
// alone — callers with an unbounded range should pass a generous length
// or drive Next in a loop until EOF). chunkSize<=0 means one task for the
// whole range. concurrency<1 is treated as 1.
func NewBufferStream(ctx context.Context, reader Reader, offset, length, chunkSize int64, concurrency int) *BufferStream {
	if concurrency < 1 {
		concurrency = 1
	}

	s := &BufferStream{
		reader:     reader,
		chunkSize:  chunkSize,
		concurrent: concurrency,
	}

	s.tasks = splitRange(offset, length, chunkSize)
	cctx, cancel := context.WithCancelCause(ctx)
	s.ctx = cctx
	s.cancel = cancel
	s.group, s.ctx = errgroup.WithContext(cctx)
	s.group.SetLimit(concurrency)

	s.results = make([]result, len(s.tasks))
	for i := range s.results {
		s.results[i].done = make(chan struct{})
	}
	return s
}

func splitRange(offset, length, chunkSize int64) []chunkTask {
	if length < 0 {
		return []chunkTask{{offset: offset, limit: -1}}
	}
	if chunkSize <= 0 || chunkSize >= length {
		return []chunkTask{{offset: offset, limit: length}}
	}

	var tasks []chunkTask
	remaining := length
	cur := offset
	for remaining > 0 {
		n := chunkSize
		if n > remaining {
			n = remaining
		}
		tasks = append(tasks, chunkTask{offset: cur, limit: n})
		cur += n
		remaining -= n
	}
	return tasks
}

func (s *BufferStream) submit(i int) {
	task := s.tasks[i]
	s.group.Go(func() error {
		buf, err := s.reader.ReadAt(s.ctx, task.offset, taskLimit(task.limit))
		s.results[i].buf = buf
		s.results[i].err = err
		if err == nil && task.limit >= 0 && int64(buf.Len()) < task.limit {
			s.results[i].short = true
		}
		close(s.results[i].done)
		if err != nil {
			s.cancel(err)
			return err
		}
		return nil
	})
}

func taskLimit(limit int64) int64 {
	if limit < 0 {
		return 1 << 32 // effectively unbounded single request
	}
	return limit
}

// Next returns the next completed task's Buffer in submission (byte-range)
// order. It returns (Buffer{}, false, nil) once every task has been
// emitted (EOF of the stream) and (Buffer{}, false, err) if any task
// errored — after an error the stream is fused and subsequent tasks are
// never submitted.
func (s *BufferStream) Next() (buffer.Buffer, bool, error) {
	if s.err != nil {
		return buffer.Buffer{}, false, s.err
	}
	if s.eof || s.next >= len(s.tasks) {
		s.eof = true
		return buffer.Buffer{}, false, nil
	}

	// Keep the in-flight window full: up to s.concurrent tasks, counting
	// the one we're about to wait on.
	for i := s.next; i < len(s.tasks) && i < s.next+s.concurrent; i++ {
		if !s.submitted(i) {
			s.submit(i)
			s.markSubmitted(i)
		}
	}

	r := &s.results[s.next]
	<-r.done

	if r.err != nil {
		s.err = r.err
		return buffer.Buffer{}, false, r.err
	}

	buf := r.buf
	short := r.short
	s.next++
	if short {
		// Spec §4.2: when a backend's read_at returns short, the stream
		// truncates — it does not retry within a chunk, and no further
		// chunks are requested since we're already at EOF.
		s.eof = true
		s.cancelRemaining()
	}
	return buf, true, nil
}

// submitted tracks which tasks have already been dispatched so repeated
// Next() calls don't resubmit the lookahead window.
func (s *BufferStream) submitted(i int) bool {
	return s.submittedSet != nil && s.submittedSet[i]
}

func (s *BufferStream) markSubmitted(i int) {
	if s.submittedSet == nil {
		s.submittedSet = make(map[int]bool, len(s.tasks))
	}
	s.submittedSet[i] = true
}

func (s *BufferStream) cancelRemaining() {
	s.cancel(nil)
}

// Close releases resources associated with the stream, waiting for any
// in-flight goroutines started by Next to finish (they will observe
// context cancellation if Close is called before the stream is drained).
func (s *BufferStream) Close() error {
	s.cancel(nil)
	_ = s.group.Wait()
	return nil
}
