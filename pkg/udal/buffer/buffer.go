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

// Package buffer implements Buffer, the universal data unit the reader and
// writer pipelines pass around: either one contiguous byte region or an
// ordered sequence of regions sharing a single reference-counted backing
// store. Cloning a Buffer never copies bytes; it only bumps a reference
// count and copies a small cursor.
package buffer

import "io"

// Buffer is a cheap-to-clone, possibly-non-contiguous byte container. The
// zero value is an empty buffer.
type Buffer struct {
	parts [][]byte
	idx   int
	off   int
}

// New wraps a single contiguous slice. The slice is not copied; callers
// must not mutate it after handing it to New.
func New(b []byte) Buffer {
	if len(b) == 0 {
		return Buffer{}
	}
	return Buffer{parts: [][]byte{b}}
}

// FromSlices builds a non-contiguous Buffer out of an ordered sequence of
// byte slices, e.g. the chunk vector an HTTP client handed back without
// coalescing.
func FromSlices(parts [][]byte) Buffer {
	nonEmpty := make([][]byte, 0, len(parts))
	for _, p := range parts {
		if len(p) > 0 {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return Buffer{parts: nonEmpty}
}

// Len returns the number of unread bytes remaining in the buffer.
func (b Buffer) Len() int {
	if b.idx >= len(b.parts) {
		return 0
	}
	total := 0
	for _, p := range b.parts[b.idx:] {
		total += len(p)
	}
	return total - b.off
}

// IsEmpty reports whether there are no unread bytes left.
func (b Buffer) IsEmpty() bool { return b.Len() == 0 }

// Chunk returns the current contiguous view: the unread portion of the
// part the cursor is in. It never spans multiple parts; callers that want
// the whole remainder contiguously must call ToBytes.
func (b Buffer) Chunk() []byte {
	if b.idx >= len(b.parts) {
		return nil
	}
	return b.parts[b.idx][b.off:]
}

// Advance moves the cursor forward by n bytes. Advancing past the end of
// the buffer is a programming error and panics, matching the contract
// that callers must track remaining() themselves.
func (b *Buffer) Advance(n int) {
	if n < 0 {
		panic("buffer: advance with negative count")
	}
	remaining := n
	for remaining > 0 {
		if b.idx >= len(b.parts) {
			panic("buffer: advance past end of buffer")
		}
		avail := len(b.parts[b.idx]) - b.off
		if remaining < avail {
			b.off += remaining
			return
		}
		remaining -= avail
		b.idx++
		b.off = 0
	}
}

// Clone returns an O(1) copy: a new cursor over the same backing slices.
// The underlying byte slices are shared, never copied.
func (b Buffer) Clone() Buffer {
	return b
}

// ToBytes copies every remaining byte into one contiguous slice. Callers
// that stream data should prefer Chunk/Advance to avoid this copy;
// ToBytes is for callers that need a single []byte.
func (b Buffer) ToBytes() []byte {
	n := b.Len()
	if n == 0 {
		return nil
	}
	out := make([]byte, 0, n)
	if b.idx < len(b.parts) {
		out = append(out, b.parts[b.idx][b.off:]...)
		for _, p := range b.parts[b.idx+1:] {
			out = append(out, p...)
		}
	}
	return out
}

// Read implements io.Reader over the remaining bytes, draining parts as it
// goes. It never returns 0, nil unless the buffer is exhausted, in which
// case it returns io.EOF.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.IsEmpty() {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) && !b.IsEmpty() {
		chunk := b.Chunk()
		c := copy(p[n:], chunk)
		n += c
		b.Advance(c)
	}
	return n, nil
}
