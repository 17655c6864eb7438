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

// Package oio holds the raw, backend-facing building blocks every Accessor
// implementation composes: the Reader/Writer primitives, the concurrent
// chunk-prefetch stream, the buffered writer, the pager and the batch
// deleter. Callers of the façade in pkg/udal/operator never import this
// package directly.
package oio

import (
	"context"

	"github.com/cs3org/udal/pkg/udal/buffer"
)

// Reader is the single primitive every backend's read path must provide.
// ReadAt is logically stateless: backends that hold a single stream must
// seek or reopen internally, and it must be safe to call concurrently
// with disjoint ranges on the same Reader.
//
// A returned buffer shorter than limit indicates end-of-file at or before
// offset+len(returned); a zero-length buffer indicates EOF at offset.
// ReadAt does not retry short reads itself — that is a layer's job.
type Reader interface {
	ReadAt(ctx context.Context, offset int64, limit int64) (buffer.Buffer, error)
}

// ReaderFunc adapts a function to a Reader.
type ReaderFunc func(ctx context.Context, offset, limit int64) (buffer.Buffer, error)

// ReadAt implements Reader.
func (f ReaderFunc) ReadAt(ctx context.Context, offset, limit int64) (buffer.Buffer, error) {
	return f(ctx, offset, limit)
}
