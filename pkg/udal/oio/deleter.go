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

	"github.com/cs3org/udal/pkg/udal/udalerr"
)

// DeleteInput is one enqueued deletion request.
type DeleteInput struct {
	Path    string
	Version string
}

// BatchDelete is implemented by a backend's deletion primitive: issue one
// request for up to len(inputs) paths (bounded by the accessor's
// capability.delete_max_size), returning which of them the backend
// confirmed deleted.
type BatchDelete interface {
	DeleteBatch(ctx context.Context, inputs []DeleteInput) (deleted []string, err error)
}

// Deleter accumulates DeleteInputs and flushes them in backend-sized
// batches. It exploits batching when the backend's capability advertises
// one, degrading to one request per path when max_size==1.
type Deleter struct {
	inner      BatchDelete
	maxSize    int
	maxRetries int

	queue []DeleteInput
}

// NewDeleter builds a Deleter. maxSize <= 0 is treated as 1 (spec §4.5:
// "max_size = capability.delete_max_size.unwrap_or(1)"). maxRetries <= 0
// defaults to 3, per spec §4.5.
func NewDeleter(inner BatchDelete, maxSize, maxRetries int) *Deleter {
	if maxSize <= 0 {
		maxSize = 1
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Deleter{inner: inner, maxSize: maxSize, maxRetries: maxRetries}
}

// Delete enqueues input. The backend is not contacted until the queue
// reaches maxSize or Flush/Close is called.
func (d *Deleter) Delete(ctx context.Context, input DeleteInput) error {
	d.queue = append(d.queue, input)
	if len(d.queue) >= d.maxSize {
		_, err := d.Flush(ctx)
		return err
	}
	return nil
}

// Flush issues one backend request for up to maxSize queued entries and
// returns how many it confirmed deleted. A partial success (deleted <
// requested) leaves the un-deleted entries queued for the next Flush.
func (d *Deleter) Flush(ctx context.Context) (int, error) {
	if len(d.queue) == 0 {
		return 0, nil
	}

	batch := d.queue
	if len(batch) > d.maxSize {
		batch = batch[:d.maxSize]
	}

	deleted, err := d.inner.DeleteBatch(ctx, batch)
	if err != nil {
		return 0, err
	}

	confirmed := make(map[string]bool, len(deleted))
	for _, p := range deleted {
		confirmed[p] = true
	}

	remaining := batch[:0:0]
	for _, in := range batch {
		if !confirmed[in.Path] {
			remaining = append(remaining, in)
		}
	}
	d.queue = append(remaining, d.queue[len(batch):]...)

	return len(confirmed), nil
}

// Close repeatedly flushes until the queue is empty, retrying entries
// that survive a partial-success flush up to maxRetries times before
// reporting them as errors.
func (d *Deleter) Close(ctx context.Context) error {
	attempts := make(map[string]int)

	for len(d.queue) > 0 {
		before := len(d.queue)
		if _, err := d.Flush(ctx); err != nil {
			return err
		}
		after := len(d.queue)

		if after == before {
			// Nothing made progress this round; bump retry counts and
			// drop entries that have exhausted their retry budget.
			var stuck []string
			kept := d.queue[:0:0]
			for _, in := range d.queue {
				attempts[in.Path]++
				if attempts[in.Path] >= d.maxRetries {
					stuck = append(stuck, in.Path)
					continue
				}
				kept = append(kept, in)
			}
			d.queue = kept

			if len(stuck) > 0 {
				err := udalerr.New(udalerr.Unexpected, "batch delete: paths not confirmed deleted after retries")
				for _, p := range stuck {
					err = err.WithContext("path", p)
				}
				return err
			}
		}
	}
	return nil
}

// Pending returns the number of entries currently queued.
func (d *Deleter) Pending() int {
	return len(d.queue)
}
