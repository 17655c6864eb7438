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
	"container/list"
	"context"

	"github.com/cs3org/udal/pkg/udal"
)

// PageContext is the state a PageList implementation reads and appends
// to on every call. Token is opaque continuation state — a cursor, page
// number, marker path or continuation URL, depending on the backend —
// and callers must never parse it.
type PageContext struct {
	Token   string
	Entries *list.List // of udal.Entry
	Done    bool
}

// newPageContext allocates a PageContext ready for the first call.
func newPageContext() *PageContext {
	return &PageContext{Entries: list.New()}
}

// PushEntry appends one entry to the pending queue; backends call this
// from within NextPage.
func (c *PageContext) PushEntry(e udal.Entry) {
	c.Entries.PushBack(e)
}

// PageList is implemented by each backend's listing primitive. NextPage
// fetches (and appends into ctx.Entries) the next page, setting ctx.Done
// when no more pages remain.
type PageList interface {
	NextPage(ctx context.Context, pc *PageContext) error
}

// Lister drains a PageList's buffered entries first, fetching another
// page only once the buffer is empty and the pager isn't done yet. This
// decouples backend page size from caller iteration granularity.
type Lister struct {
	ctx    context.Context
	pager  PageList
	pc     *PageContext
	err    error
	closed bool
}

// NewLister builds a Lister over pager.
func NewLister(ctx context.Context, pager PageList) *Lister {
	return &Lister{ctx: ctx, pager: pager, pc: newPageContext()}
}

// Next returns the next Entry, or ok==false when the listing is
// exhausted (check Err for a non-nil error in that case).
func (l *Lister) Next() (entry udal.Entry, ok bool) {
	if l.err != nil {
		return udal.Entry{}, false
	}

	for l.pc.Entries.Len() == 0 {
		if l.pc.Done {
			return udal.Entry{}, false
		}
		if err := l.pager.NextPage(l.ctx, l.pc); err != nil {
			l.err = err
			return udal.Entry{}, false
		}
	}

	front := l.pc.Entries.Front()
	l.pc.Entries.Remove(front)
	return front.Value.(udal.Entry), true
}

// Err returns the first error encountered while paging, if any.
func (l *Lister) Err() error {
	return l.err
}
