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

package udal

import "time"

// OpRead carries the options for a read operation. Options a backend does
// not declare support for are ignored, never an error, unless documented
// otherwise.
type OpRead struct {
	Range               BytesRange
	IfMatch             string
	IfNoneMatch         string
	OverrideContentType string
	Version             string

	// Concurrent bounds how many chunk reads BufferStream keeps in flight.
	// Zero means the backend/operator default.
	Concurrent int
	// Chunk is the per-request chunk size. Zero means "one request for
	// the entire range".
	Chunk int64
}

// OpWrite carries the options for a write operation.
type OpWrite struct {
	ContentType        string
	CacheControl       string
	ContentDisposition string
	Append             bool

	Concurrent int
	Chunk      int64
}

// OpStat carries the options for a stat operation.
type OpStat struct {
	IfMatch     string
	IfNoneMatch string
	Version     string
}

// OpDelete carries the options for a delete operation.
type OpDelete struct {
	Version string
}

// OpList carries the options for a list operation.
type OpList struct {
	Limit      int
	StartAfter string
	Recursive  bool
}

// OpCopy carries the options for a copy operation. Currently empty; kept
// as a named type so new options don't break callers.
type OpCopy struct{}

// OpRename carries the options for a rename operation.
type OpRename struct{}

// OpCreateDir carries the options for a create_dir operation.
type OpCreateDir struct{}

// PresignOperation names which operation a presigned URL is for.
type PresignOperation int

const (
	// PresignRead presigns a GET.
	PresignRead PresignOperation = iota
	// PresignWrite presigns a PUT.
	PresignWrite
	// PresignStat presigns a HEAD.
	PresignStat
)

// OpPresign carries the options for a presign operation.
type OpPresign struct {
	Expire    time.Duration
	Operation PresignOperation
}

// Reply types carry whatever metadata a backend returns alongside the
// operation's payload.

// RpStat wraps a stat reply.
type RpStat struct {
	Metadata Metadata
}

// RpRead wraps a read reply.
type RpRead struct {
	Metadata Metadata
}

// RpWrite wraps a write reply.
type RpWrite struct{}

// RpCreateDir wraps a create_dir reply.
type RpCreateDir struct{}

// RpDelete wraps a delete reply.
type RpDelete struct{}

// RpCopy wraps a copy reply.
type RpCopy struct{}

// RpRename wraps a rename reply.
type RpRename struct{}

// RpList wraps a list reply.
type RpList struct{}

// RpPresign is a fully-formed, unsigned HTTP request descriptor. The
// caller is responsible for issuing it.
type RpPresign struct {
	Method    string
	URI       string
	Headers   map[string]string
	ExpiresAt time.Time
}
