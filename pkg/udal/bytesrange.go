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

import "fmt"

// BytesRange is a half-open, offset-and-optional-length byte range used by
// OpRead. A nil Length means "to the end of the object".
type BytesRange struct {
	Offset int64
	Length *int64
}

// RangeFrom returns a range starting at offset with no upper bound.
func RangeFrom(offset int64) BytesRange {
	return BytesRange{Offset: offset}
}

// RangeN returns a range of exactly n bytes starting at offset.
func RangeN(offset, n int64) BytesRange {
	return BytesRange{Offset: offset, Length: &n}
}

// HasLength reports whether the range carries an explicit length.
func (r BytesRange) HasLength() bool {
	return r.Length != nil
}

// Size returns the range's length, or -1 if unbounded.
func (r BytesRange) Size() int64 {
	if r.Length == nil {
		return -1
	}
	return *r.Length
}

// End returns the exclusive end offset, or -1 if unbounded.
func (r BytesRange) End() int64 {
	if r.Length == nil {
		return -1
	}
	return r.Offset + *r.Length
}

// ToHeader renders the range in HTTP `Range: bytes=…` form, without the
// leading header name, for HTTP-based backends to embed directly.
func (r BytesRange) ToHeader() string {
	if r.Length == nil {
		return fmt.Sprintf("bytes=%d-", r.Offset)
	}
	end := r.Offset + *r.Length - 1
	if end < r.Offset {
		end = r.Offset
	}
	return fmt.Sprintf("bytes=%d-%d", r.Offset, end)
}
