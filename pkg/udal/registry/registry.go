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

// Package registry is the scheme-keyed accessor registry: every backend
// registers a constructor at init time, and from_map-style configuration
// maps turn into a live Accessor without the caller importing the backend
// package directly.
package registry

import (
	"fmt"
	"sync"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
)

// NewFunc is the function every backend registers at init time. m is the
// backend's configuration map (as produced by pkg/udal/config), root is
// the backend's configured root path.
type NewFunc func(m map[string]interface{}, root string) (accessor.Accessor, error)

var (
	mu       sync.Mutex
	newFuncs = map[udal.Scheme]NewFunc{}
)

// Register registers a new backend constructor under scheme. It is safe
// for concurrent use; backends call it from package init.
func Register(scheme udal.Scheme, f NewFunc) {
	mu.Lock()
	defer mu.Unlock()
	newFuncs[scheme] = f
}

// Schemes lists every currently registered scheme.
func Schemes() []udal.Scheme {
	mu.Lock()
	defer mu.Unlock()
	out := make([]udal.Scheme, 0, len(newFuncs))
	for s := range newFuncs {
		out = append(out, s)
	}
	return out
}

// FromMap builds an Accessor for scheme from m and root. Unknown map keys
// are ignored by the backend constructor; an unregistered scheme is an
// error.
func FromMap(scheme udal.Scheme, m map[string]interface{}, root string) (accessor.Accessor, error) {
	mu.Lock()
	f, ok := newFuncs[scheme]
	mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("registry: no backend registered for scheme %q", scheme)
	}
	return f(m, root)
}
