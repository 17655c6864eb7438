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

// Package udal is the unified data-access layer: a storage-agnostic
// abstraction for reading, writing, listing, stating, copying and deleting
// byte-addressable objects across heterogeneous backends.
package udal

import "strings"

// NormalizePath trims, collapses repeated slashes and strips a leading
// slash, producing the abs path form used on the wire and passed to
// accessors. A trailing slash is load-bearing: it denotes a directory and
// is preserved.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}

	hadTrailingSlash := strings.HasSuffix(p, "/") && p != "/"

	segments := make([]string, 0, strings.Count(p, "/")+1)
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
	}

	out := strings.Join(segments, "/")
	if hadTrailingSlash {
		out += "/"
	}
	return out
}

// ToRel returns the abs path form: normalized, no leading slash. This is
// the canonical form accessors receive and backends prepend their
// configured root to.
func ToRel(p string) string {
	return NormalizePath(p)
}

// ToRooted returns the rooted abs path form: normalized, with a leading
// slash, for display. The operator façade does not apply it: paths it
// passes to accessors and the entries it lists are in the ToRel form.
func ToRooted(p string) string {
	rel := NormalizePath(p)
	if rel == "" {
		return "/"
	}
	return "/" + rel
}

// IsDir reports whether a path denotes a directory by the trailing-slash
// convention. The root path "/" is always a directory.
func IsDir(p string) bool {
	return p == "" || p == "/" || strings.HasSuffix(p, "/")
}

// Join joins a root and a relative path, collapsing slashes the same way
// NormalizePath does. It is the building block every backend uses to turn
// an accessor-relative path into a native one before prepending its own
// protocol-specific encoding.
func Join(root, p string) string {
	root = strings.Trim(root, "/")
	p = NormalizePath(p)
	switch {
	case root == "" && p == "":
		return ""
	case root == "":
		return p
	case p == "":
		return root
	default:
		return root + "/" + p
	}
}

// ParentDir returns the direct parent directory (with trailing slash) of
// an abs path. ParentDir of a root-level entry is "".
func ParentDir(p string) string {
	p = NormalizePath(p)
	trimmed := strings.TrimSuffix(p, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	return trimmed[:idx+1]
}
