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

// EntryMode classifies what an Entry points at.
type EntryMode int

const (
	// Unknown is returned when a backend cannot classify the entry.
	Unknown EntryMode = iota
	// File is a regular, readable object.
	File
	// Dir is a directory marker. Its path always ends in "/".
	Dir
)

func (m EntryMode) String() string {
	switch m {
	case File:
		return "file"
	case Dir:
		return "dir"
	default:
		return "unknown"
	}
}

// IsDir reports whether the mode is Dir.
func (m EntryMode) IsDir() bool { return m == Dir }

// IsFile reports whether the mode is File.
func (m EntryMode) IsFile() bool { return m == File }

// Metadata is an entry's stat result. Every field except Mode is optional;
// an absent field means the backend did not report it, not that the value
// is zero.
type Metadata struct {
	Mode EntryMode

	ContentLength      *int64
	LastModified       *time.Time
	ETag               *string
	ContentType        *string
	ContentMD5         *string
	ContentDisposition *string
	ContentRange       *string
	CacheControl       *string
	Version            *string
}

// NewDirMetadata is a convenience constructor for directory entries, which
// never carry a content length.
func NewDirMetadata() Metadata {
	return Metadata{Mode: Dir}
}

// NewFileMetadata is a convenience constructor for file entries with a
// known length.
func NewFileMetadata(length int64) Metadata {
	return Metadata{Mode: File, ContentLength: &length}
}

// WithETag sets the ETag field and returns the receiver for chaining.
func (m Metadata) WithETag(etag string) Metadata {
	m.ETag = &etag
	return m
}

// WithContentType sets the ContentType field and returns the receiver.
func (m Metadata) WithContentType(ct string) Metadata {
	m.ContentType = &ct
	return m
}

// WithLastModified sets the LastModified field and returns the receiver.
func (m Metadata) WithLastModified(t time.Time) Metadata {
	t = t.UTC()
	m.LastModified = &t
	return m
}

// Entry is a (path, metadata) pair produced by a Lister.
type Entry struct {
	Path     string
	Metadata Metadata
}

// Capability is a backend's declared support matrix. Callers inspect it at
// runtime before choosing a code path (e.g. multipart vs one-shot); an
// operation or option a backend does not declare is either unsupported
// (returns ErrorKind Unsupported) or silently ignored, per the per-field
// contract in spec §3/§4.
type Capability struct {
	Stat bool
	Read bool

	Write                    bool
	WriteCanMulti            bool
	WriteCanAppend           bool
	WriteCanEmpty            bool
	WriteWithContentType     bool
	WriteWithCacheControl    bool
	WriteWithContentDisp     bool
	WriteMultiMinSize        int64
	WriteMaxSize             int64

	CreateDir bool

	Delete        bool
	DeleteMaxSize int

	Copy   bool
	Rename bool

	List               bool
	ListWithLimit      bool
	ListWithStartAfter bool
	ListWithRecursive  bool

	Presign bool

	Blocking bool

	ReadMaxSize int64
}

// DeleteBatchSize returns the effective batch size a Deleter should use:
// the declared DeleteMaxSize, or 1 when the backend did not declare one
// (spec §4.5: "max_size = capability.delete_max_size.unwrap_or(1)").
func (c Capability) DeleteBatchSize() int {
	if c.DeleteMaxSize <= 0 {
		return 1
	}
	return c.DeleteMaxSize
}

// Info is a backend's constant, pure identity: its capabilities, scheme
// and configured root. Accessor.Info must never vary across calls.
type Info struct {
	Scheme     Scheme
	Root       string
	Name       string
	Capability Capability
}

// Scheme is the closed enumeration of backend identifiers. SchemeCustom
// permits externally registered backends that aren't part of the core set.
type Scheme string

// The closed set of built-in schemes. Backends outside this set register
// under SchemeCustom with their own name.
const (
	SchemeFS       Scheme = "fs"
	SchemeMemory   Scheme = "memory"
	SchemeS3       Scheme = "s3"
	SchemeGCS      Scheme = "gcs"
	SchemeAzblob   Scheme = "azblob"
	SchemeAzdfs    Scheme = "azdfs"
	SchemeOSS      Scheme = "oss"
	SchemeOBS      Scheme = "obs"
	SchemeB2       Scheme = "b2"
	SchemeHDFS     Scheme = "hdfs"
	SchemeWebHDFS  Scheme = "webhdfs"
	SchemeWebDAV   Scheme = "webdav"
	SchemeSFTP     Scheme = "sftp"
	SchemeFTP      Scheme = "ftp"
	SchemeSQLite   Scheme = "sqlite"
	SchemeRedis    Scheme = "redis"
	SchemeCustom   Scheme = "custom"
)
