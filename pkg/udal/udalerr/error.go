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

// Package udalerr contains the unified data-access layer's error
// taxonomy. It would have been nice to name it errors, but errors clashes
// with github.com/pkg/errors, and error is a reserved word.
package udalerr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the closed set of error categories the core understands. The
// kind governs retry behavior and how a caller should react; it is never
// extended per-backend.
type Kind int

const (
	// Unexpected is the catch-all kind; it carries backend-specific
	// context and should not be matched on by callers.
	Unexpected Kind = iota
	// NotFound means the path does not exist.
	NotFound
	// PermissionDenied means the caller lacks rights for the operation.
	PermissionDenied
	// IsADirectory means an operation requiring a file was given a directory.
	IsADirectory
	// NotADirectory means an operation requiring a directory was given a file.
	NotADirectory
	// IsSameFile means a copy or rename's source and destination coincide.
	IsSameFile
	// AlreadyExists means the target already exists.
	AlreadyExists
	// ConditionNotMatch means an If-Match/If-None-Match/etag precondition failed.
	ConditionNotMatch
	// ContentTruncated means fewer bytes were received than expected.
	ContentTruncated
	// ContentIncomplete means a payload integrity check failed.
	ContentIncomplete
	// InvalidInput means the caller passed a malformed argument.
	InvalidInput
	// ConfigInvalid means backend configuration failed to parse or validate.
	ConfigInvalid
	// RangeNotSatisfied means a read was requested past EOF.
	RangeNotSatisfied
	// Unsupported means the backend does not implement this operation or option.
	Unsupported
	// RateLimited means the backend asked the caller to slow down.
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case PermissionDenied:
		return "PermissionDenied"
	case IsADirectory:
		return "IsADirectory"
	case NotADirectory:
		return "NotADirectory"
	case IsSameFile:
		return "IsSameFile"
	case AlreadyExists:
		return "AlreadyExists"
	case ConditionNotMatch:
		return "ConditionNotMatch"
	case ContentTruncated:
		return "ContentTruncated"
	case ContentIncomplete:
		return "ContentIncomplete"
	case InvalidInput:
		return "InvalidInput"
	case ConfigInvalid:
		return "ConfigInvalid"
	case RangeNotSatisfied:
		return "RangeNotSatisfied"
	case Unsupported:
		return "Unsupported"
	case RateLimited:
		return "RateLimited"
	default:
		return "Unexpected"
	}
}

// Status classifies whether retrying the same call could help.
type Status int

const (
	// StatusPermanent means retrying never helps.
	StatusPermanent Status = iota
	// StatusTemporary means retrying the exact same call may succeed.
	StatusTemporary
	// StatusPersistent means retrying will fail the same way until
	// external state changes.
	StatusPersistent
)

func (s Status) String() string {
	switch s {
	case StatusTemporary:
		return "temporary"
	case StatusPersistent:
		return "persistent"
	default:
		return "permanent"
	}
}

// defaultStatus gives every Kind a sensible status so backends don't have
// to set one explicitly in the common case.
func defaultStatus(k Kind) Status {
	switch k {
	case RateLimited:
		return StatusTemporary
	case Unexpected:
		return StatusTemporary
	default:
		return StatusPermanent
	}
}

// KV is an ordered context key/value pair attached to an Error.
type KV struct {
	Key   string
	Value string
}

// Error is the structured error every accessor operation returns. It
// carries a kind, a human message, ordered context, an optional wrapped
// source and a retry status.
type Error struct {
	kind    Kind
	message string
	context []KV
	source  error
	status  Status
}

// New creates an Error of the given kind with the given message and the
// kind's default retry status.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message, status: defaultStatus(kind)}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap annotates an existing error with a Kind, preserving it as the
// source. If err is already an *Error, its kind, context and status are
// carried over and only the message is extended.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return &Error{
			kind:    e.kind,
			message: message + ": " + e.message,
			context: e.context,
			source:  e.source,
			status:  e.status,
		}
	}
	return &Error{kind: kind, message: message, source: err, status: defaultStatus(kind)}
}

// Kind returns the error's category.
func (e *Error) Kind() Kind { return e.kind }

// Status returns the error's retry classification.
func (e *Error) Status() Status { return e.status }

// WithContext appends a context pair and returns the receiver for
// chaining, e.g. New(NotFound, "no such object").WithContext("path", p).
func (e *Error) WithContext(key, value string) *Error {
	e.context = append(e.context, KV{Key: key, Value: value})
	return e
}

// WithSource attaches a wrapped source error.
func (e *Error) WithSource(src error) *Error {
	e.source = src
	return e
}

// WithStatus overrides the kind's default retry status.
func (e *Error) WithStatus(s Status) *Error {
	e.status = s
	return e
}

// Context returns the ordered context pairs attached to the error.
func (e *Error) Context() []KV {
	return e.context
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.kind.String())
	b.WriteString(": ")
	b.WriteString(e.message)
	for _, kv := range e.context {
		fmt.Fprintf(&b, " %s=%s", kv.Key, kv.Value)
	}
	if e.source != nil {
		b.WriteString(": ")
		b.WriteString(e.source.Error())
	}
	return b.String()
}

// Unwrap exposes the wrapped source to errors.Is/errors.As. *Error has
// no Cause method, so github.com/pkg/errors.Cause stops at it.
func (e *Error) Unwrap() error { return e.source }

// Is reports whether target is an *Error of the same Kind, supporting
// errors.Is(err, udalerr.New(udalerr.NotFound, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == t.kind
}

// IsKind is a convenience wrapper around errors.As + Kind() for callers
// that don't want to construct a sentinel Error.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.kind == kind
}

// IsNotFound reports whether err is (or wraps) a NotFound error.
func IsNotFound(err error) bool { return IsKind(err, NotFound) }

// IsUnsupported reports whether err is (or wraps) an Unsupported error.
func IsUnsupported(err error) bool { return IsKind(err, Unsupported) }

// IsAlreadyExists reports whether err is (or wraps) an AlreadyExists error.
func IsAlreadyExists(err error) bool { return IsKind(err, AlreadyExists) }

// IsTemporary reports whether retrying the exact same call may succeed.
func IsTemporary(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.status == StatusTemporary
}
