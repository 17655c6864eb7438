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

// Package accessor declares the polymorphic operation surface every
// backend implements, and the Layer mechanism callers use to compose
// cross-cutting behavior (retry, metrics, logging, caching, chaos) around
// any Accessor without the backend knowing about it.
package accessor

import (
	"context"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/oio"
	"github.com/cs3org/udal/pkg/udal/udalerr"
)

// Accessor is the closed set of operations a backend implements. A
// backend that does not support an operation returns an Unsupported
// error; a backend that does support it must honor every option its
// Capability declares, and may silently ignore options it doesn't.
//
// Paths passed to an Accessor are already normalized and relative (no
// leading "/"); the accessor prepends its own configured root before any
// native call.
type Accessor interface {
	// Info returns the accessor's capabilities, scheme and root. It must
	// be pure and constant across the accessor's lifetime.
	Info() udal.Info

	Stat(ctx context.Context, path string, args udal.OpStat) (udal.RpStat, error)
	Read(ctx context.Context, path string, args udal.OpRead) (udal.RpRead, oio.Reader, error)
	Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error)
	CreateDir(ctx context.Context, path string, args udal.OpCreateDir) (udal.RpCreateDir, error)
	Delete(ctx context.Context) (udal.RpDelete, oio.BatchDelete, error)
	Copy(ctx context.Context, from, to string, args udal.OpCopy) (udal.RpCopy, error)
	Rename(ctx context.Context, from, to string, args udal.OpRename) (udal.RpRename, error)
	List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error)
	Presign(ctx context.Context, path string, args udal.OpPresign) (udal.RpPresign, error)
}

// Layer is any adapter that wraps an Accessor and returns an Accessor.
// Layers compose by stacking: the outermost layer handles a call first.
// Apply folds a slice of layers onto a base accessor, innermost last in
// the slice wrapping first — i.e. Apply(base, l1, l2) returns l1(l2(base)),
// so l1 is outermost and sees the call first.
type Layer interface {
	Layer(inner Accessor) Accessor
}

// LayerFunc adapts a function to a Layer.
type LayerFunc func(inner Accessor) Accessor

// Layer implements Layer.
func (f LayerFunc) Layer(inner Accessor) Accessor { return f(inner) }

// Apply wraps base with layers, outermost-first: Apply(base, l1, l2)
// yields l1(l2(base)), so a call enters l1 before l2 before base.
func Apply(base Accessor, layers ...Layer) Accessor {
	acc := base
	for i := len(layers) - 1; i >= 0; i-- {
		acc = layers[i].Layer(acc)
	}
	return acc
}

// ErrUnsupported builds the standard error a backend returns from an
// operation it does not implement.
func ErrUnsupported(scheme udal.Scheme, op string) error {
	return udalerr.Newf(udalerr.Unsupported, "%s: %s is not supported by this backend", scheme, op)
}
