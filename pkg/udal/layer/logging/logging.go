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

// Package logging is a Layer that logs through pkg/udal/ulog a debug
// "start" line for Stat, Read, Write, Copy and List calls, and the error
// of every accessor call that fails. It logs no end-of-call line.
package logging

import (
	"context"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/oio"
	"github.com/cs3org/udal/pkg/udal/ulog"
)

// Layer returns an accessor.Layer that logs under the given package name.
func Layer(pkg string) accessor.Layer {
	log := ulog.New(pkg)
	return accessor.LayerFunc(func(inner accessor.Accessor) accessor.Accessor {
		return &logged{inner: inner, log: log}
	})
}

type logged struct {
	inner accessor.Accessor
	log   *ulog.Logger
}

func (l *logged) Info() udal.Info { return l.inner.Info() }

func (l *logged) Stat(ctx context.Context, path string, args udal.OpStat) (udal.RpStat, error) {
	l.log.Debug(ctx).Str("op", "stat").Str("path", path).Msg("start")
	rp, err := l.inner.Stat(ctx, path, args)
	if err != nil {
		l.log.Error(ctx, err)
	}
	return rp, err
}

func (l *logged) Read(ctx context.Context, path string, args udal.OpRead) (udal.RpRead, oio.Reader, error) {
	l.log.Debug(ctx).Str("op", "read").Str("path", path).Msg("start")
	rp, r, err := l.inner.Read(ctx, path, args)
	if err != nil {
		l.log.Error(ctx, err)
	}
	return rp, r, err
}

func (l *logged) Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error) {
	l.log.Debug(ctx).Str("op", "write").Str("path", path).Msg("start")
	rp, w, err := l.inner.Write(ctx, path, args)
	if err != nil {
		l.log.Error(ctx, err)
	}
	return rp, w, err
}

func (l *logged) CreateDir(ctx context.Context, path string, args udal.OpCreateDir) (udal.RpCreateDir, error) {
	rp, err := l.inner.CreateDir(ctx, path, args)
	if err != nil {
		l.log.Error(ctx, err)
	}
	return rp, err
}

func (l *logged) Delete(ctx context.Context) (udal.RpDelete, oio.BatchDelete, error) {
	rp, d, err := l.inner.Delete(ctx)
	if err != nil {
		l.log.Error(ctx, err)
	}
	return rp, d, err
}

func (l *logged) Copy(ctx context.Context, from, to string, args udal.OpCopy) (udal.RpCopy, error) {
	l.log.Debug(ctx).Str("op", "copy").Str("from", from).Str("to", to).Msg("start")
	rp, err := l.inner.Copy(ctx, from, to, args)
	if err != nil {
		l.log.Error(ctx, err)
	}
	return rp, err
}

func (l *logged) Rename(ctx context.Context, from, to string, args udal.OpRename) (udal.RpRename, error) {
	rp, err := l.inner.Rename(ctx, from, to, args)
	if err != nil {
		l.log.Error(ctx, err)
	}
	return rp, err
}

func (l *logged) List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error) {
	l.log.Debug(ctx).Str("op", "list").Str("path", path).Msg("start")
	rp, p, err := l.inner.List(ctx, path, args)
	if err != nil {
		l.log.Error(ctx, err)
	}
	return rp, p, err
}

func (l *logged) Presign(ctx context.Context, path string, args udal.OpPresign) (udal.RpPresign, error) {
	rp, err := l.inner.Presign(ctx, path, args)
	if err != nil {
		l.log.Error(ctx, err)
	}
	return rp, err
}
