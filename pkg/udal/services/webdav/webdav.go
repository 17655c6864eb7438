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

// Package webdav is the WebDAV backend, built on gowebdav. It speaks
// PROPFIND for stat/list, PUT/GET for content and MKCOL/MOVE for
// directory and rename operations.
package webdav

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/studio-b12/gowebdav"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/buffer"
	"github.com/cs3org/udal/pkg/udal/config"
	"github.com/cs3org/udal/pkg/udal/oio"
	"github.com/cs3org/udal/pkg/udal/registry"
	"github.com/cs3org/udal/pkg/udal/udalerr"
)

// Options configures the webdav backend.
type Options struct {
	Endpoint string `mapstructure:"endpoint"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Root     string `mapstructure:"root"`
}

func init() {
	registry.Register(udal.SchemeWebDAV, func(m map[string]interface{}, root string) (accessor.Accessor, error) {
		opts := Options{Root: root}
		if err := config.Decode(m, &opts); err != nil {
			return nil, udalerr.Wrap(err, udalerr.ConfigInvalid, "webdav: decode config")
		}
		return New(opts)
	})
}

// Accessor is the WebDAV backend.
type Accessor struct {
	client *gowebdav.Client
	root   string
}

// New builds an Accessor from opts.
func New(opts Options) (*Accessor, error) {
	if opts.Endpoint == "" {
		return nil, udalerr.New(udalerr.ConfigInvalid, "webdav: endpoint is required")
	}
	c := gowebdav.NewClient(opts.Endpoint, opts.Username, opts.Password)
	return &Accessor{client: c, root: opts.Root}, nil
}

func (a *Accessor) Info() udal.Info {
	return udal.Info{
		Scheme: udal.SchemeWebDAV,
		Root:   a.root,
		Name:   "webdav",
		Capability: udal.Capability{
			Stat: true, Read: true,
			Write: true, WriteCanEmpty: true,
			CreateDir: true,
			Delete:    true, DeleteMaxSize: 1,
			Copy: true, Rename: true,
			List: true, ListWithRecursive: true,
			Blocking: true,
		},
	}
}

func (a *Accessor) native(p string) string { return udal.Join(a.root, p) }

func wrapWebdavErr(err error, path string) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*gowebdav.StatusError); ok {
		switch se.Status {
		case 404:
			return udalerr.New(udalerr.NotFound, "no such resource").WithContext("path", path).WithSource(err)
		case 403, 401:
			return udalerr.New(udalerr.PermissionDenied, "permission denied").WithContext("path", path).WithSource(err)
		case 409:
			return udalerr.New(udalerr.AlreadyExists, "conflict").WithContext("path", path).WithSource(err)
		case 412:
			return udalerr.New(udalerr.ConditionNotMatch, "precondition failed").WithContext("path", path).WithSource(err)
		}
	}
	return udalerr.Wrap(err, udalerr.Unexpected, "webdav").WithContext("path", path)
}

func metadataFromFileInfo(fi gowebdav.File) udal.Metadata {
	if fi.IsDir() {
		return udal.NewDirMetadata()
	}
	meta := udal.NewFileMetadata(fi.Size()).WithLastModified(fi.ModTime())
	if etag := fi.ETag(); etag != "" {
		meta = meta.WithETag(strings.Trim(etag, `"`))
	}
	if ct := fi.ContentType(); ct != "" {
		meta = meta.WithContentType(ct)
	}
	return meta
}

func (a *Accessor) Stat(ctx context.Context, path string, args udal.OpStat) (udal.RpStat, error) {
	info, err := a.client.StatWithContext(ctx, a.native(path))
	if err != nil {
		return udal.RpStat{}, wrapWebdavErr(err, path)
	}
	fi, _ := info.(*gowebdav.File)
	var meta udal.Metadata
	if fi != nil {
		meta = metadataFromFileInfo(*fi)
	}
	return udal.RpStat{Metadata: meta}, nil
}

func (a *Accessor) Read(ctx context.Context, path string, args udal.OpRead) (udal.RpRead, oio.Reader, error) {
	info, err := a.client.StatWithContext(ctx, a.native(path))
	if err != nil {
		return udal.RpRead{}, nil, wrapWebdavErr(err, path)
	}
	fi, _ := info.(*gowebdav.File)
	var meta udal.Metadata
	if fi != nil {
		meta = metadataFromFileInfo(*fi)
	}

	native := a.native(path)
	client := a.client
	return udal.RpRead{Metadata: meta}, oio.ReaderFunc(func(ctx context.Context, offset, limit int64) (buffer.Buffer, error) {
		rc, err := client.ReadStreamWithContext(ctx, native)
		if err != nil {
			return buffer.Buffer{}, wrapWebdavErr(err, path)
		}
		defer rc.Close()
		if offset > 0 {
			if _, err := io.CopyN(io.Discard, rc, offset); err != nil {
				return buffer.Buffer{}, nil
			}
		}
		if limit < 0 {
			data, err := io.ReadAll(rc)
			if err != nil {
				return buffer.Buffer{}, udalerr.Wrap(err, udalerr.Unexpected, "webdav: read").WithContext("path", path)
			}
			return buffer.New(data), nil
		}
		var buf bytes.Buffer
		if _, err := io.CopyN(&buf, rc, limit); err != nil && err != io.EOF {
			return buffer.New(buf.Bytes()), nil
		}
		return buffer.New(buf.Bytes()), nil
	}), nil
}

func (a *Accessor) Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error) {
	native := a.native(path)
	w := oio.NewOneShotWriter(oneShot{a: a, native: native, path: path})
	return udal.RpWrite{}, w, nil
}

type oneShot struct {
	a      *Accessor
	native string
	path   string
}

func (o oneShot) WriteOnce(ctx context.Context, buf buffer.Buffer) error {
	err := o.a.client.WriteStreamWithContext(ctx, o.native, bytes.NewReader(buf.ToBytes()), 0644)
	return wrapWebdavErr(err, o.path)
}

func (a *Accessor) CreateDir(ctx context.Context, path string, args udal.OpCreateDir) (udal.RpCreateDir, error) {
	if err := a.client.MkdirAllWithContext(ctx, a.native(path), 0755); err != nil {
		return udal.RpCreateDir{}, wrapWebdavErr(err, path)
	}
	return udal.RpCreateDir{}, nil
}

func (a *Accessor) Delete(ctx context.Context) (udal.RpDelete, oio.BatchDelete, error) {
	return udal.RpDelete{}, batchDelete{a: a}, nil
}

type batchDelete struct{ a *Accessor }

func (b batchDelete) DeleteBatch(ctx context.Context, inputs []oio.DeleteInput) ([]string, error) {
	deleted := make([]string, 0, len(inputs))
	for _, in := range inputs {
		native := b.a.native(in.Path)
		if err := b.a.client.RemoveAllWithContext(ctx, native); err != nil {
			return deleted, wrapWebdavErr(err, in.Path)
		}
		deleted = append(deleted, in.Path)
	}
	return deleted, nil
}

func (a *Accessor) Copy(ctx context.Context, from, to string, args udal.OpCopy) (udal.RpCopy, error) {
	if err := a.client.CopyWithContext(ctx, a.native(from), a.native(to), true); err != nil {
		return udal.RpCopy{}, wrapWebdavErr(err, from)
	}
	return udal.RpCopy{}, nil
}

func (a *Accessor) Rename(ctx context.Context, from, to string, args udal.OpRename) (udal.RpRename, error) {
	if err := a.client.RenameWithContext(ctx, a.native(from), a.native(to), true); err != nil {
		return udal.RpRename{}, wrapWebdavErr(err, from)
	}
	return udal.RpRename{}, nil
}

func (a *Accessor) List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error) {
	return udal.RpList{}, &pager{a: a, path: path, recursive: args.Recursive, limit: args.Limit}, nil
}

type pager struct {
	a         *Accessor
	path      string
	recursive bool
	limit     int
	done      bool
}

func (p *pager) NextPage(ctx context.Context, pc *oio.PageContext) error {
	if p.done {
		pc.Done = true
		return nil
	}
	count := 0
	if err := p.walk(ctx, p.path, pc, &count); err != nil {
		p.done = true
		pc.Done = true
		return err
	}
	p.done = true
	pc.Done = true
	return nil
}

func (p *pager) walk(ctx context.Context, path string, pc *oio.PageContext, count *int) error {
	infos, err := p.a.client.ReadDirWithContext(ctx, p.a.native(path))
	if err != nil {
		return wrapWebdavErr(err, path)
	}
	for _, fi := range infos {
		f, ok := fi.(gowebdav.File)
		if !ok {
			continue
		}
		rel := udal.Join(path, f.Name())
		if f.IsDir() {
			rel += "/"
		}
		pc.PushEntry(udal.Entry{Path: rel, Metadata: metadataFromFileInfo(f)})
		*count++
		if p.limit > 0 && *count >= p.limit {
			return nil
		}
		if p.recursive && f.IsDir() {
			if err := p.walk(ctx, rel, pc, count); err != nil {
				return err
			}
			if p.limit > 0 && *count >= p.limit {
				return nil
			}
		}
	}
	return nil
}

func (a *Accessor) Presign(ctx context.Context, path string, args udal.OpPresign) (udal.RpPresign, error) {
	return udal.RpPresign{}, accessor.ErrUnsupported(udal.SchemeWebDAV, "presign")
}
