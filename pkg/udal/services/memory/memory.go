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

// Package memory is the in-process reference backend: a map-backed
// accessor used by tests and as a throwaway scratch space. Writes go
// through oio.NewOneShotWriter and reads through an oio.ReaderFunc over
// the stored bytes. Presign, append and multipart writes are not
// supported.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/buffer"
	"github.com/cs3org/udal/pkg/udal/oio"
	"github.com/cs3org/udal/pkg/udal/registry"
	"github.com/cs3org/udal/pkg/udal/udalerr"
)

func init() {
	registry.Register(udal.SchemeMemory, func(m map[string]interface{}, root string) (accessor.Accessor, error) {
		return New(root), nil
	})
}

type object struct {
	data     []byte
	meta     udal.Metadata
	version  string
	modified time.Time
}

// Accessor is the in-memory backend.
type Accessor struct {
	root string

	mu      sync.RWMutex
	objects map[string]*object
}

// New returns an Accessor rooted at root (an in-memory namespace prefix;
// distinct roots over the same process do not share state unless they
// are the same Accessor instance).
func New(root string) *Accessor {
	return &Accessor{root: root, objects: map[string]*object{}}
}

func (a *Accessor) Info() udal.Info {
	return udal.Info{
		Scheme: udal.SchemeMemory,
		Root:   a.root,
		Name:   "memory",
		Capability: udal.Capability{
			Stat: true, Read: true,
			Write: true, WriteCanEmpty: true, WriteWithContentType: true,
			WriteWithCacheControl: true, WriteWithContentDisp: true,
			CreateDir: true,
			Delete:    true, DeleteMaxSize: 1000,
			Copy: true, Rename: true,
			List: true, ListWithLimit: true, ListWithStartAfter: true, ListWithRecursive: true,
			Blocking: true,
		},
	}
}

func (a *Accessor) path(p string) string { return udal.Join(a.root, p) }

// unpath is path's inverse: it strips the backend's configured root back
// off a native key, so emitted Entry.Path values stay root-relative
// (spec §4.4) instead of leaking the root prefix.
func (a *Accessor) unpath(key string) string {
	root := strings.Trim(a.root, "/")
	if root == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, root), "/")
}

func (a *Accessor) Stat(ctx context.Context, path string, args udal.OpStat) (udal.RpStat, error) {
	key := a.path(path)
	a.mu.RLock()
	defer a.mu.RUnlock()

	if udal.IsDir(path) {
		if key != "" && !a.hasPrefix(key) {
			return udal.RpStat{}, udalerr.New(udalerr.NotFound, "no such directory").WithContext("path", path)
		}
		return udal.RpStat{Metadata: udal.NewDirMetadata()}, nil
	}

	o, ok := a.objects[key]
	if !ok {
		return udal.RpStat{}, udalerr.New(udalerr.NotFound, "no such object").WithContext("path", path)
	}
	if args.IfMatch != "" && o.version != args.IfMatch {
		return udal.RpStat{}, udalerr.New(udalerr.ConditionNotMatch, "if-match failed").WithContext("path", path)
	}
	if args.IfNoneMatch != "" && o.version == args.IfNoneMatch {
		return udal.RpStat{}, udalerr.New(udalerr.ConditionNotMatch, "if-none-match failed").WithContext("path", path)
	}
	return udal.RpStat{Metadata: o.meta}, nil
}

func (a *Accessor) hasPrefix(prefix string) bool {
	for k := range a.objects {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func (a *Accessor) Read(ctx context.Context, path string, args udal.OpRead) (udal.RpRead, oio.Reader, error) {
	key := a.path(path)
	a.mu.RLock()
	o, ok := a.objects[key]
	a.mu.RUnlock()
	if !ok {
		return udal.RpRead{}, nil, udalerr.New(udalerr.NotFound, "no such object").WithContext("path", path)
	}
	if args.IfMatch != "" && o.version != args.IfMatch {
		return udal.RpRead{}, nil, udalerr.New(udalerr.ConditionNotMatch, "if-match failed").WithContext("path", path)
	}

	data := o.data
	return udal.RpRead{Metadata: o.meta}, oio.ReaderFunc(func(ctx context.Context, offset, limit int64) (buffer.Buffer, error) {
		if offset >= int64(len(data)) {
			return buffer.Buffer{}, nil
		}
		end := offset + limit
		if limit < 0 || end > int64(len(data)) {
			end = int64(len(data))
		}
		return buffer.New(data[offset:end]), nil
	}), nil
}

func (a *Accessor) Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error) {
	key := a.path(path)
	w := oio.NewOneShotWriter(oneShot{a: a, key: key, path: path, args: args})
	return udal.RpWrite{}, w, nil
}

type oneShot struct {
	a    *Accessor
	key  string
	path string
	args udal.OpWrite
}

func (o oneShot) WriteOnce(ctx context.Context, buf buffer.Buffer) error {
	meta := udal.NewFileMetadata(int64(buf.Len())).
		WithETag(uuid.NewString()).
		WithLastModified(time.Now())
	if o.args.ContentType != "" {
		meta = meta.WithContentType(o.args.ContentType)
	}

	o.a.mu.Lock()
	defer o.a.mu.Unlock()
	if o.args.Append {
		if existing, ok := o.a.objects[o.key]; ok {
			data := append(append([]byte{}, existing.data...), buf.ToBytes()...)
			meta = udal.NewFileMetadata(int64(len(data))).WithETag(uuid.NewString()).WithLastModified(time.Now())
			o.a.objects[o.key] = &object{data: data, meta: meta, version: *meta.ETag, modified: time.Now()}
			return nil
		}
	}
	o.a.objects[o.key] = &object{data: buf.ToBytes(), meta: meta, version: *meta.ETag, modified: time.Now()}
	return nil
}

func (a *Accessor) CreateDir(ctx context.Context, path string, args udal.OpCreateDir) (udal.RpCreateDir, error) {
	return udal.RpCreateDir{}, nil
}

func (a *Accessor) Delete(ctx context.Context) (udal.RpDelete, oio.BatchDelete, error) {
	return udal.RpDelete{}, batchDelete{a: a}, nil
}

type batchDelete struct{ a *Accessor }

func (b batchDelete) DeleteBatch(ctx context.Context, inputs []oio.DeleteInput) ([]string, error) {
	b.a.mu.Lock()
	defer b.a.mu.Unlock()
	deleted := make([]string, 0, len(inputs))
	for _, in := range inputs {
		key := b.a.path(in.Path)
		delete(b.a.objects, key)
		deleted = append(deleted, in.Path)
	}
	return deleted, nil
}

func (a *Accessor) Copy(ctx context.Context, from, to string, args udal.OpCopy) (udal.RpCopy, error) {
	fromKey, toKey := a.path(from), a.path(to)
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.objects[fromKey]
	if !ok {
		return udal.RpCopy{}, udalerr.New(udalerr.NotFound, "no such object").WithContext("path", from)
	}
	cp := *o
	cp.data = append([]byte{}, o.data...)
	a.objects[toKey] = &cp
	return udal.RpCopy{}, nil
}

func (a *Accessor) Rename(ctx context.Context, from, to string, args udal.OpRename) (udal.RpRename, error) {
	fromKey, toKey := a.path(from), a.path(to)
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.objects[fromKey]
	if !ok {
		return udal.RpRename{}, udalerr.New(udalerr.NotFound, "no such object").WithContext("path", from)
	}
	a.objects[toKey] = o
	delete(a.objects, fromKey)
	return udal.RpRename{}, nil
}

func (a *Accessor) List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error) {
	prefix := a.path(path)
	if udal.IsDir(path) && !udal.IsDir(prefix) {
		prefix += "/"
	}
	return udal.RpList{}, &pager{a: a, prefix: prefix, recursive: args.Recursive, limit: args.Limit, startAfter: args.StartAfter}, nil
}

type pager struct {
	a          *Accessor
	prefix     string
	recursive  bool
	limit      int
	startAfter string
	done       bool
}

func (p *pager) NextPage(ctx context.Context, pc *oio.PageContext) error {
	if p.done {
		pc.Done = true
		return nil
	}
	p.a.mu.RLock()
	defer p.a.mu.RUnlock()

	keys := make([]string, 0, len(p.a.objects))
	for k := range p.a.objects {
		if strings.HasPrefix(k, p.prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	seenDirs := map[string]bool{}
	count := 0
	for _, k := range keys {
		rel := strings.TrimPrefix(k, p.prefix)
		if rel == "" {
			continue
		}
		if p.startAfter != "" && k <= p.a.path(p.startAfter) {
			continue
		}
		if !p.recursive {
			if idx := strings.Index(rel, "/"); idx >= 0 {
				dir := rel[:idx+1]
				if seenDirs[dir] {
					continue
				}
				seenDirs[dir] = true
				pc.PushEntry(udal.Entry{Path: p.a.unpath(p.prefix + dir), Metadata: udal.NewDirMetadata()})
				count++
				if p.limit > 0 && count >= p.limit {
					break
				}
				continue
			}
		}
		o := p.a.objects[k]
		pc.PushEntry(udal.Entry{Path: p.a.unpath(k), Metadata: o.meta})
		count++
		if p.limit > 0 && count >= p.limit {
			break
		}
	}
	p.done = true
	pc.Done = true
	return nil
}

func (a *Accessor) Presign(ctx context.Context, path string, args udal.OpPresign) (udal.RpPresign, error) {
	return udal.RpPresign{}, accessor.ErrUnsupported(udal.SchemeMemory, "presign")
}
