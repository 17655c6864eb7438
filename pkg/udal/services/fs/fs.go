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

// Package fs is the local POSIX backend: every path is rooted under a
// configured directory on the local filesystem. Writes land atomically
// via renameio, same-path writes are serialized with an flock, and the
// ETag is synthesized from mtime+size and cached in an extended
// attribute when the filesystem supports them. No content MD5 is kept.
package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
	"github.com/pkg/xattr"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/buffer"
	"github.com/cs3org/udal/pkg/udal/oio"
	"github.com/cs3org/udal/pkg/udal/registry"
	"github.com/cs3org/udal/pkg/udal/udalerr"
)

const (
	xattrETag  = "user.udal.etag"
	lockSuffix = ".udal.lock"
)

// Options configures the fs backend.
type Options struct {
	// Root is the directory every path is resolved relative to. It must
	// already exist.
	Root string
}

func init() {
	registry.Register(udal.SchemeFS, func(m map[string]interface{}, root string) (accessor.Accessor, error) {
		var opts Options
		if err := decodeInto(m, &opts); err != nil {
			return nil, err
		}
		if opts.Root == "" {
			opts.Root = root
		}
		return New(opts)
	})
}

// decodeInto pulls the "root" key out of m without importing pkg/udal/config,
// to keep this backend's from_map path dependency-light.
func decodeInto(m map[string]interface{}, opts *Options) error {
	if v, ok := m["root"]; ok {
		if s, ok := v.(string); ok {
			opts.Root = s
		}
	}
	return nil
}

// Accessor is the local filesystem backend.
type Accessor struct {
	root string
}

// New returns an Accessor rooted at opts.Root.
func New(opts Options) (*Accessor, error) {
	if opts.Root == "" {
		return nil, udalerr.New(udalerr.ConfigInvalid, "fs: root is required")
	}
	abs, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, udalerr.Wrap(err, udalerr.ConfigInvalid, "fs: resolve root")
	}
	return &Accessor{root: abs}, nil
}

func (a *Accessor) Info() udal.Info {
	return udal.Info{
		Scheme: udal.SchemeFS,
		Root:   a.root,
		Name:   "fs",
		Capability: udal.Capability{
			Stat: true, Read: true,
			Write: true, WriteCanEmpty: true, WriteCanAppend: true,
			CreateDir: true,
			Delete:    true, DeleteMaxSize: 1,
			Copy: true, Rename: true,
			List: true, ListWithLimit: true, ListWithStartAfter: true, ListWithRecursive: true,
			Blocking: true,
		},
	}
}

// native maps an accessor-relative path to a native filesystem path,
// rejecting any path that would escape the configured root.
func (a *Accessor) native(p string) (string, error) {
	rel := udal.NormalizePath(p)
	clean := filepath.Clean(filepath.Join(a.root, rel))
	if clean != a.root && !strings.HasPrefix(clean, a.root+string(filepath.Separator)) {
		return "", udalerr.New(udalerr.InvalidInput, "fs: path escapes root").WithContext("path", p)
	}
	return clean, nil
}

func wrapOSErr(err error, path string) error {
	switch {
	case os.IsNotExist(err):
		return udalerr.New(udalerr.NotFound, "no such file or directory").WithContext("path", path).WithSource(err)
	case os.IsPermission(err):
		return udalerr.New(udalerr.PermissionDenied, "permission denied").WithContext("path", path).WithSource(err)
	case os.IsExist(err):
		return udalerr.New(udalerr.AlreadyExists, "already exists").WithContext("path", path).WithSource(err)
	default:
		return udalerr.Wrap(err, udalerr.Unexpected, "fs").WithContext("path", path)
	}
}

func metadataFromFileInfo(fi os.FileInfo, native string) udal.Metadata {
	if fi.IsDir() {
		return udal.NewDirMetadata()
	}
	meta := udal.NewFileMetadata(fi.Size()).WithLastModified(fi.ModTime())
	if etag, ok := readETag(native, fi); ok {
		meta = meta.WithETag(etag)
	}
	return meta
}

// readETag returns the cached xattr etag if present, without checking it
// against fi's current mtime, else synthesizes one from mtime+size (and,
// when the filesystem supports xattrs, persists it for next time).
func readETag(native string, fi os.FileInfo) (string, bool) {
	if v, err := xattr.Get(native, xattrETag); err == nil && len(v) > 0 {
		return string(v), true
	}
	etag := strconv.FormatInt(fi.ModTime().UnixNano(), 36) + "-" + strconv.FormatInt(fi.Size(), 36)
	_ = xattr.Set(native, xattrETag, []byte(etag))
	return etag, true
}

func (a *Accessor) Stat(ctx context.Context, path string, args udal.OpStat) (udal.RpStat, error) {
	native, err := a.native(path)
	if err != nil {
		return udal.RpStat{}, err
	}
	fi, err := os.Stat(native)
	if err != nil {
		return udal.RpStat{}, wrapOSErr(err, path)
	}
	meta := metadataFromFileInfo(fi, native)
	if args.IfMatch != "" && (meta.ETag == nil || *meta.ETag != args.IfMatch) {
		return udal.RpStat{}, udalerr.New(udalerr.ConditionNotMatch, "if-match failed").WithContext("path", path)
	}
	if args.IfNoneMatch != "" && meta.ETag != nil && *meta.ETag == args.IfNoneMatch {
		return udal.RpStat{}, udalerr.New(udalerr.ConditionNotMatch, "if-none-match failed").WithContext("path", path)
	}
	return udal.RpStat{Metadata: meta}, nil
}

func (a *Accessor) Read(ctx context.Context, path string, args udal.OpRead) (udal.RpRead, oio.Reader, error) {
	native, err := a.native(path)
	if err != nil {
		return udal.RpRead{}, nil, err
	}
	fi, err := os.Stat(native)
	if err != nil {
		return udal.RpRead{}, nil, wrapOSErr(err, path)
	}
	if fi.IsDir() {
		return udal.RpRead{}, nil, udalerr.New(udalerr.IsADirectory, "cannot read a directory").WithContext("path", path)
	}
	meta := metadataFromFileInfo(fi, native)

	return udal.RpRead{Metadata: meta}, oio.ReaderFunc(func(ctx context.Context, offset, limit int64) (buffer.Buffer, error) {
		f, err := os.Open(native)
		if err != nil {
			return buffer.Buffer{}, wrapOSErr(err, path)
		}
		defer f.Close()
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return buffer.Buffer{}, udalerr.Wrap(err, udalerr.Unexpected, "fs: seek").WithContext("path", path)
		}
		if limit < 0 {
			data, err := io.ReadAll(f)
			if err != nil {
				return buffer.Buffer{}, udalerr.Wrap(err, udalerr.Unexpected, "fs: read").WithContext("path", path)
			}
			return buffer.New(data), nil
		}
		data := make([]byte, limit)
		n, err := io.ReadFull(f, data)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return buffer.Buffer{}, udalerr.Wrap(err, udalerr.Unexpected, "fs: read").WithContext("path", path)
		}
		return buffer.New(data[:n]), nil
	}), nil
}

func (a *Accessor) Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error) {
	native, err := a.native(path)
	if err != nil {
		return udal.RpWrite{}, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(native), 0o755); err != nil {
		return udal.RpWrite{}, nil, wrapOSErr(err, path)
	}

	lock := flock.New(native + lockSuffix)
	if err := lock.Lock(); err != nil {
		return udal.RpWrite{}, nil, udalerr.Wrap(err, udalerr.Unexpected, "fs: lock").WithContext("path", path)
	}

	if args.Append {
		return udal.RpWrite{}, &appendWriter{native: native, path: path, lock: lock}, nil
	}
	return udal.RpWrite{}, oio.NewOneShotWriter(oneShot{native: native, path: path, lock: lock}), nil
}

type oneShot struct {
	native string
	path   string
	lock   *flock.Flock
}

func (o oneShot) WriteOnce(ctx context.Context, buf buffer.Buffer) error {
	defer releaseLock(o.lock, o.native)
	t, err := renameio.TempFile("", o.native)
	if err != nil {
		return wrapOSErr(err, o.path)
	}
	defer t.Cleanup()
	if _, err := t.Write(buf.ToBytes()); err != nil {
		return udalerr.Wrap(err, udalerr.Unexpected, "fs: write").WithContext("path", o.path)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return udalerr.Wrap(err, udalerr.Unexpected, "fs: commit").WithContext("path", o.path)
	}
	_ = xattr.Remove(o.native, xattrETag)
	return nil
}

// appendWriter opens the native file in append mode directly: an atomic
// rename can't express "append" without reading the whole prior
// contents, so the capability contract (WriteCanAppend) trades
// crash-atomicity for not buffering the whole object in memory.
type appendWriter struct {
	native  string
	path    string
	lock    *flock.Flock
	f       *os.File
	aborted bool
}

func (w *appendWriter) open() error {
	if w.f != nil {
		return nil
	}
	f, err := os.OpenFile(w.native, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return wrapOSErr(err, w.path)
	}
	w.f = f
	return nil
}

func (w *appendWriter) Write(ctx context.Context, buf buffer.Buffer) (int, error) {
	if err := w.open(); err != nil {
		return 0, err
	}
	b := buf.ToBytes()
	n, err := w.f.Write(b)
	if err != nil {
		return n, udalerr.Wrap(err, udalerr.Unexpected, "fs: append").WithContext("path", w.path)
	}
	return n, nil
}

func (w *appendWriter) Close(ctx context.Context) error {
	defer releaseLock(w.lock, w.native)
	if w.f == nil {
		return nil
	}
	_ = xattr.Remove(w.native, xattrETag)
	return w.f.Close()
}

func (w *appendWriter) Abort(ctx context.Context) error {
	defer releaseLock(w.lock, w.native)
	w.aborted = true
	if w.f != nil {
		return w.f.Close()
	}
	return nil
}

// releaseLock unlocks the flock and removes its sidecar lock file so it
// never shows up as a spurious entry in List().
func releaseLock(lock *flock.Flock, native string) {
	_ = lock.Unlock()
	_ = os.Remove(native + lockSuffix)
}

func (a *Accessor) CreateDir(ctx context.Context, path string, args udal.OpCreateDir) (udal.RpCreateDir, error) {
	native, err := a.native(path)
	if err != nil {
		return udal.RpCreateDir{}, err
	}
	if err := os.MkdirAll(native, 0o755); err != nil {
		return udal.RpCreateDir{}, wrapOSErr(err, path)
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
		native, err := b.a.native(in.Path)
		if err != nil {
			return deleted, err
		}
		if udal.IsDir(in.Path) {
			err = os.RemoveAll(native)
		} else {
			err = os.Remove(native)
		}
		if err != nil && !os.IsNotExist(err) {
			return deleted, wrapOSErr(err, in.Path)
		}
		deleted = append(deleted, in.Path)
	}
	return deleted, nil
}

func (a *Accessor) Copy(ctx context.Context, from, to string, args udal.OpCopy) (udal.RpCopy, error) {
	fromNative, err := a.native(from)
	if err != nil {
		return udal.RpCopy{}, err
	}
	toNative, err := a.native(to)
	if err != nil {
		return udal.RpCopy{}, err
	}
	if err := os.MkdirAll(filepath.Dir(toNative), 0o755); err != nil {
		return udal.RpCopy{}, wrapOSErr(err, to)
	}

	src, err := os.Open(fromNative)
	if err != nil {
		return udal.RpCopy{}, wrapOSErr(err, from)
	}
	defer src.Close()

	t, err := renameio.TempFile("", toNative)
	if err != nil {
		return udal.RpCopy{}, wrapOSErr(err, to)
	}
	defer t.Cleanup()
	if _, err := io.Copy(t, src); err != nil {
		return udal.RpCopy{}, udalerr.Wrap(err, udalerr.Unexpected, "fs: copy").WithContext("path", to)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return udal.RpCopy{}, udalerr.Wrap(err, udalerr.Unexpected, "fs: commit").WithContext("path", to)
	}
	return udal.RpCopy{}, nil
}

func (a *Accessor) Rename(ctx context.Context, from, to string, args udal.OpRename) (udal.RpRename, error) {
	fromNative, err := a.native(from)
	if err != nil {
		return udal.RpRename{}, err
	}
	toNative, err := a.native(to)
	if err != nil {
		return udal.RpRename{}, err
	}
	if err := os.MkdirAll(filepath.Dir(toNative), 0o755); err != nil {
		return udal.RpRename{}, wrapOSErr(err, to)
	}
	if err := os.Rename(fromNative, toNative); err != nil {
		return udal.RpRename{}, wrapOSErr(err, from)
	}
	return udal.RpRename{}, nil
}

func (a *Accessor) List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error) {
	native, err := a.native(path)
	if err != nil {
		return udal.RpList{}, nil, err
	}
	return udal.RpList{}, &pager{a: a, dir: native, relPrefix: udal.NormalizePath(path), recursive: args.Recursive, limit: args.Limit, startAfter: args.StartAfter}, nil
}

type pager struct {
	a          *Accessor
	dir        string
	relPrefix  string
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
	count := 0
	walkFn := func(native string, fi os.FileInfo, depth int) error {
		if native == p.dir {
			return nil
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(native, p.dir), string(filepath.Separator))
		rel = filepath.ToSlash(rel)
		full := udal.Join(p.relPrefix, rel)
		if fi.IsDir() {
			full += "/"
		}
		if p.startAfter != "" && full <= udal.NormalizePath(p.startAfter) {
			return nil
		}
		pc.PushEntry(udal.Entry{Path: full, Metadata: metadataFromFileInfo(fi, native)})
		count++
		return nil
	}

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		p.done = true
		pc.Done = true
		return wrapOSErr(err, p.relPrefix)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), lockSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		native := filepath.Join(p.dir, name)
		fi, err := os.Lstat(native)
		if err != nil {
			continue
		}
		if err := walkFn(native, fi, 0); err != nil {
			return err
		}
		if p.limit > 0 && count >= p.limit {
			break
		}
		if p.recursive && fi.IsDir() {
			if err := p.walkRecursive(native, pc, &count); err != nil {
				return err
			}
		}
		if p.limit > 0 && count >= p.limit {
			break
		}
	}

	p.done = true
	pc.Done = true
	return nil
}

func (p *pager) walkRecursive(dir string, pc *oio.PageContext, count *int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return wrapOSErr(err, dir)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), lockSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		native := filepath.Join(dir, name)
		fi, err := os.Lstat(native)
		if err != nil {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(native, p.dir), string(filepath.Separator))
		rel = filepath.ToSlash(rel)
		full := udal.Join(p.relPrefix, rel)
		if fi.IsDir() {
			full += "/"
		}
		if !(p.startAfter != "" && full <= udal.NormalizePath(p.startAfter)) {
			pc.PushEntry(udal.Entry{Path: full, Metadata: metadataFromFileInfo(fi, native)})
			*count++
		}
		if p.limit > 0 && *count >= p.limit {
			return nil
		}
		if fi.IsDir() {
			if err := p.walkRecursive(native, pc, count); err != nil {
				return err
			}
		}
		if p.limit > 0 && *count >= p.limit {
			return nil
		}
	}
	return nil
}

func (a *Accessor) Presign(ctx context.Context, path string, args udal.OpPresign) (udal.RpPresign, error) {
	return udal.RpPresign{}, accessor.ErrUnsupported(udal.SchemeFS, "presign")
}
