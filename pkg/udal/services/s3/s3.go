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

// Package s3 is the S3-compatible object storage backend, built on
// minio-go. It speaks the high-level Client for one-shot operations and
// the Core client for multipart upload, since the high-level API
// doesn't expose per-part control.
package s3

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/buffer"
	"github.com/cs3org/udal/pkg/udal/config"
	"github.com/cs3org/udal/pkg/udal/oio"
	"github.com/cs3org/udal/pkg/udal/registry"
	"github.com/cs3org/udal/pkg/udal/udalerr"
)

// Options configures the s3 backend.
type Options struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	Secure          bool   `mapstructure:"secure"`
	Root            string `mapstructure:"root"`
}

func init() {
	registry.Register(udal.SchemeS3, func(m map[string]interface{}, root string) (accessor.Accessor, error) {
		opts := Options{Secure: true, Root: root}
		if err := config.Decode(m, &opts); err != nil {
			return nil, udalerr.Wrap(err, udalerr.ConfigInvalid, "s3: decode config")
		}
		return New(opts)
	})
}

// Accessor is the S3-compatible backend.
type Accessor struct {
	core   *minio.Core
	bucket string
	root   string
}

// New builds an Accessor from opts.
func New(opts Options) (*Accessor, error) {
	if opts.Bucket == "" {
		return nil, udalerr.New(udalerr.ConfigInvalid, "s3: bucket is required")
	}
	core, err := minio.NewCore(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, udalerr.Wrap(err, udalerr.ConfigInvalid, "s3: new client")
	}
	return &Accessor{core: core, bucket: opts.Bucket, root: opts.Root}, nil
}

func (a *Accessor) Info() udal.Info {
	return udal.Info{
		Scheme: udal.SchemeS3,
		Root:   a.root,
		Name:   "s3:" + a.bucket,
		Capability: udal.Capability{
			Stat: true, Read: true,
			Write: true, WriteCanMulti: true, WriteCanEmpty: true,
			WriteWithContentType: true, WriteWithCacheControl: true, WriteWithContentDisp: true,
			WriteMultiMinSize: 5 << 20,
			Delete:            true, DeleteMaxSize: 1000,
			Copy: true,
			List: true, ListWithLimit: true, ListWithStartAfter: true, ListWithRecursive: true,
			Presign: true,
		},
	}
}

func (a *Accessor) key(p string) string { return udal.Join(a.root, p) }

func wrapS3Err(err error, path string) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	var kind udalerr.Kind
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		kind = udalerr.NotFound
	case "AccessDenied":
		kind = udalerr.PermissionDenied
	case "PreconditionFailed":
		kind = udalerr.ConditionNotMatch
	case "InvalidRange":
		kind = udalerr.RangeNotSatisfied
	case "SlowDown", "TooManyRequests":
		kind = udalerr.RateLimited
	default:
		kind = udalerr.Unexpected
	}
	return udalerr.Wrap(err, kind, "s3").WithContext("path", path)
}

func metadataFromObjectInfo(oi minio.ObjectInfo) udal.Metadata {
	meta := udal.NewFileMetadata(oi.Size).WithLastModified(oi.LastModified)
	if oi.ETag != "" {
		meta = meta.WithETag(strings.Trim(oi.ETag, `"`))
	}
	if oi.ContentType != "" {
		meta = meta.WithContentType(oi.ContentType)
	}
	return meta
}

func (a *Accessor) Stat(ctx context.Context, path string, args udal.OpStat) (udal.RpStat, error) {
	opts := minio.StatObjectOptions{}
	if args.IfMatch != "" {
		opts.SetMatchETag(args.IfMatch)
	}
	if args.IfNoneMatch != "" {
		opts.SetMatchETagExcept(args.IfNoneMatch)
	}
	oi, err := a.core.Client.StatObject(ctx, a.bucket, a.key(path), opts)
	if err != nil {
		return udal.RpStat{}, wrapS3Err(err, path)
	}
	return udal.RpStat{Metadata: metadataFromObjectInfo(oi)}, nil
}

func (a *Accessor) Read(ctx context.Context, path string, args udal.OpRead) (udal.RpRead, oio.Reader, error) {
	headOpts := minio.StatObjectOptions{}
	oi, err := a.core.Client.StatObject(ctx, a.bucket, a.key(path), headOpts)
	if err != nil {
		return udal.RpRead{}, nil, wrapS3Err(err, path)
	}

	key := a.key(path)
	bucket := a.bucket
	client := a.core.Client
	return udal.RpRead{Metadata: metadataFromObjectInfo(oi)}, oio.ReaderFunc(func(ctx context.Context, offset, limit int64) (buffer.Buffer, error) {
		opts := minio.GetObjectOptions{}
		if limit < 0 {
			_ = opts.SetRange(offset, -1)
		} else {
			_ = opts.SetRange(offset, offset+limit-1)
		}
		if args.IfMatch != "" {
			opts.SetMatchETag(args.IfMatch)
		}
		obj, err := client.GetObject(ctx, bucket, key, opts)
		if err != nil {
			return buffer.Buffer{}, wrapS3Err(err, path)
		}
		defer obj.Close()
		data, err := readAllLimited(obj, limit)
		if err != nil {
			return buffer.Buffer{}, wrapS3Err(err, path)
		}
		return buffer.New(data), nil
	}), nil
}

func readAllLimited(r *minio.Object, limit int64) ([]byte, error) {
	if limit < 0 {
		var out []byte
		buf := make([]byte, 1<<20)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				out = append(out, buf[:n]...)
			}
			if err != nil {
				break
			}
		}
		return out, nil
	}
	out := make([]byte, 0, limit)
	buf := make([]byte, 1<<20)
	for int64(len(out)) < limit {
		n, err := r.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			break
		}
	}
	return out, nil
}

func (a *Accessor) Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error) {
	key := a.key(path)
	w := &multipartWriter{
		ctx:       ctx,
		core:      a.core,
		bucket:    a.bucket,
		key:       key,
		path:      path,
		opts:      putOptionsFromArgs(args),
		minPart:   5 << 20,
	}
	return udal.RpWrite{}, w, nil
}

func putOptionsFromArgs(args udal.OpWrite) minio.PutObjectOptions {
	opts := minio.PutObjectOptions{}
	if args.ContentType != "" {
		opts.ContentType = args.ContentType
	}
	if args.CacheControl != "" {
		opts.CacheControl = args.CacheControl
	}
	if args.ContentDisposition != "" {
		opts.ContentDisposition = args.ContentDisposition
	}
	return opts
}

// multipartWriter buffers writes up to minPart, then starts (or
// continues) a multipart upload; a whole object smaller than minPart is
// issued as a single PutObject at Close instead, to avoid the overhead
// of a multipart upload for small objects.
type multipartWriter struct {
	ctx    context.Context
	core   *minio.Core
	bucket string
	key    string
	path   string
	opts   minio.PutObjectOptions

	minPart    int64
	uploadID   string
	partNum    int
	parts      []minio.CompletePart
	pending    []byte
	aborted    bool
	closed     bool
}

func (w *multipartWriter) Write(ctx context.Context, buf buffer.Buffer) (int, error) {
	n := buf.Len()
	w.pending = append(w.pending, buf.ToBytes()...)
	for int64(len(w.pending)) >= w.minPart {
		chunk := w.pending[:w.minPart]
		if err := w.uploadPart(ctx, chunk); err != nil {
			return 0, err
		}
		w.pending = append([]byte{}, w.pending[w.minPart:]...)
	}
	return n, nil
}

func (w *multipartWriter) uploadPart(ctx context.Context, data []byte) error {
	if w.uploadID == "" {
		id, err := w.core.NewMultipartUpload(ctx, w.bucket, w.key, w.opts)
		if err != nil {
			return wrapS3Err(err, w.path)
		}
		w.uploadID = id
	}
	w.partNum++
	part, err := w.core.PutObjectPart(ctx, w.bucket, w.key, w.uploadID, w.partNum, strings.NewReader(string(data)), int64(len(data)), minio.PutObjectPartOptions{})
	if err != nil {
		return wrapS3Err(err, w.path)
	}
	w.parts = append(w.parts, minio.CompletePart{PartNumber: part.PartNumber, ETag: part.ETag})
	return nil
}

func (w *multipartWriter) Close(ctx context.Context) error {
	if w.closed || w.aborted {
		return nil
	}
	w.closed = true

	if w.uploadID == "" {
		_, err := w.core.Client.PutObject(ctx, w.bucket, w.key, strings.NewReader(string(w.pending)), int64(len(w.pending)), w.opts)
		if err != nil {
			return wrapS3Err(err, w.path)
		}
		return nil
	}

	if len(w.pending) > 0 {
		if err := w.uploadPart(ctx, w.pending); err != nil {
			return err
		}
		w.pending = nil
	}
	_, err := w.core.CompleteMultipartUpload(ctx, w.bucket, w.key, w.uploadID, w.parts, minio.PutObjectOptions{})
	if err != nil {
		return wrapS3Err(err, w.path)
	}
	return nil
}

func (w *multipartWriter) Abort(ctx context.Context) error {
	w.aborted = true
	if w.uploadID != "" {
		return wrapS3Err(w.core.AbortMultipartUpload(ctx, w.bucket, w.key, w.uploadID), w.path)
	}
	return nil
}

func (a *Accessor) CreateDir(ctx context.Context, path string, args udal.OpCreateDir) (udal.RpCreateDir, error) {
	key := a.key(path)
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}
	_, err := a.core.Client.PutObject(ctx, a.bucket, key, strings.NewReader(""), 0, minio.PutObjectOptions{})
	if err != nil {
		return udal.RpCreateDir{}, wrapS3Err(err, path)
	}
	return udal.RpCreateDir{}, nil
}

func (a *Accessor) Delete(ctx context.Context) (udal.RpDelete, oio.BatchDelete, error) {
	return udal.RpDelete{}, batchDelete{a: a}, nil
}

type batchDelete struct{ a *Accessor }

func (b batchDelete) DeleteBatch(ctx context.Context, inputs []oio.DeleteInput) ([]string, error) {
	objectsCh := make(chan minio.ObjectInfo, len(inputs))
	keyToPath := make(map[string]string, len(inputs))
	for _, in := range inputs {
		key := b.a.key(in.Path)
		keyToPath[key] = in.Path
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	errCh := b.a.core.Client.RemoveObjects(ctx, b.a.bucket, objectsCh, minio.RemoveObjectsOptions{})
	failed := make(map[string]bool)
	for e := range errCh {
		failed[e.ObjectName] = true
	}

	deleted := make([]string, 0, len(inputs))
	for key, path := range keyToPath {
		if !failed[key] {
			deleted = append(deleted, path)
		}
	}
	return deleted, nil
}

func (a *Accessor) Copy(ctx context.Context, from, to string, args udal.OpCopy) (udal.RpCopy, error) {
	src := minio.CopySrcOptions{Bucket: a.bucket, Object: a.key(from)}
	dst := minio.CopyDestOptions{Bucket: a.bucket, Object: a.key(to)}
	_, err := a.core.Client.CopyObject(ctx, dst, src)
	if err != nil {
		return udal.RpCopy{}, wrapS3Err(err, from)
	}
	return udal.RpCopy{}, nil
}

// Rename is unsupported: S3 has no atomic rename primitive, and
// emulating one as copy+delete would violate the all-or-nothing
// expectation callers have for Rename.
func (a *Accessor) Rename(ctx context.Context, from, to string, args udal.OpRename) (udal.RpRename, error) {
	return udal.RpRename{}, accessor.ErrUnsupported(udal.SchemeS3, "rename")
}

func (a *Accessor) List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error) {
	prefix := a.key(path)
	return udal.RpList{}, &pager{a: a, prefix: prefix, root: a.root, recursive: args.Recursive, limit: args.Limit, startAfter: args.StartAfter}, nil
}

type pager struct {
	a          *Accessor
	prefix     string
	root       string
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
	opts := minio.ListObjectsOptions{
		Prefix:     p.prefix,
		Recursive:  p.recursive,
		StartAfter: p.startAfter,
	}
	count := 0
	for oi := range p.a.core.Client.ListObjects(ctx, p.a.bucket, opts) {
		if oi.Err != nil {
			p.done = true
			pc.Done = true
			return wrapS3Err(oi.Err, p.prefix)
		}
		rel := strings.TrimPrefix(oi.Key, strings.TrimPrefix(p.root, "/"))
		rel = strings.TrimPrefix(rel, "/")
		meta := metadataFromObjectInfo(oi)
		if strings.HasSuffix(oi.Key, "/") {
			meta = udal.NewDirMetadata()
		}
		pc.PushEntry(udal.Entry{Path: rel, Metadata: meta})
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
	key := a.key(path)
	expire := args.Expire
	if expire <= 0 {
		expire = 15 * time.Minute
	}

	var u *url.URL
	var err error
	var method string
	switch args.Operation {
	case udal.PresignWrite:
		method = "PUT"
		u, err = a.core.Client.PresignedPutObject(ctx, a.bucket, key, expire)
	case udal.PresignStat:
		method = "HEAD"
		u, err = a.core.Client.PresignedHeadObject(ctx, a.bucket, key, expire, url.Values{})
	default:
		method = "GET"
		u, err = a.core.Client.PresignedGetObject(ctx, a.bucket, key, expire, url.Values{})
	}
	if err != nil {
		return udal.RpPresign{}, wrapS3Err(err, path)
	}
	return udal.RpPresign{
		Method:    method,
		URI:       u.String(),
		Headers:   map[string]string{},
		ExpiresAt: time.Now().Add(expire),
	}, nil
}
