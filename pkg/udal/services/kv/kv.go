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

// Package kv is a key-value-backed object store. A single logical
// backend, selected at construction time by the "driver" configuration
// key: "sqlite" stores objects as rows in a local database/sql table,
// "redis" stores them as keys in a Redis instance. Both drivers
// implement the same kvStore interface so the accessor logic (stat,
// read, write, list by prefix) is written once.
package kv

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/buffer"
	"github.com/cs3org/udal/pkg/udal/config"
	"github.com/cs3org/udal/pkg/udal/oio"
	"github.com/cs3org/udal/pkg/udal/registry"
	"github.com/cs3org/udal/pkg/udal/udalerr"
)

// Options configures the kv backend.
type Options struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "redis"
	DSN    string `mapstructure:"dsn"`    // sqlite file path, or redis address
	Root   string `mapstructure:"root"`
}

func init() {
	registry.Register(udal.SchemeSQLite, func(m map[string]interface{}, root string) (accessor.Accessor, error) {
		opts := Options{Driver: "sqlite", Root: root}
		if err := config.Decode(m, &opts); err != nil {
			return nil, udalerr.Wrap(err, udalerr.ConfigInvalid, "kv: decode config")
		}
		return New(opts)
	})
	registry.Register(udal.SchemeRedis, func(m map[string]interface{}, root string) (accessor.Accessor, error) {
		opts := Options{Driver: "redis", Root: root}
		if err := config.Decode(m, &opts); err != nil {
			return nil, udalerr.Wrap(err, udalerr.ConfigInvalid, "kv: decode config")
		}
		return New(opts)
	})
}

type record struct {
	data     []byte
	etag     string
	ctype    string
	modified time.Time
}

// kvStore is the minimal primitive both drivers implement.
type kvStore interface {
	get(ctx context.Context, key string) (record, bool, error)
	put(ctx context.Context, key string, rec record) error
	del(ctx context.Context, key string) error
	scanPrefix(ctx context.Context, prefix string) ([]string, error)
}

// Accessor is the key-value backend.
type Accessor struct {
	store  kvStore
	driver string
	root   string
}

// New builds an Accessor from opts.
func New(opts Options) (*Accessor, error) {
	var store kvStore
	var err error
	switch opts.Driver {
	case "redis":
		store, err = newRedisStore(opts.DSN)
	case "sqlite", "":
		store, err = newSQLiteStore(opts.DSN)
	default:
		return nil, udalerr.New(udalerr.ConfigInvalid, "kv: unknown driver").WithContext("driver", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return &Accessor{store: store, driver: opts.Driver, root: opts.Root}, nil
}

func (a *Accessor) Info() udal.Info {
	scheme := udal.SchemeSQLite
	if a.driver == "redis" {
		scheme = udal.SchemeRedis
	}
	return udal.Info{
		Scheme: scheme,
		Root:   a.root,
		Name:   "kv:" + a.driver,
		Capability: udal.Capability{
			Stat: true, Read: true,
			Write: true, WriteCanEmpty: true, WriteWithContentType: true,
			Delete:        true,
			DeleteMaxSize: 1,
			List:          true, ListWithLimit: true, ListWithStartAfter: true, ListWithRecursive: true,
		},
	}
}

func (a *Accessor) key(p string) string { return udal.Join(a.root, p) }

// unkey is key's inverse: it strips the backend's configured root back
// off a native key, so emitted Entry.Path values stay root-relative
// (spec §4.4) instead of leaking the root prefix.
func (a *Accessor) unkey(k string) string {
	root := strings.Trim(a.root, "/")
	if root == "" {
		return k
	}
	return strings.TrimPrefix(strings.TrimPrefix(k, root), "/")
}

func (a *Accessor) Stat(ctx context.Context, path string, args udal.OpStat) (udal.RpStat, error) {
	rec, ok, err := a.store.get(ctx, a.key(path))
	if err != nil {
		return udal.RpStat{}, udalerr.Wrap(err, udalerr.Unexpected, "kv: stat").WithContext("path", path)
	}
	if !ok {
		return udal.RpStat{}, udalerr.New(udalerr.NotFound, "no such key").WithContext("path", path)
	}
	return udal.RpStat{Metadata: metadataFromRecord(rec)}, nil
}

func metadataFromRecord(rec record) udal.Metadata {
	meta := udal.NewFileMetadata(int64(len(rec.data))).WithLastModified(rec.modified)
	if rec.etag != "" {
		meta = meta.WithETag(rec.etag)
	}
	if rec.ctype != "" {
		meta = meta.WithContentType(rec.ctype)
	}
	return meta
}

func (a *Accessor) Read(ctx context.Context, path string, args udal.OpRead) (udal.RpRead, oio.Reader, error) {
	rec, ok, err := a.store.get(ctx, a.key(path))
	if err != nil {
		return udal.RpRead{}, nil, udalerr.Wrap(err, udalerr.Unexpected, "kv: read").WithContext("path", path)
	}
	if !ok {
		return udal.RpRead{}, nil, udalerr.New(udalerr.NotFound, "no such key").WithContext("path", path)
	}
	data := rec.data
	return udal.RpRead{Metadata: metadataFromRecord(rec)}, oio.ReaderFunc(func(ctx context.Context, offset, limit int64) (buffer.Buffer, error) {
		if offset >= int64(len(data)) {
			return buffer.Buffer{}, nil
		}
		end := int64(len(data))
		if limit >= 0 && offset+limit < end {
			end = offset + limit
		}
		return buffer.New(data[offset:end]), nil
	}), nil
}

func (a *Accessor) Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error) {
	key := a.key(path)
	return udal.RpWrite{}, oio.NewOneShotWriter(oneShot{a: a, key: key, path: path, args: args}), nil
}

type oneShot struct {
	a    *Accessor
	key  string
	path string
	args udal.OpWrite
}

func (o oneShot) WriteOnce(ctx context.Context, buf buffer.Buffer) error {
	rec := record{data: buf.ToBytes(), ctype: o.args.ContentType, modified: time.Now(), etag: fmt.Sprintf("%x-%d", len(buf.ToBytes()), time.Now().UnixNano())}
	if err := o.a.store.put(ctx, o.key, rec); err != nil {
		return udalerr.Wrap(err, udalerr.Unexpected, "kv: write").WithContext("path", o.path)
	}
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
	deleted := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if err := b.a.store.del(ctx, b.a.key(in.Path)); err != nil {
			return deleted, udalerr.Wrap(err, udalerr.Unexpected, "kv: delete").WithContext("path", in.Path)
		}
		deleted = append(deleted, in.Path)
	}
	return deleted, nil
}

// Copy is unsupported: a key-value store has no native duplicate
// primitive cheaper than a full read back through this accessor, and
// that round trip belongs to the caller, not a silently expensive Copy.
func (a *Accessor) Copy(ctx context.Context, from, to string, args udal.OpCopy) (udal.RpCopy, error) {
	return udal.RpCopy{}, accessor.ErrUnsupported(a.Info().Scheme, "copy")
}

func (a *Accessor) Rename(ctx context.Context, from, to string, args udal.OpRename) (udal.RpRename, error) {
	rec, ok, err := a.store.get(ctx, a.key(from))
	if err != nil {
		return udal.RpRename{}, udalerr.Wrap(err, udalerr.Unexpected, "kv: rename").WithContext("path", from)
	}
	if !ok {
		return udal.RpRename{}, udalerr.New(udalerr.NotFound, "no such key").WithContext("path", from)
	}
	if err := a.store.put(ctx, a.key(to), rec); err != nil {
		return udal.RpRename{}, udalerr.Wrap(err, udalerr.Unexpected, "kv: rename").WithContext("path", to)
	}
	if err := a.store.del(ctx, a.key(from)); err != nil {
		return udal.RpRename{}, udalerr.Wrap(err, udalerr.Unexpected, "kv: rename").WithContext("path", from)
	}
	return udal.RpRename{}, nil
}

func (a *Accessor) List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error) {
	prefix := a.key(path)
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
	keys, err := p.a.store.scanPrefix(ctx, p.prefix)
	if err != nil {
		p.done = true
		pc.Done = true
		return udalerr.Wrap(err, udalerr.Unexpected, "kv: list").WithContext("path", p.prefix)
	}
	sort.Strings(keys)

	seenDirs := map[string]bool{}
	count := 0
	for _, k := range keys {
		rel := strings.TrimPrefix(k, p.prefix)
		if rel == "" {
			continue
		}
		if p.startAfter != "" && k <= p.a.key(p.startAfter) {
			continue
		}
		if !p.recursive {
			if idx := strings.Index(rel, "/"); idx >= 0 {
				dir := rel[:idx+1]
				if seenDirs[dir] {
					continue
				}
				seenDirs[dir] = true
				pc.PushEntry(udal.Entry{Path: p.a.unkey(p.prefix + dir), Metadata: udal.NewDirMetadata()})
				count++
				if p.limit > 0 && count >= p.limit {
					break
				}
				continue
			}
		}
		rec, ok, err := p.a.store.get(ctx, k)
		if err != nil || !ok {
			continue
		}
		pc.PushEntry(udal.Entry{Path: p.a.unkey(k), Metadata: metadataFromRecord(rec)})
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
	return udal.RpPresign{}, accessor.ErrUnsupported(a.Info().Scheme, "presign")
}

// --- sqlite driver ---

type sqliteStore struct {
	db *sql.DB
}

func newSQLiteStore(dsn string) (*sqliteStore, error) {
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	const schema = `CREATE TABLE IF NOT EXISTS udal_objects (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		etag TEXT,
		content_type TEXT,
		modified INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) get(ctx context.Context, key string) (record, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data, etag, content_type, modified FROM udal_objects WHERE key = ?`, key)
	var rec record
	var modified int64
	if err := row.Scan(&rec.data, &rec.etag, &rec.ctype, &modified); err != nil {
		if err == sql.ErrNoRows {
			return record{}, false, nil
		}
		return record{}, false, err
	}
	rec.modified = time.Unix(0, modified)
	return rec, true, nil
}

func (s *sqliteStore) put(ctx context.Context, key string, rec record) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO udal_objects (key, data, etag, content_type, modified)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data=excluded.data, etag=excluded.etag,
			content_type=excluded.content_type, modified=excluded.modified`,
		key, rec.data, rec.etag, rec.ctype, rec.modified.UnixNano())
	return err
}

func (s *sqliteStore) del(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM udal_objects WHERE key = ?`, key)
	return err
}

func (s *sqliteStore) scanPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM udal_objects WHERE key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// --- redis driver ---

type redisStore struct {
	client *redis.Client
}

func newRedisStore(addr string) (*redisStore, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	c := redis.NewClient(&redis.Options{Addr: addr})
	return &redisStore{client: c}, nil
}

func (s *redisStore) get(ctx context.Context, key string) (record, bool, error) {
	vals, err := s.client.HGetAll(ctx, redisKey(key)).Result()
	if err != nil {
		return record{}, false, err
	}
	if len(vals) == 0 {
		return record{}, false, nil
	}
	modNanos, _ := parseInt64(vals["modified"])
	return record{
		data:     []byte(vals["data"]),
		etag:     vals["etag"],
		ctype:    vals["content_type"],
		modified: time.Unix(0, modNanos),
	}, true, nil
}

func (s *redisStore) put(ctx context.Context, key string, rec record) error {
	return s.client.HSet(ctx, redisKey(key), map[string]interface{}{
		"data":         rec.data,
		"etag":         rec.etag,
		"content_type": rec.ctype,
		"modified":     rec.modified.UnixNano(),
	}).Err()
}

func (s *redisStore) del(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKey(key)).Err()
}

func (s *redisStore) scanPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, redisKey(prefix)+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	return keys, iter.Err()
}

const redisKeyPrefix = "udal:obj:"

func redisKey(k string) string { return redisKeyPrefix + k }

func parseInt64(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
