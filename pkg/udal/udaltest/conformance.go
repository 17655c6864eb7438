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

// Package udaltest is a shared conformance suite every backend is
// expected to pass: round-trip, stat-after-write, ranged read,
// seek-anywhere, delete idempotence, list emission shape, writer abort
// and, for backends that support copy, copy semantics. Backends call
// RunConformance from their own _test.go with a constructor for a
// fresh, isolated accessor instance.
package udaltest

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/operator"
	"github.com/cs3org/udal/pkg/udal/udalerr"
)

// RunConformance runs the universal-property suite against a fresh
// accessor obtained from newAcc for every subtest, so state from one
// property never leaks into another.
func RunConformance(t *testing.T, newAcc func(t *testing.T) accessor.Accessor) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newAcc(t)) })
	t.Run("StatAfterWrite", func(t *testing.T) { testStatAfterWrite(t, newAcc(t)) })
	t.Run("RangeRead", func(t *testing.T) { testRangeRead(t, newAcc(t)) })
	t.Run("SeekAnywhere", func(t *testing.T) { testSeekAnywhere(t, newAcc(t)) })
	t.Run("DeleteIdempotence", func(t *testing.T) { testDeleteIdempotence(t, newAcc(t)) })
	t.Run("ListEmission", func(t *testing.T) { testListEmission(t, newAcc(t)) })
	t.Run("WriterAbort", func(t *testing.T) { testWriterAbort(t, newAcc(t)) })

	if newAcc(t).Info().Capability.Copy {
		t.Run("CopySemantics", func(t *testing.T) { testCopySemantics(t, newAcc(t)) })
	}
}

func testRoundTrip(t *testing.T, acc accessor.Accessor) {
	ctx := context.Background()
	op := operator.New(acc)
	const path, body = "round-trip.txt", "hello, udal"

	w, err := op.Write(ctx, path, udal.OpWrite{}, 0, int64(len(body)))
	require.NoError(t, err)
	_, err = w.Write(ctx, []byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	rh, err := op.Read(ctx, path, udal.OpRead{})
	require.NoError(t, err)
	got, err := io.ReadAll(rh.Stream())
	require.NoError(t, err)
	require.Equal(t, body, string(got))
}

func testStatAfterWrite(t *testing.T, acc accessor.Accessor) {
	ctx := context.Background()
	op := operator.New(acc)
	const path, body = "stat-after-write.txt", "0123456789"

	w, err := op.Write(ctx, path, udal.OpWrite{}, 0, int64(len(body)))
	require.NoError(t, err)
	_, err = w.Write(ctx, []byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	meta, err := op.Stat(ctx, path, udal.OpStat{})
	require.NoError(t, err)
	require.True(t, meta.Mode.IsFile())
	if meta.ContentLength != nil {
		require.Equal(t, int64(len(body)), *meta.ContentLength)
	}
}

func testRangeRead(t *testing.T, acc accessor.Accessor) {
	if !acc.Info().Capability.Read {
		t.Skip("backend does not support read")
	}
	ctx := context.Background()
	op := operator.New(acc)
	const path, body = "range-read.txt", "abcdefghijklmnopqrstuvwxyz"

	w, err := op.Write(ctx, path, udal.OpWrite{}, 0, int64(len(body)))
	require.NoError(t, err)
	_, err = w.Write(ctx, []byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	rh, err := op.Read(ctx, path, udal.OpRead{Range: udal.RangeN(5, 10)})
	require.NoError(t, err)
	got, err := io.ReadAll(rh.Stream())
	require.NoError(t, err)
	require.Equal(t, body[5:15], string(got))
}

func testSeekAnywhere(t *testing.T, acc accessor.Accessor) {
	if !acc.Info().Capability.Read {
		t.Skip("backend does not support read")
	}
	ctx := context.Background()
	op := operator.New(acc)
	const path, body = "seek-anywhere.txt", "0123456789ABCDEFGHIJ"

	w, err := op.Write(ctx, path, udal.OpWrite{}, 0, int64(len(body)))
	require.NoError(t, err)
	_, err = w.Write(ctx, []byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	rh, err := op.Read(ctx, path, udal.OpRead{})
	require.NoError(t, err)
	s := rh.Seekable()
	defer s.Close()

	_, err = s.Seek(10, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 5)
	_, err = io.ReadFull(s, buf)
	require.NoError(t, err)
	require.Equal(t, body[10:15], string(buf))

	_, err = s.Seek(0, io.SeekStart)
	require.NoError(t, err)
	all, err := io.ReadAll(s)
	require.NoError(t, err)
	require.Equal(t, body, string(all))
}

func testDeleteIdempotence(t *testing.T, acc accessor.Accessor) {
	ctx := context.Background()
	op := operator.New(acc)
	const path = "delete-idempotence.txt"

	w, err := op.Write(ctx, path, udal.OpWrite{}, 0, 4)
	require.NoError(t, err)
	_, err = w.Write(ctx, []byte("data"))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	require.NoError(t, op.Delete(ctx, path, udal.OpDelete{}))
	// Deleting an already-absent path must not error.
	require.NoError(t, op.Delete(ctx, path, udal.OpDelete{}))
}

func testListEmission(t *testing.T, acc accessor.Accessor) {
	if !acc.Info().Capability.List {
		t.Skip("backend does not support list")
	}
	ctx := context.Background()
	op := operator.New(acc)

	for _, p := range []string{"list-dir/a.txt", "list-dir/b.txt", "list-dir/nested/c.txt"} {
		w, err := op.Write(ctx, p, udal.OpWrite{}, 0, 1)
		require.NoError(t, err)
		_, err = w.Write(ctx, []byte("x"))
		require.NoError(t, err)
		require.NoError(t, w.Close(ctx))
	}

	lister, err := op.List(ctx, "list-dir/", udal.OpList{Recursive: true})
	require.NoError(t, err)

	var paths []string
	for {
		e, ok := lister.Next()
		if !ok {
			break
		}
		require.Equal(t, e.Metadata.Mode.IsDir(), udal.IsDir(e.Path), e.Path)
		paths = append(paths, e.Path)
	}
	require.NoError(t, lister.Err())
	require.NotEmpty(t, paths)
}

func testCopySemantics(t *testing.T, acc accessor.Accessor) {
	ctx := context.Background()
	op := operator.New(acc)
	const src, dst, body = "copy-src.txt", "copy-dst.txt", "copy me"

	w, err := op.Write(ctx, src, udal.OpWrite{}, 0, int64(len(body)))
	require.NoError(t, err)
	_, err = w.Write(ctx, []byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	require.NoError(t, op.Copy(ctx, src, dst, udal.OpCopy{}))

	// Copying a path onto itself must fail without touching either side.
	err = op.Copy(ctx, src, src, udal.OpCopy{})
	require.Error(t, err)

	if acc.Info().Capability.CreateDir {
		const dir = "copy-dir/"
		require.NoError(t, op.CreateDir(ctx, dir, udal.OpCreateDir{}))

		err = op.Copy(ctx, dir, dst, udal.OpCopy{})
		require.Error(t, err)
		require.True(t, udalerr.IsKind(err, udalerr.IsADirectory))

		err = op.Copy(ctx, src, dir, udal.OpCopy{})
		require.Error(t, err)
		require.True(t, udalerr.IsKind(err, udalerr.IsADirectory))
	}

	if acc.Info().Capability.Read {
		rh, err := op.Read(ctx, dst, udal.OpRead{})
		require.NoError(t, err)
		got, err := io.ReadAll(rh.Stream())
		require.NoError(t, err)
		require.Equal(t, body, string(got))
	}
}

func testWriterAbort(t *testing.T, acc accessor.Accessor) {
	ctx := context.Background()
	op := operator.New(acc)
	const path = "writer-abort.txt"

	w, err := op.Write(ctx, path, udal.OpWrite{}, 0, 3)
	require.NoError(t, err)
	_, err = w.Write(ctx, []byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Abort(ctx))

	_, err = op.Stat(ctx, path, udal.OpStat{})
	require.Error(t, err, "an aborted write must not publish the object")
}
