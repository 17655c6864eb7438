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

package kv_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/operator"
	"github.com/cs3org/udal/pkg/udal/services/kv"
	"github.com/cs3org/udal/pkg/udal/udaltest"
)

// TestConformanceSQLite runs against a throwaway on-disk sqlite file per
// accessor instance, so the "in-memory shared cache" DSN (which aliases
// every connection in the process to one database) can't leak state
// between subtests.
func TestConformanceSQLite(t *testing.T) {
	dir := t.TempDir()
	n := 0
	udaltest.RunConformance(t, func(t *testing.T) accessor.Accessor {
		n++
		acc, err := kv.New(kv.Options{
			Driver: "sqlite",
			DSN:    fmt.Sprintf("%s/conformance-%d.db", dir, n),
		})
		require.NoError(t, err)
		return acc
	})
}

// TestConformanceRedis exercises a real Redis instance. It is skipped
// unless UDAL_REDIS_TEST_ADDR is set.
func TestConformanceRedis(t *testing.T) {
	addr := os.Getenv("UDAL_REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis integration test: UDAL_REDIS_TEST_ADDR not set")
	}
	udaltest.RunConformance(t, func(t *testing.T) accessor.Accessor {
		acc, err := kv.New(kv.Options{Driver: "redis", DSN: addr, Root: t.Name()})
		require.NoError(t, err)
		return acc
	})
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := kv.New(kv.Options{Driver: "bogus"})
	require.Error(t, err)
}

// TestListWithNonEmptyRootOmitsRootPrefix guards against the root prefix
// leaking into emitted entry paths when the backend is constructed with
// a non-empty root (udal.Join("", p) == p masks this with an empty root).
func TestListWithNonEmptyRootOmitsRootPrefix(t *testing.T) {
	dir := t.TempDir()
	acc, err := kv.New(kv.Options{
		Driver: "sqlite",
		DSN:    dir + "/root-prefix.db",
		Root:   "tenant-a",
	})
	require.NoError(t, err)

	ctx := context.Background()
	op := operator.New(acc)
	w, err := op.Write(ctx, "file.txt", udal.OpWrite{}, 0, 3)
	require.NoError(t, err)
	_, err = w.Write(ctx, []byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	lister, err := op.List(ctx, "", udal.OpList{})
	require.NoError(t, err)
	var paths []string
	for {
		e, ok := lister.Next()
		if !ok {
			break
		}
		paths = append(paths, e.Path)
	}
	require.NoError(t, lister.Err())
	require.Contains(t, paths, "file.txt")
	for _, p := range paths {
		require.NotContains(t, p, "tenant-a")
	}
}
