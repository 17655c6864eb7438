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

package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/operator"
	"github.com/cs3org/udal/pkg/udal/services/memory"
	"github.com/cs3org/udal/pkg/udal/udaltest"
)

func TestConformance(t *testing.T) {
	udaltest.RunConformance(t, func(t *testing.T) accessor.Accessor {
		return memory.New("")
	})
}

func TestConformanceWithRoot(t *testing.T) {
	udaltest.RunConformance(t, func(t *testing.T) accessor.Accessor {
		return memory.New("tenant-a")
	})
}

func TestInfo(t *testing.T) {
	acc := memory.New("")
	info := acc.Info()
	require.Equal(t, "memory", string(info.Scheme))
	require.True(t, info.Capability.Copy)
	require.True(t, info.Capability.Rename)
}

// TestListWithNonEmptyRootOmitsRootPrefix guards against the root prefix
// leaking into emitted entry paths when the backend is constructed with
// a non-empty root (udal.Join("", p) == p masks this with an empty root).
func TestListWithNonEmptyRootOmitsRootPrefix(t *testing.T) {
	ctx := context.Background()
	op := operator.New(memory.New("tenant-a"))

	w, err := op.Write(ctx, "dir/file.txt", udal.OpWrite{}, 0, 3)
	require.NoError(t, err)
	_, err = w.Write(ctx, []byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	lister, err := op.List(ctx, "", udal.OpList{Recursive: true})
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
	require.Contains(t, paths, "dir/file.txt")
	for _, p := range paths {
		require.NotContains(t, p, "tenant-a")
	}
}
