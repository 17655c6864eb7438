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

package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/udaltest/fakeacc"
)

func TestStatIsServedFromCache(t *testing.T) {
	inner := fakeacc.New()
	acc := Layer(Options{}).Layer(inner).(*cached)

	_, err := acc.Stat(context.Background(), "x", udal.OpStat{})
	require.NoError(t, err)
	acc.cache.Wait()

	_, err = acc.Stat(context.Background(), "x", udal.OpStat{})
	require.NoError(t, err)
	require.Equal(t, 1, inner.StatCalls(), "second stat should be served from cache")
}

func TestConditionalStatBypassesCache(t *testing.T) {
	inner := fakeacc.New()
	acc := Layer(Options{}).Layer(inner).(*cached)

	_, err := acc.Stat(context.Background(), "x", udal.OpStat{IfMatch: "abc"})
	require.NoError(t, err)
	_, err = acc.Stat(context.Background(), "x", udal.OpStat{IfMatch: "abc"})
	require.NoError(t, err)
	require.Equal(t, 2, inner.StatCalls())
}

func TestWriteInvalidatesCachedStat(t *testing.T) {
	inner := fakeacc.New()
	acc := Layer(Options{}).Layer(inner).(*cached)

	_, err := acc.Stat(context.Background(), "x", udal.OpStat{})
	require.NoError(t, err)
	acc.cache.Wait()

	_, _, err = acc.Write(context.Background(), "x", udal.OpWrite{})
	require.NoError(t, err)
	acc.cache.Wait()

	_, err = acc.Stat(context.Background(), "x", udal.OpStat{})
	require.NoError(t, err)
	require.Equal(t, 2, inner.StatCalls(), "stat after write must not hit the stale cache entry")
}
