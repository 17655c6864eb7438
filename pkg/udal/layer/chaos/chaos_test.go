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

package chaos_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/layer/chaos"
	"github.com/cs3org/udal/pkg/udal/udalerr"
	"github.com/cs3org/udal/pkg/udal/udaltest/fakeacc"
)

func TestLayerNeverFailsAtZeroRate(t *testing.T) {
	inner := fakeacc.New()
	acc := chaos.Layer(chaos.Options{FailRate: 0}).Layer(inner)
	for i := 0; i < 20; i++ {
		_, err := acc.Stat(context.Background(), "x", udal.OpStat{})
		require.NoError(t, err)
	}
}

func TestLayerAlwaysFailsAtFullRate(t *testing.T) {
	inner := fakeacc.New()
	acc := chaos.Layer(chaos.Options{
		FailRate: 1,
		Kind:     udalerr.Unexpected,
		Status:   udalerr.StatusTemporary,
		Rand:     rand.New(rand.NewSource(42)),
	}).Layer(inner)

	_, err := acc.Stat(context.Background(), "x", udal.OpStat{})
	require.Error(t, err)
	require.True(t, udalerr.IsTemporary(err))
	require.Equal(t, 0, inner.StatCalls(), "inner must never be reached when chaos injects a failure")
}

func TestLayerAddsLatencyBeforeCallingInner(t *testing.T) {
	inner := fakeacc.New()
	acc := chaos.Layer(chaos.Options{Latency: 20 * time.Millisecond}).Layer(inner)

	start := time.Now()
	_, err := acc.Stat(context.Background(), "x", udal.OpStat{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestLayerRespectsContextCancellationDuringLatency(t *testing.T) {
	inner := fakeacc.New()
	acc := chaos.Layer(chaos.Options{Latency: time.Hour}).Layer(inner)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := acc.Stat(ctx, "x", udal.OpStat{})
	require.Error(t, err)
}
