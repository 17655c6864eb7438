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

package concurrency_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/layer/concurrency"
	"github.com/cs3org/udal/pkg/udal/udaltest/fakeacc"
)

func TestLayerBoundsInFlightCalls(t *testing.T) {
	inner := fakeacc.New()

	var inFlight, maxSeen int32
	start := make(chan struct{})
	inner.StatHook = func() {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			cur := atomic.LoadInt32(&maxSeen)
			if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
				break
			}
		}
		<-start
		atomic.AddInt32(&inFlight, -1)
	}

	acc := concurrency.Layer(2).Layer(inner)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = acc.Stat(context.Background(), "x", udal.OpStat{})
		}()
	}

	close(start)
	wg.Wait()

	require.LessOrEqual(t, int(atomic.LoadInt32(&maxSeen)), 2)
}

func TestLayerDoesNotBoundDelete(t *testing.T) {
	inner := fakeacc.New()
	acc := concurrency.Layer(1).Layer(inner)
	_, _, err := acc.Delete(context.Background())
	require.NoError(t, err)
}
