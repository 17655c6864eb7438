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

package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/layer/logging"
	"github.com/cs3org/udal/pkg/udal/udalerr"
	"github.com/cs3org/udal/pkg/udal/udaltest/fakeacc"
)

func TestLayerDelegatesSuccess(t *testing.T) {
	inner := fakeacc.New()
	acc := logging.Layer("udaltest").Layer(inner)

	_, err := acc.Stat(context.Background(), "x", udal.OpStat{})
	require.NoError(t, err)
	require.Equal(t, 1, inner.StatCalls())
}

func TestLayerPropagatesError(t *testing.T) {
	inner := fakeacc.New()
	inner.FailStatN(1, udalerr.New(udalerr.NotFound, "missing"))
	acc := logging.Layer("udaltest").Layer(inner)

	_, err := acc.Stat(context.Background(), "x", udal.OpStat{})
	require.Error(t, err)
	require.True(t, udalerr.IsNotFound(err))
}

func TestLayerPreservesInfo(t *testing.T) {
	inner := fakeacc.New()
	acc := logging.Layer("udaltest").Layer(inner)
	require.Equal(t, inner.Info(), acc.Info())
}
