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

package fs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/services/fs"
	"github.com/cs3org/udal/pkg/udal/udaltest"
)

func TestConformance(t *testing.T) {
	udaltest.RunConformance(t, func(t *testing.T) accessor.Accessor {
		acc, err := fs.New(fs.Options{Root: t.TempDir()})
		require.NoError(t, err)
		return acc
	})
}

func TestNewRequiresRoot(t *testing.T) {
	_, err := fs.New(fs.Options{})
	require.Error(t, err)
}
