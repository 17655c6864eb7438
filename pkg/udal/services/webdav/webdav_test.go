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

package webdav_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/services/webdav"
	"github.com/cs3org/udal/pkg/udal/udaltest"
)

// TestConformance exercises a real WebDAV server. It is skipped unless
// UDAL_WEBDAV_TEST_ENDPOINT is set: PROPFIND/MKCOL/MOVE semantics vary
// enough across servers that an in-process fake would test the fake,
// not the wire protocol.
func TestConformance(t *testing.T) {
	endpoint := os.Getenv("UDAL_WEBDAV_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping WebDAV integration test: UDAL_WEBDAV_TEST_ENDPOINT not set")
	}

	udaltest.RunConformance(t, func(t *testing.T) accessor.Accessor {
		acc, err := webdav.New(webdav.Options{
			Endpoint: endpoint,
			Username: os.Getenv("UDAL_WEBDAV_TEST_USERNAME"),
			Password: os.Getenv("UDAL_WEBDAV_TEST_PASSWORD"),
		})
		require.NoError(t, err)
		return acc
	})
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := webdav.New(webdav.Options{})
	require.Error(t, err)
}
