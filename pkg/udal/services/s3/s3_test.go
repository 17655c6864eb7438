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

package s3_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/services/s3"
	"github.com/cs3org/udal/pkg/udal/udaltest"
)

// TestConformance exercises a real S3-compatible endpoint (minio, ceph
// radosgw, or AWS). It is skipped unless UDAL_S3_TEST_ENDPOINT is set,
// since there is no in-process fake for the S3 wire protocol here.
func TestConformance(t *testing.T) {
	endpoint := os.Getenv("UDAL_S3_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping S3 integration test: UDAL_S3_TEST_ENDPOINT not set")
	}
	bucket := os.Getenv("UDAL_S3_TEST_BUCKET")
	if bucket == "" {
		bucket = "udal-conformance"
	}

	udaltest.RunConformance(t, func(t *testing.T) accessor.Accessor {
		acc, err := s3.New(s3.Options{
			Endpoint:        endpoint,
			Bucket:          bucket,
			AccessKeyID:     os.Getenv("UDAL_S3_TEST_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("UDAL_S3_TEST_SECRET_ACCESS_KEY"),
			Secure:          os.Getenv("UDAL_S3_TEST_SECURE") == "true",
		})
		require.NoError(t, err)
		return acc
	})
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := s3.New(s3.Options{Endpoint: "localhost:9000"})
	require.Error(t, err)
}
