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

// Package loader blank-imports every backend package so its init()
// registers with pkg/udal/registry. Callers that want every built-in
// backend available import this package solely for its side effects:
//
//	import _ "github.com/cs3org/udal/pkg/udal/registry/loader"
package loader

import (
	_ "github.com/cs3org/udal/pkg/udal/services/fs"
	_ "github.com/cs3org/udal/pkg/udal/services/kv"
	_ "github.com/cs3org/udal/pkg/udal/services/memory"
	_ "github.com/cs3org/udal/pkg/udal/services/s3"
	_ "github.com/cs3org/udal/pkg/udal/services/webdav"
)
