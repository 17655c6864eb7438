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

// Package config loads backend configuration from file and environment,
// and decodes the resulting string-keyed maps into typed backend option
// structs for accessor constructors.
package config

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config wraps a viper instance scoped to one backend configuration tree.
type Config struct {
	v *viper.Viper
}

// New returns a Config with the UDAL_ env prefix and "."->"_" key
// replacement, so e.g. "backends.s3.bucket" can be overridden by
// UDAL_BACKENDS_S3_BUCKET.
func New() *Config {
	v := viper.New()
	v.SetEnvPrefix("udal")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Config{v: v}
}

// SetFile points the config at a file to load with Read.
func (c *Config) SetFile(fn string) {
	c.v.SetConfigFile(fn)
}

// Read loads the configured file.
func (c *Config) Read() error {
	return c.v.ReadInConfig()
}

// Get returns the string-keyed map rooted at key, suitable for handing to
// a backend's from_map constructor. It recursively re-fetches every leaf
// through viper so environment overrides are applied even though
// GetStringMap alone does not walk env vars.
func (c *Config) Get(key string) map[string]interface{} {
	m := c.v.GetStringMap(key)
	reGet(c.v, key, m)
	return m
}

func reGet(v *viper.Viper, prefix string, m map[string]interface{}) {
	for k, val := range m {
		if nested, ok := val.(map[string]interface{}); ok {
			reGet(v, prefix+"."+k, nested)
			continue
		}
		m[k] = v.Get(prefix + "." + k)
	}
}

// Decode decodes m into dst (a pointer to a typed option struct) using
// mapstructure, ignoring unknown keys per spec §6's "unknown keys are
// ignored" contract.
func Decode(m map[string]interface{}, dst interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	return dec.Decode(m)
}
