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

// Package metrics is a Layer recording per-operation, per-scheme call
// counts and latencies with client_golang.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cs3org/udal/pkg/udal"
	"github.com/cs3org/udal/pkg/udal/accessor"
	"github.com/cs3org/udal/pkg/udal/oio"
)

var (
	callsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "udal",
		Name:      "accessor_calls_total",
		Help:      "Total accessor operations, by scheme, operation and outcome.",
	}, []string{"scheme", "op", "outcome"})

	callDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "udal",
		Name:      "accessor_call_duration_seconds",
		Help:      "Accessor operation latency, by scheme and operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"scheme", "op"})
)

// MustRegister registers this layer's collectors with reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(callsTotal, callDuration)
}

// Layer returns an accessor.Layer recording metrics for every call.
func Layer() accessor.Layer {
	return accessor.LayerFunc(func(inner accessor.Accessor) accessor.Accessor {
		return &instrumented{inner: inner, scheme: string(inner.Info().Scheme)}
	})
}

type instrumented struct {
	inner  accessor.Accessor
	scheme string
}

func (m *instrumented) observe(op string, start time.Time, err error) {
	callDuration.WithLabelValues(m.scheme, op).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	callsTotal.WithLabelValues(m.scheme, op, outcome).Inc()
}

func (m *instrumented) Info() udal.Info { return m.inner.Info() }

func (m *instrumented) Stat(ctx context.Context, path string, args udal.OpStat) (udal.RpStat, error) {
	start := time.Now()
	rp, err := m.inner.Stat(ctx, path, args)
	m.observe("stat", start, err)
	return rp, err
}

func (m *instrumented) Read(ctx context.Context, path string, args udal.OpRead) (udal.RpRead, oio.Reader, error) {
	start := time.Now()
	rp, r, err := m.inner.Read(ctx, path, args)
	m.observe("read", start, err)
	return rp, r, err
}

func (m *instrumented) Write(ctx context.Context, path string, args udal.OpWrite) (udal.RpWrite, oio.Writer, error) {
	start := time.Now()
	rp, w, err := m.inner.Write(ctx, path, args)
	m.observe("write", start, err)
	return rp, w, err
}

func (m *instrumented) CreateDir(ctx context.Context, path string, args udal.OpCreateDir) (udal.RpCreateDir, error) {
	start := time.Now()
	rp, err := m.inner.CreateDir(ctx, path, args)
	m.observe("create_dir", start, err)
	return rp, err
}

func (m *instrumented) Delete(ctx context.Context) (udal.RpDelete, oio.BatchDelete, error) {
	start := time.Now()
	rp, d, err := m.inner.Delete(ctx)
	m.observe("delete", start, err)
	return rp, d, err
}

func (m *instrumented) Copy(ctx context.Context, from, to string, args udal.OpCopy) (udal.RpCopy, error) {
	start := time.Now()
	rp, err := m.inner.Copy(ctx, from, to, args)
	m.observe("copy", start, err)
	return rp, err
}

func (m *instrumented) Rename(ctx context.Context, from, to string, args udal.OpRename) (udal.RpRename, error) {
	start := time.Now()
	rp, err := m.inner.Rename(ctx, from, to, args)
	m.observe("rename", start, err)
	return rp, err
}

func (m *instrumented) List(ctx context.Context, path string, args udal.OpList) (udal.RpList, oio.PageList, error) {
	start := time.Now()
	rp, p, err := m.inner.List(ctx, path, args)
	m.observe("list", start, err)
	return rp, p, err
}

func (m *instrumented) Presign(ctx context.Context, path string, args udal.OpPresign) (udal.RpPresign, error) {
	start := time.Now()
	rp, err := m.inner.Presign(ctx, path, args)
	m.observe("presign", start, err)
	return rp, err
}
