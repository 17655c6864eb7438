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

// Package ulog is the unified data-access layer's logging façade: a thin
// per-package wrapper around zerolog, keyed by name, console output in
// dev mode and JSON in prod.
package ulog

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.CallerSkipFrameCount = 3
}

// Out is the log output writer.
var Out = os.Stderr

// Mode is "dev" for console-formatted output, anything else for JSON.
var Mode = "dev"

var loggers = map[string]*zerolog.Logger{}

// New returns a Logger for pkg, creating its underlying zerolog.Logger on
// first use.
func New(pkg string) *Logger {
	if _, ok := loggers[pkg]; !ok {
		loggers[pkg] = build(pkg)
	}
	return &Logger{pkg: pkg}
}

// Logger is a named, structured logger bound to one package.
type Logger struct {
	pkg string
}

func build(pkg string) *zerolog.Logger {
	zl := zerolog.New(Out).With().Str("pkg", pkg).Timestamp().Caller().Logger()
	if Mode == "" || Mode == "dev" {
		zl = zl.Output(zerolog.ConsoleWriter{Out: Out})
	}
	return &zl
}

func (l *Logger) find() *zerolog.Logger {
	return loggers[l.pkg]
}

// Debug starts a debug-level event.
func (l *Logger) Debug(ctx context.Context) *zerolog.Event {
	return l.find().Debug().Str("trace", traceID(ctx))
}

// Info starts an info-level event.
func (l *Logger) Info(ctx context.Context) *zerolog.Event {
	return l.find().Info().Str("trace", traceID(ctx))
}

// Error logs err at error level with the operation's trace id.
func (l *Logger) Error(ctx context.Context, err error) {
	l.find().Error().Str("trace", traceID(ctx)).Msg(err.Error())
}

type traceKey struct{}

// WithTrace returns a context carrying id as the operation's trace id,
// surfaced on every subsequent log line built from that context.
func WithTrace(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func traceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceKey{}).(string); ok {
		return v
	}
	return ""
}
