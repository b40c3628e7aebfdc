// Copyright 2015 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License. See the AUTHORS file
// for names of contributors.

// Package log provides contextual, leveled logging for every TPLS
// suspension point: Infof/Warningf/Errorf/Fatalf taking a context first,
// backed by zap.
package log

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

var base = zap.NewNop()

// SetBase installs the process-wide zap logger. Call once at startup;
// tests may call it with a zaptest logger.
func SetBase(l *zap.Logger) {
	base = l
}

// WithFields returns a context carrying a logger augmented with the given
// structured fields (e.g. epoch, recruitmentID, replicaID). Subsequent
// Infof/Warningf/Errorf calls against the returned context include them.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, ctxKey{}, loggerFrom(ctx).With(fields...))
}

func loggerFrom(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return base
}

// Infof logs at info level with the context's structured fields.
func Infof(ctx context.Context, format string, args ...interface{}) {
	loggerFrom(ctx).Sugar().Infof(format, args...)
}

// Warningf logs at warn level.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	loggerFrom(ctx).Sugar().Warnf(format, args...)
}

// Errorf logs at error level.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	loggerFrom(ctx).Sugar().Errorf(format, args...)
}

// Fatalf logs at fatal level and terminates the process.
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	loggerFrom(ctx).Sugar().Fatalf(format, args...)
}

// VEventf logs a verbose trace-style event; in this module it is a plain
// debug-level record rather than a tracing-span event, since TPLS has no
// tracing integration of its own.
func VEventf(ctx context.Context, level int32, format string, args ...interface{}) {
	loggerFrom(ctx).Sugar().Debugf(format, args...)
}
