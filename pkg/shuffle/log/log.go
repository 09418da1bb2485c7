// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log contains a re-targetable, context-aware logging facade for
// the shuffle packages. Construction is the one place in this repo worth
// logging (spec §5: lookups stay off the hot path), and what is worth
// recording there is structured by nature — requested vs. achieved
// partition count, how many source partitions were flagged skewed, the
// sample size — so a log call here can carry a small set of key/value
// Fields alongside its message instead of only a flattened string. The
// Standard backend renders Fields inline; the Structural backend passes
// them through to log/slog as attributes.
package log

import (
	"context"
	"fmt"
)

// Severity is the severity of a log message.
type Severity int

const (
	SevUnspecified Severity = iota
	SevDebug
	SevInfo
	SevWarn
	SevError
)

// Field is one piece of structured context attached to a log call, e.g.
// the boundary count a range partitioner was built with. The Standard
// backend renders Value with fmt; the Structural backend passes it
// through to log/slog as an attribute value, unconverted.
type Field struct {
	Key   string
	Value interface{}
}

// F constructs a Field. Named to read well at call sites, e.g.
// log.InfoKV(ctx, "built", log.F("boundaries", n)).
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger is a context-aware logging backend. Must be concurrency safe.
type Logger interface {
	// Log logs the message and any structured fields in some
	// implementation-dependent way.
	Log(ctx context.Context, sev Severity, calldepth int, msg string, fields ...Field)
}

var logger Logger = &Standard{}

// SetLogger sets the global Logger. Intended to be called during
// initialization only.
func SetLogger(l Logger) {
	if l == nil {
		panic("Logger cannot be nil")
	}
	logger = l
}

// Output logs the given message and fields to the global logger.
// Calldepth is the count of frames to skip when computing the caller's
// file and line.
func Output(ctx context.Context, sev Severity, calldepth int, msg string, fields ...Field) {
	logger.Log(ctx, sev, calldepth+1, msg, fields...) // +1 for this frame
}

// Debug writes the fmt.Sprint-formatted arguments with debug severity.
func Debug(ctx context.Context, v ...interface{}) {
	Output(ctx, SevDebug, 2, fmt.Sprint(v...))
}

// Debugf writes the fmt.Sprintf-formatted arguments with debug severity.
func Debugf(ctx context.Context, format string, v ...interface{}) {
	Output(ctx, SevDebug, 2, fmt.Sprintf(format, v...))
}

// DebugKV writes msg with debug severity, attaching fields as structured
// context.
func DebugKV(ctx context.Context, msg string, fields ...Field) {
	Output(ctx, SevDebug, 2, msg, fields...)
}

// Info writes the fmt.Sprint-formatted arguments with info severity.
func Info(ctx context.Context, v ...interface{}) {
	Output(ctx, SevInfo, 2, fmt.Sprint(v...))
}

// Infof writes the fmt.Sprintf-formatted arguments with info severity.
func Infof(ctx context.Context, format string, v ...interface{}) {
	Output(ctx, SevInfo, 2, fmt.Sprintf(format, v...))
}

// InfoKV writes msg with info severity, attaching fields as structured
// context. This is what range partitioner construction uses to record
// the requested/achieved partition counts, skewed-partition count, and
// sample size as queryable attributes rather than baking them into a
// formatted sentence.
func InfoKV(ctx context.Context, msg string, fields ...Field) {
	Output(ctx, SevInfo, 2, msg, fields...)
}

// Warn writes the fmt.Sprint-formatted arguments with warn severity.
func Warn(ctx context.Context, v ...interface{}) {
	Output(ctx, SevWarn, 2, fmt.Sprint(v...))
}

// Warnf writes the fmt.Sprintf-formatted arguments with warn severity.
func Warnf(ctx context.Context, format string, v ...interface{}) {
	Output(ctx, SevWarn, 2, fmt.Sprintf(format, v...))
}

// WarnKV writes msg with warn severity, attaching fields as structured
// context.
func WarnKV(ctx context.Context, msg string, fields ...Field) {
	Output(ctx, SevWarn, 2, msg, fields...)
}

// Error writes the fmt.Sprint-formatted arguments with error severity.
func Error(ctx context.Context, v ...interface{}) {
	Output(ctx, SevError, 2, fmt.Sprint(v...))
}

// Errorf writes the fmt.Sprintf-formatted arguments with error severity.
func Errorf(ctx context.Context, format string, v ...interface{}) {
	Output(ctx, SevError, 2, fmt.Sprintf(format, v...))
}

// ErrorKV writes msg with error severity, attaching fields as structured
// context.
func ErrorKV(ctx context.Context, msg string, fields ...Field) {
	Output(ctx, SevError, 2, msg, fields...)
}
