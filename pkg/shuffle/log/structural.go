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

package log

import (
	"context"
	slogger "log/slog"
)

// Structural is a Logger backed by log/slog. Unlike Standard, it does not
// flatten Fields into the message text: each Field becomes a slog
// attribute, so a backend consuming this output (a log aggregator, a
// metrics-from-logs pipeline) can filter or aggregate on
// "boundaries" or "skewedPartitions" as structured values rather than
// parsing them back out of a sentence.
type Structural struct{}

var loggerMap = map[Severity]func(string, ...any){
	SevUnspecified: slogger.Info,
	SevDebug:       slogger.Debug,
	SevInfo:        slogger.Info,
	SevWarn:        slogger.Warn,
	SevError:       slogger.Error,
}

func (s *Structural) Log(ctx context.Context, sev Severity, _ int, msg string, fields ...Field) {
	loggerMap[sev](msg, fieldsToAttrs(fields)...)
}

// fieldsToAttrs converts Fields to the alternating key/value argument
// list slog's leveled logging functions expect.
func fieldsToAttrs(fields []Field) []any {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}

var _ Logger = (*Structural)(nil)
