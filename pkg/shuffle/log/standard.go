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
	"fmt"
	"log"
	"strings"
)

// Standard is the default Logger. It writes to stderr via the standard
// library's log package, prefixed with the message severity, with any
// Fields rendered inline as trailing key=value pairs.
type Standard struct{}

var severityPrefix = map[Severity]string{
	SevUnspecified: "",
	SevDebug:       "DEBUG: ",
	SevInfo:        "INFO: ",
	SevWarn:        "WARN: ",
	SevError:       "ERROR: ",
}

func (s *Standard) Log(ctx context.Context, sev Severity, calldepth int, msg string, fields ...Field) {
	log.Output(calldepth+1, fmt.Sprintf("%s%s", severityPrefix[sev], renderFields(msg, fields)))
}

// renderFields flattens msg and fields into the single-line form a plain
// io.Writer-backed logger needs, e.g. "built boundaries=3 skewed=1".
func renderFields(msg string, fields []Field) string {
	if len(fields) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f.Key)
		b.WriteByte('=')
		fmt.Fprint(&b, f.Value)
	}
	return b.String()
}

// Discard is a Logger that drops every message. Useful in tests and for
// callers that want the hot construction path silent.
type Discard struct{}

func (Discard) Log(ctx context.Context, sev Severity, calldepth int, msg string, fields ...Field) {}

var _ Logger = (*Standard)(nil)
var _ Logger = Discard{}
