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

// Package errors contains the typed, wrapped error values used throughout
// the shuffle packages. Errors carry a Kind so callers can branch on the
// taxonomy (InvalidArgument, UpstreamFailure, SerializationFailure) without
// string matching, while still nesting context the way a plain wrapped
// error does.
package errors

import (
	"fmt"
	"io"
	"strings"
)

// Kind classifies a shuffle error. The zero value, Unknown, is never
// returned by this package's constructors; it only appears when KindOf is
// applied to an error that did not originate here.
type Kind int

const (
	Unknown Kind = iota
	// InvalidArgument is raised at construction time for malformed inputs,
	// e.g. a negative requested partition count or sample cap.
	InvalidArgument
	// UpstreamFailure wraps a failure from the sampling or pruning
	// primitive. Construction fails atomically; there is no partial
	// partitioner.
	UpstreamFailure
	// SerializationFailure means a comparator or key type could not be
	// transferred across the wire.
	SerializationFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case UpstreamFailure:
		return "UpstreamFailure"
	case SerializationFailure:
		return "SerializationFailure"
	default:
		return "Unknown"
	}
}

// New returns an error of the given kind with the given message.
func New(kind Kind, message string) error {
	return &shuffleError{kind: kind, msg: message}
}

// Errorf returns an error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &shuffleError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a new message. The result has the given kind,
// which KindOf reports in place of any Kind err already carries.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &shuffleError{cause: err, msg: message, kind: kind}
}

// Wrapf annotates err with a formatted message. The result has the given
// kind, which KindOf reports in place of any Kind err already carries.
func Wrapf(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &shuffleError{cause: err, msg: fmt.Sprintf(format, args...), kind: kind}
}

// WithContext adds context to err without changing its Kind.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return &shuffleError{cause: err, context: context, kind: KindOf(err)}
}

// WithContextf adds formatted context to err without changing its Kind.
func WithContextf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &shuffleError{cause: err, context: fmt.Sprintf(format, args...), kind: KindOf(err)}
}

// KindOf reports the Kind of err, walking Unwrap chains. It returns Unknown
// for errors not produced by this package.
func KindOf(err error) Kind {
	for err != nil {
		if se, ok := err.(*shuffleError); ok {
			if se.kind != Unknown {
				return se.kind
			}
			err = se.cause
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return Unknown
}

// shuffleError represents one or more details about an error, usually
// nested in the order that additional context was wrapped around the
// original cause.
type shuffleError struct {
	cause   error  // the error being wrapped; nil if this is the original error.
	context string // additional context describing this error, not its cause.
	msg     string // message describing this error.
	kind    Kind
}

func (e *shuffleError) Error() string {
	var b strings.Builder
	e.printRecursive(&b)
	return b.String()
}

func (e *shuffleError) printRecursive(b *strings.Builder) {
	wraps := e.cause != nil

	if e.context != "" {
		b.WriteString(strings.ReplaceAll(e.context, "\n", "\n\t"))
		b.WriteString("\n\t")
	}
	if e.msg != "" {
		b.WriteString(e.msg)
		if wraps {
			b.WriteString("\n\tcaused by:\n\t")
		}
	}
	if wraps {
		if se, ok := e.cause.(*shuffleError); ok {
			se.printRecursive(b)
		} else {
			b.WriteString(e.cause.Error())
		}
	}
}

// Format implements fmt.Formatter.
func (e *shuffleError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v', 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// Unwrap returns the cause of this error, if present.
func (e *shuffleError) Unwrap() error {
	return e.cause
}
