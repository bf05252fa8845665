// Copyright 2026 Jack Bister
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

package events

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrUnrecognizedFormat = errors.New("unrecognized format")
	ErrUnknownLocale      = errors.New("unknown locale")
	ErrMalformedRecord    = errors.New("malformed record")
	ErrMissingTimestamp   = fmt.Errorf("%w: missing timestamp", ErrMalformedRecord)
	ErrUnreadable         = errors.New("unreadable file")
)

// Kind is the diagnostic category of a ParseError.
type Kind string

const (
	KindUnrecognizedFormat Kind = "unrecognized_format"
	KindUnknownLocale      Kind = "unknown_locale"
	KindMalformedRecord    Kind = "malformed_record"
	KindMissingTimestamp   Kind = "missing_timestamp"
	KindUnreadable         Kind = "unreadable"
)

// MaxFragmentLength caps how much of the raw input is kept on a ParseError.
const MaxFragmentLength = 256

// ParseError is produced instead of an Event when a file or record could not be interpreted.
type ParseError struct {
	SourceFile string `json:"sourceFile"`
	Fragment   string `json:"fragment,omitempty"`
	Reason     string `json:"reason"`
	Kind       Kind   `json:"kind"`

	Err error `json:"-"`
}

// NewParseError creates a ParseError whose Kind is derived from err.
func NewParseError(sourceFile, fragment string, err error) *ParseError {
	if len(fragment) > MaxFragmentLength {
		end := MaxFragmentLength
		for end > 0 && !utf8.RuneStart(fragment[end]) {
			end--
		}
		fragment = fragment[:end]
	}
	return &ParseError{
		SourceFile: sourceFile,
		Fragment:   fragment,
		Reason:     err.Error(),
		Kind:       KindOf(err),
		Err:        err,
	}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.SourceFile, e.Reason)
}

// Unwrap returns the underlying error. ParseErrors read back from a cache have no underlying
// error, in which case the sentinel matching Kind is returned so errors.Is keeps working.
func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return sentinelOf(e.Kind)
}

// KindOf maps an error to its diagnostic kind. Errors outside the taxonomy are treated as malformed records.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrMissingTimestamp):
		return KindMissingTimestamp
	case errors.Is(err, ErrMalformedRecord):
		return KindMalformedRecord
	case errors.Is(err, ErrUnrecognizedFormat):
		return KindUnrecognizedFormat
	case errors.Is(err, ErrUnknownLocale):
		return KindUnknownLocale
	case errors.Is(err, ErrUnreadable):
		return KindUnreadable
	default:
		return KindMalformedRecord
	}
}

func sentinelOf(k Kind) error {
	switch k {
	case KindMissingTimestamp:
		return ErrMissingTimestamp
	case KindUnrecognizedFormat:
		return ErrUnrecognizedFormat
	case KindUnknownLocale:
		return ErrUnknownLocale
	case KindUnreadable:
		return ErrUnreadable
	default:
		return ErrMalformedRecord
	}
}
