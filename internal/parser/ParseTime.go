// Copyright 2023 Jack Bister
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

package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// TimeEncoding describes how a structured timestamp value is written.
type TimeEncoding string

const (
	// EncodingAuto accepts ISO/RFC3339 style strings as well as numeric epochs, whose unit is
	// inferred from the number of digits.
	EncodingAuto             TimeEncoding = "auto"
	EncodingUnix             TimeEncoding = "unix"
	EncodingUnixMillis       TimeEncoding = "unix_millis"
	EncodingUnixMicros       TimeEncoding = "unix_micros"
	EncodingUnixDecimalNanos TimeEncoding = "unix_decimal_nanos"
)

// ParseTime parses value according to encoding. The result is always in UTC.
func ParseTime(encoding TimeEncoding, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if encoding == EncodingAuto {
		encoding = guessEncoding(value)
		if encoding == EncodingAuto {
			t, err := dateparse.ParseIn(value, time.UTC, dateparse.PreferMonthFirst(false))
			if err != nil {
				return time.Time{}, fmt.Errorf("failed to parse time: failed to parse value='%s' as date: %w", value, err)
			}
			return t.UTC(), nil
		}
	}
	if encoding == EncodingUnixDecimalNanos {
		secs, frac, found := strings.Cut(value, ".")
		if !found {
			return time.Time{}, fmt.Errorf("failed to parse time: value='%s' has no decimal point", value)
		}
		i0, err := strconv.ParseInt(secs, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse time: failed to parse seconds='%s' as int64: %w", secs, err)
		}
		if len(frac) > 9 {
			frac = frac[:9]
		}
		i1, err := strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse time: failed to parse fraction='%s' as int64: %w", frac, err)
		}
		return time.Unix(i0, i1).UTC(), nil
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time: failed to parse value='%s' as int64: %w", value, err)
	}
	switch encoding {
	case EncodingUnix:
		return time.Unix(i, 0).UTC(), nil
	case EncodingUnixMillis:
		return time.UnixMilli(i).UTC(), nil
	case EncodingUnixMicros:
		return time.UnixMicro(i).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("failed to parse time: unknown encoding=%s", encoding)
}

// guessEncoding returns the epoch encoding of a purely numeric value, or EncodingAuto if value
// is not numeric.
func guessEncoding(value string) TimeEncoding {
	digits, frac, hasFrac := strings.Cut(value, ".")
	if !isDigits(digits) || (hasFrac && !isDigits(frac)) {
		return EncodingAuto
	}
	if hasFrac {
		return EncodingUnixDecimalNanos
	}
	switch {
	case len(digits) <= 10:
		return EncodingUnix
	case len(digits) <= 13:
		return EncodingUnixMillis
	default:
		return EncodingUnixMicros
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
