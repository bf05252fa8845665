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

package parser

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"

	"github.com/jackbister/takeoutsuck/internal/detect"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
)

// StructuredParser extracts events from the JSON files of an export. Records are decoded one at
// a time so that large files such as location history are never held in memory as a whole.
type StructuredParser struct {
	Logger *slog.Logger
}

// Parse yields one Event or one error per record in src. A file that is structurally broken
// yields a single error and nothing after it. The returned errors are always *events.ParseError.
func (p *StructuredParser) Parse(ctx context.Context, src Source, cls detect.Classification, localeTag string) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		s, ok := schemas[cls.Schema]
		if !ok {
			yield(events.Event{}, events.NewParseError(src.Name(), "", fmt.Errorf("no schema=%q: %w", cls.Schema, events.ErrUnrecognizedFormat)))
			return
		}
		rc, err := src.Open()
		if err != nil {
			yield(events.Event{}, events.NewParseError(src.Name(), "", fmt.Errorf("failed to open file: %w: %w", events.ErrUnreadable, err)))
			return
		}
		defer rc.Close()

		dec := json.NewDecoder(bufio.NewReader(rc))
		dec.UseNumber()
		fileErr := func(err error) {
			yield(events.Event{}, events.NewParseError(src.Name(), "", fmt.Errorf("%w: %w", events.ErrMalformedRecord, err)))
		}
		if err := seekRecords(dec, s.container); err != nil {
			fileErr(err)
			return
		}
		p.Logger.DebugContext(ctx, "parsing structured file",
			slog.String("fileName", src.Name()),
			slog.String("schema", string(cls.Schema)))

		for dec.More() {
			var v any
			if err := dec.Decode(&v); err != nil {
				fileErr(fmt.Errorf("failed to decode record: %w", err))
				return
			}
			rec, ok := v.(record)
			if !ok {
				if !yield(events.Event{}, recordError(src.Name(), v, fmt.Errorf("record is not an object: %w", events.ErrMalformedRecord))) {
					return
				}
				continue
			}
			if s.root != "" {
				inner, ok := rec[s.root].(record)
				if !ok {
					continue
				}
				rec = inner
			}
			evt, err := s.toEvent(rec, cls, localeTag, src.Name())
			if err != nil {
				if !yield(events.Event{}, recordError(src.Name(), rec, err)) {
					return
				}
				continue
			}
			if !yield(evt, nil) {
				return
			}
		}
		if _, err := dec.Token(); err != nil {
			fileErr(fmt.Errorf("failed to read end of record array: %w", err))
		}
	}
}

// seekRecords positions dec just inside the array holding the records.
func seekRecords(dec *json.Decoder, container string) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read first token: %w", err)
	}
	if container == "" {
		if tok != json.Delim('[') {
			return fmt.Errorf("expected top level array but got %v", tok)
		}
		return nil
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("expected top level object but got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
		key, _ := keyTok.(string)
		if key != container {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("failed to skip key=%s: %w", key, err)
			}
			continue
		}
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read value of key=%s: %w", key, err)
		}
		if tok != json.Delim('[') {
			return fmt.Errorf("expected key=%s to hold an array but got %v", key, tok)
		}
		return nil
	}
	return fmt.Errorf("no key=%q in top level object", container)
}

func (s *schema) toEvent(rec record, cls detect.Classification, localeTag string, sourceFile string) (events.Event, error) {
	if path, absent := missing(rec, s.requires); absent {
		return events.Event{}, fmt.Errorf("%w: no key=%q", events.ErrMalformedRecord, path)
	}
	var (
		raw      string
		encoding TimeEncoding
		found    bool
	)
	for _, c := range s.timestamps {
		if v, ok := field(c.path)(rec); ok {
			raw, encoding, found = v, c.encoding, true
			break
		}
	}
	if !found {
		return events.Event{}, events.ErrMissingTimestamp
	}
	ts, err := ParseTime(encoding, raw)
	if err != nil {
		return events.Event{}, fmt.Errorf("%w: %w", events.ErrMalformedRecord, err)
	}
	evt := events.Event{
		Timestamp:   ts,
		Product:     cls.Product,
		Title:       first(rec, s.titles),
		Description: first(rec, s.descriptions),
		Locale:      localeTag,
		SourceFile:  sourceFile,
	}
	for _, u := range s.urls {
		evt.URLs = append(evt.URLs, u(rec)...)
	}
	return evt, nil
}

func recordError(sourceFile string, v any, err error) *events.ParseError {
	fragment, _ := json.Marshal(v)
	return events.NewParseError(sourceFile, string(fragment), err)
}
