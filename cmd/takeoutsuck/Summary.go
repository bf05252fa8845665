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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/jackbister/takeoutsuck/internal/ingest"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"

	"github.com/dustin/go-humanize"
)

type summary struct {
	numEvents   int
	byProduct   map[events.Product]int
	byKind      map[events.Kind]int
	first, last time.Time
	diagnostics []events.ParseError
}

// summarize drains out. If eventsOut is not nil every event is written to it as a line of JSON.
func summarize(out *ingest.Output, eventsOut io.Writer) (*summary, error) {
	s := &summary{
		byProduct:   map[events.Product]int{},
		byKind:      map[events.Kind]int{},
		diagnostics: out.Diagnostics,
	}
	var enc *json.Encoder
	if eventsOut != nil {
		enc = json.NewEncoder(eventsOut)
	}
	for evt := range out.Events {
		if s.numEvents == 0 {
			s.first = evt.Timestamp
		}
		s.last = evt.Timestamp
		s.numEvents++
		s.byProduct[evt.Product]++
		if enc != nil {
			if err := enc.Encode(evt); err != nil {
				return nil, fmt.Errorf("failed to write event: %w", err)
			}
		}
	}
	for _, d := range out.Diagnostics {
		s.byKind[d.Kind]++
	}
	return s, nil
}

func (s *summary) write(w io.Writer, verbose bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "events\t%s\t\n", humanize.Comma(int64(s.numEvents)))
	for _, p := range slices.Sorted(maps.Keys(s.byProduct)) {
		fmt.Fprintf(tw, "  %s\t%s\t\n", p, humanize.Comma(int64(s.byProduct[p])))
	}
	if s.numEvents > 0 {
		fmt.Fprintf(tw, "from\t%s\t\n", s.first.UTC().Format(time.RFC3339))
		fmt.Fprintf(tw, "to\t%s\t\n", s.last.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(tw, "diagnostics\t%s\t\n", humanize.Comma(int64(len(s.diagnostics))))
	for _, k := range slices.Sorted(maps.Keys(s.byKind)) {
		fmt.Fprintf(tw, "  %s\t%s\t\n", k, humanize.Comma(int64(s.byKind[k])))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !verbose {
		return nil
	}
	for _, d := range s.diagnostics {
		if d.Fragment != "" {
			fmt.Fprintf(w, "%s [%s] %s: %q\n", d.SourceFile, d.Kind, d.Reason, d.Fragment)
		} else {
			fmt.Fprintf(w, "%s [%s] %s\n", d.SourceFile, d.Kind, d.Reason)
		}
	}
	return nil
}
