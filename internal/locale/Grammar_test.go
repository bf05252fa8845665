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

package locale

import (
	"log/slog"
	"testing"
	"time"
)

var timestampTests = []struct {
	locale          string
	input           string
	isErrorExpected bool
	expected        time.Time
}{
	{"en", "Sep 15, 2020, 1:07:39 PM PDT", false, time.Date(2020, 9, 15, 20, 7, 39, 0, time.UTC)},
	{"en", "Sep 15, 2020, 1:07:39 PM PDT", false, time.Date(2020, 9, 15, 20, 7, 39, 0, time.UTC)},
	{"en", "Sep 15, 2020,   1:07:39 PM   UTC", false, time.Date(2020, 9, 15, 13, 7, 39, 0, time.UTC)},
	{"en", "September 15, 2020, 1:07:39 PM CEST", false, time.Date(2020, 9, 15, 11, 7, 39, 0, time.UTC)},
	{"en", "15 Sept 2020, 13:07:39 BST", false, time.Date(2020, 9, 15, 12, 7, 39, 0, time.UTC)},
	{"en", "Sep 15, 2020, 1:07:39 PM GMT+02:00", false, time.Date(2020, 9, 15, 11, 7, 39, 0, time.UTC)},
	{"en", "Sep 15, 2020, 1:07:39 PM -0530", false, time.Date(2020, 9, 15, 18, 37, 39, 0, time.UTC)},
	{"en", "2020-09-15T13:07:39+02:00", false, time.Date(2020, 9, 15, 11, 7, 39, 0, time.UTC)},
	{"en", "Sep 15, 2020, 1:07:39 PM", true, time.Time{}},
	{"en", "Sep 15, 2020, 1:07:39 PM XYZT", true, time.Time{}},
	{"en", "yesterday", true, time.Time{}},
	{"en", "", true, time.Time{}},
	{"de", "15.09.2020, 13:07:39 MESZ", false, time.Date(2020, 9, 15, 11, 7, 39, 0, time.UTC)},
	{"de", "15. Sept. 2020, 13:07:39 MEZ", false, time.Date(2020, 9, 15, 12, 7, 39, 0, time.UTC)},
	{"de", "3. März 2021, 08:00:00 MEZ", false, time.Date(2021, 3, 3, 7, 0, 0, 0, time.UTC)},
	{"de", "Sep 15, 2020, 1:07:39 PM PDT", true, time.Time{}},
}

func TestParseTimestamp_TableTest(t *testing.T) {
	table := NewTable(slog.Default(), BundledSource{})
	for _, tt := range timestampTests {
		t.Run(tt.locale+"/"+tt.input, func(t *testing.T) {
			g, err := table.Lookup(tt.locale)
			if err != nil {
				t.Fatalf("got error when looking up locale=%v: %v", tt.locale, err)
			}
			ts, err := g.ParseTimestamp(tt.input)
			if err != nil {
				if tt.isErrorExpected {
					return
				}
				t.Fatalf("got error when parsing timestamp: %v", err)
			}
			if tt.isErrorExpected {
				t.Fatalf("expected an error but got timestamp=%v", ts)
			}
			if !ts.Equal(tt.expected) {
				t.Errorf("expected timestamp=%v but got %v", tt.expected, ts)
			}
			if ts.Location() != time.UTC {
				t.Errorf("expected timestamp in UTC but got location=%v", ts.Location())
			}
		})
	}
}

func TestParseTimestamp_FirstLayoutWins(t *testing.T) {
	utc := map[string]*time.Location{"UTC": time.UTC}
	monthFirst := &Grammar{Tag: "x", DateLayouts: []string{"01/02/2006 15:04", "02/01/2006 15:04"}, Zones: utc}
	dayFirst := &Grammar{Tag: "x", DateLayouts: []string{"02/01/2006 15:04", "01/02/2006 15:04"}, Zones: utc}

	ts, err := monthFirst.ParseTimestamp("03/04/2020 10:00 UTC")
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if ts.Month() != time.March || ts.Day() != 4 {
		t.Errorf("expected the first layout to win and give March 4 but got %v", ts)
	}
	ts, err = dayFirst.ParseTimestamp("03/04/2020 10:00 UTC")
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if ts.Month() != time.April || ts.Day() != 3 {
		t.Errorf("expected the first layout to win and give April 3 but got %v", ts)
	}
}

var connectorTests = []struct {
	locale          string
	input           string
	expectedAction  string
	expectedSubject string
}{
	{"en", "Watched Never Gonna Give You Up", "Watched", "Never Gonna Give You Up"},
	{"en", "Watched Never Gonna Give You Up", "Watched", "Never Gonna Give You Up"},
	{"en", "Searched for golang iterators", "Searched for", "golang iterators"},
	{"en", "Watchedness is not a connector", "", "Watchedness is not a connector"},
	{"en", "Some text without connector", "", "Some text without connector"},
	{"de", "Angesehen: Ein Video", "Angesehen", "Ein Video"},
	{"de", "Gesucht nach Wetter", "Gesucht nach", "Wetter"},
}

func TestSplitConnector_TableTest(t *testing.T) {
	table := NewTable(slog.Default(), BundledSource{})
	for _, tt := range connectorTests {
		t.Run(tt.input, func(t *testing.T) {
			g, err := table.Lookup(tt.locale)
			if err != nil {
				t.Fatalf("got error when looking up locale=%v: %v", tt.locale, err)
			}
			action, subject := g.SplitConnector(tt.input)
			if action != tt.expectedAction {
				t.Errorf("expected action=%q but got %q", tt.expectedAction, action)
			}
			if subject != tt.expectedSubject {
				t.Errorf("expected subject=%q but got %q", tt.expectedSubject, subject)
			}
		})
	}
}

func TestReplaceWord(t *testing.T) {
	if s := replaceWord("MaiMai Mai", "Mai", "May"); s != "MaiMai May" {
		t.Errorf("expected only the free standing word to be replaced but got %q", s)
	}
	if s := replaceWord("3. März 2021", "März", "Mar"); s != "3. Mar 2021" {
		t.Errorf("got unexpected result %q", s)
	}
}
