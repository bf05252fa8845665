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
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
	"golang.org/x/text/unicode/norm"
)

// Directory keys used in Grammar.Directories.
const (
	DirMyActivity              = "myActivity"
	DirYouTube                 = "youtube"
	DirHistory                 = "history"
	DirPlaylists               = "playlists"
	DirChrome                  = "chrome"
	DirPlayStore               = "playStore"
	DirLocationHistory         = "locationHistory"
	DirSemanticLocationHistory = "semanticLocationHistory"
)

var englishMonths = [...]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var numericZoneRegexp = regexp.MustCompile(`^(?:GMT|UTC)?([+-])(\d{1,2})(?::?(\d{2}))?$`)

type MonthName struct {
	Name  string
	Month time.Month
}

// Grammar holds the phrase and date patterns used to interpret free text written in one locale.
// A Grammar is never modified after it has been loaded.
type Grammar struct {
	Tag string

	// DateLayouts are Go time layouts, tried in order. The first one that parses wins.
	DateLayouts []string
	// Connectors are the phrases that introduce an entry, e.g. "Watched". Tried in order.
	Connectors []string
	// Months are localized month names, sorted longest first so that no name is replaced
	// inside a longer one.
	Months []MonthName
	// Zones maps time zone abbreviations to their UTC offset.
	Zones map[string]*time.Location
	// Directories maps a logical folder (DirMyActivity etc.) to its localized names.
	Directories map[string][]string
	// Services maps a localized My Activity sub folder to the product it contains.
	Services map[string]events.Product
}

// ParseTimestamp parses the trailing timestamp of an entry. The returned time is in UTC.
func (g *Grammar) ParseTimestamp(text string) (time.Time, error) {
	s := g.rewriteMonths(NormalizeSpace(text))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	body, loc := g.splitZone(s)
	for _, layout := range g.DateLayouts {
		if layoutHasOffset(layout) {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
			continue
		}
		if loc == nil {
			continue
		}
		if t, err := time.ParseInLocation(layout, body, loc); err == nil {
			return t.UTC(), nil
		}
	}
	if loc == nil {
		return time.Time{}, fmt.Errorf("timestamp=%q has no recognizable time zone for locale=%s", text, g.Tag)
	}
	return time.Time{}, fmt.Errorf("timestamp=%q did not match any date layout for locale=%s", text, g.Tag)
}

// SplitConnector splits a leading connector phrase from the rest of the line.
// If no connector matches, action is empty and subject is the whole line.
func (g *Grammar) SplitConnector(line string) (action string, subject string) {
	line = NormalizeSpace(line)
	for _, c := range g.Connectors {
		if !strings.HasPrefix(line, c) {
			continue
		}
		rest := line[len(c):]
		if rest != "" {
			r, _ := utf8.DecodeRuneInString(rest)
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				continue
			}
		}
		return c, strings.TrimSpace(strings.TrimLeft(rest, ": "))
	}
	return "", line
}

func (g *Grammar) splitZone(s string) (string, *time.Location) {
	idx := strings.LastIndexByte(s, ' ')
	if idx < 0 {
		return s, nil
	}
	body, zone := s[:idx], s[idx+1:]
	if loc, ok := g.Zones[zone]; ok {
		return body, loc
	}
	m := numericZoneRegexp.FindStringSubmatch(zone)
	if m == nil {
		return s, nil
	}
	hours, _ := strconv.Atoi(m[2])
	minutes := 0
	if m[3] != "" {
		minutes, _ = strconv.Atoi(m[3])
	}
	offset := hours*3600 + minutes*60
	if m[1] == "-" {
		offset = -offset
	}
	return body, time.FixedZone(zone, offset)
}

func (g *Grammar) rewriteMonths(s string) string {
	for _, m := range g.Months {
		s = replaceWord(s, m.Name, englishMonths[m.Month])
	}
	return s
}

// replaceWord replaces occurrences of old that are not part of a longer word.
func replaceWord(s, old, repl string) string {
	var sb strings.Builder
	pos := 0
	for {
		rel := strings.Index(s[pos:], old)
		if rel < 0 {
			sb.WriteString(s[pos:])
			return sb.String()
		}
		idx := pos + rel
		end := idx + len(old)
		before, _ := utf8.DecodeLastRuneInString(s[:idx])
		after, _ := utf8.DecodeRuneInString(s[end:])
		sb.WriteString(s[pos:idx])
		if (idx == 0 || !unicode.IsLetter(before)) && (end == len(s) || !unicode.IsLetter(after)) {
			sb.WriteString(repl)
		} else {
			sb.WriteString(old)
		}
		pos = end
	}
}

func layoutHasOffset(layout string) bool {
	return strings.Contains(layout, "Z07") || strings.Contains(layout, "-07")
}

// NormalizeSpace converts text to NFC, turns the various non-breaking spaces used in exports
// into plain spaces and collapses runs of whitespace.
func NormalizeSpace(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func sortMonths(months []MonthName) {
	sort.SliceStable(months, func(i, j int) bool {
		return utf8.RuneCountInString(months[i].Name) > utf8.RuneCountInString(months[j].Name)
	})
}
