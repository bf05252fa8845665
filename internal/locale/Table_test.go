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
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
)

func TestLookup(t *testing.T) {
	table := NewTable(slog.Default(), BundledSource{})
	for _, tag := range []string{"en", "EN", "en-GB", "en_US", " de "} {
		if _, err := table.Lookup(tag); err != nil {
			t.Errorf("got error when looking up locale=%q: %v", tag, err)
		}
	}
	g, err := table.Lookup("de-AT")
	if err != nil {
		t.Fatalf("got error when looking up de-AT: %v", err)
	}
	if g.Tag != "de" {
		t.Errorf("expected de-AT to fall back to de but got %v", g.Tag)
	}
}

func TestLookup_UnknownLocale(t *testing.T) {
	table := NewTable(slog.Default(), BundledSource{})
	_, err := table.Lookup("fr")
	if err == nil {
		t.Fatal("expected error when looking up unknown locale")
	}
	if !errors.Is(err, events.ErrUnknownLocale) {
		t.Fatalf("expected ErrUnknownLocale but got %v", err)
	}
}

func TestResolve(t *testing.T) {
	table := NewTable(slog.Default(), BundledSource{})

	g, fellBack, err := table.Resolve("de", "en")
	if err != nil || fellBack || g.Tag != "de" {
		t.Errorf("expected de without fallback but got tag=%v, fellBack=%v, err=%v", g, fellBack, err)
	}

	g, fellBack, err = table.Resolve("fr", "en")
	if err != nil {
		t.Fatalf("got error when resolving with fallback: %v", err)
	}
	if !fellBack || g.Tag != "en" {
		t.Errorf("expected fallback to en but got tag=%v, fellBack=%v", g.Tag, fellBack)
	}

	g, fellBack, err = table.Resolve("", "en")
	if err != nil || fellBack || g.Tag != "en" {
		t.Errorf("expected default en without fallback flag but got fellBack=%v, err=%v", fellBack, err)
	}

	_, _, err = table.Resolve("fr", "xx")
	if !errors.Is(err, events.ErrUnknownLocale) {
		t.Errorf("expected ErrUnknownLocale for unusable fallback but got %v", err)
	}
}

func TestTagsAndVersion(t *testing.T) {
	table := NewTable(slog.Default(), BundledSource{})
	tags, err := table.Tags()
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"de", "en"}) {
		t.Errorf("expected tags [de en] but got %v", tags)
	}
	v1, err := table.Version()
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	v2, _ := NewTable(slog.Default(), BundledSource{}).Version()
	if v1 == "" || v1 != v2 {
		t.Errorf("expected a stable non-empty version but got %q and %q", v1, v2)
	}
}

const frGrammar = `tag: fr
dateLayouts:
  - "2 Jan 2006 à 15:04:05"
months:
  - {name: "sept.", month: 9}
zones:
  UTC+2: "+02:00"
  CEST: "+02:00"
connectors:
  - "Vous avez regardé"
directories:
  myActivity: ["Mon activité"]
services:
  YouTube: youtube
`

func TestDirSource_AddsAndOverridesGrammars(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "fr.yaml"), []byte(frGrammar), 0644)
	if err != nil {
		t.Fatalf("got error when writing grammar: %v", err)
	}
	bundledOnly, _ := NewTable(slog.Default(), BundledSource{}).Version()
	table := NewTable(slog.Default(), BundledSource{}, DirSource{Dir: dir})

	g, err := table.Lookup("fr")
	if err != nil {
		t.Fatalf("got error when looking up fr: %v", err)
	}
	ts, err := g.ParseTimestamp("15 sept. 2020 à 13:07:39 CEST")
	if err != nil {
		t.Fatalf("got error when parsing timestamp: %v", err)
	}
	if !ts.Equal(time.Date(2020, 9, 15, 11, 7, 39, 0, time.UTC)) {
		t.Errorf("got unexpected timestamp=%v", ts)
	}
	if g.Services["YouTube"] != events.ProductYouTube {
		t.Errorf("expected YouTube service to map to youtube but got %v", g.Services["YouTube"])
	}
	v, _ := table.Version()
	if v == bundledOnly {
		t.Errorf("expected version to change when a grammar is added")
	}
}

func TestDirSource_MissingDirectory(t *testing.T) {
	table := NewTable(slog.Default(), DirSource{Dir: filepath.Join(t.TempDir(), "nope")})
	if _, err := table.Tags(); err == nil {
		t.Fatal("expected error for missing locale directory")
	}
}

func TestParseGrammar_RejectsInvalidMonth(t *testing.T) {
	_, err := parseGrammar([]byte("tag: xx\ndateLayouts: [\"2006\"]\nmonths:\n  - {name: \"foo\", month: 13}\n"))
	if err == nil {
		t.Fatal("expected error for month out of range")
	}
}
