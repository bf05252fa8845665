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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
	"gopkg.in/yaml.v3"
)

type yamlMonth struct {
	Name  string `yaml:"name"`
	Month int    `yaml:"month"`
}

type yamlGrammar struct {
	Tag         string              `yaml:"tag"`
	DateLayouts []string            `yaml:"dateLayouts"`
	Months      []yamlMonth         `yaml:"months"`
	Zones       map[string]string   `yaml:"zones"`
	Connectors  []string            `yaml:"connectors"`
	Directories map[string][]string `yaml:"directories"`
	Services    map[string]string   `yaml:"services"`
}

// Table is the process wide, read-only set of grammars. Resources are loaded on first use.
type Table struct {
	sources []ResourceSource
	logger  *slog.Logger

	once     sync.Once
	grammars map[string]*Grammar
	tags     []string
	version  string
	err      error
}

// NewTable creates a Table backed by the given sources. When several sources define the same
// tag, the later source wins.
func NewTable(logger *slog.Logger, sources ...ResourceSource) *Table {
	return &Table{
		sources: sources,
		logger:  logger,
	}
}

// Lookup returns the grammar for tag. Tags are case insensitive, and a regional tag such as
// "en-GB" falls back to its base language when no regional grammar exists.
func (t *Table) Lookup(tag string) (*Grammar, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	normalized := normalizeTag(tag)
	if g, ok := t.grammars[normalized]; ok {
		return g, nil
	}
	if base, _, found := strings.Cut(normalized, "-"); found {
		if g, ok := t.grammars[base]; ok {
			return g, nil
		}
	}
	return nil, fmt.Errorf("no grammar for locale=%q: %w", tag, events.ErrUnknownLocale)
}

// Resolve looks up tag and falls back to the fallback tag if tag is unknown or empty.
// fellBack reports whether the fallback was used because tag was unknown.
func (t *Table) Resolve(tag, fallback string) (g *Grammar, fellBack bool, err error) {
	if tag != "" {
		g, err = t.Lookup(tag)
		if err == nil {
			return g, false, nil
		}
		t.logger.Warn("unknown locale, will use fallback locale",
			slog.String("locale", tag),
			slog.String("fallbackLocale", fallback))
		fellBack = true
	}
	g, err = t.Lookup(fallback)
	if err != nil {
		return nil, fellBack, fmt.Errorf("fallback locale is not usable: %w", err)
	}
	return g, fellBack, nil
}

// Tags returns the known locale tags in sorted order.
func (t *Table) Tags() ([]string, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	return t.tags, nil
}

// All returns every grammar, ordered by tag.
func (t *Table) All() ([]*Grammar, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	ret := make([]*Grammar, 0, len(t.tags))
	for _, tag := range t.tags {
		ret = append(ret, t.grammars[tag])
	}
	return ret, nil
}

// Version is a digest of every loaded resource. It changes whenever a grammar changes, which
// makes it usable as part of a cache key.
func (t *Table) Version() (string, error) {
	if err := t.load(); err != nil {
		return "", err
	}
	return t.version, nil
}

func (t *Table) load() error {
	t.once.Do(func() {
		t.grammars = map[string]*Grammar{}
		h := sha256.New()
		for _, src := range t.sources {
			resources, err := src.Resources()
			if err != nil {
				t.err = fmt.Errorf("failed to load locale resources: %w", err)
				return
			}
			names := make([]string, 0, len(resources))
			for name := range resources {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				g, err := parseGrammar(resources[name])
				if err != nil {
					t.err = fmt.Errorf("failed to parse locale resource=%s: %w", name, err)
					return
				}
				h.Write([]byte(name))
				h.Write(resources[name])
				t.grammars[g.Tag] = g
			}
		}
		t.tags = make([]string, 0, len(t.grammars))
		for tag := range t.grammars {
			t.tags = append(t.tags, tag)
		}
		sort.Strings(t.tags)
		t.version = hex.EncodeToString(h.Sum(nil))
		t.logger.Debug("loaded locale grammars", slog.Any("tags", t.tags))
	})
	return t.err
}

func parseGrammar(b []byte) (*Grammar, error) {
	var yg yamlGrammar
	if err := yaml.Unmarshal(b, &yg); err != nil {
		return nil, err
	}
	if yg.Tag == "" {
		return nil, fmt.Errorf("tag is empty")
	}
	if len(yg.DateLayouts) == 0 {
		return nil, fmt.Errorf("locale=%s has no dateLayouts", yg.Tag)
	}
	g := &Grammar{
		Tag:         normalizeTag(yg.Tag),
		DateLayouts: yg.DateLayouts,
		Connectors:  make([]string, 0, len(yg.Connectors)),
		Months:      make([]MonthName, 0, len(yg.Months)),
		Zones:       make(map[string]*time.Location, len(yg.Zones)),
		Directories: make(map[string][]string, len(yg.Directories)),
		Services:    make(map[string]events.Product, len(yg.Services)),
	}
	for _, c := range yg.Connectors {
		g.Connectors = append(g.Connectors, NormalizeSpace(c))
	}
	for _, m := range yg.Months {
		if m.Month < 1 || m.Month > 12 {
			return nil, fmt.Errorf("locale=%s: month=%v for name=%s is out of range", yg.Tag, m.Month, m.Name)
		}
		g.Months = append(g.Months, MonthName{Name: NormalizeSpace(m.Name), Month: time.Month(m.Month)})
	}
	sortMonths(g.Months)
	for abbr, offset := range yg.Zones {
		loc, err := parseOffset(abbr, offset)
		if err != nil {
			return nil, fmt.Errorf("locale=%s: %w", yg.Tag, err)
		}
		g.Zones[abbr] = loc
	}
	for k, names := range yg.Directories {
		normalized := make([]string, len(names))
		for i, n := range names {
			normalized[i] = NormalizeSpace(n)
		}
		g.Directories[k] = normalized
	}
	for folder, product := range yg.Services {
		g.Services[NormalizeSpace(folder)] = events.Product(product)
	}
	return g, nil
}

func parseOffset(abbr, offset string) (*time.Location, error) {
	t, err := time.Parse("-07:00", offset)
	if err != nil {
		return nil, fmt.Errorf("failed to parse offset=%q for zone=%s: %w", offset, abbr, err)
	}
	_, secs := t.Zone()
	return time.FixedZone(abbr, secs), nil
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
}
