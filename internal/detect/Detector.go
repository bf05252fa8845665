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

package detect

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackbister/takeoutsuck/internal/locale"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
	"golang.org/x/text/unicode/norm"
)

// matcher checks a single path segment. locale is non-empty when the segment is a directory
// name that only one locale uses.
type matcher func(seg string) (locale string, ok bool)

type rule struct {
	name    string
	tail    []matcher
	kind    Kind
	schema  Schema
	product events.Product
	// serviceAt is the index in tail of a My Activity service folder, or -1 if the product is fixed.
	serviceAt int
}

// Detector classifies archive files by their path and, once a path rule matches, by a prefix of
// their content. Rules are tried in order and the first match wins.
type Detector struct {
	rules    []rule
	names    map[string]map[string]string
	services map[string]events.Product
	logger   *slog.Logger
}

func NewDetector(table *locale.Table, logger *slog.Logger) (*Detector, error) {
	grammars, err := table.All()
	if err != nil {
		return nil, fmt.Errorf("failed to get grammars for detector: %w", err)
	}
	d := &Detector{
		names:    map[string]map[string]string{},
		services: map[string]events.Product{},
		logger:   logger,
	}
	for _, g := range grammars {
		for key, names := range g.Directories {
			if d.names[key] == nil {
				d.names[key] = map[string]string{}
			}
			for _, n := range names {
				lower := strings.ToLower(n)
				if prev, ok := d.names[key][lower]; ok && prev != g.Tag {
					d.names[key][lower] = ""
				} else {
					d.names[key][lower] = g.Tag
				}
			}
		}
		for folder, product := range g.Services {
			d.services[strings.ToLower(folder)] = product
		}
	}
	d.rules = []rule{
		{name: "my-activity-markup", tail: []matcher{d.dir(locale.DirMyActivity), anySegment, ext(".html")}, kind: KindMarkup, serviceAt: 1},
		{name: "my-activity-structured", tail: []matcher{d.dir(locale.DirMyActivity), anySegment, ext(".json")}, kind: KindStructured, schema: SchemaActivity, serviceAt: 1},
		{name: "youtube-history-markup", tail: []matcher{d.dir(locale.DirYouTube), d.dir(locale.DirHistory), ext(".html")}, kind: KindMarkup, product: events.ProductYouTube, serviceAt: -1},
		{name: "youtube-history-structured", tail: []matcher{d.dir(locale.DirYouTube), d.dir(locale.DirHistory), ext(".json")}, kind: KindStructured, schema: SchemaActivity, product: events.ProductYouTube, serviceAt: -1},
		{name: "youtube-likes", tail: []matcher{d.dir(locale.DirYouTube), d.dir(locale.DirPlaylists), prefixExt("like", ".json")}, kind: KindStructured, schema: SchemaLikes, product: events.ProductYouTube, serviceAt: -1},
		{name: "chrome-history", tail: []matcher{d.dir(locale.DirChrome), file("BrowserHistory.json", "History.json")}, kind: KindStructured, schema: SchemaChromeHistory, product: events.ProductChrome, serviceAt: -1},
		{name: "play-store-installs", tail: []matcher{d.dir(locale.DirPlayStore), file("Installs.json")}, kind: KindStructured, schema: SchemaAppInstalls, product: events.ProductPlayStore, serviceAt: -1},
		{name: "semantic-location", tail: []matcher{d.dir(locale.DirSemanticLocationHistory), anySegment, ext(".json")}, kind: KindStructured, schema: SchemaSemanticLocation, product: events.ProductLocation, serviceAt: -1},
		{name: "location-records", tail: []matcher{d.dir(locale.DirLocationHistory), file("Records.json")}, kind: KindStructured, schema: SchemaLocationRecords, product: events.ProductLocation, serviceAt: -1},
		{name: "location-records-legacy", tail: []matcher{d.dirFile(locale.DirLocationHistory, ".json")}, kind: KindStructured, schema: SchemaLocationRecords, product: events.ProductLocation, serviceAt: -1},
	}
	logger.Debug("created detector", slog.Int("numRules", len(d.rules)), slog.Int("numGrammars", len(grammars)))
	return d, nil
}

// Classify returns the Classification for the file at path. probe is only invoked once a path
// rule has matched. Files that no rule matches, or whose content contradicts the matching rule,
// fail with events.ErrUnrecognizedFormat.
func (d *Detector) Classify(path string, probe Probe) (Classification, error) {
	segs := splitPath(path)
	for _, r := range d.rules {
		loc, caps, ok := r.match(segs)
		if !ok {
			continue
		}
		cls := Classification{
			Product: r.product,
			Kind:    r.kind,
			Schema:  r.schema,
			Locale:  loc,
		}
		if r.serviceAt >= 0 {
			cls.Product = d.serviceProduct(caps[r.serviceAt])
		}
		head, err := probe()
		if err != nil {
			return Classification{}, fmt.Errorf("failed to probe file=%s: %w: %w", path, events.ErrUnreadable, err)
		}
		switch r.kind {
		case KindMarkup:
			if !hasMarkupMarkers(head) {
				return Classification{}, fmt.Errorf("file=%s matched rule=%s but has no html markers: %w", path, r.name, events.ErrUnrecognizedFormat)
			}
			cls.Revision = revisionOf(head)
		case KindStructured:
			if !looksStructured(head) {
				return Classification{}, fmt.Errorf("file=%s matched rule=%s but does not start with an object or array: %w", path, r.name, events.ErrUnrecognizedFormat)
			}
		}
		return cls, nil
	}
	return Classification{}, fmt.Errorf("no rule matches file=%s: %w", path, events.ErrUnrecognizedFormat)
}

func (d *Detector) serviceProduct(folder string) events.Product {
	if p, ok := d.services[strings.ToLower(folder)]; ok {
		return p
	}
	return events.ProductActivity
}

func (r *rule) match(segs []string) (string, []string, bool) {
	if len(segs) < len(r.tail) {
		return "", nil, false
	}
	caps := segs[len(segs)-len(r.tail):]
	loc := ""
	for i, m := range r.tail {
		l, ok := m(caps[i])
		if !ok {
			return "", nil, false
		}
		if loc == "" {
			loc = l
		}
	}
	return loc, caps, true
}

func (d *Detector) dir(key string) matcher {
	names := d.names[key]
	return func(seg string) (string, bool) {
		loc, ok := names[strings.ToLower(seg)]
		return loc, ok
	}
}

// dirFile matches a file named after a localized directory, e.g. "Location History.json".
func (d *Detector) dirFile(key string, extension string) matcher {
	names := d.names[key]
	return func(seg string) (string, bool) {
		lower := strings.ToLower(seg)
		if !strings.HasSuffix(lower, extension) {
			return "", false
		}
		loc, ok := names[strings.TrimSuffix(lower, extension)]
		return loc, ok
	}
}

func anySegment(string) (string, bool) {
	return "", true
}

func ext(extension string) matcher {
	return func(seg string) (string, bool) {
		return "", strings.HasSuffix(strings.ToLower(seg), extension)
	}
}

func prefixExt(prefix, extension string) matcher {
	return func(seg string) (string, bool) {
		lower := strings.ToLower(seg)
		return "", strings.HasPrefix(lower, prefix) && strings.HasSuffix(lower, extension)
	}
}

func file(names ...string) matcher {
	return func(seg string) (string, bool) {
		for _, n := range names {
			if strings.EqualFold(seg, n) {
				return "", true
			}
		}
		return "", false
	}
}

// splitPath NFC normalizes path and splits it on forward and back slashes.
func splitPath(path string) []string {
	path = norm.NFC.String(strings.ReplaceAll(path, "\\", "/"))
	parts := strings.Split(path, "/")
	ret := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		ret = append(ret, p)
	}
	return ret
}
