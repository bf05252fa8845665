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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackbister/takeoutsuck/internal/detect"
)

type record = map[string]any

// extractor returns the value of one candidate field of a record.
type extractor func(rec record) (string, bool)

type timeCandidate struct {
	path     string
	encoding TimeEncoding
}

// schema describes where the Event fields of a structured record live. Every field has an
// ordered list of candidates, reflecting renames across export revisions. The first candidate
// present in a record wins, except for urls where every candidate contributes.
type schema struct {
	// container is the top-level key holding the record array. Empty means the file is a
	// top-level array.
	container string
	// root, if set, is the key of the object inside each record that holds the fields.
	// Records without it are skipped.
	root string
	// requires lists dotted paths that must be present for a record to become an Event.
	requires []string

	timestamps   []timeCandidate
	titles       []extractor
	descriptions []extractor
	urls         []func(rec record) []string
}

var schemas = map[detect.Schema]*schema{
	detect.SchemaActivity: {
		timestamps: []timeCandidate{
			{"time", EncodingAuto},
			{"snippet.publishedAt", EncodingAuto},
		},
		titles:       []extractor{field("title"), field("snippet.title")},
		descriptions: []extractor{field("description"), field("snippet.description")},
		urls: []func(rec record) []string{
			single(secure(field("titleUrl"))),
			each("subtitles", "url", "name"),
			secureAll(each("locationInfos", "url")),
		},
	},
	detect.SchemaLikes: {
		timestamps: []timeCandidate{
			{"snippet.publishedAt", EncodingAuto},
		},
		titles:       []extractor{field("snippet.title")},
		descriptions: []extractor{field("snippet.description")},
		urls: []func(rec record) []string{
			single(format("https://www.youtube.com/watch?v=%s", "contentDetails.videoId")),
		},
	},
	detect.SchemaChromeHistory: {
		container: "Browser History",
		timestamps: []timeCandidate{
			{"time_usec", EncodingUnixMicros},
		},
		titles: []extractor{field("title")},
		urls: []func(rec record) []string{
			single(field("url")),
		},
	},
	detect.SchemaAppInstalls: {
		timestamps: []timeCandidate{
			{"install.lastUpdateTime", EncodingAuto},
			{"install.firstInstallationTime", EncodingAuto},
		},
		titles:       []extractor{field("install.doc.title")},
		descriptions: []extractor{field("install.deviceAttribute.deviceDisplayName")},
	},
	detect.SchemaLocationRecords: {
		container: "locations",
		requires:  []string{"latitudeE7", "longitudeE7"},
		timestamps: []timeCandidate{
			{"timestampMs", EncodingUnixMillis},
			{"timestamp", EncodingAuto},
		},
		titles:       []extractor{coordinates("latitudeE7", "longitudeE7")},
		descriptions: []extractor{field("source")},
	},
	detect.SchemaSemanticLocation: {
		container: "timelineObjects",
		root:      "placeVisit",
		requires: []string{
			"location",
			"duration",
			"location.placeId",
			"location.latitudeE7",
			"location.longitudeE7",
		},
		timestamps: []timeCandidate{
			{"duration.startTimestamp", EncodingAuto},
			{"duration.startTimestampMs", EncodingUnixMillis},
		},
		titles: []extractor{
			field("location.name"),
			coordinates("location.latitudeE7", "location.longitudeE7"),
		},
		descriptions: []extractor{field("location.address")},
		urls: []func(rec record) []string{
			single(format("https://www.google.com/maps/place/?q=place_id:%s", "location.placeId")),
		},
	},
}

func first(rec record, candidates []extractor) string {
	for _, c := range candidates {
		if v, ok := c(rec); ok {
			return v
		}
	}
	return ""
}

// lookup follows a dotted path through nested objects.
func lookup(rec record, path string) (any, bool) {
	var cur any = rec
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(record)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// scalar converts a JSON scalar to its string form. Objects and arrays are not scalars.
func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func field(path string) extractor {
	return func(rec record) (string, bool) {
		v, ok := lookup(rec, path)
		if !ok {
			return "", false
		}
		return scalar(v)
	}
}

func format(template string, path string) extractor {
	get := field(path)
	return func(rec record) (string, bool) {
		v, ok := get(rec)
		if !ok {
			return "", false
		}
		return fmt.Sprintf(template, v), true
	}
}

// coordinates renders E7 fixed point latitude and longitude as "lat,lng".
func coordinates(latPath, lngPath string) extractor {
	return func(rec record) (string, bool) {
		lat, ok := lookup(rec, latPath)
		if !ok {
			return "", false
		}
		lng, ok := lookup(rec, lngPath)
		if !ok {
			return "", false
		}
		latN, latOk := lat.(json.Number)
		lngN, lngOk := lng.(json.Number)
		if !latOk || !lngOk {
			return "", false
		}
		latF, err := latN.Float64()
		if err != nil {
			return "", false
		}
		lngF, err := lngN.Float64()
		if err != nil {
			return "", false
		}
		return strconv.FormatFloat(latF/1e7, 'f', 7, 64) + "," + strconv.FormatFloat(lngF/1e7, 'f', 7, 64), true
	}
}

func single(e extractor) func(rec record) []string {
	return func(rec record) []string {
		if v, ok := e(rec); ok {
			return []string{v}
		}
		return nil
	}
}

// missing returns the first of paths that is absent from rec.
func missing(rec record, paths []string) (string, bool) {
	for _, p := range paths {
		if _, ok := lookup(rec, p); !ok {
			return p, true
		}
	}
	return "", false
}

// secure rewrites plain http URLs to https.
func secure(e extractor) extractor {
	return func(rec record) (string, bool) {
		v, ok := e(rec)
		if !ok {
			return "", false
		}
		return toHTTPS(v), true
	}
}

func secureAll(f func(rec record) []string) func(rec record) []string {
	return func(rec record) []string {
		ret := f(rec)
		for i, u := range ret {
			ret[i] = toHTTPS(u)
		}
		return ret
	}
}

func toHTTPS(u string) string {
	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		return "https://" + rest
	}
	return u
}

// each collects key from every object in the array at arrayPath. Objects lacking any of the
// requires keys are skipped.
func each(arrayPath string, key string, requires ...string) func(rec record) []string {
	return func(rec record) []string {
		v, ok := lookup(rec, arrayPath)
		if !ok {
			return nil
		}
		arr, ok := v.([]any)
		if !ok {
			return nil
		}
		var ret []string
		for _, item := range arr {
			m, ok := item.(record)
			if !ok {
				continue
			}
			if _, absent := missing(m, requires); absent {
				continue
			}
			if s, ok := scalar(m[key]); ok {
				ret = append(ret, s)
			}
		}
		return ret
	}
}
