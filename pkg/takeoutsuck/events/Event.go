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
	"time"
)

// Product identifies the service or category an Event originates from.
type Product string

const (
	ProductActivity  Product = "activity"
	ProductChrome    Product = "chrome"
	ProductLocation  Product = "location"
	ProductMaps      Product = "maps"
	ProductPlayStore Product = "play_store"
	ProductSearch    Product = "search"
	ProductYouTube   Product = "youtube"
)

// Event is a single parsed activity record.
// Timestamp and Product are always set, everything else is optional.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Product   Product   `json:"product"`

	Action      string   `json:"action,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	URLs        []string `json:"urls,omitempty"`

	Locale     string `json:"locale,omitempty"`
	SourceFile string `json:"sourceFile"`
}

// Completeness returns the number of non-empty optional fields. It is used to pick a
// representative among duplicates.
func (e Event) Completeness() int {
	n := 0
	if e.Action != "" {
		n++
	}
	if e.Title != "" {
		n++
	}
	if e.Description != "" {
		n++
	}
	if len(e.URLs) > 0 {
		n++
	}
	return n
}

// Key is what two events must share to be considered duplicates.
type Key struct {
	Product Product
	Unix    int64
	Title   string
}

// Key truncates the timestamp to whole seconds since markup exports carry no sub-second precision.
func (e Event) Key() Key {
	return Key{
		Product: e.Product,
		Unix:    e.Timestamp.Unix(),
		Title:   e.Title,
	}
}

// Result is everything parsed from one archive: the successful events and the diagnostics
// for everything that could not be turned into an event.
type Result struct {
	Events      []Event      `json:"events"`
	Diagnostics []ParseError `json:"diagnostics"`
}
