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

// takeoutdunk writes a fake, unpacked Takeout export which can be fed to takeoutsuck.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit"
)

var searchQueries = []string{
	"{hacker.verb} {hacker.noun}",
	"how to {hacker.verb} {hacker.adjective} {hacker.noun}",
	"{company.buzzwords} {company.suffix}",
	"{person.first} {person.last}",
}

var videoTitles = []string{
	"{hacker.adjective} {hacker.noun} tutorial",
	"{company.buzzwords} explained in ### minutes",
	"{person.first} reacts to {hacker.noun}",
}

func main() {
	numEvents := flag.Int("numEvents", 1000, "The number of events to write to each product file.")
	outDir := flag.String("out", ".", "The directory the export will be created in.")
	seed := flag.Int64("seed", 0, "The seed of the random generator. 0 uses the current time.")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	gofakeit.Seed(*seed)

	end := time.Now().UTC().Truncate(time.Second)
	root := filepath.Join(*outDir, "takeout-"+end.Format("20060102T150405Z")+"-001", "Takeout")
	files := map[string]string{
		"archive_browser.html":                                 `<!DOCTYPE html><html lang="en"><body><h1>Archive</h1></body></html>`,
		"My Activity/Search/MyActivity.html":                   activityHtml(*numEvents, end, "Searched for", "https://www.google.com/search?q=", searchQueries),
		"YouTube and YouTube Music/history/watch-history.html": activityHtml(*numEvents, end, "Watched", "https://www.youtube.com/watch?v=", videoTitles),
		"Chrome/BrowserHistory.json":                           browserHistoryJson(*numEvents, end),
		"Mail/All mail Including Spam and Trash.mbox":          "From 1@xxx " + end.Format(time.RubyDate) + "\n",
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			log.Fatalf("Got error when creating directory for %v: %v", p, err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			log.Fatalf("Got error when writing %v: %v", p, err)
		}
	}
	fmt.Println(filepath.Dir(root))
}

// randomTime returns a time within the year before end.
func randomTime(end time.Time) time.Time {
	return end.Add(-time.Duration(gofakeit.Number(0, 365*24*60*60)) * time.Second)
}

func activityHtml(numEvents int, end time.Time, connector string, urlPrefix string, titles []string) string {
	sb := strings.Builder{}
	sb.WriteString(`<!DOCTYPE html><html><body><div class="mdl-grid">`)
	for i := 0; i < numEvents; i++ {
		title := gofakeit.Generate(gofakeit.RandString(titles))
		ts := randomTime(end).Format("Jan 2, 2006, 3:04:05 PM") + " UTC"
		fmt.Fprintf(&sb, `<div class="outer-cell mdl-cell mdl-cell--12-col"><div class="mdl-grid">`+
			`<div class="content-cell mdl-cell mdl-cell--6-col mdl-typography--body-1">%s <a href="%s%s">%s</a><br>%s</div>`+
			`</div></div>`+"\n",
			connector, urlPrefix, html.EscapeString(strings.ReplaceAll(title, " ", "+")), html.EscapeString(title), ts)
	}
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}

type browserHistoryEntry struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	TimeUsec int64  `json:"time_usec"`
}

func browserHistoryJson(numEvents int, end time.Time) string {
	entries := make([]browserHistoryEntry, numEvents)
	for i := range entries {
		entries[i] = browserHistoryEntry{
			Title:    gofakeit.Sentence(gofakeit.Number(2, 6)),
			URL:      gofakeit.URL(),
			TimeUsec: randomTime(end).UnixMicro(),
		}
	}
	b, err := json.MarshalIndent(map[string]any{"Browser History": entries}, "", "  ")
	if err != nil {
		log.Fatalf("Got error when encoding browser history: %v", err)
	}
	return string(b)
}
