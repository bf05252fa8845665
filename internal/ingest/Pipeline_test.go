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

package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/jackbister/takeoutsuck/internal/archive"
	"github.com/jackbister/takeoutsuck/internal/cache"
	"github.com/jackbister/takeoutsuck/internal/detect"
	"github.com/jackbister/takeoutsuck/internal/locale"
	"github.com/jackbister/takeoutsuck/internal/metrics"
	"github.com/jackbister/takeoutsuck/internal/parser"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/config"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const watchHistoryHtml = `<!DOCTYPE html>
<html><body><div class="mdl-grid">
<div class="outer-cell mdl-cell mdl-cell--12-col"><div class="mdl-grid">
 <div class="content-cell mdl-cell mdl-cell--6-col mdl-typography--body-1">Watched <a href="https://www.youtube.com/watch?v=dQw4w9WgXcQ">Never Gonna Give You Up</a><br>Sep 15, 2020, 1:07:39 PM PDT</div>
</div></div>
<div class="outer-cell mdl-cell mdl-cell--12-col"><div class="mdl-grid">
 <div class="content-cell mdl-cell mdl-cell--6-col mdl-typography--body-1">Watched a video that has been removed<br>Sep 16, 2020, 9:00:00 AM UTC</div>
</div></div>
<div class="outer-cell mdl-cell mdl-cell--12-col"><div class="mdl-grid">
 <div class="content-cell mdl-cell mdl-cell--6-col mdl-typography--body-1">Watched <a href="https://www.youtube.com/watch?v=x">Something</a><br>sometime last tuesday 4</div>
</div></div>
</div></body></html>`

const germanHtml = `<!DOCTYPE html><html lang="de"><body><div class="outer-cell"><div class="mdl-grid">
<div class="content-cell mdl-typography--body-1">Angesehen: <a href="https://www.youtube.com/watch?v=1">Ein Video</a><br>15.09.2020, 13:07:39 MESZ</div>
</div></div></body></html>`

const chromeJson = `{"Browser History": [{"title": "Go", "url": "https://go.dev/", "time_usec": 1600175259000000}]}`

const chromeJsonLater = `{"Browser History": [
	{"title": "Go", "url": "https://go.dev/", "time_usec": 1600175259000000},
	{"title": "Go Blog", "url": "https://go.dev/blog/", "time_usec": 1600261659000000}
]}`

func writeArchive(t *testing.T, name string, files map[string]string) archive.Archive {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	for p, content := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("got error when creating directory: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("got error when writing file: %v", err)
		}
	}
	return archive.NewDirArchive(root)
}

func newTestPipeline(t *testing.T, cfg *config.Config, c cache.Cache) (*Pipeline, *metrics.Metrics) {
	t.Helper()
	logger := slog.Default()
	table := locale.NewTable(logger, locale.BundledSource{})
	detector, err := detect.NewDetector(table, logger)
	if err != nil {
		t.Fatalf("got error when creating detector: %v", err)
	}
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("got error when creating metrics: %v", err)
	}
	return NewPipeline(PipelineParams{
		Cfg:      cfg,
		Table:    table,
		Detector: detector,
		Parser:   parser.NewFileParser(logger),
		Cache:    c,
		Metrics:  m,
		Logger:   logger,
	}), m
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Workers = 2
	return cfg
}

func englishArchive(t *testing.T) archive.Archive {
	return writeArchive(t, "takeout-20200915T130739Z-001", map[string]string{
		"Takeout/YouTube and YouTube Music/history/watch-history.html": watchHistoryHtml,
		"Takeout/Chrome/BrowserHistory.json":                          chromeJson,
		"Takeout/Mail/All mail Including Spam and Trash.mbox":         "From 1@xxx Mon Sep 14 00:00:00 +0000 2020\n",
	})
}

func TestRun_SingleArchive(t *testing.T) {
	p, m := newTestPipeline(t, testConfig(), nil)
	out, err := p.Run(context.Background(), englishArchive(t))
	if err != nil {
		t.Fatalf("got error from Run: %v", err)
	}
	evts := slices.Collect(out.Events)
	if len(evts) != 3 {
		t.Fatalf("expected 3 events but got %v: %+v", len(evts), evts)
	}
	expectedTimes := []time.Time{
		time.Date(2020, 9, 15, 13, 7, 39, 0, time.UTC),
		time.Date(2020, 9, 15, 20, 7, 39, 0, time.UTC),
		time.Date(2020, 9, 16, 9, 0, 0, 0, time.UTC),
	}
	for i, evt := range evts {
		if !evt.Timestamp.Equal(expectedTimes[i]) {
			t.Errorf("expected event %v at %v but got %v", i, expectedTimes[i], evt.Timestamp)
		}
	}
	if evts[0].Product != events.ProductChrome || evts[0].SourceFile != "Takeout/Chrome/BrowserHistory.json" {
		t.Errorf("got unexpected first event %+v", evts[0])
	}
	if evts[1].Product != events.ProductYouTube || evts[1].Title != "Never Gonna Give You Up" || evts[1].Locale != "en" {
		t.Errorf("got unexpected second event %+v", evts[1])
	}

	if len(out.Diagnostics) != 2 {
		t.Fatalf("expected 2 diagnostics but got %v: %+v", len(out.Diagnostics), out.Diagnostics)
	}
	if d := out.Diagnostics[0]; d.Kind != events.KindUnrecognizedFormat || d.SourceFile != "Takeout/Mail/All mail Including Spam and Trash.mbox" {
		t.Errorf("got unexpected first diagnostic %+v", d)
	}
	if d := out.Diagnostics[1]; d.Kind != events.KindMalformedRecord || d.SourceFile != "Takeout/YouTube and YouTube Music/history/watch-history.html" {
		t.Errorf("got unexpected second diagnostic %+v", d)
	}

	if v := testutil.ToFloat64(m.Files.WithLabelValues("unrecognized")); v != 1 {
		t.Errorf("expected 1 unrecognized file but got %v", v)
	}
	if v := testutil.ToFloat64(m.Events.WithLabelValues(string(events.ProductYouTube))); v != 2 {
		t.Errorf("expected 2 youtube events but got %v", v)
	}
}

func TestRun_UnknownFilesError(t *testing.T) {
	cfg := testConfig()
	cfg.UnknownFiles = config.UnknownFilesError
	p, _ := newTestPipeline(t, cfg, nil)
	_, err := p.Run(context.Background(), englishArchive(t))
	if !errors.Is(err, events.ErrUnrecognizedFormat) {
		t.Fatalf("expected ErrUnrecognizedFormat but got %v", err)
	}
}

func TestRun_MergesArchives(t *testing.T) {
	a := writeArchive(t, "takeout-a", map[string]string{"Takeout/Chrome/BrowserHistory.json": chromeJson})
	b := writeArchive(t, "takeout-b", map[string]string{"Takeout/Chrome/BrowserHistory.json": chromeJsonLater})
	p, m := newTestPipeline(t, testConfig(), nil)
	out, err := p.Run(context.Background(), a, b)
	if err != nil {
		t.Fatalf("got error from Run: %v", err)
	}
	evts := slices.Collect(out.Events)
	if len(evts) != 2 {
		t.Fatalf("expected 2 events after dedup but got %v: %+v", len(evts), evts)
	}
	if evts[0].SourceFile != "takeout-a/Takeout/Chrome/BrowserHistory.json" {
		t.Errorf("expected duplicate from first archive to be kept but got SourceFile=%v", evts[0].SourceFile)
	}
	if evts[1].Title != "Go Blog" || evts[1].SourceFile != "takeout-b/Takeout/Chrome/BrowserHistory.json" {
		t.Errorf("got unexpected second event %+v", evts[1])
	}
	if v := testutil.ToFloat64(m.DuplicatesDropped); v != 1 {
		t.Errorf("expected 1 dropped duplicate but got %v", v)
	}
}

func TestRun_UnknownArchiveLocaleFallsBack(t *testing.T) {
	a := writeArchive(t, "takeout", map[string]string{
		"Takeout/archive_browser.html":                                 `<!DOCTYPE html><html lang="fr"><body></body></html>`,
		"Takeout/YouTube and YouTube Music/history/watch-history.html": watchHistoryHtml,
	})
	p, _ := newTestPipeline(t, testConfig(), nil)
	out, err := p.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("got error from Run: %v", err)
	}
	if n := len(slices.Collect(out.Events)); n != 2 {
		t.Errorf("expected 2 events parsed with the default locale but got %v", n)
	}
	if len(out.Diagnostics) == 0 || out.Diagnostics[0].Kind != events.KindUnknownLocale || out.Diagnostics[0].SourceFile != "Takeout/archive_browser.html" {
		t.Errorf("expected unknown locale diagnostic first but got %+v", out.Diagnostics)
	}
}

func TestRun_GermanArchive(t *testing.T) {
	a := writeArchive(t, "takeout", map[string]string{
		"Takeout/archive_browser.html":                                        `<!DOCTYPE html><html lang="de"><body></body></html>`,
		"Takeout/YouTube und YouTube Music/Verlauf/Wiedergabeverlauf.html": germanHtml,
	})
	p, _ := newTestPipeline(t, testConfig(), nil)
	out, err := p.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("got error from Run: %v", err)
	}
	evts := slices.Collect(out.Events)
	if len(evts) != 1 || len(out.Diagnostics) != 0 {
		t.Fatalf("expected 1 event and no diagnostics but got %+v and %+v", evts, out.Diagnostics)
	}
	if evts[0].Locale != "de" || !evts[0].Timestamp.Equal(time.Date(2020, 9, 15, 11, 7, 39, 0, time.UTC)) {
		t.Errorf("got unexpected event %+v", evts[0])
	}
}

type mapRepository struct {
	entries map[string]*events.Result
}

func (r *mapRepository) Get(ctx context.Context, key string) (*events.Result, error) {
	if res, ok := r.entries[key]; ok {
		return res, nil
	}
	return nil, cache.ErrNotFound
}

func (r *mapRepository) Put(ctx context.Context, key string, result *events.Result) error {
	r.entries[key] = result
	return nil
}

func TestRun_UsesCache(t *testing.T) {
	repo := &mapRepository{entries: map[string]*events.Result{}}
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("got error when creating metrics: %v", err)
	}
	p, _ := newTestPipeline(t, testConfig(), cache.NewRepositoryCache(repo, m, slog.Default()))
	a := englishArchive(t)

	first, err := p.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("got error from first Run: %v", err)
	}
	firstEvents := slices.Collect(first.Events)
	second, err := p.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("got error from second Run: %v", err)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 cache entry but got %v", len(repo.entries))
	}
	if v := testutil.ToFloat64(m.CacheRequests.WithLabelValues(metrics.CacheHit)); v != 1 {
		t.Errorf("expected second run to hit the cache, hits=%v", v)
	}
	secondEvents := slices.Collect(second.Events)
	if len(firstEvents) != 3 || len(secondEvents) != len(firstEvents) || len(second.Diagnostics) != len(first.Diagnostics) {
		t.Errorf("expected identical results, got %v/%v events and %v/%v diagnostics",
			len(firstEvents), len(secondEvents), len(first.Diagnostics), len(second.Diagnostics))
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, _ := newTestPipeline(t, testConfig(), nil)
	if _, err := p.Run(ctx, englishArchive(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled but got %v", err)
	}
}
