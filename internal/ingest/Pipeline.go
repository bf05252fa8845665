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
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/jackbister/takeoutsuck/internal/archive"
	"github.com/jackbister/takeoutsuck/internal/cache"
	"github.com/jackbister/takeoutsuck/internal/detect"
	"github.com/jackbister/takeoutsuck/internal/locale"
	"github.com/jackbister/takeoutsuck/internal/merge"
	"github.com/jackbister/takeoutsuck/internal/metrics"
	"github.com/jackbister/takeoutsuck/internal/parser"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/config"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"

	"go.uber.org/dig"
	"golang.org/x/sync/errgroup"
)

// Output is the result of a run. Events is ordered by timestamp and free of duplicates.
// Diagnostics holds one entry for every file or record that did not become an Event.
type Output struct {
	Events      iter.Seq[events.Event]
	Diagnostics []events.ParseError
}

type Pipeline struct {
	cfg      *config.Config
	table    *locale.Table
	detector *detect.Detector
	parser   *parser.FileParser
	cache    cache.Cache
	metrics  *metrics.Metrics

	logger *slog.Logger
}

type PipelineParams struct {
	dig.In

	Cfg      *config.Config
	Table    *locale.Table
	Detector *detect.Detector
	Parser   *parser.FileParser
	Cache    cache.Cache      `optional:"true"`
	Metrics  *metrics.Metrics `optional:"true"`
	Logger   *slog.Logger
}

func NewPipeline(p PipelineParams) *Pipeline {
	c := p.Cache
	if c == nil {
		c = cache.Nop{}
	}
	return &Pipeline{
		cfg:      p.Cfg,
		table:    p.Table,
		detector: p.Detector,
		parser:   p.Parser,
		cache:    c,
		metrics:  p.Metrics,

		logger: p.Logger,
	}
}

// Run parses every file of every archive and merges the results. When more than one archive
// is given, SourceFile is prefixed with the name of the archive the file came from.
func (p *Pipeline) Run(ctx context.Context, archives ...archive.Archive) (*Output, error) {
	if _, ok := p.cache.(cache.Nop); ok {
		return p.run(ctx, archives)
	}
	version, err := p.table.Version()
	if err != nil {
		return nil, fmt.Errorf("failed to get grammar version: %w", err)
	}
	key, err := cache.Key(archives, version, p.cfg.DefaultLocale, string(p.cfg.UnknownFiles))
	if err != nil {
		p.logger.WarnContext(ctx, "failed to compute cache key, will not use cache", slog.Any("error", err))
		return p.run(ctx, archives)
	}
	res, err := p.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*events.Result, error) {
		out, err := p.run(ctx, archives)
		if err != nil {
			return nil, err
		}
		return &events.Result{
			Events:      slices.Collect(out.Events),
			Diagnostics: out.Diagnostics,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &Output{
		Events:      slices.Values(res.Events),
		Diagnostics: res.Diagnostics,
	}, nil
}

// task is one unit of work. A task with a non-nil err only reports that error.
type task struct {
	file       archive.File
	sourceFile string
	locale     string
	err        error
}

func (p *Pipeline) run(ctx context.Context, archives []archive.Archive) (*Output, error) {
	startTime := time.Now()
	tasks := p.tasks(ctx, archives)
	diags := newDiagnostics(p.metrics)
	results := make([][]events.Event, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.cfg.Workers, 1))
	for i, t := range tasks {
		if gctx.Err() != nil {
			break
		}
		if t.err != nil {
			diags.add(i, t.err)
			continue
		}
		g.Go(func() error {
			evts, err := p.parseFile(gctx, t, func(err error) { diags.add(i, err) })
			if err != nil {
				return err
			}
			results[i] = evts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run was cancelled: %w", err)
	}

	seqs := make([]iter.Seq[events.Event], 0, len(results))
	numEvents := 0
	for _, evts := range results {
		if len(evts) == 0 {
			continue
		}
		numEvents += len(evts)
		seqs = append(seqs, merge.Sorted(slices.Values(evts)))
	}
	out := &Output{
		Events:      p.countDuplicates(seqs),
		Diagnostics: diags.all(len(tasks)),
	}
	p.logger.InfoContext(ctx, "parsed archives",
		slog.Int("numArchives", len(archives)),
		slog.Int("numFiles", len(tasks)),
		slog.Int("numEvents", numEvents),
		slog.Int("numDiagnostics", len(out.Diagnostics)),
		slog.Duration("duration", time.Since(startTime)))
	return out, nil
}

func (p *Pipeline) countDuplicates(seqs []iter.Seq[events.Event]) iter.Seq[events.Event] {
	return func(yield func(events.Event) bool) {
		var stats merge.Stats
		defer func() {
			if p.metrics != nil {
				p.metrics.DuplicatesDropped.Add(float64(stats.Duplicates))
			}
		}()
		for evt := range merge.MergeWithStats(&stats, seqs...) {
			if !yield(evt) {
				return
			}
		}
	}
}

// tasks lists the files of every archive in archive order.
func (p *Pipeline) tasks(ctx context.Context, archives []archive.Archive) []task {
	var ret []task
	for _, a := range archives {
		name := func(path string) string {
			if len(archives) > 1 {
				return a.Name() + "/" + path
			}
			return path
		}
		archiveLocale, err := a.Locale()
		if err != nil {
			p.logger.WarnContext(ctx, "failed to read archive locale, will use locale from paths or default",
				slog.String("archiveName", a.Name()),
				slog.Any("error", err))
			archiveLocale = ""
		}
		if archiveLocale != "" {
			if _, err := p.table.Lookup(archiveLocale); err != nil {
				p.logger.WarnContext(ctx, "archive declares unknown locale, will use locale from paths or default",
					slog.String("archiveName", a.Name()),
					slog.String("locale", archiveLocale))
				ret = append(ret, task{err: events.NewParseError(name(archive.MetadataFile), "", err)})
				archiveLocale = ""
			}
		}
		for f, err := range a.Files() {
			if err != nil {
				ret = append(ret, task{err: events.NewParseError(name(f.Path), "", fmt.Errorf("%w: %w", events.ErrUnreadable, err))})
				continue
			}
			if f.IsMetadata() {
				continue
			}
			ret = append(ret, task{file: f, sourceFile: name(f.Path), locale: archiveLocale})
		}
	}
	return ret
}

type source struct {
	archive.File
	name string
}

func (s source) Name() string {
	return s.name
}

// parseFile returns the events of one file. Diagnostics are reported through diag. An error is
// only returned when it should abort the whole run.
func (p *Pipeline) parseFile(ctx context.Context, t task, diag func(error)) ([]events.Event, error) {
	startTime := time.Now()
	logger := p.logger.With(slog.String("fileName", t.sourceFile))
	cls, err := p.detector.Classify(t.file.Path, detect.ReaderProbe(t.file.Open))
	if err != nil {
		p.countFile("unrecognized")
		if errors.Is(err, events.ErrUnrecognizedFormat) && p.cfg.UnknownFiles == config.UnknownFilesError {
			return nil, fmt.Errorf("unrecognized file=%s: %w", t.sourceFile, err)
		}
		logger.DebugContext(ctx, "skipping file", slog.Any("error", err))
		diag(events.NewParseError(t.sourceFile, "", err))
		return nil, nil
	}
	p.countFile(string(cls.Kind))

	tag := t.locale
	if tag == "" {
		tag = cls.Locale
	}
	grammar, _, err := p.table.Resolve(tag, p.cfg.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve locale for file=%s: %w", t.sourceFile, err)
	}

	var ret []events.Event
	for evt, err := range p.parser.Parse(ctx, source{File: t.file, name: t.sourceFile}, cls, grammar) {
		if err != nil {
			diag(err)
			continue
		}
		ret = append(ret, evt)
		if p.metrics != nil {
			p.metrics.Events.WithLabelValues(string(evt.Product)).Inc()
		}
	}
	if p.metrics != nil {
		p.metrics.FileParseDurations.Observe(time.Since(startTime).Seconds())
	}
	logger.DebugContext(ctx, "parsed file",
		slog.String("product", string(cls.Product)),
		slog.String("kind", string(cls.Kind)),
		slog.String("locale", grammar.Tag),
		slog.Int("numEvents", len(ret)),
		slog.Duration("duration", time.Since(startTime)))
	return ret, nil
}

func (p *Pipeline) countFile(kind string) {
	if p.metrics != nil {
		p.metrics.Files.WithLabelValues(kind).Inc()
	}
}
