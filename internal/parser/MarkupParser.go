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
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/jackbister/takeoutsuck/internal/detect"
	"github.com/jackbister/takeoutsuck/internal/locale"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
)

const (
	outerCellSelector = "div.outer-cell"
	// The body cell holds the entry itself. Caption cells list products/details and the
	// right-aligned cell is always empty.
	bodyCellSelector = "div.content-cell:not(.mdl-typography--caption):not(.mdl-typography--text-right)"
)

// MarkupParser extracts events from the HTML activity pages of an export.
type MarkupParser struct {
	Logger *slog.Logger
}

// Parse yields one Event or one error per entry block in src. The returned errors are always
// *events.ParseError. Each iteration re-reads src.
func (p *MarkupParser) Parse(ctx context.Context, src Source, cls detect.Classification, grammar *locale.Grammar) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		rc, err := src.Open()
		if err != nil {
			yield(events.Event{}, events.NewParseError(src.Name(), "", fmt.Errorf("failed to open file: %w: %w", events.ErrUnreadable, err)))
			return
		}
		doc, err := goquery.NewDocumentFromReader(rc)
		rc.Close()
		if err != nil {
			yield(events.Event{}, events.NewParseError(src.Name(), "", fmt.Errorf("failed to read document: %w: %w", events.ErrUnreadable, err)))
			return
		}
		blocks := findBlocks(doc, cls.Revision)
		p.Logger.DebugContext(ctx, "parsing markup file",
			slog.String("fileName", src.Name()),
			slog.String("revision", string(cls.Revision)),
			slog.String("locale", grammar.Tag),
			slog.Int("numBlocks", blocks.Length()))
		for i := range blocks.Nodes {
			evt, err := parseBlock(blocks.Eq(i), cls, grammar, src.Name())
			if err != nil {
				if !yield(events.Event{}, err) {
					return
				}
				continue
			}
			if !yield(evt, nil) {
				return
			}
		}
	}
}

func findBlocks(doc *goquery.Document, rev detect.Revision) *goquery.Selection {
	if rev == detect.RevisionUnknown {
		if doc.Find(outerCellSelector).Length() > 0 {
			rev = detect.RevisionOuterCell
		} else {
			rev = detect.RevisionCells
		}
	}
	if rev == detect.RevisionCells {
		return doc.Find(bodyCellSelector)
	}
	return doc.Find(outerCellSelector)
}

func parseBlock(block *goquery.Selection, cls detect.Classification, grammar *locale.Grammar, sourceFile string) (events.Event, error) {
	body := block
	if !block.Is(bodyCellSelector) {
		if cell := block.Find(bodyCellSelector).First(); cell.Length() > 0 {
			body = cell
		}
	}
	fragment := func() string {
		s, _ := goquery.OuterHtml(body)
		return s
	}

	lines := splitLines(body)
	if len(lines) == 0 || !strings.ContainsFunc(lines[len(lines)-1], unicode.IsDigit) {
		return events.Event{}, events.NewParseError(sourceFile, fragment(), events.ErrMissingTimestamp)
	}
	ts, err := grammar.ParseTimestamp(lines[len(lines)-1])
	if err != nil {
		return events.Event{}, events.NewParseError(sourceFile, fragment(), fmt.Errorf("%w: %w", events.ErrMalformedRecord, err))
	}

	evt := events.Event{
		Timestamp:  ts,
		Product:    cls.Product,
		Locale:     grammar.Tag,
		SourceFile: sourceFile,
	}
	if len(lines) > 1 {
		evt.Action, evt.Title = grammar.SplitConnector(lines[0])
		evt.Description = strings.Join(lines[1:len(lines)-1], "\n")
	}
	body.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href := strings.TrimSpace(a.AttrOr("href", "")); href != "" {
			evt.URLs = append(evt.URLs, href)
		}
	})
	return evt, nil
}

// splitLines returns the non-empty, whitespace normalized text lines of cell, split on <br>.
// Text of any other nested element is kept as part of the current line.
func splitLines(cell *goquery.Selection) []string {
	var lines []string
	var sb strings.Builder
	flush := func() {
		if l := locale.NormalizeSpace(sb.String()); l != "" {
			lines = append(lines, l)
		}
		sb.Reset()
	}
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "br":
				flush()
			case "#text":
				sb.WriteString(c.Text())
			case "script", "style", "#comment":
			default:
				walk(c)
			}
		})
	}
	walk(cell)
	flush()
	return lines
}
