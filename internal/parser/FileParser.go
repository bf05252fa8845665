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

	"github.com/jackbister/takeoutsuck/internal/detect"
	"github.com/jackbister/takeoutsuck/internal/locale"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
)

// FileParser dispatches a classified file to the markup or structured parser.
type FileParser struct {
	Markup     *MarkupParser
	Structured *StructuredParser
}

func NewFileParser(logger *slog.Logger) *FileParser {
	return &FileParser{
		Markup:     &MarkupParser{Logger: logger},
		Structured: &StructuredParser{Logger: logger},
	}
}

func (p *FileParser) Parse(ctx context.Context, src Source, cls detect.Classification, grammar *locale.Grammar) iter.Seq2[events.Event, error] {
	switch cls.Kind {
	case detect.KindMarkup:
		return p.Markup.Parse(ctx, src, cls, grammar)
	case detect.KindStructured:
		return p.Structured.Parse(ctx, src, cls, grammar.Tag)
	}
	return func(yield func(events.Event, error) bool) {
		yield(events.Event{}, events.NewParseError(src.Name(), "", fmt.Errorf("kind=%q: %w", cls.Kind, events.ErrUnrecognizedFormat)))
	}
}
