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

package config

import (
	"log/slog"
	"time"
)

// UnknownFilesPolicy decides what happens when an archive contains a file no parser recognizes.
type UnknownFilesPolicy string

const (
	// UnknownFilesWarn records a diagnostic and continues.
	UnknownFilesWarn UnknownFilesPolicy = "warn"
	// UnknownFilesError aborts the run on the first unrecognized file.
	UnknownFilesError UnknownFilesPolicy = "error"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJson LogFormat = "json"
)

type Config struct {
	// DefaultLocale is used for archives that do not declare a locale, and as the fallback
	// for archives whose locale has no grammar.
	DefaultLocale string
	UnknownFiles  UnknownFilesPolicy
	// Workers is the number of files parsed concurrently.
	Workers int

	LogFormat LogFormat
	LogLevel  slog.Level

	// LocaleDir is an optional directory of extra grammar files.
	LocaleDir string
	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string
	// CacheMaxAge is how long cached results are kept. Zero keeps them forever.
	CacheMaxAge time.Duration

	Plugins map[string]any
}
