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
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

type JsonConfig struct {
	DefaultLocale string `json:"defaultLocale"`
	UnknownFiles  string `json:"unknownFiles"`
	Workers       *int   `json:"workers"`

	LogFormat string `json:"logFormat"`
	LogLevel  string `json:"logLevel"`

	LocaleDir   string `json:"localeDir"`
	MetricsAddr string `json:"metricsAddr"`
	CacheMaxAge string `json:"cacheMaxAge"`

	Plugins map[string]any `json:"plugins"`
}

var defaultConfig = Config{
	DefaultLocale: "en",
	UnknownFiles:  UnknownFilesWarn,
	LogFormat:     LogFormatText,
	LogLevel:      slog.LevelInfo,
}

// Default returns the configuration used when no configuration file exists.
func Default() *Config {
	cfg := defaultConfig
	cfg.Workers = runtime.NumCPU()
	cfg.Plugins = map[string]any{}
	return &cfg
}

func FromJSON(cfg JsonConfig, logger *slog.Logger) (*Config, error) {
	ret := Default()

	if cfg.DefaultLocale == "" {
		logger.Info("Using default locale",
			slog.String("defaultLocale", ret.DefaultLocale))
	} else {
		ret.DefaultLocale = cfg.DefaultLocale
	}

	switch UnknownFilesPolicy(strings.ToLower(cfg.UnknownFiles)) {
	case "":
		logger.Info("unknownFiles not specified, defaulting to warn")
	case UnknownFilesWarn:
		ret.UnknownFiles = UnknownFilesWarn
	case UnknownFilesError:
		ret.UnknownFiles = UnknownFilesError
	default:
		return nil, fmt.Errorf("got invalid unknownFiles=%q, expected %q or %q", cfg.UnknownFiles, UnknownFilesWarn, UnknownFilesError)
	}

	if cfg.Workers == nil {
		logger.Info("Using default number of workers",
			slog.Int("defaultWorkers", ret.Workers))
	} else if *cfg.Workers < 1 {
		return nil, fmt.Errorf("got invalid workers=%v, must be at least 1", *cfg.Workers)
	} else {
		ret.Workers = *cfg.Workers
	}

	switch LogFormat(strings.ToLower(cfg.LogFormat)) {
	case "":
	case LogFormatText:
		ret.LogFormat = LogFormatText
	case LogFormatJson:
		ret.LogFormat = LogFormatJson
	default:
		return nil, fmt.Errorf("got invalid logFormat=%q, expected %q or %q", cfg.LogFormat, LogFormatText, LogFormatJson)
	}

	if cfg.LogLevel != "" {
		if err := ret.LogLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("got invalid logLevel=%q: %w", cfg.LogLevel, err)
		}
	}

	if cfg.CacheMaxAge != "" {
		d, err := ParseDuration(cfg.CacheMaxAge)
		if err != nil {
			return nil, fmt.Errorf("got invalid cacheMaxAge: %w", err)
		}
		ret.CacheMaxAge = d
	}

	ret.LocaleDir = cfg.LocaleDir
	ret.MetricsAddr = cfg.MetricsAddr
	if cfg.Plugins != nil {
		ret.Plugins = cfg.Plugins
	}
	return ret, nil
}
