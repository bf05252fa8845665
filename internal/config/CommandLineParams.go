// Copyright 2023 Jack Bister
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
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/config"
	"github.com/jackbister/takeoutsuck/plugins/sqlite_common"
)

type CommandLineFlags struct {
	CfgFile       string
	CacheFile     string
	CacheMaxAge   string
	DefaultLocale string
	LocaleDir     string
	LogFormat     string
	LogLevel      string
	MetricsAddr   string
	PrintEvents   bool
	PrintVersion  bool
	UnknownFiles  string
	Verbose       bool
	Workers       int
}

// ParseCommandLine parses args with flags. The remaining arguments are available through flags.Args.
func ParseCommandLine(flags *flag.FlagSet, args []string) (*CommandLineFlags, error) {
	ret := CommandLineFlags{}
	flags.StringVar(&ret.CfgFile, "config", "takeoutsuck.json", "The name of the file containing the configuration for takeoutsuck. If a config file exists, all other command line configuration except -cache will be ignored.")
	flags.StringVar(&ret.CacheFile, "cache", "", "Enables the result cache and sets the name of the SQLite file it is stored in. Archives whose content has not changed since they were last parsed are then read from the cache. If the name ':memory:' is used, the cache only lives for the duration of the process.")
	flags.StringVar(&ret.CacheMaxAge, "cachemaxage", "", "How long cached results are kept, for example 30d. Results are kept forever if not set.")
	flags.StringVar(&ret.DefaultLocale, "locale", "en", "The locale used for archives that do not declare one, and for archives whose locale is not supported.")
	flags.StringVar(&ret.LocaleDir, "localedir", "", "A directory containing additional locale grammars as YAML files. Grammars in this directory override the bundled grammars with the same tag.")
	flags.StringVar(&ret.LogFormat, "logformat", "text", "The format of log output. Either 'text' or 'json'.")
	flags.StringVar(&ret.LogLevel, "loglevel", "info", "The minimum level of log output. One of 'debug', 'info', 'warn' or 'error'.")
	flags.StringVar(&ret.MetricsAddr, "metricsaddr", "", "If set, Prometheus metrics will be served on this address under /metrics.")
	flags.BoolVar(&ret.PrintEvents, "events", false, "Print every event as a line of JSON before the summary.")
	flags.BoolVar(&ret.PrintVersion, "version", false, "Print version info and quit.")
	flags.StringVar(&ret.UnknownFiles, "unknownfiles", "warn", "What to do when an archive contains a file that cannot be recognized. 'warn' reports the file in the diagnostics and continues, 'error' stops the run.")
	flags.BoolVar(&ret.Verbose, "v", false, "Print every diagnostic instead of only a summary.")
	flags.IntVar(&ret.Workers, "workers", 0, "The number of files to parse concurrently. Defaults to the number of CPUs.")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (c *CommandLineFlags) ToConfig(logger *slog.Logger) (*config.Config, error) {
	var cfg *config.Config
	cfgFile, err := os.Open(c.CfgFile)
	if err == nil {
		defer cfgFile.Close()
		var jsonCfg config.JsonConfig
		err = json.NewDecoder(cfgFile).Decode(&jsonCfg)
		if err != nil {
			return nil, fmt.Errorf("error decoding json from config file=%s: %w", c.CfgFile, err)
		}
		cfg, err = config.FromJSON(jsonCfg, logger.With(slog.String("component", "configFromJSON")))
		if err != nil {
			return nil, fmt.Errorf("error parsing configuration from config file=%s: %w", c.CfgFile, err)
		}
		logger.Info("using configuration from file", slog.String("fileName", c.CfgFile))
	} else {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error opening config file=%s: %w", c.CfgFile, err)
		}
		logger.Debug("could not find config file, will use command line configuration", slog.String("fileName", c.CfgFile))
		workers := &c.Workers
		if c.Workers == 0 {
			workers = nil
		}
		cfg, err = config.FromJSON(config.JsonConfig{
			DefaultLocale: c.DefaultLocale,
			UnknownFiles:  c.UnknownFiles,
			Workers:       workers,
			LogFormat:     c.LogFormat,
			LogLevel:      c.LogLevel,
			LocaleDir:     c.LocaleDir,
			MetricsAddr:   c.MetricsAddr,
			CacheMaxAge:   c.CacheMaxAge,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("error parsing command line configuration: %w", err)
		}
	}
	if c.CacheFile != "" {
		cfg.Plugins[sqlite_common.PluginName] = map[string]any{
			"fileName": c.CacheFile,
		}
	}
	return cfg, nil
}
