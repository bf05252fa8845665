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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	internalConfig "github.com/jackbister/takeoutsuck/internal/config"
	"github.com/jackbister/takeoutsuck/internal/archive"
	"github.com/jackbister/takeoutsuck/internal/dependencyinjection"
	"github.com/jackbister/takeoutsuck/internal/files"
	"github.com/jackbister/takeoutsuck/internal/ingest"
	"github.com/jackbister/takeoutsuck/internal/locale"
	"github.com/jackbister/takeoutsuck/internal/metrics"
	"github.com/jackbister/takeoutsuck/internal/tasks"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/config"

	charmlog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"
)

var versionString string // This must be set using -ldflags "-X main.versionString=<version>" when building for --version to work

const usage = `usage: takeoutsuck [flags] <command> [args]

commands:
  parse <dir|zip>         parse a single export
  merge <dir|zip>...      parse several exports and merge them into one timeline
  watch <dir>             merge every export in dir whenever one is added or changed
  locales                 list the supported locales
  schema                  print the JSON schema of the configuration file

flags:
`

type commandParams struct {
	dig.In

	Pipeline     *ingest.Pipeline
	Table        *locale.Table
	Registry     *prometheus.Registry
	Tasks        *tasks.TaskManager
	ConfigSchema map[string]any `name:"configSchema"`
}

func main() {
	bootstrapLogger := slog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{ReportTimestamp: true}))
	flag.CommandLine.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.CommandLine.PrintDefaults()
	}
	flags, err := internalConfig.ParseCommandLine(flag.CommandLine, os.Args[1:])
	if err != nil {
		fatal(bootstrapLogger, "failed to parse command line", err)
	}

	if flags.PrintVersion {
		if versionString == "" {
			fmt.Println("(unknown version)")
			return
		}
		fmt.Println(versionString)
		return
	}

	args := flag.CommandLine.Args()
	if len(args) == 0 {
		flag.CommandLine.Usage()
		os.Exit(2)
	}

	cfg, err := flags.ToConfig(bootstrapLogger)
	if err != nil {
		fatal(bootstrapLogger, "failed to read configuration", err)
	}
	logger := newLogger(cfg).With(slog.String("runId", uuid.NewString()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c, err := dependencyinjection.InjectionContextFromConfig(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "failed to create injection context", err)
	}

	err = c.Invoke(func(p commandParams) error {
		if cfg.MetricsAddr != "" {
			gin.SetMode(gin.ReleaseMode)
			go func() {
				logger.Info("serving metrics", slog.String("address", cfg.MetricsAddr))
				err := metrics.Handler(p.Registry, logger).Run(cfg.MetricsAddr)
				logger.Error("metrics server stopped", slog.Any("error", err))
			}()
		}
		if names := p.Tasks.Names(); len(names) > 0 {
			logger.Debug("running startup tasks", slog.Any("taskNames", names))
			p.Tasks.RunAll()
		}
		return runCommand(ctx, p, flags, args, logger)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("interrupted")
			os.Exit(130)
		}
		fatal(logger, "command failed", err)
	}
}

func runCommand(ctx context.Context, p commandParams, flags *internalConfig.CommandLineFlags, args []string, logger *slog.Logger) error {
	switch args[0] {
	case "parse":
		if len(args) != 2 {
			return fmt.Errorf("parse expects exactly one archive but got %v", len(args)-1)
		}
		return runArchives(ctx, p.Pipeline, args[1:], flags, os.Stdout)
	case "merge":
		if len(args) < 2 {
			return errors.New("merge expects at least one archive")
		}
		return runArchives(ctx, p.Pipeline, args[1:], flags, os.Stdout)
	case "watch":
		if len(args) != 2 {
			return fmt.Errorf("watch expects exactly one directory but got %v", len(args)-1)
		}
		tw, err := files.NewTakeoutWatcher(args[1], files.DefaultDebounce, func(ctx context.Context, paths []string) {
			err := runArchives(ctx, p.Pipeline, paths, flags, os.Stdout)
			if err != nil && ctx.Err() == nil {
				logger.Error("failed to merge archives", slog.Any("paths", paths), slog.Any("error", err))
			}
		}, logger)
		if err != nil {
			return err
		}
		p.Tasks.Schedule(time.Hour)
		return tw.Start(ctx)
	case "locales":
		tags, err := p.Table.Tags()
		if err != nil {
			return err
		}
		for _, tag := range tags {
			fmt.Println(tag)
		}
		return nil
	case "schema":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p.ConfigSchema)
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func runArchives(ctx context.Context, pipeline *ingest.Pipeline, paths []string, flags *internalConfig.CommandLineFlags, w io.Writer) error {
	archives := make([]archive.Archive, 0, len(paths))
	defer func() {
		for _, a := range archives {
			a.Close()
		}
	}()
	for _, path := range paths {
		a, err := archive.Open(path)
		if err != nil {
			return err
		}
		archives = append(archives, a)
	}

	out, err := pipeline.Run(ctx, archives...)
	if err != nil {
		return err
	}
	summaryOut := w
	var eventsOut io.Writer
	if flags.PrintEvents {
		eventsOut = w
		summaryOut = os.Stderr
	}
	s, err := summarize(out, eventsOut)
	if err != nil {
		return err
	}
	return s.write(summaryOut, flags.Verbose)
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == config.LogFormatJson {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	}
	return slog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Level:           charmlog.Level(cfg.LogLevel),
	}))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
