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

package dependencyinjection

import (
	"context"
	"log/slog"

	internalConfig "github.com/jackbister/takeoutsuck/internal/config"
	"github.com/jackbister/takeoutsuck/internal/cache"
	"github.com/jackbister/takeoutsuck/internal/detect"
	"github.com/jackbister/takeoutsuck/internal/ingest"
	"github.com/jackbister/takeoutsuck/internal/locale"
	"github.com/jackbister/takeoutsuck/internal/metrics"
	"github.com/jackbister/takeoutsuck/internal/parser"
	"github.com/jackbister/takeoutsuck/internal/tasks"

	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/config"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"
)

func InjectionContextFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dig.Container, error) {
	c := dig.New()
	err := provideBasics(c, ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	pluginSchemas := map[string]any{}
	for _, p := range GetUsedPlugins(cfg) {
		logger.Info("Loading plugin", slog.String("pluginName", p.Name))
		err = p.Provide(c, logger)
		if err != nil {
			return nil, err
		}
		if p.JsonSchema != nil {
			schema, err := p.JsonSchema()
			if err != nil {
				return nil, err
			}
			pluginSchemas[p.Name] = schema
		}
	}
	err = c.Provide(func() (map[string]any, error) {
		return internalConfig.CreateSchema(pluginSchemas)
	}, dig.Name("configSchema"))
	if err != nil {
		return nil, err
	}

	err = provideMetrics(c)
	if err != nil {
		return nil, err
	}
	err = provideParsing(c)
	if err != nil {
		return nil, err
	}
	err = provideCache(c)
	if err != nil {
		return nil, err
	}
	err = provideTasks(c)
	if err != nil {
		return nil, err
	}
	err = c.Provide(ingest.NewPipeline)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func provideBasics(c *dig.Container, ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	err := c.Provide(func() *slog.Logger {
		return logger
	})
	if err != nil {
		return err
	}
	err = c.Provide(func() *config.Config {
		return cfg
	})
	if err != nil {
		return err
	}
	err = c.Provide(func() context.Context {
		return ctx
	})
	if err != nil {
		return err
	}
	return nil
}

func provideMetrics(c *dig.Container) error {
	err := c.Provide(prometheus.NewRegistry)
	if err != nil {
		return err
	}
	err = c.Provide(func(reg *prometheus.Registry) (*metrics.Metrics, error) {
		return metrics.New(reg)
	})
	if err != nil {
		return err
	}
	return nil
}

func provideParsing(c *dig.Container) error {
	err := c.Provide(func(cfg *config.Config, logger *slog.Logger) *locale.Table {
		sources := []locale.ResourceSource{locale.BundledSource{}}
		if cfg.LocaleDir != "" {
			sources = append(sources, locale.DirSource{Dir: cfg.LocaleDir})
		}
		return locale.NewTable(logger, sources...)
	})
	if err != nil {
		return err
	}
	err = c.Provide(detect.NewDetector)
	if err != nil {
		return err
	}
	err = c.Provide(parser.NewFileParser)
	if err != nil {
		return err
	}
	return nil
}

// provideCache provides a cache.Cache backed by whichever cache.Repository a plugin provided,
// or cache.Nop if no plugin did.
func provideCache(c *dig.Container) error {
	return c.Provide(func(p struct {
		dig.In

		Repo    cache.Repository `optional:"true"`
		Metrics *metrics.Metrics
		Logger  *slog.Logger
	}) cache.Cache {
		if p.Repo == nil {
			return cache.Nop{}
		}
		return cache.NewRepositoryCache(p.Repo, p.Metrics, p.Logger)
	})
}

type taskResult struct {
	dig.Out

	Tasks []tasks.Task `group:"tasks,flatten"`
}

// provideTasks provides the TaskManager. Cache pruning is only added when a cache plugin is
// loaded, its repository supports it and a max age is configured.
func provideTasks(c *dig.Container) error {
	err := c.Provide(func(p struct {
		dig.In

		Cfg    *config.Config
		Repo   cache.Repository `optional:"true"`
		Logger *slog.Logger
	}) taskResult {
		pruner, ok := p.Repo.(cache.Pruner)
		if !ok || p.Cfg.CacheMaxAge <= 0 {
			return taskResult{}
		}
		return taskResult{Tasks: []tasks.Task{tasks.NewPruneCacheTask(pruner, p.Cfg.CacheMaxAge, p.Logger)}}
	})
	if err != nil {
		return err
	}
	return c.Provide(tasks.NewTaskManager)
}
