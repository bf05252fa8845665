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

package dependencyinjection

import (
	"context"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/jackbister/takeoutsuck/internal/cache"
	"github.com/jackbister/takeoutsuck/internal/ingest"
	"github.com/jackbister/takeoutsuck/internal/tasks"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/config"
	"github.com/jackbister/takeoutsuck/plugins/sqlite_common"

	"go.uber.org/dig"
)

func TestGetUsedPlugins(t *testing.T) {
	cfg := config.Default()
	if plugins := GetUsedPlugins(cfg); len(plugins) != 0 {
		t.Errorf("expected no plugins without configuration but got %v", len(plugins))
	}
	cfg.Plugins[sqlite_common.PluginName] = map[string]any{"fileName": ":memory:"}
	plugins := GetUsedPlugins(cfg)
	if len(plugins) != 2 || plugins[0].Name != sqlite_common.PluginName {
		t.Errorf("expected sqlite plugins but got %v", plugins)
	}
	cfg.Plugins["@takeoutsuck/postgres_common"] = map[string]any{"connectionString": "postgres://localhost/x"}
	if plugins := GetUsedPlugins(cfg); plugins[0].Name != "@takeoutsuck/postgres_common" {
		t.Errorf("expected postgres to win but got %v", plugins[0].Name)
	}
}

func resolveCache(t *testing.T, cfg *config.Config) cache.Cache {
	t.Helper()
	c, err := InjectionContextFromConfig(context.Background(), cfg, slog.Default())
	if err != nil {
		t.Fatalf("got error when creating injection context: %v", err)
	}
	var ret cache.Cache
	err = c.Invoke(func(p *ingest.Pipeline, ch cache.Cache) {
		ret = ch
	})
	if err != nil {
		t.Fatalf("got error when resolving pipeline: %v", err)
	}
	return ret
}

func TestInjectionContext_WithoutCache(t *testing.T) {
	if _, ok := resolveCache(t, config.Default()).(cache.Nop); !ok {
		t.Error("expected cache.Nop when no cache plugin is configured")
	}
}

func TestInjectionContext_SqliteCache(t *testing.T) {
	cfg := config.Default()
	cfg.Plugins[sqlite_common.PluginName] = map[string]any{"fileName": ":memory:"}
	if _, ok := resolveCache(t, cfg).(*cache.RepositoryCache); !ok {
		t.Error("expected *cache.RepositoryCache when the sqlite plugin is configured")
	}
}

func TestInjectionContext_ConfigSchema(t *testing.T) {
	cfg := config.Default()
	cfg.Plugins[sqlite_common.PluginName] = map[string]any{"fileName": ":memory:"}
	c, err := InjectionContextFromConfig(context.Background(), cfg, slog.Default())
	if err != nil {
		t.Fatalf("got error when creating injection context: %v", err)
	}
	err = c.Invoke(func(p struct {
		dig.In
		Schema map[string]any `name:"configSchema"`
	}) {
		plugins := p.Schema["properties"].(map[string]any)["plugins"].(map[string]any)["properties"].(map[string]any)
		if _, ok := plugins[sqlite_common.PluginName]; !ok {
			t.Errorf("expected sqlite_common schema in config schema but got %v", plugins)
		}
	})
	if err != nil {
		t.Fatalf("got error when resolving config schema: %v", err)
	}
}

func TestInjectionContext_Tasks(t *testing.T) {
	for _, tt := range []struct {
		name     string
		cache    bool
		maxAge   time.Duration
		expected []string
	}{
		{"noCache", false, time.Hour, nil},
		{"noMaxAge", true, 0, nil},
		{"prune", true, time.Hour, []string{"@takeoutsuck/PruneCacheTask"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.CacheMaxAge = tt.maxAge
			if tt.cache {
				cfg.Plugins[sqlite_common.PluginName] = map[string]any{"fileName": ":memory:"}
			}
			c, err := InjectionContextFromConfig(context.Background(), cfg, slog.Default())
			if err != nil {
				t.Fatalf("got error when creating injection context: %v", err)
			}
			err = c.Invoke(func(tm *tasks.TaskManager) {
				if actual := tm.Names(); !reflect.DeepEqual(tt.expected, actual) {
					t.Errorf("expected tasks %v but got %v", tt.expected, actual)
				}
			})
			if err != nil {
				t.Fatalf("got error when resolving task manager: %v", err)
			}
		})
	}
}
