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

package sqlite_common

import (
	"log/slog"
	"testing"

	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/config"
	"go.uber.org/dig"
)

var configTests = []struct {
	name        string
	pluginCfg   any
	expectedDsn string
}{
	{"default file", nil, "file:takeoutsuck.db?_journal_mode=WAL"},
	{"configured file", map[string]any{"fileName": "cache.db"}, "file:cache.db?_journal_mode=WAL"},
	{"in memory", map[string]any{"fileName": ":memory:"}, "file::memory:?_journal_mode=WAL&cache=shared"},
}

func TestProvide_ReadsConfigUnderPluginName(t *testing.T) {
	if Plugin.Name != PluginName {
		t.Errorf("expected plugin to be registered as %v but got %v", PluginName, Plugin.Name)
	}
	for _, tt := range configTests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.pluginCfg != nil {
				cfg.Plugins[PluginName] = tt.pluginCfg
			}
			c := dig.New()
			if err := c.Provide(func() *config.Config { return cfg }); err != nil {
				t.Fatalf("got error when providing config: %v", err)
			}
			if err := Plugin.Provide(c, slog.Default()); err != nil {
				t.Fatalf("got error when providing plugin: %v", err)
			}
			err := c.Invoke(func(p struct {
				dig.In

				Driver string `name:"sqlDriver"`
				Dsn    string `name:"sqlDataSourceName"`
			}) {
				if p.Driver != "sqlite3" {
					t.Errorf("got unexpected driver=%v", p.Driver)
				}
				if p.Dsn != tt.expectedDsn {
					t.Errorf("expected dsn=%v but got %v", tt.expectedDsn, p.Dsn)
				}
			})
			if err != nil {
				t.Fatalf("got error when invoking: %v", err)
			}
		})
	}
}
