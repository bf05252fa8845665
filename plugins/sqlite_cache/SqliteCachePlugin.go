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

package sqlite_cache

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/config"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/dig"
)

const pluginName = "@takeoutsuck/sqlite_cache"

//go:embed sqlite_cache.schema.json
var schemaString string

type Config struct {
	TrueBatch bool
}

var Plugin = takeoutsuck.Plugin{
	Name: pluginName,
	Provide: func(c *dig.Container, logger *slog.Logger) error {
		err := c.Provide(NewSqliteCacheRepository)
		if err != nil {
			return err
		}
		err = c.Provide(func(cfg *config.Config) *Config {
			ret := Config{
				TrueBatch: true,
			}
			cfgMap, ok := cfg.Plugins[pluginName].(map[string]any)
			if !ok {
				return &ret
			}
			if fns, ok := cfgMap["trueBatch"].(bool); ok {
				ret.TrueBatch = fns
			}
			return &ret
		})
		if err != nil {
			return err
		}
		return nil
	},
	JsonSchema: func() (map[string]any, error) {
		ret := map[string]any{}
		err := json.Unmarshal([]byte(schemaString), &ret)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal sqlite_cache JSON schema: %w", err)
		}
		return ret, nil
	},
}
