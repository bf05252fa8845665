// Copyright 2024 Jack Bister
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
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/config"
	"github.com/jackbister/takeoutsuck/plugins/postgres_cache"
	"github.com/jackbister/takeoutsuck/plugins/postgres_common"
	"github.com/jackbister/takeoutsuck/plugins/sqlite_cache"
	"github.com/jackbister/takeoutsuck/plugins/sqlite_common"
)

// GetUsedPlugins picks the cache backend from the plugins section of the configuration.
// PostgreSQL wins if both are configured. Without either, results are not cached.
func GetUsedPlugins(cfg *config.Config) []takeoutsuck.Plugin {
	if _, ok := cfg.Plugins[postgres_common.Plugin.Name]; ok {
		return []takeoutsuck.Plugin{
			postgres_common.Plugin,
			postgres_cache.Plugin,
		}
	}
	if _, ok := cfg.Plugins[sqlite_common.Plugin.Name]; ok {
		return []takeoutsuck.Plugin{
			sqlite_common.Plugin,
			sqlite_cache.Plugin,
		}
	}
	return nil
}
