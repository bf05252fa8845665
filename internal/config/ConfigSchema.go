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
	_ "embed"
	"encoding/json"
	"fmt"
	"maps"
)

//go:embed "takeoutsuck-config.schema.json"
var schemaString string

func GetBaseSchema() (map[string]any, error) {
	ret := map[string]any{}
	err := json.Unmarshal([]byte(schemaString), &ret)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal takeoutsuck JSON schema: %w", err)
	}
	return ret, nil
}

func MergeSchemas(a, b map[string]any) map[string]any {
	m := map[string]any{}
	maps.Copy(m, a)
	maps.Copy(m, b)
	return m
}

// CreateSchema returns the JSON schema of the configuration file with the schemas of the
// given plugins under "plugins".
func CreateSchema(pluginSchemas map[string]any) (map[string]any, error) {
	configSchema, err := GetBaseSchema()
	if err != nil {
		return nil, err
	}
	ps := map[string]any{
		"type":       "object",
		"properties": pluginSchemas,
	}
	props, ok := configSchema["properties"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("takeoutsuck JSON schema has no properties object")
	}
	configSchema["properties"] = MergeSchemas(props, map[string]any{
		"plugins": ps,
	})
	return configSchema, nil
}
