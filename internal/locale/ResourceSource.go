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

package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

//go:embed resources/*.yaml
var bundled embed.FS

// ResourceSource supplies raw grammar definitions, keyed by resource name.
type ResourceSource interface {
	Resources() (map[string][]byte, error)
}

// BundledSource returns the grammars compiled into the binary.
type BundledSource struct{}

func (BundledSource) Resources() (map[string][]byte, error) {
	return readYamlFiles(bundled, "resources")
}

// DirSource reads every *.yaml file in Dir.
type DirSource struct {
	Dir string
}

func (d DirSource) Resources() (map[string][]byte, error) {
	if _, err := os.Stat(d.Dir); err != nil {
		return nil, fmt.Errorf("failed to stat locale directory=%s: %w", d.Dir, err)
	}
	return readYamlFiles(os.DirFS(filepath.Clean(d.Dir)), ".")
}

func readYamlFiles(fsys fs.FS, dir string) (map[string][]byte, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	ret := make(map[string][]byte, len(names))
	for _, name := range names {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read locale resource=%s: %w", name, err)
		}
		ret[path.Base(name)] = b
	}
	return ret, nil
}
