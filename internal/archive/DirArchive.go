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

package archive

import (
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// DirArchive is an export that has already been unpacked to a directory.
type DirArchive struct {
	root string
}

func NewDirArchive(root string) *DirArchive {
	return &DirArchive{root: filepath.Clean(root)}
}

func (a *DirArchive) Name() string {
	return filepath.Base(a.root)
}

func (a *DirArchive) Files() iter.Seq2[File, error] {
	return func(yield func(File, error) bool) {
		stopped := false
		err := filepath.WalkDir(a.root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				rel, _ := filepath.Rel(a.root, p)
				if !yield(File{Path: filepath.ToSlash(rel)}, fmt.Errorf("failed to list path=%s: %w", p, err)) {
					stopped = true
					return filepath.SkipAll
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(a.root, p)
			if err != nil {
				return err
			}
			f := File{
				Path: filepath.ToSlash(rel),
				open: func() (io.ReadCloser, error) {
					return os.Open(p)
				},
			}
			if !yield(f, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield(File{}, fmt.Errorf("failed to walk archive=%s: %w", a.root, err))
		}
	}
}

func (a *DirArchive) Locale() (string, error) {
	return localeOf(a.Files())
}

func (a *DirArchive) Close() error {
	return nil
}
