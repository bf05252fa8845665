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
	"archive/zip"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"slices"
	"strings"
)

// ZipArchive is an export as downloaded from Takeout.
type ZipArchive struct {
	path  string
	r     *zip.ReadCloser
	files []*zip.File
}

func OpenZipArchive(path string) (*ZipArchive, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive=%s: %w", path, err)
	}
	files := make([]*zip.File, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		files = append(files, f)
	}
	slices.SortFunc(files, func(a, b *zip.File) int {
		return strings.Compare(a.Name, b.Name)
	})
	return &ZipArchive{path: path, r: r, files: files}, nil
}

func (a *ZipArchive) Name() string {
	base := filepath.Base(a.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (a *ZipArchive) Files() iter.Seq2[File, error] {
	return func(yield func(File, error) bool) {
		for _, zf := range a.files {
			f := File{
				Path: strings.TrimPrefix(zf.Name, "/"),
				open: func() (io.ReadCloser, error) {
					return zf.Open()
				},
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

func (a *ZipArchive) Locale() (string, error) {
	return localeOf(a.Files())
}

func (a *ZipArchive) Close() error {
	return a.r.Close()
}
