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
	"iter"
	"os"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MetadataFile is the index page Takeout places at the root of every export. It describes the
// export and is not activity data.
const MetadataFile = "archive_browser.html"

// File is one regular file of an archive.
type File struct {
	// Path is slash separated and relative to the root of the archive.
	Path string

	open func() (io.ReadCloser, error)
}

func (f File) Name() string {
	return f.Path
}

func (f File) Open() (io.ReadCloser, error) {
	return f.open()
}

// IsMetadata reports whether f is the archive's own index page.
func (f File) IsMetadata() bool {
	return path.Base(f.Path) == MetadataFile
}

// Archive is an unpacked or packed export.
type Archive interface {
	// Name identifies the archive, e.g. "takeout-20200915T130739Z-001".
	Name() string
	// Files yields every regular file in a deterministic order. A file that cannot be listed is
	// yielded with a non-nil error and traversal continues.
	Files() iter.Seq2[File, error]
	// Locale returns the locale declared by the archive's metadata, or "" if it declares none.
	Locale() (string, error)
	Close() error
}

// Open opens a directory or a .zip file as an Archive.
func Open(p string) (Archive, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive=%s: %w", p, err)
	}
	if info.IsDir() {
		return NewDirArchive(p), nil
	}
	if strings.EqualFold(path.Ext(p), ".zip") {
		return OpenZipArchive(p)
	}
	return nil, fmt.Errorf("archive=%s is neither a directory nor a zip file", p)
}

// localeOf reads the lang attribute of the root element of the first metadata file in files.
func localeOf(files iter.Seq2[File, error]) (string, error) {
	for f, err := range files {
		if err != nil || !f.IsMetadata() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open metadata file=%s: %w", f.Path, err)
		}
		doc, err := goquery.NewDocumentFromReader(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to parse metadata file=%s: %w", f.Path, err)
		}
		return strings.TrimSpace(doc.Find("html").AttrOr("lang", "")), nil
	}
	return "", nil
}
