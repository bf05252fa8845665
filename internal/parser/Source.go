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

package parser

import (
	"bytes"
	"io"
)

// Source is a file to be parsed. Open may be called more than once; every call starts from the
// beginning of the content.
type Source interface {
	// Name identifies the source in events and diagnostics.
	Name() string
	Open() (io.ReadCloser, error)
}

type bytesSource struct {
	name string
	b    []byte
}

// BytesSource creates a Source over content that is already in memory.
func BytesSource(name string, b []byte) Source {
	return &bytesSource{name: name, b: b}
}

func (s *bytesSource) Name() string {
	return s.name
}

func (s *bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.b)), nil
}
