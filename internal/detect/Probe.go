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

package detect

import (
	"bytes"
	"errors"
	"io"
)

// ProbeSize is the maximum number of bytes the detector will look at.
const ProbeSize = 4 * 1024

// Probe returns a prefix of at most ProbeSize bytes of a file's content.
type Probe func() ([]byte, error)

// ReaderProbe creates a Probe which opens the file and reads its first ProbeSize bytes.
// The file is only opened if the probe is invoked.
func ReaderProbe(open func() (io.ReadCloser, error)) Probe {
	return func() ([]byte, error) {
		rc, err := open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		buf := make([]byte, ProbeSize)
		n, err := io.ReadFull(rc, buf)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return buf[:n], nil
	}
}

// BytesProbe creates a Probe over content that is already in memory.
func BytesProbe(b []byte) Probe {
	return func() ([]byte, error) {
		if len(b) > ProbeSize {
			return b[:ProbeSize], nil
		}
		return b, nil
	}
}

var utf8Bom = []byte("\xef\xbb\xbf")

func hasMarkupMarkers(head []byte) bool {
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("<!doctype html")) || bytes.Contains(lower, []byte("<html"))
}

func looksStructured(head []byte) bool {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(head, utf8Bom), " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func revisionOf(head []byte) Revision {
	hasOuter := bytes.Contains(head, []byte("outer-cell"))
	switch {
	case hasOuter && bytes.Contains(head, []byte("mdl-grid")):
		return RevisionGrid
	case hasOuter:
		return RevisionOuterCell
	case bytes.Contains(head, []byte("content-cell")):
		return RevisionCells
	}
	return RevisionUnknown
}
