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

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/jackbister/takeoutsuck/internal/archive"
)

// Key hashes the path and content of every file in archives together with the grammar
// version, FormatVersion and any settings that change the result. Archive order matters since
// it decides tie order when merging.
func Key(archives []archive.Archive, grammarVersion string, settings ...string) (string, error) {
	h := sha256.New()
	for _, a := range archives {
		fmt.Fprintf(h, "archive\x00%s\x00", a.Name())
		for f, err := range a.Files() {
			if err != nil {
				return "", fmt.Errorf("failed to list files in archive=%s: %w", a.Name(), err)
			}
			sum, err := fileSum(f)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(h, "file\x00%s\x00%x\x00", f.Path, sum)
		}
	}
	fmt.Fprintf(h, "grammars\x00%s\x00format\x00%s", grammarVersion, FormatVersion)
	for _, setting := range settings {
		fmt.Fprintf(h, "\x00setting\x00%s", setting)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func fileSum(f archive.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file=%s for hashing: %w", f.Path, err)
	}
	defer rc.Close()
	h := sha256.New()
	if _, err := io.Copy(h, rc); err != nil {
		return nil, fmt.Errorf("failed to read file=%s for hashing: %w", f.Path, err)
	}
	return h.Sum(nil), nil
}
