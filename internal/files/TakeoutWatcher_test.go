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

package files

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

var takeoutNameTests = []struct {
	name     string
	isDir    bool
	expected bool
}{
	{"takeout-20200915T130739Z-001.zip", false, true},
	{"Takeout", true, true},
	{"takeout-20200915T130739Z-001", true, true},
	{"TAKEOUT-001.ZIP", false, true},
	{"takeout-20200915T130739Z-001.zip.crdownload", false, false},
	{"takeout.tgz", false, false},
	{"notes.zip", false, false},
	{"photos", true, false},
}

func TestIsTakeoutName(t *testing.T) {
	for _, tt := range takeoutNameTests {
		t.Run(tt.name, func(t *testing.T) {
			if actual := IsTakeoutName(tt.name, tt.isDir); actual != tt.expected {
				t.Errorf("expected %v but got %v", tt.expected, actual)
			}
		})
	}
}

func TestListTakeouts(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"takeout-b", "other"} {
		if err := os.Mkdir(filepath.Join(dir, d), 0755); err != nil {
			t.Fatalf("got error when creating directory: %v", err)
		}
	}
	for _, f := range []string{"takeout-a.zip", "takeout-c.zip.part", "readme.txt"} {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0644); err != nil {
			t.Fatalf("got error when writing file: %v", err)
		}
	}
	actual, err := ListTakeouts(dir)
	if err != nil {
		t.Fatalf("got error when listing takeouts: %v", err)
	}
	expected := []string{filepath.Join(dir, "takeout-a.zip"), filepath.Join(dir, "takeout-b")}
	if !reflect.DeepEqual(expected, actual) {
		t.Errorf("expected %v but got %v", expected, actual)
	}
}

func TestTakeoutWatcher_ReactsToNewArchive(t *testing.T) {
	dir := t.TempDir()
	changes := make(chan []string, 10)
	tw, err := NewTakeoutWatcher(dir, 10*time.Millisecond, func(ctx context.Context, paths []string) {
		changes <- paths
	}, slog.Default())
	if err != nil {
		t.Fatalf("got error when creating watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- tw.Start(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register before the file is created.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "takeout-001.zip"), []byte("PK"), 0644); err != nil {
		t.Fatalf("got error when writing file: %v", err)
	}
	select {
	case paths := <-changes:
		if len(paths) != 1 || filepath.Base(paths[0]) != "takeout-001.zip" {
			t.Errorf("got unexpected paths %v", paths)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the watcher to react")
	}
}
