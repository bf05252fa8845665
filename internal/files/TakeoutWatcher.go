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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a TakeoutWatcher waits after the last change before reacting.
// Browsers write large downloads in many chunks.
const DefaultDebounce = 2 * time.Second

// TakeoutWatcher watches a directory for exports. Whenever an export is added, changed or
// removed it calls OnChange with every export currently in the directory.
type TakeoutWatcher struct {
	dir      string
	debounce time.Duration
	onChange func(ctx context.Context, paths []string)

	logger *slog.Logger
}

func NewTakeoutWatcher(dir string, debounce time.Duration, onChange func(ctx context.Context, paths []string), logger *slog.Logger) (*TakeoutWatcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("error getting absolute path for dir=%s: %w", dir, err)
	}
	return &TakeoutWatcher{
		dir:      absDir,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// IsTakeoutName reports whether name looks like an export: a directory or .zip file whose name
// starts with "takeout".
func IsTakeoutName(name string, isDir bool) bool {
	base := filepath.Base(name)
	if !strings.HasPrefix(strings.ToLower(base), "takeout") {
		return false
	}
	if isDir {
		return true
	}
	return strings.EqualFold(filepath.Ext(base), ".zip")
}

// ListTakeouts returns the exports in dir in lexical order.
func ListTakeouts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error listing dir=%s: %w", dir, err)
	}
	ret := []string{}
	for _, e := range entries {
		if IsTakeoutName(e.Name(), e.IsDir()) {
			ret = append(ret, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(ret)
	return ret, nil
}

// Start calls OnChange once for the exports already present, then again after every change,
// until ctx is done.
func (tw *TakeoutWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher for dir=%s: %w", tw.dir, err)
	}
	defer watcher.Close()
	err = watcher.Add(tw.dir)
	if err != nil {
		return fmt.Errorf("error adding dir=%s to watcher: %w", tw.dir, err)
	}
	tw.logger.Info("watching for takeout archives", slog.String("dir", tw.dir))

	tw.fire(ctx)

	timer := time.NewTimer(tw.debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			tw.logger.Warn("got error from watcher", slog.String("dir", tw.dir), slog.Any("error", err))
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !tw.relevant(evt) {
				continue
			}
			tw.logger.Debug("takeout changed, waiting for it to settle",
				slog.String("path", evt.Name),
				slog.String("op", evt.Op.String()))
			timer.Reset(tw.debounce)
		case <-timer.C:
			tw.fire(ctx)
		}
	}
}

func (tw *TakeoutWatcher) relevant(evt fsnotify.Event) bool {
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	info, err := os.Stat(evt.Name)
	if err != nil {
		// Removed, so only the name is left to go by.
		return IsTakeoutName(evt.Name, filepath.Ext(evt.Name) == "")
	}
	return IsTakeoutName(evt.Name, info.IsDir())
}

func (tw *TakeoutWatcher) fire(ctx context.Context) {
	paths, err := ListTakeouts(tw.dir)
	if err != nil {
		tw.logger.Warn("failed to list takeout archives", slog.String("dir", tw.dir), slog.Any("error", err))
		return
	}
	if len(paths) == 0 {
		tw.logger.Info("no takeout archives found yet", slog.String("dir", tw.dir))
		return
	}
	tw.onChange(ctx, paths)
}
