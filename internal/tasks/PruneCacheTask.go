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

package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackbister/takeoutsuck/internal/cache"
)

// PruneCacheTask deletes cached results that were written more than MaxAge ago.
type PruneCacheTask struct {
	Pruner cache.Pruner
	MaxAge time.Duration
	Now    func() time.Time

	Logger *slog.Logger
}

func NewPruneCacheTask(pruner cache.Pruner, maxAge time.Duration, logger *slog.Logger) Task {
	return &PruneCacheTask{
		Pruner: pruner,
		MaxAge: maxAge,
		Now:    time.Now,
		Logger: logger,
	}
}

func (t *PruneCacheTask) Name() string {
	return "@takeoutsuck/PruneCacheTask"
}

func (t *PruneCacheTask) Run(ctx context.Context) {
	if t.MaxAge <= 0 {
		t.Logger.Warn("maxAge is not positive, will not do anything", slog.Duration("maxAge", t.MaxAge))
		return
	}
	cutoff := t.Now().Add(-t.MaxAge)
	n, err := t.Pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		t.Logger.Error("failed to prune cache",
			slog.Time("cutoff", cutoff),
			slog.Any("error", err))
		return
	}
	if n > 0 {
		t.Logger.Info("pruned cache entries",
			slog.Int("numEntries", n),
			slog.Time("cutoff", cutoff))
	}
}
