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
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackbister/takeoutsuck/internal/metrics"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
)

// FormatVersion is mixed into every key. Bump it whenever a parser change would produce
// different results for the same input.
const FormatVersion = "1"

var ErrNotFound = errors.New("cache entry not found")

type Producer func(ctx context.Context) (*events.Result, error)

type Cache interface {
	GetOrCompute(ctx context.Context, key string, producer Producer) (*events.Result, error)
}

// Nop always computes.
type Nop struct{}

func (Nop) GetOrCompute(ctx context.Context, key string, producer Producer) (*events.Result, error) {
	return producer(ctx)
}

// Repository stores results by key. Get returns ErrNotFound when the key has never been Put.
type Repository interface {
	Get(ctx context.Context, key string) (*events.Result, error)
	Put(ctx context.Context, key string, result *events.Result) error
}

// Pruner is implemented by repositories that can drop entries that have not been written since cutoff.
type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// RepositoryCache is a Cache backed by a Repository. A failing repository never fails the
// run, it only costs a recomputation.
type RepositoryCache struct {
	repo    Repository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewRepositoryCache(repo Repository, m *metrics.Metrics, logger *slog.Logger) *RepositoryCache {
	return &RepositoryCache{
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

func (c *RepositoryCache) GetOrCompute(ctx context.Context, key string, producer Producer) (*events.Result, error) {
	res, err := c.repo.Get(ctx, key)
	if err == nil {
		c.count(metrics.CacheHit)
		c.logger.DebugContext(ctx, "cache hit", slog.String("key", key), slog.Int("events", len(res.Events)))
		return res, nil
	}
	if errors.Is(err, ErrNotFound) {
		c.count(metrics.CacheMiss)
	} else {
		c.count(metrics.CacheError)
		c.logger.WarnContext(ctx, "got error when reading from cache, will parse archives instead",
			slog.String("key", key),
			slog.Any("error", err))
	}

	res, err = producer(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.repo.Put(ctx, key, res); err != nil {
		c.logger.WarnContext(ctx, "got error when writing to cache",
			slog.String("key", key),
			slog.Any("error", err))
	}
	return res, nil
}

func (c *RepositoryCache) count(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.CacheRequests.WithLabelValues(result).Inc()
}
