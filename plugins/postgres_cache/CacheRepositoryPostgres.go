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

package postgres_cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackbister/takeoutsuck/internal/cache"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go.uber.org/dig"
)

type postgresCacheRepository struct {
	conn *pgxpool.Pool

	logger *slog.Logger
}

type PostgresCacheRepositoryParams struct {
	dig.In

	Ctx    context.Context
	Conn   *pgxpool.Pool
	Logger *slog.Logger
}

func NewPostgresCacheRepository(p PostgresCacheRepositoryParams) (cache.Repository, error) {
	_, err := p.Conn.Exec(p.Ctx, "CREATE TABLE IF NOT EXISTS CacheEntries (key TEXT NOT NULL PRIMARY KEY, created_at timestamptz NOT NULL, num_events INTEGER NOT NULL, num_diagnostics INTEGER NOT NULL);")
	if err != nil {
		return nil, fmt.Errorf("error creating cacheentries table: %w", err)
	}
	// timestamp is stored as unix nanoseconds since timestamptz only has microsecond precision.
	_, err = p.Conn.Exec(p.Ctx, "CREATE TABLE IF NOT EXISTS CachedEvents (key TEXT NOT NULL, seq INTEGER NOT NULL, timestamp BIGINT NOT NULL, product TEXT NOT NULL, action TEXT NOT NULL, title TEXT NOT NULL, description TEXT NOT NULL, urls TEXT[], locale TEXT NOT NULL, source_file TEXT NOT NULL, PRIMARY KEY(key, seq));")
	if err != nil {
		return nil, fmt.Errorf("error creating cachedevents table: %w", err)
	}
	_, err = p.Conn.Exec(p.Ctx, "CREATE TABLE IF NOT EXISTS CachedDiagnostics (key TEXT NOT NULL, seq INTEGER NOT NULL, source_file TEXT NOT NULL, fragment TEXT NOT NULL, reason TEXT NOT NULL, kind TEXT NOT NULL, PRIMARY KEY(key, seq));")
	if err != nil {
		return nil, fmt.Errorf("error creating cacheddiagnostics table: %w", err)
	}
	return &postgresCacheRepository{
		conn:   p.Conn,
		logger: p.Logger,
	}, nil
}

func (repo *postgresCacheRepository) Get(ctx context.Context, key string) (*events.Result, error) {
	var numEvents, numDiagnostics int
	err := repo.conn.QueryRow(ctx, "SELECT num_events, num_diagnostics FROM CacheEntries WHERE key = $1;", key).Scan(&numEvents, &numDiagnostics)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting cache entry for key=%s: %w", key, err)
	}

	rows, err := repo.conn.Query(ctx, "SELECT timestamp, product, action, title, description, urls, locale, source_file FROM CachedEvents WHERE key = $1 ORDER BY seq;", key)
	if err != nil {
		return nil, fmt.Errorf("error getting cached events for key=%s: %w", key, err)
	}
	evts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (events.Event, error) {
		var evt events.Event
		var ts int64
		err := row.Scan(&ts, &evt.Product, &evt.Action, &evt.Title, &evt.Description, &evt.URLs, &evt.Locale, &evt.SourceFile)
		evt.Timestamp = time.Unix(0, ts).UTC()
		return evt, err
	})
	if err != nil {
		return nil, fmt.Errorf("error reading cached events for key=%s: %w", key, err)
	}

	rows, err = repo.conn.Query(ctx, "SELECT source_file, fragment, reason, kind FROM CachedDiagnostics WHERE key = $1 ORDER BY seq;", key)
	if err != nil {
		return nil, fmt.Errorf("error getting cached diagnostics for key=%s: %w", key, err)
	}
	diags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (events.ParseError, error) {
		var pe events.ParseError
		err := row.Scan(&pe.SourceFile, &pe.Fragment, &pe.Reason, &pe.Kind)
		return pe, err
	})
	if err != nil {
		return nil, fmt.Errorf("error reading cached diagnostics for key=%s: %w", key, err)
	}
	if len(evts) != numEvents || len(diags) != numDiagnostics {
		return nil, fmt.Errorf("cache entry for key=%s is incomplete: expected %v events and %v diagnostics but got %v and %v",
			key, numEvents, numDiagnostics, len(evts), len(diags))
	}
	return &events.Result{Events: evts, Diagnostics: diags}, nil
}

func (repo *postgresCacheRepository) Put(ctx context.Context, key string, result *events.Result) error {
	startTime := time.Now()
	tx, err := repo.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("error starting transaction for adding cache entry: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range []string{"DELETE FROM CachedEvents WHERE key = $1;", "DELETE FROM CachedDiagnostics WHERE key = $1;", "DELETE FROM CacheEntries WHERE key = $1;"} {
		if _, err := tx.Exec(ctx, stmt, key); err != nil {
			return fmt.Errorf("error removing previous cache entry for key=%s: %w", key, err)
		}
	}
	_, err = tx.Exec(ctx, "INSERT INTO CacheEntries (key, created_at, num_events, num_diagnostics) VALUES ($1, $2, $3, $4);",
		key, time.Now(), len(result.Events), len(result.Diagnostics))
	if err != nil {
		return fmt.Errorf("error adding cache entry for key=%s: %w", key, err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"cachedevents"},
		[]string{"key", "seq", "timestamp", "product", "action", "title", "description", "urls", "locale", "source_file"},
		pgx.CopyFromSlice(len(result.Events), func(i int) ([]any, error) {
			evt := result.Events[i]
			return []any{key, i, evt.Timestamp.UnixNano(), string(evt.Product), evt.Action, evt.Title, evt.Description, evt.URLs, evt.Locale, evt.SourceFile}, nil
		}))
	if err != nil {
		return fmt.Errorf("error adding cached events for key=%s: %w", key, err)
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"cacheddiagnostics"},
		[]string{"key", "seq", "source_file", "fragment", "reason", "kind"},
		pgx.CopyFromSlice(len(result.Diagnostics), func(i int) ([]any, error) {
			pe := result.Diagnostics[i]
			return []any{key, i, pe.SourceFile, pe.Fragment, pe.Reason, string(pe.Kind)}, nil
		}))
	if err != nil {
		return fmt.Errorf("error adding cached diagnostics for key=%s: %w", key, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing cache entry for key=%s: %w", key, err)
	}
	repo.logger.Info("added cache entry",
		slog.String("key", key),
		slog.Int("numEvents", len(result.Events)),
		slog.Int("numDiagnostics", len(result.Diagnostics)),
		slog.Duration("duration", time.Since(startTime)))
	return nil
}

func (repo *postgresCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := repo.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("error starting transaction for deleting old cache entries: %w", err)
	}
	defer tx.Rollback(ctx)
	for _, stmt := range []string{
		"DELETE FROM CachedEvents WHERE key IN (SELECT key FROM CacheEntries WHERE created_at < $1);",
		"DELETE FROM CachedDiagnostics WHERE key IN (SELECT key FROM CacheEntries WHERE created_at < $1);",
	} {
		if _, err := tx.Exec(ctx, stmt, cutoff); err != nil {
			return 0, fmt.Errorf("error deleting cache entries older than %v: %w", cutoff, err)
		}
	}
	tag, err := tx.Exec(ctx, "DELETE FROM CacheEntries WHERE created_at < $1;", cutoff)
	if err != nil {
		return 0, fmt.Errorf("error deleting cache entries older than %v: %w", cutoff, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error committing deletion of old cache entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
