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

package sqlite_cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackbister/takeoutsuck/internal/cache"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"

	"go.uber.org/dig"
)

// SQLite allows 32766 parameters per statement, which leaves plenty of headroom at this size.
const insertChunkSize = 500

type sqliteCacheRepository struct {
	db *sql.DB

	cfg *Config

	logger *slog.Logger
}

type SqliteCacheRepositoryParams struct {
	dig.In

	Db     *sql.DB
	Cfg    *Config
	Logger *slog.Logger
}

func NewSqliteCacheRepository(p SqliteCacheRepositoryParams) (cache.Repository, error) {
	_, err := p.Db.Exec("CREATE TABLE IF NOT EXISTS CacheEntries (key TEXT NOT NULL PRIMARY KEY, created_at INTEGER NOT NULL, num_events INTEGER NOT NULL, num_diagnostics INTEGER NOT NULL);")
	if err != nil {
		return nil, fmt.Errorf("error creating cacheentries table: %w", err)
	}
	_, err = p.Db.Exec("CREATE TABLE IF NOT EXISTS CachedEvents (key TEXT NOT NULL, seq INTEGER NOT NULL, timestamp INTEGER NOT NULL, product TEXT NOT NULL, action TEXT NOT NULL, title TEXT NOT NULL, description TEXT NOT NULL, urls TEXT NOT NULL, locale TEXT NOT NULL, source_file TEXT NOT NULL, PRIMARY KEY(key, seq));")
	if err != nil {
		return nil, fmt.Errorf("error creating cachedevents table: %w", err)
	}
	_, err = p.Db.Exec("CREATE TABLE IF NOT EXISTS CachedDiagnostics (key TEXT NOT NULL, seq INTEGER NOT NULL, source_file TEXT NOT NULL, fragment TEXT NOT NULL, reason TEXT NOT NULL, kind TEXT NOT NULL, PRIMARY KEY(key, seq));")
	if err != nil {
		return nil, fmt.Errorf("error creating cacheddiagnostics table: %w", err)
	}
	return &sqliteCacheRepository{
		db:     p.Db,
		cfg:    p.Cfg,
		logger: p.Logger,
	}, nil
}

func (repo *sqliteCacheRepository) Get(ctx context.Context, key string) (*events.Result, error) {
	var numEvents, numDiagnostics int
	err := repo.db.QueryRowContext(ctx, "SELECT num_events, num_diagnostics FROM CacheEntries WHERE key = ?;", key).Scan(&numEvents, &numDiagnostics)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting cache entry for key=%s: %w", key, err)
	}

	ret := events.Result{
		Events:      make([]events.Event, 0, numEvents),
		Diagnostics: make([]events.ParseError, 0, numDiagnostics),
	}
	rows, err := repo.db.QueryContext(ctx, "SELECT timestamp, product, action, title, description, urls, locale, source_file FROM CachedEvents WHERE key = ? ORDER BY seq;", key)
	if err != nil {
		return nil, fmt.Errorf("error getting cached events for key=%s: %w", key, err)
	}
	defer rows.Close()
	for rows.Next() {
		var evt events.Event
		var ts int64
		var urls string
		err := rows.Scan(&ts, &evt.Product, &evt.Action, &evt.Title, &evt.Description, &urls, &evt.Locale, &evt.SourceFile)
		if err != nil {
			return nil, fmt.Errorf("error scanning cached event for key=%s: %w", key, err)
		}
		evt.Timestamp = time.Unix(0, ts).UTC()
		if err := json.Unmarshal([]byte(urls), &evt.URLs); err != nil {
			return nil, fmt.Errorf("error decoding urls of cached event for key=%s: %w", key, err)
		}
		ret.Events = append(ret.Events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading cached events for key=%s: %w", key, err)
	}

	drows, err := repo.db.QueryContext(ctx, "SELECT source_file, fragment, reason, kind FROM CachedDiagnostics WHERE key = ? ORDER BY seq;", key)
	if err != nil {
		return nil, fmt.Errorf("error getting cached diagnostics for key=%s: %w", key, err)
	}
	defer drows.Close()
	for drows.Next() {
		var pe events.ParseError
		if err := drows.Scan(&pe.SourceFile, &pe.Fragment, &pe.Reason, &pe.Kind); err != nil {
			return nil, fmt.Errorf("error scanning cached diagnostic for key=%s: %w", key, err)
		}
		ret.Diagnostics = append(ret.Diagnostics, pe)
	}
	if err := drows.Err(); err != nil {
		return nil, fmt.Errorf("error reading cached diagnostics for key=%s: %w", key, err)
	}
	if len(ret.Events) != numEvents || len(ret.Diagnostics) != numDiagnostics {
		return nil, fmt.Errorf("cache entry for key=%s is incomplete: expected %v events and %v diagnostics but got %v and %v",
			key, numEvents, numDiagnostics, len(ret.Events), len(ret.Diagnostics))
	}
	return &ret, nil
}

const evtBase = "INSERT INTO CachedEvents (key, seq, timestamp, product, action, title, description, urls, locale, source_file) VALUES "
const evtPerRow = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
const diagBase = "INSERT INTO CachedDiagnostics (key, seq, source_file, fragment, reason, kind) VALUES "
const diagPerRow = "(?, ?, ?, ?, ?, ?)"

func (repo *sqliteCacheRepository) Put(ctx context.Context, key string, result *events.Result) error {
	startTime := time.Now()
	evtRows := make([][]any, len(result.Events))
	for i, evt := range result.Events {
		urls, err := json.Marshal(evt.URLs)
		if err != nil {
			return fmt.Errorf("error encoding urls for cache: %w", err)
		}
		evtRows[i] = []any{key, i, evt.Timestamp.UnixNano(), string(evt.Product), evt.Action, evt.Title, evt.Description, string(urls), evt.Locale, evt.SourceFile}
	}
	diagRows := make([][]any, len(result.Diagnostics))
	for i, pe := range result.Diagnostics {
		diagRows[i] = []any{key, i, pe.SourceFile, pe.Fragment, pe.Reason, string(pe.Kind)}
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction for adding cache entry: %w", err)
	}
	for _, stmt := range []string{"DELETE FROM CachedEvents WHERE key = ?;", "DELETE FROM CachedDiagnostics WHERE key = ?;", "DELETE FROM CacheEntries WHERE key = ?;"} {
		if _, err := tx.ExecContext(ctx, stmt, key); err != nil {
			tx.Rollback()
			return fmt.Errorf("error removing previous cache entry for key=%s: %w", key, err)
		}
	}
	_, err = tx.ExecContext(ctx, "INSERT INTO CacheEntries (key, created_at, num_events, num_diagnostics) VALUES (?, ?, ?, ?);",
		key, time.Now().UnixNano(), len(result.Events), len(result.Diagnostics))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error adding cache entry for key=%s: %w", key, err)
	}
	if err := repo.insert(ctx, tx, evtBase, evtPerRow, evtRows); err != nil {
		tx.Rollback()
		return fmt.Errorf("error adding cached events for key=%s: %w", key, err)
	}
	if err := repo.insert(ctx, tx, diagBase, diagPerRow, diagRows); err != nil {
		tx.Rollback()
		return fmt.Errorf("error adding cached diagnostics for key=%s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing cache entry for key=%s: %w", key, err)
	}
	repo.logger.Info("added cache entry",
		slog.String("key", key),
		slog.Int("numEvents", len(result.Events)),
		slog.Int("numDiagnostics", len(result.Diagnostics)),
		slog.Duration("duration", time.Since(startTime)))
	return nil
}

func (repo *sqliteCacheRepository) insert(ctx context.Context, tx *sql.Tx, base, perRow string, rows [][]any) error {
	if !repo.cfg.TrueBatch {
		for _, row := range rows {
			if _, err := tx.ExecContext(ctx, base+perRow+";", row...); err != nil {
				return err
			}
		}
		return nil
	}
	for start := 0; start < len(rows); start += insertChunkSize {
		chunk := rows[start:min(start+insertChunkSize, len(rows))]
		var sb strings.Builder
		sb.Grow(len(base) + (len(perRow)+1)*len(chunk))
		sb.WriteString(base)
		args := make([]any, 0, len(chunk)*len(chunk[0]))
		for i, row := range chunk {
			sb.WriteString(perRow)
			if i != len(chunk)-1 {
				sb.WriteRune(',')
			}
			args = append(args, row...)
		}
		sb.WriteRune(';')
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

func (repo *sqliteCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting transaction for deleting old cache entries: %w", err)
	}
	for _, stmt := range []string{
		"DELETE FROM CachedEvents WHERE key IN (SELECT key FROM CacheEntries WHERE created_at < ?);",
		"DELETE FROM CachedDiagnostics WHERE key IN (SELECT key FROM CacheEntries WHERE created_at < ?);",
	} {
		if _, err := tx.ExecContext(ctx, stmt, cutoff.UnixNano()); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("error deleting cache entries older than %v: %w", cutoff, err)
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM CacheEntries WHERE created_at < ?;", cutoff.UnixNano())
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("error deleting cache entries older than %v: %w", cutoff, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("error getting number of deleted cache entries: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing deletion of old cache entries: %w", err)
	}
	return int(n), nil
}
