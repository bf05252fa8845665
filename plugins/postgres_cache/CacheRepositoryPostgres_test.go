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
	"log/slog"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackbister/takeoutsuck/internal/cache"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Set TAKEOUTSUCK_TEST_POSTGRES to a connection string to run these tests against a real database.
func newRepo(t *testing.T) cache.Repository {
	t.Helper()
	cs := os.Getenv("TAKEOUTSUCK_TEST_POSTGRES")
	if cs == "" {
		t.Skip("TAKEOUTSUCK_TEST_POSTGRES is not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cs)
	if err != nil {
		t.Fatalf("got error when connecting to postgres: %v", err)
	}
	t.Cleanup(pool.Close)
	repo, err := NewPostgresCacheRepository(PostgresCacheRepositoryParams{
		Ctx:    ctx,
		Conn:   pool,
		Logger: slog.Default(),
	})
	if err != nil {
		t.Fatalf("got error when creating repository: %v", err)
	}
	return repo
}

func TestPutThenGet(t *testing.T) {
	repo := newRepo(t)
	key := uuid.NewString()
	if _, err := repo.Get(context.Background(), key); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound but got %v", err)
	}
	expected := &events.Result{
		Events: []events.Event{
			{Timestamp: time.Unix(1600175259, 469123456).UTC(), Product: events.ProductYouTube, Action: "Watched", Title: "a", URLs: []string{"https://www.youtube.com/watch?v=a"}, Locale: "en", SourceFile: "Takeout/a.html"},
			{Timestamp: time.Unix(1600175260, 0).UTC(), Product: events.ProductChrome, SourceFile: "Takeout/Chrome/BrowserHistory.json"},
		},
		Diagnostics: []events.ParseError{*events.NewParseError("Takeout/b.html", "<div>", events.ErrMissingTimestamp)},
	}
	if err := repo.Put(context.Background(), key, expected); err != nil {
		t.Fatalf("got error when putting result: %v", err)
	}
	actual, err := repo.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("got error when getting result: %v", err)
	}
	if !reflect.DeepEqual(expected.Events, actual.Events) {
		t.Errorf("events differ after round trip: expected=%+v, actual=%+v", expected.Events, actual.Events)
	}
	if len(actual.Diagnostics) != 1 || actual.Diagnostics[0].Kind != events.KindMissingTimestamp {
		t.Errorf("got unexpected diagnostics %+v", actual.Diagnostics)
	}
}
