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

package util

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNewGinSlogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var b bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := gin.New()
	r.Use(NewGinSlogger(slog.LevelDebug, logger))
	r.GET("/metrics", func(c *gin.Context) {
		c.Status(http.StatusTeapot)
	})

	srv := httptest.NewServer(r)
	defer srv.Close()
	res, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("got error when sending request: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusTeapot {
		t.Errorf("expected status to be passed through but got %v", res.StatusCode)
	}
	out := b.String()
	for _, expected := range []string{`"status":418`, `"method":"GET"`, `"path":"/metrics"`, `"route":"/metrics"`} {
		if !strings.Contains(out, expected) {
			t.Errorf("expected log to contain %v but got %v", expected, out)
		}
	}
}

func TestNewGinSlogger_UnknownRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var b bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := gin.New()
	r.Use(NewGinSlogger(slog.LevelDebug, logger))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 but got %v", rec.Code)
	}
	if out := b.String(); !strings.Contains(out, `"status":404`) || !strings.Contains(out, `"route":""`) {
		t.Errorf("expected 404 with empty route to be logged but got %v", out)
	}
}
