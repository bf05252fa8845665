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

package metrics

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackbister/takeoutsuck/internal/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "takeoutsuck"

// Cache request results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

type Metrics struct {
	Files              *prometheus.CounterVec
	Events             *prometheus.CounterVec
	Diagnostics        *prometheus.CounterVec
	DuplicatesDropped  prometheus.Counter
	CacheRequests      *prometheus.CounterVec
	FileParseDurations prometheus.Summary
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Number of archive files seen, by classified kind",
		}, []string{"kind"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Number of events parsed, by product",
		}, []string{"product"}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Number of files or records that could not be parsed, by kind",
		}, []string{"kind"}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Number of events dropped while merging because an equivalent event was kept",
		}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Number of result cache lookups, by result",
		}, []string{"result"}),
		FileParseDurations: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "file_parse_duration_seconds",
			Help:      "Time spent parsing a single file",
		}),
	}
	for _, c := range []prometheus.Collector{m.Files, m.Events, m.Diagnostics, m.DuplicatesDropped, m.CacheRequests, m.FileParseDurations} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Handler serves the metrics in gatherer in the Prometheus exposition format on /metrics, plus
// a liveness route on /healthz. Requests are logged at debug level.
func Handler(gatherer prometheus.Gatherer, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(util.NewGinSlogger(slog.LevelDebug, logger))
	r.SetTrustedProxies(nil)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}
