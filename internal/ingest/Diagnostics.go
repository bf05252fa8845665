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

package ingest

import (
	"errors"
	"sync"

	"github.com/jackbister/takeoutsuck/internal/metrics"
	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
)

// diagnostics collects ParseErrors from concurrent workers. Each error is filed under the
// index of the file it belongs to so the final list does not depend on scheduling.
type diagnostics struct {
	mu      sync.Mutex
	byIndex map[int][]events.ParseError
	metrics *metrics.Metrics
}

func newDiagnostics(m *metrics.Metrics) *diagnostics {
	return &diagnostics{
		byIndex: map[int][]events.ParseError{},
		metrics: m,
	}
}

func (d *diagnostics) add(index int, err error) {
	var pe *events.ParseError
	if !errors.As(err, &pe) {
		pe = events.NewParseError("", "", err)
	}
	d.mu.Lock()
	d.byIndex[index] = append(d.byIndex[index], *pe)
	d.mu.Unlock()
	if d.metrics != nil {
		d.metrics.Diagnostics.WithLabelValues(string(pe.Kind)).Inc()
	}
}

// all returns every collected ParseError ordered by index, then by insertion.
func (d *diagnostics) all(numIndexes int) []events.ParseError {
	d.mu.Lock()
	defer d.mu.Unlock()
	ret := []events.ParseError{}
	for i := 0; i < numIndexes; i++ {
		ret = append(ret, d.byIndex[i]...)
	}
	return ret
}
