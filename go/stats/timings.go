/*
Copyright 2026 The Shardql Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stats

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Timings tracks how long an operation took, per category.
type Timings struct {
	mu         sync.RWMutex
	totalCount int64
	totalTime  time.Duration
	histograms *prometheus.HistogramVec
	counts     map[string]int64
	times      map[string]time.Duration
	help       string
	label      string
}

// NewTimings creates a new Timings object, and publishes it if name is set.
// categories is an optional list of categories to initialize to 0.
func NewTimings(name, help, label string, categories ...string) *Timings {
	t := &Timings{
		counts: make(map[string]int64),
		times:  make(map[string]time.Duration),
		help:   help,
		label:  label,
		histograms: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    promName(name),
			Help:    help,
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{strings.ToLower(label)}),
	}
	for _, cat := range categories {
		t.counts[cat] = 0
		t.times[cat] = 0
	}
	if name != "" {
		publish(name, t.histograms)
	}
	return t
}

// Add will add a new value to the named histogram.
func (t *Timings) Add(name string, elapsed time.Duration) {
	t.histograms.WithLabelValues(name).Observe(elapsed.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[name]++
	t.times[name] += elapsed
	t.totalCount++
	t.totalTime += elapsed
}

// Record is a convenience function that records completion
// timing data based on the provided start time of an event.
func (t *Timings) Record(name string, startTime time.Time) {
	t.Add(name, time.Since(startTime))
}

// Count returns the number of events recorded for name.
func (t *Timings) Count(name string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts[name]
}

// TotalCount returns how many events have been recorded.
func (t *Timings) TotalCount() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalCount
}

// Help returns the help string.
func (t *Timings) Help() string {
	return t.help
}
