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
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shardql.io/shardql/go/vt/log"
)

// Namespace prefixes every exported metric name.
const Namespace = "shardql"

// Registry holds every published metric. It is separate from the default
// Prometheus registry so that embedding programs decide what they expose.
var Registry = prometheus.NewRegistry()

func publish(name string, c prometheus.Collector) {
	if err := Registry.Register(c); err != nil {
		log.Errorf("stats: could not publish %s: %v", name, err)
	}
}

// Handler serves the Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// promName turns a CamelCase stats name into a snake_case Prometheus name.
func promName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return Namespace + "_" + b.String()
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

type countersCollector struct {
	counters *Counters
	desc     *prometheus.Desc
}

func (c *countersCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *countersCollector) Collect(ch chan<- prometheus.Metric) {
	c.counters.mu.RLock()
	defer c.counters.mu.RUnlock()
	for tag, val := range c.counters.counts {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.CounterValue, float64(atomic.LoadInt64(val)), tag)
	}
}
