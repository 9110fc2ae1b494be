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

// Package stats holds the process counters of the planner. Values live in
// memory so tests and debug pages can read them directly, and every metric is
// exported to Prometheus through the package Registry.
package stats

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Counters is a set of named int64 counters.
type Counters struct {
	// mu only protects adding and retrieving the value (*int64) from the map,
	// modification to the actual number (int64) should be done with atomic funcs.
	mu     sync.RWMutex
	counts map[string]*int64
	help   string
}

func (c *Counters) getValueAddr(name string) *int64 {
	c.mu.RLock()
	a, ok := c.counts[name]
	c.mu.RUnlock()
	if ok {
		return a
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// check again, another goroutine may have created it
	if a, ok = c.counts[name]; ok {
		return a
	}
	a = new(int64)
	c.counts[name] = a
	return a
}

// Add adds a value to a named counter.
func (c *Counters) Add(name string, value int64) {
	atomic.AddInt64(c.getValueAddr(name), value)
}

// Reset resets a specific counter value to 0.
func (c *Counters) Reset(name string) {
	atomic.StoreInt64(c.getValueAddr(name), 0)
}

// ResetAll resets all counter values.
func (c *Counters) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]*int64)
}

// Counts returns a copy of the Counters' map.
func (c *Counters) Counts() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[string]int64, len(c.counts))
	for k, a := range c.counts {
		counts[k] = atomic.LoadInt64(a)
	}
	return counts
}

// Help returns the help string.
func (c *Counters) Help() string {
	return c.help
}

// String renders the counters sorted by name, mostly for logs.
func (c *Counters) String() string {
	counts := c.Counts()
	names := make([]string, 0, len(counts))
	for k := range counts {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(itoa(counts[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// CountersWithSingleLabel is a Counters that uses a single label name.
type CountersWithSingleLabel struct {
	Counters
	label string
}

// NewCountersWithSingleLabel create a new Counters instance.
// If name is set, the variable gets published to the Registry.
// The function also accepts an optional list of tags that pre-creates them
// initialized to 0.
// label is a category name used to organize the tags.
func NewCountersWithSingleLabel(name, help, label string, tags ...string) *CountersWithSingleLabel {
	c := &CountersWithSingleLabel{
		Counters: Counters{
			counts: make(map[string]*int64),
			help:   help,
		},
		label: label,
	}
	for _, tag := range tags {
		c.counts[tag] = new(int64)
	}
	if name != "" {
		publish(name, &countersCollector{
			counters: &c.Counters,
			desc:     prometheus.NewDesc(promName(name), help, []string{strings.ToLower(label)}, nil),
		})
	}
	return c
}

// Label returns the label name.
func (c *CountersWithSingleLabel) Label() string {
	return c.label
}
