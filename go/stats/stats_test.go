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
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersWithSingleLabel(t *testing.T) {
	c := NewCountersWithSingleLabel("TestRoutingOutcomes", "routing outcomes", "Outcome", "ok")
	assert.Equal(t, map[string]int64{"ok": 0}, c.Counts())

	c.Add("ok", 2)
	c.Add("unavailable", 1)
	assert.Equal(t, map[string]int64{"ok": 2, "unavailable": 1}, c.Counts())
	assert.Equal(t, "{ok: 2, unavailable: 1}", c.String())
	assert.Equal(t, "Outcome", c.Label())

	c.Reset("ok")
	assert.EqualValues(t, 0, c.Counts()["ok"])
	c.ResetAll()
	assert.Empty(t, c.Counts())
}

func TestTimings(t *testing.T) {
	tm := NewTimings("TestPlanTimings", "plan timings", "Plan")
	tm.Add("GlobalAggregate", 2*time.Millisecond)
	tm.Record("Noop", time.Now())
	assert.EqualValues(t, 1, tm.Count("GlobalAggregate"))
	assert.EqualValues(t, 2, tm.TotalCount())
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCountersWithSingleLabel("TestExported", "exported", "Kind")
	c.Add("x", 3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `shardql_test_exported{kind="x"} 3`)
}

func TestPromName(t *testing.T) {
	assert.Equal(t, "shardql_routing_resolutions", promName("RoutingResolutions"))
}
