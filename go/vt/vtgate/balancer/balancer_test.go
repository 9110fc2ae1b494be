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

package balancer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type copyOf struct {
	node    string
	primary bool
	active  bool
}

func (c copyOf) NodeID() string  { return c.node }
func (c copyOf) IsPrimary() bool { return c.primary }
func (c copyOf) IsActive() bool  { return c.active }

func createTestCopies() []copyOf {
	return []copyOf{
		{node: "n1", primary: true, active: true},
		{node: "n2", active: true},
		{node: "n3", active: true},
	}
}

func nodes(copies []copyOf) []string {
	var out []string
	for _, c := range copies {
		out = append(out, c.node)
	}
	return out
}

func TestParsePreference(t *testing.T) {
	cases := []struct {
		in   string
		want Preference
	}{
		{"", Preference{Mode: ModeRandom}},
		{"_local", Preference{Mode: ModeLocal}},
		{"_primary", Preference{Mode: ModePrimary}},
		{"_primary_first", Preference{Mode: ModePrimaryFirst}},
		{"_replica", Preference{Mode: ModeReplica}},
		{"_replica_first", Preference{Mode: ModeReplicaFirst}},
		{"_only_node:n2", Preference{Mode: ModeOnlyNode, Node: "n2"}},
		{"_prefer_node:n3", Preference{Mode: ModePreferNode, Node: "n3"}},
		{"user-42", Preference{Mode: ModeSession, Session: "user-42"}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := ParsePreference(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.in, got.String())
		})
	}
}

func TestOrderFilters(t *testing.T) {
	copies := createTestCopies()

	assert.Equal(t, []string{"n1"}, nodes(Order(ParsePreference("_primary"), "s0", copies)))
	assert.ElementsMatch(t, []string{"n2", "n3"}, nodes(Order(ParsePreference("_replica"), "s0", copies)))
	assert.Equal(t, []string{"n3"}, nodes(Order(ParsePreference("_only_node:n3"), "s0", copies)))
	assert.Empty(t, Order(ParsePreference("_only_node:n9"), "s0", copies))
}

func TestOrderFirst(t *testing.T) {
	copies := createTestCopies()

	for range 20 {
		assert.Equal(t, "n1", Order(ParsePreference("_primary_first"), "s0", copies)[0].node)
		assert.NotEqual(t, "n1", Order(ParsePreference("_replica_first"), "s0", copies)[0].node)
		assert.Equal(t, "n3", Order(ParsePreference("_prefer_node:n3"), "s0", copies)[0].node)
		assert.Equal(t, "n2", Order(ParsePreference("_local"), "s0", copies, WithLocalNode("n2"))[0].node)
	}
}

func TestOrderKeepsAllCopies(t *testing.T) {
	copies := createTestCopies()
	for _, pref := range []string{"", "_local", "_primary_first", "_replica_first", "_prefer_node:n2", "session"} {
		got := Order(ParsePreference(pref), "s0", copies)
		assert.ElementsMatch(t, nodes(copies), nodes(got), pref)
	}
}

func TestInactiveLast(t *testing.T) {
	copies := []copyOf{
		{node: "n1", primary: true, active: false},
		{node: "n2", active: true},
	}
	for _, pref := range []string{"", "_primary_first", "_prefer_node:n1", "session"} {
		got := Order(ParsePreference(pref), "s0", copies)
		require.Len(t, got, 2)
		assert.True(t, got[0].active, pref)
	}

	// The primary is the only candidate and it is inactive.
	got := Order(ParsePreference("_primary"), "s0", copies)
	require.Len(t, got, 1)
	assert.False(t, got[0].active)
}

func TestSessionIsSticky(t *testing.T) {
	copies := createTestCopies()
	pref := ParsePreference("session-a")

	first := Order(pref, "users[0]", copies)
	for range 10 {
		assert.Equal(t, nodes(first), nodes(Order(pref, "users[0]", copies)))
	}

	// Removing a copy that is not the first one keeps the first one.
	var without []copyOf
	for _, c := range copies {
		if c.node != first[2].node {
			without = append(without, c)
		}
	}
	assert.Equal(t, first[0].node, Order(pref, "users[0]", without)[0].node)
}

func TestSessionSpreadsShards(t *testing.T) {
	copies := createTestCopies()
	pref := ParsePreference("session-b")

	firsts := make(map[string]int)
	for i := range 64 {
		firsts[Order(pref, fmt.Sprintf("users[%d]", i), copies)[0].node]++
	}
	assert.Len(t, firsts, 3)
}
