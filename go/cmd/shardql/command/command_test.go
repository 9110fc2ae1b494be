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

package command

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/vt/srvtopo/srvtopotest"
	"shardql.io/shardql/go/vt/vterrors"
)

func writeClusterState(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, srvtopotest.Fixture(), 0o600))
	return path
}

// run executes the root command with args and returns its output. Command
// options outlive a run, so they are reset first.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	routingOptions.ClusteredBy = ""
	routingOptions.Partitions = nil
	routingOptions.Format = "json"
	explainOptions.Columns = nil
	explainOptions.Count = false
	explainOptions.Sums = nil
	explainOptions.Where = ""
	explainOptions.OrderBy = ""
	explainOptions.Desc = false
	explainOptions.Limit = -1
	explainOptions.Offset = 0
	explainOptions.Delete = false

	var out bytes.Buffer
	Root.SetOut(&out)
	Root.SetErr(&out)
	Root.SetArgs(append([]string{"--cluster-state", writeClusterState(t), "--preference", "_primary"}, args...))
	err := Root.Execute()
	return out.String(), err
}

func TestTables(t *testing.T) {
	out, err := run(t, "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "users\n")
	assert.Contains(t, out, "logs\n")
}

func TestRouting(t *testing.T) {
	out, err := run(t, "routing", "users")
	require.NoError(t, err)
	require.True(t, gjson.Valid(out), out)

	shards := 0
	for _, indices := range gjson.Parse(out).Map() {
		shards += len(indices.Get("users").Array())
	}
	assert.Equal(t, 3, shards)
	assert.ElementsMatch(t, []int{0}, intArray(gjson.Get(out, "n1.users")))
}

func TestRoutingClusteredBy(t *testing.T) {
	out, err := run(t, "routing", "--clustered-by", "1", "doc.users")
	require.NoError(t, err)

	nodes := gjson.Parse(out).Map()
	require.Len(t, nodes, 1)
	for _, indices := range nodes {
		assert.Len(t, indices.Get("users").Array(), 1)
	}
}

func TestRoutingTable(t *testing.T) {
	out, err := run(t, "routing", "--format", "table", "users")
	require.NoError(t, err)
	for _, node := range []string{"n1", "n2", "n3"} {
		assert.Contains(t, out, node)
	}
	assert.Contains(t, out, "users")
}

func TestRoutingUnknownFormat(t *testing.T) {
	_, err := run(t, "routing", "--format", "yaml", "users")
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, vterrors.Code(err))
}

func TestRoutingUnknownTable(t *testing.T) {
	_, err := run(t, "routing", "nope")
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, vterrors.Code(err))
}

func TestExplainQueryAndFetch(t *testing.T) {
	out, err := run(t, "explain", "--column", "name", "--order-by", "score", "--desc", "--limit", "10", "users")
	require.NoError(t, err)

	assert.Equal(t, "QueryAndFetch", gjson.Get(out, "OperatorType").String())
	assert.Equal(t, "Collect", gjson.Get(out, "Inputs.0.OperatorType").String())
	assert.Equal(t, "Merge", gjson.Get(out, "Inputs.1.OperatorType").String())
	assert.EqualValues(t, 3, gjson.Get(out, "Inputs.0.Other.Shards").Int())
}

func TestExplainGlobalAggregate(t *testing.T) {
	out, err := run(t, "explain", "--count", "--sum", "score", "users")
	require.NoError(t, err)

	assert.Equal(t, "GlobalAggregate", gjson.Get(out, "OperatorType").String())
	assert.Equal(t, "Collect", gjson.Get(out, "Inputs.0.OperatorType").String())
	assert.Equal(t, "Merge", gjson.Get(out, "Inputs.1.OperatorType").String())
}

func TestExplainWhereClusteredBy(t *testing.T) {
	out, err := run(t, "explain", "--column", "name", "--where", "id=1", "users")
	require.NoError(t, err)

	assert.EqualValues(t, 1, gjson.Get(out, "Inputs.0.Other.Shards").Int())
	assert.True(t, gjson.Get(out, "Inputs.0.Other.Where").Exists())
}

func TestExplainWhereBadValue(t *testing.T) {
	_, err := run(t, "explain", "--column", "name", "--where", "id=abc", "users")
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, vterrors.Code(err))
}

func TestExplainWhereSyntax(t *testing.T) {
	_, err := run(t, "explain", "--column", "name", "--where", "id", "users")
	assert.ErrorContains(t, err, "--where must be <column>=<value>")
}

func TestMissingClusterState(t *testing.T) {
	Root.SetArgs([]string{"--cluster-state", filepath.Join(t.TempDir(), "missing.json"), "tables"})
	Root.SetOut(&bytes.Buffer{})
	Root.SetErr(&bytes.Buffer{})
	err := Root.Execute()
	assert.ErrorContains(t, err, "opening cluster state")
}

func intArray(r gjson.Result) []int {
	var out []int
	for _, v := range r.Array() {
		out = append(out, int(v.Int()))
	}
	return out
}
