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
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

var (
	// Routing makes the Routing command.
	Routing = &cobra.Command{
		Use:   "routing [--clustered-by <value>] [--partition <value> ...] [--format json|table] <table>",
		Short: "Shows the node, index and shards every read of a table goes to.",
		Long: "Resolves the routing of a table for the configured --preference. " +
			"--clustered-by narrows it to the shard of a routing value, " +
			"--partition to the partitions with the given values.",
		Args: cobra.ExactArgs(1),
		RunE: commandRouting,
	}
	// Tables makes the Tables command.
	Tables = &cobra.Command{
		Use:   "tables",
		Short: "Lists the tables of the doc schema.",
		Args:  cobra.NoArgs,
		RunE:  commandTables,
	}
)

var routingOptions = struct {
	ClusteredBy string
	Partitions  []string
	Format      string
}{}

func commandRouting(cmd *cobra.Command, args []string) error {
	ident := parseTableIdent(cmd.Flags().Arg(0))
	tbl, err := env.Schemas.GetTableInfo(commandCtx, ident)
	if err != nil {
		return err
	}

	where := symbols.MatchAll
	if cmd.Flags().Changed("clustered-by") {
		where = where.WithClusteredBy(symbols.MustLiteral(routingOptions.ClusteredBy))
	}
	if len(routingOptions.Partitions) > 0 {
		partitions := make([]string, len(routingOptions.Partitions))
		for i, value := range routingOptions.Partitions {
			partitions[i] = metadata.NewPartitionName(ident, value).IndexName()
		}
		where = where.WithPartitions(partitions)
	}

	ctx, cancel := context.WithTimeout(commandCtx, cfg.RoutingTimeout)
	defer cancel()
	routing, err := tbl.GetRouting(ctx, where, cfg.Preference)
	if err != nil {
		return err
	}

	switch routingOptions.Format {
	case "json":
		data, err := json.MarshalIndent(routing, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	case "table":
		return writeRoutingTable(cmd, routing)
	default:
		return vterrors.Errorf(codes.InvalidArgument, "unknown format %q, expected json or table", routingOptions.Format)
	}
}

func writeRoutingTable(cmd *cobra.Command, routing *metadata.Routing) error {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Node", "Index", "Shards")
	locations := routing.Locations()
	for _, node := range routing.NodeIDs() {
		indices := make([]string, 0, len(locations[node]))
		for index := range locations[node] {
			indices = append(indices, index)
		}
		slices.Sort(indices)
		for _, index := range indices {
			shards := make([]string, 0, len(locations[node][index]))
			for _, shard := range locations[node][index] {
				shards = append(shards, strconv.Itoa(shard))
			}
			if err := table.Append([]string{node, index, strings.Join(shards, ",")}); err != nil {
				return err
			}
		}
	}
	return table.Render()
}

func commandTables(cmd *cobra.Command, args []string) error {
	names, err := schema.TableNames(commandCtx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func init() {
	Routing.Flags().StringVar(&routingOptions.ClusteredBy, "clustered-by", "", "routing value to resolve the shard of")
	Routing.Flags().StringSliceVar(&routingOptions.Partitions, "partition", nil, "partition value to restrict to, repeatable")
	Routing.Flags().StringVar(&routingOptions.Format, "format", "json", "output format, json or table")
	Root.AddCommand(Routing)

	Root.AddCommand(Tables)
}
