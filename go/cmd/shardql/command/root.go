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

/*
Package command contains the commands of the shardql tool. The root command
loads a cluster state snapshot and builds what every subcommand needs: the
configuration, the schema of the doc tables and the planner.

Commands attach themselves to Root in an init function, keep their logic in
a function assigned to RunE and their flags in an anonymous struct.
*/
package command

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shardql.io/shardql/go/vt/log"
	"shardql.io/shardql/go/vt/servenv"
	"shardql.io/shardql/go/vt/srvtopo"
	"shardql.io/shardql/go/vt/srvtopo/memorysrvtopo"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/evalengine"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/metadata/doc"
	"shardql.io/shardql/go/vt/vtgate/metadata/table"
	"shardql.io/shardql/go/vt/vtgate/planbuilder"
	"shardql.io/shardql/go/vt/vtgate/semantics"
)

var (
	clusterStateFile string

	cfg     servenv.Config
	schema  *doc.DocSchemaInfo
	env     semantics.Env
	planner *planbuilder.Planner

	commandCtx    context.Context
	commandCancel context.CancelFunc

	// Root is the root command of shardql.
	Root = &cobra.Command{
		Use:   "shardql",
		Short: "shardql resolves routing and plans statements against a cluster state snapshot.",
		Long: "`shardql` loads a cluster state, as served by the placement service, from a JSON file.\n\n" +
			"It shows where the shards of a table are read from for a replica preference, " +
			"and how a statement on a table would be planned.",
		PersistentPreRunE: preRun,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if commandCancel != nil {
				commandCancel()
			}
			log.Flush()
		},
	}
)

func preRun(cmd *cobra.Command, args []string) error {
	// Errors past flag parsing are not usage errors.
	cmd.SilenceUsage = true

	if err := log.Init(cmd.Flags()); err != nil {
		return err
	}
	var err error
	if cfg, err = servenv.LoadConfig(cmd.Flags()); err != nil {
		return err
	}

	f, err := os.Open(clusterStateFile)
	if err != nil {
		return vterrors.Wrapf(err, "opening cluster state")
	}
	defer f.Close()
	state, err := srvtopo.LoadClusterState(f)
	if err != nil {
		return vterrors.Wrapf(err, "loading cluster state %s", clusterStateFile)
	}
	log.InfoS("loaded cluster state", "file", clusterStateFile, "version", state.Version, "indices", len(state.IndexNames()))

	server := srvtopo.NewResilientServer(memorysrvtopo.NewServer(state), "ClusterState")
	schema = doc.NewDocSchemaInfo(server, srvtopo.NewOperationRouting(cfg.LocalNode), cfg.SchemaCacheTTL)
	env = semantics.Env{
		Schemas:   table.Schemas{metadata.DocSchema: schema},
		Functions: evalengine.NewFunctions(),
	}
	planner = planbuilder.NewPlanner(cfg)

	commandCtx, commandCancel = context.WithCancel(cmd.Context())
	return nil
}

// parseTableIdent reads "schema.table" or "table", which is in the doc
// schema.
func parseTableIdent(s string) metadata.TableIdent {
	if schemaName, name, ok := strings.Cut(s, "."); ok {
		return metadata.NewTableIdent(schemaName, name)
	}
	return metadata.NewTableIdent(metadata.DocSchema, s)
}

func init() {
	Root.PersistentFlags().StringVar(&clusterStateFile, "cluster-state", "", "path to a JSON cluster state snapshot")
	_ = Root.MarkPersistentFlagRequired("cluster-state")
	servenv.RegisterFlagsFor(Root.Name(), Root.PersistentFlags())
}
