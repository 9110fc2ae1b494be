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
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/engine"
	"shardql.io/shardql/go/vt/vtgate/evalengine"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/semantics"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

// Explain makes the Explain command.
var Explain = &cobra.Command{
	Use:   "explain [--column <name> ...] [--count] [--sum <column> ...] [--where <column>=<value>] [--order-by <column> [--desc]] [--limit <n>] [--offset <n>] [--delete] <table>",
	Short: "Plans a statement on a table and prints the plan.",
	Long: "Builds a SELECT, or a DELETE with --delete, on a table from the flags, " +
		"analyzes and plans it and prints the plan description as JSON.",
	Args: cobra.ExactArgs(1),
	RunE: commandExplain,
}

var explainOptions = struct {
	Columns []string
	Count   bool
	Sums    []string
	Where   string
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
	Delete  bool
}{}

func commandExplain(cmd *cobra.Command, args []string) error {
	a, err := analyzeExplain(cmd.Flags().Arg(0))
	if err != nil {
		return err
	}
	plan, err := planner.Plan(commandCtx, a)
	if err != nil {
		return err
	}
	data, err := engine.MarshalPlan(plan)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func analyzeExplain(tableName string) (*semantics.SelectAnalysis, error) {
	var a *semantics.SelectAnalysis
	if explainOptions.Delete {
		a = semantics.NewDeleteAnalysis(env)
	} else {
		a = semantics.NewSelectAnalysis(env)
	}
	ident := parseTableIdent(tableName)
	if err := a.Table(commandCtx, ident); err != nil {
		return nil, err
	}
	column := func(name string) (symbols.Ref, error) {
		return a.AllocateReference(metadata.ReferenceIdent{Table: ident, Column: metadata.ColumnIdentFromFQN(name)})
	}
	function := func(name string, args ...symbols.Symbol) (*symbols.Function, error) {
		types := make([]sqltypes.DataType, len(args))
		for i, arg := range args {
			types[i] = arg.ValueType()
		}
		info, err := a.FunctionInfo(metadata.NewFunctionIdent(name, types...))
		if err != nil {
			return nil, err
		}
		return a.AllocateFunction(info, args...), nil
	}

	for _, name := range explainOptions.Columns {
		ref, err := column(name)
		if err != nil {
			return nil, err
		}
		a.AddOutputName(name)
		a.AddOutputSymbol(ref)
	}
	if explainOptions.Count {
		count, err := function(evalengine.FnCount)
		if err != nil {
			return nil, err
		}
		a.AddOutputName("count(*)")
		a.AddOutputSymbol(count)
	}
	for _, name := range explainOptions.Sums {
		ref, err := column(name)
		if err != nil {
			return nil, err
		}
		sum, err := function(evalengine.FnSum, ref)
		if err != nil {
			return nil, err
		}
		a.AddOutputName("sum(" + name + ")")
		a.AddOutputSymbol(sum)
	}

	if explainOptions.Where != "" {
		name, value, ok := strings.Cut(explainOptions.Where, "=")
		if !ok {
			return nil, vterrors.Errorf(codes.InvalidArgument, "--where must be <column>=<value>, got %q", explainOptions.Where)
		}
		ref, err := column(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		lit, err := a.NormalizeInputValue(symbols.MustLiteral(strings.TrimSpace(value)), ref)
		if err != nil {
			return nil, err
		}
		eq, err := function(evalengine.OpEq, ref, lit)
		if err != nil {
			return nil, err
		}
		if err := a.SetWhereClause(eq); err != nil {
			return nil, err
		}
		if clusteredBy, ok := a.TableInfo().ClusteredBy(); ok && clusteredBy == ref.Info().Ident.Column {
			a.SetClusteredByLiteral(lit)
		}
	}

	if explainOptions.OrderBy != "" {
		ref, err := column(explainOptions.OrderBy)
		if err != nil {
			return nil, err
		}
		a.AddOrderBy(semantics.OrderBy{Symbol: ref, Descending: explainOptions.Desc})
	}
	a.SetLimit(explainOptions.Limit)
	a.SetOffset(explainOptions.Offset)

	if err := a.Normalize(); err != nil {
		return nil, err
	}
	return a, nil
}

func init() {
	Explain.Flags().StringSliceVar(&explainOptions.Columns, "column", nil, "column to select, repeatable")
	Explain.Flags().BoolVar(&explainOptions.Count, "count", false, "select count(*)")
	Explain.Flags().StringSliceVar(&explainOptions.Sums, "sum", nil, "column to select the sum of, repeatable")
	Explain.Flags().StringVar(&explainOptions.Where, "where", "", "equality filter <column>=<value>")
	Explain.Flags().StringVar(&explainOptions.OrderBy, "order-by", "", "column to order by")
	Explain.Flags().BoolVar(&explainOptions.Desc, "desc", false, "order descending")
	Explain.Flags().IntVar(&explainOptions.Limit, "limit", -1, "maximum number of rows, -1 for no limit")
	Explain.Flags().IntVar(&explainOptions.Offset, "offset", 0, "number of rows to skip")
	Explain.Flags().BoolVar(&explainOptions.Delete, "delete", false, "plan a DELETE instead of a SELECT")
	Root.AddCommand(Explain)
}
