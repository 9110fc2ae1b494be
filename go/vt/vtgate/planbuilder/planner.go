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
Package planbuilder turns an analyzed statement into an engine plan.

A statement that can't match any row gets a NoopPlan, without asking where
the table lives. Otherwise the routing of the table is resolved, bounded by
the routing timeout, and:

  - aggregations without GROUP BY become a GlobalAggregate: the shards
    compute partial aggregates, the handler merges them into one row
  - everything else becomes a QueryAndFetch: the shards collect rows, the
    handler merges them when there are several upstreams or the rows need
    ordering or a limit
*/
package planbuilder

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/stats"
	"shardql.io/shardql/go/vt/log"
	"shardql.io/shardql/go/vt/servenv"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/engine"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/semantics"
)

var (
	// PlansByType counts the plans built, by plan type.
	PlansByType = stats.NewCountersWithSingleLabel(
		"PlannerPlans",
		"Number of plans built, by plan type",
		"Type",
		engine.PlanNoop.String(), engine.PlanGlobalAggregate.String(), engine.PlanQueryAndFetch.String())

	// PlanTimings tracks the time spent planning, by plan type.
	PlanTimings = stats.NewTimings(
		"PlannerTimings",
		"Time spent planning, by plan type",
		"Type",
		engine.PlanNoop.String(), engine.PlanGlobalAggregate.String(), engine.PlanQueryAndFetch.String())
)

// Planner builds plans. It holds no per-statement state and is safe for
// concurrent use.
type Planner struct {
	routingTimeout time.Duration
	preference     string
}

// NewPlanner returns a planner using the routing timeout and the default
// replica preference of cfg.
func NewPlanner(cfg servenv.Config) *Planner {
	return &Planner{routingTimeout: cfg.RoutingTimeout, preference: cfg.Preference}
}

// Plan builds the plan of a SELECT or DELETE analysis. The analysis must be
// normalized.
func (p *Planner) Plan(ctx context.Context, a *semantics.SelectAnalysis) (engine.Plan, error) {
	start := time.Now()
	plan, err := p.plan(ctx, a)
	if err != nil {
		return nil, err
	}
	planType := engine.TypeOf(plan).String()
	PlansByType.Add(planType, 1)
	PlanTimings.Record(planType, start)
	return plan, nil
}

func (p *Planner) plan(ctx context.Context, a *semantics.SelectAnalysis) (engine.Plan, error) {
	if a.NoMatch() && !a.HasAggregates() {
		return engine.NewNoopPlan(outputTypes(a)), nil
	}
	tbl := a.TableInfo()
	if tbl == nil {
		return nil, vterrors.New(codes.Internal, "[BUG] planning a statement without a table")
	}
	if a.HasGroupBy() {
		return nil, vterrors.NewErrorf(codes.Unimplemented, vterrors.NotSupportedYet, "GROUP BY on table %s is not supported", tbl.Ident())
	}
	if a.NoMatch() {
		// Aggregating no rows still yields one row, so no shard is read.
		log.V(2).Infof("planning global aggregate on %s over no shards", tbl.Ident())
		return planGlobalAggregate(a, metadata.EmptyRouting())
	}

	routing, err := p.resolveRouting(ctx, a)
	if err != nil {
		return nil, err
	}

	if a.HasAggregates() {
		log.V(2).Infof("planning global aggregate on %s over %d shards", tbl.Ident(), routing.NumShards())
		return planGlobalAggregate(a, routing)
	}
	log.V(2).Infof("planning query and fetch on %s over %d shards", tbl.Ident(), routing.NumShards())
	return planQueryAndFetch(a, routing)
}

func (p *Planner) resolveRouting(ctx context.Context, a *semantics.SelectAnalysis) (*metadata.Routing, error) {
	if p.routingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.routingTimeout)
		defer cancel()
	}
	routing, err := a.TableInfo().GetRouting(ctx, a.WhereClause(), p.preference)
	if err != nil {
		if ctx.Err() != nil {
			log.Warningf("routing of %s timed out after %v", a.TableInfo().Ident(), p.routingTimeout)
		}
		return nil, vterrors.Wrapf(err, "planning %s", a.TableInfo().Ident())
	}
	return routing, nil
}
