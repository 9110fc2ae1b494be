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

package symbols

import (
	"slices"

	"shardql.io/shardql/go/sqltypes"
)

var (
	// MatchAll is a where-clause without a query.
	MatchAll = &WhereClause{}
	// NoMatch is a where-clause known to match nothing.
	NoMatch = &WhereClause{noMatch: true}
)

// WhereClause is the filter of a statement together with what analysis
// could derive from it: the partitions it restricts to, a clustered-by
// value and a version predicate.
type WhereClause struct {
	query       Symbol
	noMatch     bool
	partitions  []string
	clusteredBy *Literal
	version     *int64
}

// NewWhereClause wraps query. A true literal matches everything, false and
// NULL match nothing.
func NewWhereClause(query Symbol) *WhereClause {
	if query == nil {
		return MatchAll
	}
	if lit, ok := query.(*Literal); ok {
		if b, isBool := lit.value.(bool); isBool && b {
			return MatchAll
		}
		if lit.IsNull() || lit.typ == sqltypes.Boolean {
			return NoMatch
		}
	}
	return &WhereClause{query: query}
}

func (w *WhereClause) clone() *WhereClause {
	c := *w
	c.partitions = slices.Clone(w.partitions)
	return &c
}

// HasQuery is true when rows need to be filtered.
func (w *WhereClause) HasQuery() bool { return w.query != nil }

// Query returns the filter, nil when there is none.
func (w *WhereClause) Query() Symbol { return w.query }

// NoMatch is true when the clause can't match any row.
func (w *WhereClause) NoMatch() bool { return w.noMatch }

// Partitions are the index names of the partitions the clause restricts to.
// Empty means all partitions.
func (w *WhereClause) Partitions() []string { return slices.Clone(w.partitions) }

// WithPartitions returns a copy restricted to partitions. Repeated names
// count once.
func (w *WhereClause) WithPartitions(partitions []string) *WhereClause {
	c := w.clone()
	c.partitions = slices.Compact(slices.Sorted(slices.Values(partitions)))
	return c
}

// ClusteredBy returns the literal value of the routing column, if the
// clause pins one.
func (w *WhereClause) ClusteredBy() (*Literal, bool) {
	return w.clusteredBy, w.clusteredBy != nil
}

// WithClusteredBy returns a copy pinned to value.
func (w *WhereClause) WithClusteredBy(value *Literal) *WhereClause {
	c := w.clone()
	c.clusteredBy = value
	return c
}

// Version returns the version the clause requires, if any.
func (w *WhereClause) Version() (int64, bool) {
	if w.version == nil {
		return 0, false
	}
	return *w.version, true
}

// WithVersion returns a copy requiring version.
func (w *WhereClause) WithVersion(version int64) *WhereClause {
	c := w.clone()
	c.version = &version
	return c
}

// Normalize returns the clause with its query normalized. A query that
// folds to a constant turns into match-all or no-match; derived
// partitions, clustered-by value and version are kept.
func (w *WhereClause) Normalize(n Normalizer) (*WhereClause, error) {
	if w.noMatch || w.query == nil {
		return w, nil
	}
	q, err := n.Normalize(w.query)
	if err != nil {
		return nil, err
	}
	folded := NewWhereClause(q)
	if folded.noMatch {
		return NoMatch, nil
	}
	c := w.clone()
	c.query = folded.query
	return c, nil
}

func (w *WhereClause) String() string {
	switch {
	case w.noMatch:
		return "NO MATCH"
	case w.query == nil:
		return "MATCH ALL"
	}
	return w.query.String()
}
