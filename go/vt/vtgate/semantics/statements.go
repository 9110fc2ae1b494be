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

package semantics

import (
	"slices"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

// OrderBy is one sort key of a select.
type OrderBy struct {
	Symbol     symbols.Symbol
	Descending bool
	NullsFirst bool
}

// SelectAnalysis is the analysis of a SELECT, or of a DELETE, which selects
// the rows it removes.
type SelectAnalysis struct {
	*Analysis

	groupBy []symbols.Symbol
	having  symbols.Symbol
	orderBy []OrderBy
	limit   *int
	offset  int
}

// NewSelectAnalysis starts the analysis of a SELECT.
func NewSelectAnalysis(env Env, parameters ...any) *SelectAnalysis {
	return &SelectAnalysis{Analysis: newAnalysis(SelectStatement, env, parameters)}
}

// NewDeleteAnalysis starts the analysis of a DELETE.
func NewDeleteAnalysis(env Env, parameters ...any) *SelectAnalysis {
	a := &SelectAnalysis{Analysis: newAnalysis(DeleteStatement, env, parameters)}
	a.isDelete = true
	return a
}

func (a *SelectAnalysis) GroupBy() []symbols.Symbol           { return slices.Clone(a.groupBy) }
func (a *SelectAnalysis) SetGroupBy(groupBy []symbols.Symbol) { a.groupBy = slices.Clone(groupBy) }
func (a *SelectAnalysis) HasGroupBy() bool                    { return len(a.groupBy) > 0 }
func (a *SelectAnalysis) OrderBy() []OrderBy                  { return slices.Clone(a.orderBy) }
func (a *SelectAnalysis) AddOrderBy(o OrderBy)                { a.orderBy = append(a.orderBy, o) }
func (a *SelectAnalysis) Offset() int                         { return a.offset }

// Having returns the filter applied after aggregation, nil if there is none.
func (a *SelectAnalysis) Having() symbols.Symbol { return a.having }

// SetHaving sets the filter applied after aggregation.
func (a *SelectAnalysis) SetHaving(having symbols.Symbol) { a.having = having }

// Limit returns the row limit, if any.
func (a *SelectAnalysis) Limit() (int, bool) {
	if a.limit == nil {
		return 0, false
	}
	return *a.limit, true
}

// SetLimit sets the row limit. A negative limit removes it.
func (a *SelectAnalysis) SetLimit(limit int) {
	if limit < 0 {
		a.limit = nil
		return
	}
	a.limit = &limit
}

// SetOffset sets the number of rows to skip. Negative offsets count as 0.
func (a *SelectAnalysis) SetOffset(offset int) { a.offset = max(offset, 0) }

// Normalize also normalizes the group by and order by symbols.
func (a *SelectAnalysis) Normalize() error {
	if err := a.Analysis.Normalize(); err != nil {
		return err
	}
	groupBy, err := a.normalizeAll(a.groupBy)
	if err != nil {
		return err
	}
	a.groupBy = groupBy
	if a.having != nil {
		if a.having, err = a.normalizer.Normalize(a.having); err != nil {
			return err
		}
	}
	for i := range a.orderBy {
		s, err := a.normalizer.Normalize(a.orderBy[i].Symbol)
		if err != nil {
			return err
		}
		a.orderBy[i].Symbol = s
	}
	return nil
}

// InsertAnalysis is the analysis of an INSERT with a column list and rows
// of values.
type InsertAnalysis struct {
	*Analysis

	columns       []symbols.Ref
	rows          [][]*symbols.Literal
	routingValues []string
}

// NewInsertAnalysis starts the analysis of an INSERT.
func NewInsertAnalysis(env Env, parameters ...any) *InsertAnalysis {
	return &InsertAnalysis{Analysis: newAnalysis(InsertStatement, env, parameters)}
}

// AddColumn adds a column to the column list. Naming a column twice fails.
func (a *InsertAnalysis) AddColumn(column metadata.ColumnIdent) (symbols.Ref, error) {
	if a.table == nil {
		return nil, &NoTableError{Column: column.FQN()}
	}
	ref, err := a.AllocateUniqueReference(metadata.ReferenceIdent{Table: a.table.Ident(), Column: column})
	if err != nil {
		return nil, err
	}
	a.columns = append(a.columns, ref)
	return ref, nil
}

func (a *InsertAnalysis) Columns() []symbols.Ref          { return slices.Clone(a.columns) }
func (a *InsertAnalysis) ValueRows() [][]*symbols.Literal { return slices.Clone(a.rows) }
func (a *InsertAnalysis) RoutingValues() []string         { return slices.Clone(a.routingValues) }

// AddValueRow normalizes one row of values against the column list. The
// row is only added when every value is valid.
func (a *InsertAnalysis) AddValueRow(values ...symbols.Symbol) error {
	if len(values) != len(a.columns) {
		return newValidationError("row", "%d values given for %d columns", len(values), len(a.columns))
	}
	row := make([]*symbols.Literal, len(values))
	for i, v := range values {
		lit, err := a.NormalizeInputValue(v, a.columns[i])
		if err != nil {
			return err
		}
		row[i] = lit
	}
	a.rows = append(a.rows, row)
	a.routingValues = append(a.routingValues, a.routingValue(row))
	return nil
}

// routingValue returns the clustered-by value of row as text, empty when
// the column isn't inserted or is null.
func (a *InsertAnalysis) routingValue(row []*symbols.Literal) string {
	clusteredBy, ok := a.table.ClusteredBy()
	if !ok {
		return ""
	}
	for i, ref := range a.columns {
		if ref.Info().Ident.Column != clusteredBy || row[i].IsNull() {
			continue
		}
		if s, err := row[i].ConvertTo(sqltypes.String); err == nil {
			return s.Value().(string)
		}
	}
	return ""
}

// Assignment is one SET column = value of an UPDATE.
type Assignment struct {
	Column symbols.Ref
	Value  symbols.Symbol
}

// UpdateAnalysis is the analysis of an UPDATE.
type UpdateAnalysis struct {
	*Analysis

	assignments []Assignment
}

// NewUpdateAnalysis starts the analysis of an UPDATE.
func NewUpdateAnalysis(env Env, parameters ...any) *UpdateAnalysis {
	return &UpdateAnalysis{Analysis: newAnalysis(UpdateStatement, env, parameters)}
}

// AddAssignment adds column = value. Values that normalize to a literal are
// validated against the column, other expressions are evaluated per row
// and kept. Columns that decide where a row is stored can't be updated.
func (a *UpdateAnalysis) AddAssignment(column metadata.ColumnIdent, value symbols.Symbol) error {
	if a.table == nil {
		return &NoTableError{Column: column.FQN()}
	}
	if slices.Contains(a.table.PrimaryKey(), column) {
		return &UnsupportedUpdateError{Column: column.FQN(), Reason: "primary key"}
	}
	if clusteredBy, ok := a.table.ClusteredBy(); ok && clusteredBy == column {
		return &UnsupportedUpdateError{Column: column.FQN(), Reason: "clustered by"}
	}
	if slices.Contains(a.table.PartitionedBy(), column) {
		return &UnsupportedUpdateError{Column: column.FQN(), Reason: "partitioned by"}
	}

	ref, err := a.AllocateUniqueReference(metadata.ReferenceIdent{Table: a.table.Ident(), Column: column})
	if err != nil {
		return err
	}
	normalized, err := a.normalizer.Normalize(value)
	if err != nil {
		return err
	}
	if _, isLiteral := normalized.(*symbols.Literal); isLiteral {
		if normalized, err = a.NormalizeInputValue(normalized, ref); err != nil {
			return err
		}
	}
	a.assignments = append(a.assignments, Assignment{Column: ref, Value: normalized})
	return nil
}

// Assignments returns the assignments in statement order.
func (a *UpdateAnalysis) Assignments() []Assignment { return slices.Clone(a.assignments) }
