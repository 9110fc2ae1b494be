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

// Package semantics holds the analysis of a statement: the table it works
// on, the references and functions it uses, the values bound to columns and
// the filter, all normalized so planning can work off literals.
package semantics

import (
	"context"
	"slices"
	"time"

	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/stats"
	"shardql.io/shardql/go/vt/log"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/evalengine"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/metadata/table"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

// StatementType is the kind of statement under analysis.
type StatementType int

const (
	SelectStatement StatementType = iota
	InsertStatement
	UpdateStatement
	DeleteStatement
)

func (t StatementType) String() string {
	switch t {
	case SelectStatement:
		return "SELECT"
	case InsertStatement:
		return "INSERT"
	case UpdateStatement:
		return "UPDATE"
	case DeleteStatement:
		return "DELETE"
	}
	return "UNKNOWN"
}

// AnalysisTimings tracks the time spent normalizing statements and values.
var AnalysisTimings = stats.NewTimings("AnalysisTimings", "Time spent normalizing analyzed statements", "Operation", "Normalize", "NormalizeInputValue")

// Env is what an analysis resolves names against. It is shared by all
// statements and must not change while they are analyzed.
type Env struct {
	Schemas   table.SchemaInfo
	Functions *evalengine.Functions
	// Resolver provides the values of cluster level references. May be nil.
	Resolver evalengine.ReferenceResolver
}

// Analysis is the state built up while analyzing a single statement. It is
// not safe for concurrent use.
type Analysis struct {
	typ        StatementType
	env        Env
	normalizer *evalengine.EvaluatingNormalizer
	parameters []any

	table       table.TableInfo
	granularity metadata.RowGranularity

	references     map[metadata.ReferenceIdent]symbols.Ref
	referenceOrder []symbols.Ref
	newColumns     []metadata.ReferenceInfo

	functions     map[string]*symbols.Function
	functionOrder []*symbols.Function
	hasAggregates bool

	outputNames        []string
	outputSymbols      []symbols.Symbol
	primaryKeyLiterals []*symbols.Literal
	clusteredByLiteral *symbols.Literal
	isDelete           bool

	whereClause *symbols.WhereClause
	version     *int64
}

func newAnalysis(typ StatementType, env Env, parameters []any) *Analysis {
	if env.Functions == nil {
		env.Functions = evalengine.NewFunctions()
	}
	return &Analysis{
		typ:         typ,
		env:         env,
		normalizer:  evalengine.NewEvaluatingNormalizer(env.Functions, metadata.Cluster, env.Resolver),
		parameters:  parameters,
		granularity: metadata.Cluster,
		references:  make(map[metadata.ReferenceIdent]symbols.Ref),
		functions:   make(map[string]*symbols.Function),
		whereClause: symbols.MatchAll,
	}
}

// Type returns the kind of statement.
func (a *Analysis) Type() StatementType { return a.typ }

// Table resolves the table the statement works on.
func (a *Analysis) Table(ctx context.Context, ident metadata.TableIdent) error {
	if a.env.Schemas == nil {
		return table.UnknownTable(ident)
	}
	info, err := a.env.Schemas.GetTableInfo(ctx, ident)
	if err != nil {
		return err
	}
	a.table = info
	a.raiseGranularity(info.RowGranularity())
	return nil
}

// TableInfo returns the resolved table, nil before Table succeeded.
func (a *Analysis) TableInfo() table.TableInfo { return a.table }

// RowGranularity is the finest granularity of anything the statement
// touches.
func (a *Analysis) RowGranularity() metadata.RowGranularity { return a.granularity }

func (a *Analysis) raiseGranularity(g metadata.RowGranularity) {
	a.granularity = metadata.MaxGranularity(a.granularity, g)
}

// AllocateReference returns the reference for ident, the same one for
// every call with an equal ident.
func (a *Analysis) AllocateReference(ident metadata.ReferenceIdent) (symbols.Ref, error) {
	return a.allocateReference(ident, false)
}

// AllocateUniqueReference is like AllocateReference but fails if ident was
// allocated before.
func (a *Analysis) AllocateUniqueReference(ident metadata.ReferenceIdent) (symbols.Ref, error) {
	return a.allocateReference(ident, true)
}

func (a *Analysis) allocateReference(ident metadata.ReferenceIdent, unique bool) (symbols.Ref, error) {
	if ref, ok := a.references[ident]; ok {
		if unique {
			return nil, &DuplicateReferenceError{Column: ident.Column.FQN()}
		}
		return ref, nil
	}
	if a.table == nil {
		return nil, &NoTableError{Column: ident.Column.FQN()}
	}
	if ident.Table != a.table.Ident() {
		return nil, vterrors.NewErrorf(codes.InvalidArgument, vterrors.UnknownTable, "table '%s' is not part of the statement", ident.Table)
	}

	var ref symbols.Ref
	if info, ok := a.table.GetReferenceInfo(ident.Column); ok {
		ref = symbols.NewReference(info)
	} else {
		dyn, err := table.GetDynamic(a.table, ident.Column)
		if err != nil {
			return nil, err
		}
		log.V(2).Infof("column %s is not in the schema of %s, using a dynamic reference", ident.Column, ident.Table)
		ref = dyn
	}
	a.references[ident] = ref
	a.referenceOrder = append(a.referenceOrder, ref)
	a.raiseGranularity(ref.Info().Granularity)
	return ref, nil
}

// References returns the allocated references in allocation order.
func (a *Analysis) References() []symbols.Ref { return slices.Clone(a.referenceOrder) }

// NewColumns returns the nested columns that object values added to the
// schema of the table, in the order they were seen.
func (a *Analysis) NewColumns() []metadata.ReferenceInfo { return slices.Clone(a.newColumns) }

// FunctionInfo looks up a function by name and argument types.
func (a *Analysis) FunctionInfo(ident metadata.FunctionIdent) (metadata.FunctionInfo, error) {
	impl, ok := a.env.Functions.Get(ident)
	if !ok {
		return metadata.FunctionInfo{}, &UnknownFunctionError{Function: ident.Key()}
	}
	return impl.Info(), nil
}

// AllocateFunction returns a function symbol for info applied to args. Equal
// calls share one symbol.
func (a *Analysis) AllocateFunction(info metadata.FunctionInfo, args ...symbols.Symbol) *symbols.Function {
	fn := symbols.NewFunction(info, args...)
	if existing, ok := a.functions[fn.Key()]; ok {
		return existing
	}
	a.functions[fn.Key()] = fn
	a.functionOrder = append(a.functionOrder, fn)
	if info.IsAggregate() {
		a.hasAggregates = true
	}
	return fn
}

// Functions returns the allocated functions in allocation order.
func (a *Analysis) Functions() []*symbols.Function { return slices.Clone(a.functionOrder) }

// HasAggregates reports whether an aggregate function was allocated.
func (a *Analysis) HasAggregates() bool { return a.hasAggregates }

// Parameters returns the positional parameters of the statement.
func (a *Analysis) Parameters() []any { return slices.Clone(a.parameters) }

// ParameterAt returns a parameter symbol for the zero based index.
func (a *Analysis) ParameterAt(index int) (*symbols.Parameter, error) {
	if index < 0 || index >= len(a.parameters) {
		return nil, &ParameterIndexError{Index: index, Count: len(a.parameters)}
	}
	return symbols.NewParameter(index, a.parameters[index]), nil
}

// WhereClause returns the filter, match-all when none was set.
func (a *Analysis) WhereClause() *symbols.WhereClause { return a.whereClause }

// SetWhereClause sets the filter to query, normalized.
func (a *Analysis) SetWhereClause(query symbols.Symbol) error {
	return a.SetWhereClauseClause(symbols.NewWhereClause(query))
}

// SetWhereClauseClause sets a filter that analysis already derived
// partitions, clustered-by value or version for. A clustered-by literal set
// before is kept unless where pins its own.
func (a *Analysis) SetWhereClauseClause(where *symbols.WhereClause) error {
	normalized, err := where.Normalize(a.normalizer)
	if err != nil {
		return err
	}
	if _, pinned := normalized.ClusteredBy(); !pinned && a.clusteredByLiteral != nil && !normalized.NoMatch() {
		normalized = normalized.WithClusteredBy(a.clusteredByLiteral)
	}
	a.whereClause = normalized
	return nil
}

// NoMatch reports whether the filter can't match any row.
func (a *Analysis) NoMatch() bool { return a.whereClause.NoMatch() }

// SetVersion restricts the statement to rows of version v.
func (a *Analysis) SetVersion(v int64) { a.version = &v }

// Version returns the version restriction, if any.
func (a *Analysis) Version() (int64, bool) {
	if a.version == nil {
		return 0, false
	}
	return *a.version, true
}

func (a *Analysis) OutputNames() []string                { return slices.Clone(a.outputNames) }
func (a *Analysis) SetOutputNames(names []string)        { a.outputNames = slices.Clone(names) }
func (a *Analysis) AddOutputName(name string)            { a.outputNames = append(a.outputNames, name) }
func (a *Analysis) OutputSymbols() []symbols.Symbol      { return slices.Clone(a.outputSymbols) }
func (a *Analysis) AddOutputSymbol(s symbols.Symbol)     { a.outputSymbols = append(a.outputSymbols, s) }
func (a *Analysis) IsDelete() bool                       { return a.isDelete }
func (a *Analysis) SetIsDelete(isDelete bool)            { a.isDelete = isDelete }
func (a *Analysis) ClusteredByLiteral() *symbols.Literal { return a.clusteredByLiteral }

// SetOutputSymbols replaces the output symbols.
func (a *Analysis) SetOutputSymbols(outputs []symbols.Symbol) {
	a.outputSymbols = slices.Clone(outputs)
}

// PrimaryKeyLiterals are the primary key values the filter pins, if any.
func (a *Analysis) PrimaryKeyLiterals() []*symbols.Literal { return slices.Clone(a.primaryKeyLiterals) }

func (a *Analysis) SetPrimaryKeyLiterals(literals []*symbols.Literal) {
	a.primaryKeyLiterals = slices.Clone(literals)
}

// SetClusteredByLiteral pins the routing value of the statement. The where
// clause carries it to routing.
func (a *Analysis) SetClusteredByLiteral(value *symbols.Literal) {
	a.clusteredByLiteral = value
	if value != nil && !a.whereClause.NoMatch() {
		a.whereClause = a.whereClause.WithClusteredBy(value)
	}
}

// Normalize normalizes the output symbols and the filter. Calling it again
// changes nothing.
func (a *Analysis) Normalize() error {
	defer AnalysisTimings.Record("Normalize", time.Now())

	outputs, err := a.normalizeAll(a.outputSymbols)
	if err != nil {
		return err
	}
	a.outputSymbols = outputs
	return a.SetWhereClauseClause(a.whereClause)
}

func (a *Analysis) normalizeAll(in []symbols.Symbol) ([]symbols.Symbol, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]symbols.Symbol, len(in))
	for i, s := range in {
		normalized, err := a.normalizer.Normalize(s)
		if err != nil {
			return nil, err
		}
		out[i] = normalized
	}
	return out, nil
}

// NormalizeInputValue turns a value bound to ref into a literal of the
// column's type:
//
//  1. the value is normalized and must become a literal
//  2. an untyped dynamic reference takes the type of the value, then the
//     value is converted to the column's type
//  3. object values are checked against the nested schema, unknown nested
//     columns follow the column policy of the object
//
// An object whose leaves are all null is a null value.
func (a *Analysis) NormalizeInputValue(input symbols.Symbol, ref symbols.Ref) (*symbols.Literal, error) {
	defer AnalysisTimings.Record("NormalizeInputValue", time.Now())

	info := ref.Info()
	column := info.Ident.Column.FQN()

	normalized, err := a.normalizer.Normalize(input)
	if err != nil {
		return nil, err
	}
	lit, ok := normalized.(*symbols.Literal)
	if !ok {
		return nil, newValidationError(column, "Invalid value of type '%s'", normalized.SymbolType())
	}

	if dyn, isDynamic := ref.(*symbols.DynamicReference); isDynamic && dyn.ValueType() == sqltypes.Undefined && !lit.IsNull() {
		typ, err := sqltypes.ForValue(lit.Value(), info.ObjectType == metadata.Ignored)
		if err != nil {
			return nil, newValidationError(column, "Invalid value: %v", err)
		}
		if err := dyn.SetValueType(typ); err != nil {
			return nil, err
		}
		info = dyn.Info()
	}

	converted, err := lit.ConvertTo(info.Type)
	if err != nil {
		return nil, newValidationError(column, "wrong type '%s'. expected: '%s'", lit.ValueType().Name(), info.Type.Name())
	}
	if info.Type != sqltypes.Object {
		return converted, nil
	}

	object, ok := converted.ObjectValue()
	if !ok || allNullLeaves(object) {
		return symbols.NullLiteral, nil
	}
	normalizedObject, err := a.normalizeObjectValue(object, info)
	if err != nil {
		return nil, err
	}
	return symbols.NewLiteral(sqltypes.Object, normalizedObject)
}

func (a *Analysis) normalizeObjectValue(value map[string]any, info metadata.ReferenceInfo) (map[string]any, error) {
	out := make(map[string]any, len(value))
	keys := make([]string, 0, len(value))
	for k := range value {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		v := value[key]
		nested := metadata.GetChild(info.Ident.Column, key)
		nestedInfo, known := a.lookupColumn(nested)
		if !known {
			if info.ObjectType == metadata.Ignored {
				out[key] = copyValue(v)
				continue
			}
			dyn, err := table.GetDynamic(a.table, nested)
			if err != nil {
				return nil, err
			}
			if v == nil {
				// Typed by the first non-null value.
				out[key] = nil
				continue
			}
			typ, err := sqltypes.ForValue(v, false)
			if err != nil {
				return nil, newValidationError(nested.FQN(), "Invalid value: %v", err)
			}
			if err := dyn.SetValueType(typ); err != nil {
				return nil, err
			}
			nestedInfo = dyn.Info()
			a.newColumns = append(a.newColumns, nestedInfo)
		}

		if v == nil {
			out[key] = nil
			continue
		}
		if m, isMap := v.(map[string]any); isMap && nestedInfo.Type == sqltypes.Object {
			nestedValue, err := a.normalizeObjectValue(m, nestedInfo)
			if err != nil {
				return nil, err
			}
			out[key] = nestedValue
			continue
		}
		primitive, err := normalizePrimitiveValue(v, nestedInfo)
		if err != nil {
			return nil, err
		}
		out[key] = primitive
	}
	return out, nil
}

func (a *Analysis) lookupColumn(column metadata.ColumnIdent) (metadata.ReferenceInfo, bool) {
	for _, info := range a.newColumns {
		if info.Ident.Column == column {
			return info, true
		}
	}
	return a.table.GetReferenceInfo(column)
}

func normalizePrimitiveValue(v any, info metadata.ReferenceInfo) (any, error) {
	converted, err := sqltypes.Convert(v, info.Type)
	if err != nil {
		return nil, newValidationError(info.Ident.Column.FQN(), "Invalid %s", info.Type.Name())
	}
	if b, ok := converted.([]byte); ok {
		return string(b), nil
	}
	return converted, nil
}

func allNullLeaves(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for _, v := range m {
		switch v := v.(type) {
		case nil:
		case map[string]any:
			if !allNullLeaves(v) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func copyValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		return sqltypes.CopyObject(m)
	}
	return v
}
