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
	"fmt"

	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/vt/vterrors"
)

type ErrType int

const (
	UndefinedErrorType ErrType = iota
	UnsupportedErrorType
	BugErrorType
)

func printf(e SemanticsError, msg string, args ...any) string {
	format := msg

	switch e.Info().typ {
	case UnsupportedErrorType:
		format = "unsupported: " + format
	case BugErrorType:
		format = "[BUG] " + format
	}
	return fmt.Sprintf(format, args...)
}

// SemanticsError should be implemented by all errors in this package that arise from a semantic problem
type SemanticsError interface {
	Error() string
	Info() *SemanticsErrorInfo
}

// SemanticsErrorInfo provides additional information about a semantic error
type SemanticsErrorInfo struct {
	code  codes.Code
	state vterrors.State
	typ   ErrType
}

func (c *SemanticsErrorInfo) ErrorCode() codes.Code {
	switch c.typ {
	case UnsupportedErrorType:
		return codes.Unimplemented
	case BugErrorType:
		return codes.Internal
	}
	if c.code == codes.OK {
		return codes.Unknown
	}
	return c.code
}

func (c *SemanticsErrorInfo) State() vterrors.State {
	return c.state
}

func (c *SemanticsErrorInfo) ErrorType() ErrType {
	return c.typ
}

// Specific error implementations follow

// ValidationError is returned when a value doesn't fit the column it is
// assigned to.
type ValidationError struct {
	Column string
	Msg    string
}

func newValidationError(column string, format string, args ...any) *ValidationError {
	return &ValidationError{Column: column, Msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return printf(e, "Validation failed for %s: %s", e.Column, e.Msg)
}

func (e *ValidationError) Info() *SemanticsErrorInfo {
	return &SemanticsErrorInfo{state: vterrors.WrongValue, code: codes.InvalidArgument}
}

func (e *ValidationError) ErrorCode() codes.Code      { return e.Info().ErrorCode() }
func (e *ValidationError) ErrorState() vterrors.State { return e.Info().State() }

// DuplicateReferenceError is returned when a column that must be unique,
// e.g. in an insert column list, is named twice.
type DuplicateReferenceError struct {
	Column string
}

func (e *DuplicateReferenceError) Error() string {
	return printf(e, "reference '%s' repeated", e.Column)
}

func (e *DuplicateReferenceError) Info() *SemanticsErrorInfo {
	return &SemanticsErrorInfo{state: vterrors.DupFieldName, code: codes.AlreadyExists}
}

func (e *DuplicateReferenceError) ErrorCode() codes.Code      { return e.Info().ErrorCode() }
func (e *DuplicateReferenceError) ErrorState() vterrors.State { return e.Info().State() }

// UnknownFunctionError is returned for a function that isn't registered
// for the given argument types.
type UnknownFunctionError struct {
	Function string
}

func (e *UnknownFunctionError) Error() string {
	return printf(e, "unknown function: %s", e.Function)
}

func (e *UnknownFunctionError) Info() *SemanticsErrorInfo {
	return &SemanticsErrorInfo{state: vterrors.UnknownFunction, code: codes.NotFound}
}

func (e *UnknownFunctionError) ErrorCode() codes.Code      { return e.Info().ErrorCode() }
func (e *UnknownFunctionError) ErrorState() vterrors.State { return e.Info().State() }

// ParameterIndexError is returned when a statement refers to a parameter
// that was not provided.
type ParameterIndexError struct {
	Index int
	Count int
}

func (e *ParameterIndexError) Error() string {
	return printf(e, "parameter index %d out of range, %d parameters given", e.Index, e.Count)
}

func (e *ParameterIndexError) Info() *SemanticsErrorInfo {
	return &SemanticsErrorInfo{state: vterrors.WrongArguments, code: codes.InvalidArgument}
}

func (e *ParameterIndexError) ErrorCode() codes.Code      { return e.Info().ErrorCode() }
func (e *ParameterIndexError) ErrorState() vterrors.State { return e.Info().State() }

// UnsupportedUpdateError is returned when an update assigns a column that
// decides where a row is stored.
type UnsupportedUpdateError struct {
	Column string
	Reason string
}

func (e *UnsupportedUpdateError) Error() string {
	return printf(e, "updating %s column '%s'", e.Reason, e.Column)
}

func (e *UnsupportedUpdateError) Info() *SemanticsErrorInfo {
	return &SemanticsErrorInfo{state: vterrors.NotSupportedYet, typ: UnsupportedErrorType}
}

func (e *UnsupportedUpdateError) ErrorCode() codes.Code      { return e.Info().ErrorCode() }
func (e *UnsupportedUpdateError) ErrorState() vterrors.State { return e.Info().State() }

// NoTableError is returned when a column is resolved before the table of
// the statement is known.
type NoTableError struct {
	Column string
}

func (e *NoTableError) Error() string {
	return printf(e, "cannot resolve column '%s' without a table", e.Column)
}

func (e *NoTableError) Info() *SemanticsErrorInfo {
	return &SemanticsErrorInfo{typ: BugErrorType}
}

func (e *NoTableError) ErrorCode() codes.Code      { return e.Info().ErrorCode() }
func (e *NoTableError) ErrorState() vterrors.State { return e.Info().State() }
