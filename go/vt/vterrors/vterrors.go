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

// Package vterrors provides simple error handling primitives for shardql.
//
// Every error produced by the analysis and planning code carries a gRPC
// status code and, optionally, a State that describes the failure in SQL
// terms. Use New or Errorf to create an error, and Wrap or Wrapf to add
// context to an existing one without losing its code.
//
//	err := vterrors.Errorf(codes.InvalidArgument, "bad value %v", v)
//	...
//	return vterrors.Wrap(err, "normalizing insert row")
//
// Code and ErrState walk the wrapping chain and return the outermost code or
// state that was attached.
package vterrors

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

type fundamental struct {
	msg   string
	code  codes.Code
	state State
}

func (f *fundamental) Error() string { return f.msg }

func (f *fundamental) ErrorCode() codes.Code { return f.code }

func (f *fundamental) ErrorState() State { return f.state }

// New returns an error with the supplied message and code.
func New(code codes.Code, message string) error {
	return &fundamental{
		msg:  message,
		code: code,
	}
}

// Errorf formats according to a format specifier and returns the string
// as a value that satisfies error.
func Errorf(code codes.Code, format string, args ...any) error {
	return &fundamental{
		msg:  fmt.Sprintf(format, args...),
		code: code,
	}
}

// NewErrorf formats according to a format specifier and returns the string
// as a value that satisfies error. It also attaches a State.
func NewErrorf(code codes.Code, state State, format string, args ...any) error {
	msg := format
	if len(args) != 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &fundamental{
		msg:   msg,
		code:  code,
		state: state,
	}
}

type wrapping struct {
	cause error
	msg   string
}

func (w *wrapping) Error() string { return w.msg + ": " + w.cause.Error() }

func (w *wrapping) Cause() error { return w.cause }

func (w *wrapping) Unwrap() error { return w.cause }

// Wrap returns an error annotating err with message.
// If err is nil, Wrap returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrapping{
		cause: err,
		msg:   message,
	}
}

// Wrapf returns an error annotating err with the format specifier.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &wrapping{
		cause: err,
		msg:   fmt.Sprintf(format, args...),
	}
}

// Unwrap returns the next error in the chain, or nil.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Cause returns the immediate cause of a wrapped error, or nil if the error
// was not created by Wrap or Wrapf.
func Cause(err error) error {
	type causer interface {
		Cause() error
	}
	if c, ok := err.(causer); ok {
		return c.Cause()
	}
	return nil
}

// RootCause returns the innermost error of a chain of wrapped errors.
func RootCause(err error) error {
	for {
		cause := Cause(err)
		if cause == nil {
			return err
		}
		err = cause
	}
}

// Code returns the error code if it's a vtError.
// If err is nil, it returns codes.OK. Context errors are mapped to their
// gRPC counterparts.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var withCode ErrorWithCode
	if errors.As(err, &withCode) {
		return withCode.ErrorCode()
	}
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.Unknown
}

// ErrState returns the State of the first error in the chain that carries one.
func ErrState(err error) State {
	for err != nil {
		if withState, ok := err.(ErrorWithState); ok {
			if s := withState.ErrorState(); s != Undefined {
				return s
			}
		}
		err = errors.Unwrap(err)
	}
	return Undefined
}

// IsRetryable reports whether the caller may retry the failed operation
// against a fresher cluster state.
func IsRetryable(err error) bool {
	switch Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return true
	}
	return false
}

// Print is meant to print the vtError object in test failures.
// For tests only.
func Print(err error) string {
	return fmt.Sprintf("%v: %v", Code(err), err.Error())
}
