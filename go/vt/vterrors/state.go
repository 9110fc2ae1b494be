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

package vterrors

import (
	"fmt"

	"google.golang.org/grpc/codes"
)

// State is error state
type State int

// All the error states
const (
	Undefined State = iota

	// invalid argument
	BadFieldError
	DataOutOfRange
	DupFieldName
	WrongTypeForVar
	WrongValue
	WrongArguments

	// failed precondition
	StrictColumnPolicy
	WrongDynamicType

	// not found
	UnknownTable
	UnknownFunction
	UnknownSchema

	// server not available
	UnavailableShards

	// unimplemented
	NotSupportedYet

	// No state should be added below NumOfStates
	NumOfStates
)

var stateName = [NumOfStates]string{
	"Undefined",
	"BadFieldError",
	"DataOutOfRange",
	"DupFieldName",
	"WrongTypeForVar",
	"WrongValue",
	"WrongArguments",
	"StrictColumnPolicy",
	"WrongDynamicType",
	"UnknownTable",
	"UnknownFunction",
	"UnknownSchema",
	"UnavailableShards",
	"NotSupportedYet",
}

func (s State) String() string {
	if s < 0 || s >= NumOfStates {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateName[s]
}

// ErrorWithState is used to return the error State is such can be found
type ErrorWithState interface {
	ErrorState() State
}

// ErrorWithCode returns the grpc code
type ErrorWithCode interface {
	ErrorCode() codes.Code
}
