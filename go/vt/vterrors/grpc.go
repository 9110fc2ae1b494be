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
	"google.golang.org/grpc/status"
)

// This file contains functions to convert errors to and from gRPC codes.
// Planning errors cross the boundary to the distributed executor this way.

// grpcErrorLimit keeps messages below the 8 KiB header budget with some headroom.
const grpcErrorLimit = 8*1024 - 512

func truncateError(err error) string {
	if len(err.Error()) <= grpcErrorLimit {
		return err.Error()
	}
	return fmt.Sprintf("%v [...] [remainder of the error is truncated because gRPC has a size limit on errors.]", err.Error()[:grpcErrorLimit])
}

// ToGRPC returns an error as a gRPC error, with the appropriate error code.
func ToGRPC(err error) error {
	if err == nil {
		return nil
	}
	return status.Errorf(Code(err), "%v", truncateError(err))
}

// FromGRPC returns a gRPC error as a vtError, translating between error codes.
func FromGRPC(err error) error {
	if err == nil {
		return nil
	}
	code := codes.Unknown
	if s, ok := status.FromError(err); ok {
		code = s.Code()
		return New(code, s.Message())
	}
	return New(code, err.Error())
}
