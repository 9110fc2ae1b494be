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
Package srvtopo gives read access to the cluster state: which indices exist,
what their schema is and where their shards live. It also resolves the
shards a read has to visit.
*/
package srvtopo

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// Server provides the current cluster state.
type Server interface {
	// CurrentState returns the latest snapshot. The snapshot must not be
	// modified by the caller.
	CurrentState(ctx context.Context) (*ClusterState, error)
}

// IndexMissingError is returned when a concrete index doesn't exist
// (anymore). Readers of a table treat it as an empty table.
type IndexMissingError struct {
	Index string
}

func (e *IndexMissingError) Error() string {
	return fmt.Sprintf("index %s is missing", e.Index)
}

// ErrorCode implements vterrors.ErrorWithCode.
func (e *IndexMissingError) ErrorCode() codes.Code { return codes.NotFound }

// IsIndexMissing reports whether err, or an error it wraps, is an IndexMissingError.
func IsIndexMissing(err error) bool {
	var missing *IndexMissingError
	return errors.As(err, &missing)
}
