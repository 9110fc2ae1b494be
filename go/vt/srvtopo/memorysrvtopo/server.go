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

// Package memorysrvtopo contains an in-memory srvtopo.Server, used by tests
// and by the command line tool to serve a cluster state read from a file.
package memorysrvtopo

import (
	"context"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/vt/srvtopo"
	"shardql.io/shardql/go/vt/vterrors"
)

// Server holds one cluster state. It is safe for concurrent use.
type Server struct {
	mu    sync.RWMutex
	state *srvtopo.ClusterState
	err   error

	calls atomic.Int64
}

var _ srvtopo.Server = (*Server)(nil)

// NewServer serves state.
func NewServer(state *srvtopo.ClusterState) *Server {
	return &Server{state: state}
}

// CurrentState implements srvtopo.Server.
func (s *Server) CurrentState(ctx context.Context) (*srvtopo.ClusterState, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.state == nil {
		return nil, vterrors.New(codes.Unavailable, "no cluster state")
	}
	return s.state, nil
}

// SetState replaces the served state. A state whose version is not higher
// than the current one gets the next version.
func (s *Server) SetState(state *srvtopo.ClusterState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil && state.Version <= s.state.Version {
		state.Version = s.state.Version + 1
	}
	s.state = state
}

// SetError makes CurrentState fail with err until it is reset with nil.
func (s *Server) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls returns how often CurrentState was called.
func (s *Server) Calls() int64 {
	return s.calls.Load()
}
