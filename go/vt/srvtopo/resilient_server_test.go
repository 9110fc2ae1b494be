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

package srvtopo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingServer struct {
	mu    sync.Mutex
	calls int
	state *ClusterState
	err   error
}

func (s *countingServer) CurrentState(context.Context) (*ClusterState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.state, s.err
}

func (s *countingServer) set(state *ClusterState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state, s.err = state, err
}

func (s *countingServer) numCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestResilientServerCaches(t *testing.T) {
	setTimings(time.Hour, time.Hour, time.Second)
	defer setTimings(time.Second, time.Second, 5*time.Second)

	underlying := &countingServer{state: &ClusterState{Version: 1}}
	rs := NewResilientServer(underlying, "TestResilientServerCaches")
	ctx := context.Background()

	for range 5 {
		state, err := rs.CurrentState(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, state.Version)
	}
	assert.Equal(t, 1, underlying.numCalls())
	assert.EqualValues(t, 5, rs.Counts()[queryCategory])
}

func TestResilientServerKeepsStateOnError(t *testing.T) {
	setTimings(time.Hour, 0, time.Second)
	defer setTimings(time.Second, time.Second, 5*time.Second)

	underlying := &countingServer{state: &ClusterState{Version: 1}}
	rs := NewResilientServer(underlying, "TestResilientServerKeepsStateOnError")
	ctx := context.Background()

	_, err := rs.CurrentState(ctx)
	require.NoError(t, err)

	underlying.set(nil, errors.New("unreachable"))
	assert.Eventually(t, func() bool {
		state, err := rs.CurrentState(ctx)
		return err == nil && state.Version == 1 && rs.Counts()[cachedCategory] > 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestResilientServerReturnsFirstError(t *testing.T) {
	setTimings(time.Hour, time.Hour, time.Second)
	defer setTimings(time.Second, time.Second, 5*time.Second)

	underlying := &countingServer{err: errors.New("unreachable")}
	rs := NewResilientServer(underlying, "TestResilientServerReturnsFirstError")

	_, err := rs.CurrentState(context.Background())
	assert.EqualError(t, err, "unreachable")
	assert.EqualValues(t, 1, rs.Counts()[errorCategory])
}

type panickingServer struct{}

func (panickingServer) CurrentState(context.Context) (*ClusterState, error) {
	panic("boom")
}

func TestResilientServerRecoversFetchPanic(t *testing.T) {
	setTimings(time.Hour, time.Hour, time.Second)
	defer setTimings(time.Second, time.Second, 5*time.Second)

	rs := NewResilientServer(panickingServer{}, "TestResilientServerRecoversFetchPanic")
	_, err := rs.CurrentState(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

type blockingServer struct {
	release chan struct{}
}

func (b *blockingServer) CurrentState(ctx context.Context) (*ClusterState, error) {
	select {
	case <-b.release:
		return &ClusterState{Version: 2}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestResilientServerWaitHonorsContext(t *testing.T) {
	setTimings(time.Hour, time.Hour, time.Second)
	defer setTimings(time.Second, time.Second, 5*time.Second)

	underlying := &blockingServer{release: make(chan struct{})}
	rs := NewResilientServer(underlying, "TestResilientServerWaitHonorsContext")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := rs.CurrentState(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(underlying.release)
	assert.Eventually(t, func() bool {
		state, err := rs.CurrentState(context.Background())
		return err == nil && state.Version == 2
	}, 5*time.Second, 10*time.Millisecond)
}
