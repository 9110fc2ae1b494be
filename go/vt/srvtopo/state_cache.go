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
	"sync"
	"time"

	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/stats"
	"shardql.io/shardql/go/vt/log"
	"shardql.io/shardql/go/vt/vterrors"
)

// stateCache holds the last cluster state fetched from a Server. At most one
// fetch runs at a time. Callers only wait for it when nothing usable is
// cached.
type stateCache struct {
	fetch   func(ctx context.Context) (*ClusterState, error)
	counts  *stats.CountersWithSingleLabel
	ttl     time.Duration
	refresh time.Duration

	mu          sync.Mutex
	state       *ClusterState
	fetchedAt   time.Time
	attemptedAt time.Time
	err         error
	// inflight is closed once the running fetch has stored its outcome.
	inflight chan struct{}
}

func (c *stateCache) get(ctx context.Context) (*ClusterState, error) {
	c.counts.Add(queryCategory, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Past its TTL a state is still served for two refresh intervals, while
	// a newer one is fetched.
	usable := c.state != nil && time.Since(c.fetchedAt) < c.ttl+2*c.refresh
	if time.Since(c.attemptedAt) <= c.refresh {
		if usable {
			return c.state, nil
		}
		return nil, c.err
	}

	if c.inflight == nil {
		c.startFetch(ctx)
	}
	if usable {
		return c.state, nil
	}

	inflight := c.inflight
	c.mu.Unlock()
	select {
	case <-inflight:
	case <-ctx.Done():
		c.mu.Lock()
		return nil, ctx.Err()
	}
	c.mu.Lock()

	if c.state != nil {
		return c.state, nil
	}
	return nil, c.err
}

// startFetch fetches a new state in the background. c.mu must be held.
func (c *stateCache) startFetch(ctx context.Context) {
	done := make(chan struct{})
	c.inflight = done
	c.attemptedAt = time.Now()

	go func() {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), srvTopoTimeout)
		defer cancel()

		var (
			state *ClusterState
			err   error
		)
		defer func() {
			if r := recover(); r != nil {
				err = vterrors.Errorf(codes.Internal, "fetching cluster state panicked: %v", r)
			}
			c.mu.Lock()
			defer c.mu.Unlock()
			c.store(state, err, fetchCtx.Err() == context.DeadlineExceeded)
			close(done)
			c.inflight = nil
		}()
		state, err = c.fetch(fetchCtx)
	}()
}

// store records the outcome of a fetch. c.mu must be held. A failed fetch
// keeps the last state while it is within its TTL, or whenever the fetch
// timed out.
func (c *stateCache) store(state *ClusterState, err error, timedOut bool) {
	c.err = err
	if err == nil {
		c.state = state
		c.fetchedAt = time.Now()
		c.attemptedAt = c.fetchedAt
		return
	}

	c.counts.Add(errorCategory, 1)
	switch {
	case c.state == nil:
		log.Errorf("fetching cluster state failed: %v", err)
	case timedOut:
		log.Errorf("fetching cluster state timed out: %v, serving version %d", err, c.state.Version)
	case time.Since(c.fetchedAt) < c.ttl:
		c.counts.Add(cachedCategory, 1)
		log.Warningf("fetching cluster state failed: %v, serving version %d", err, c.state.Version)
	default:
		log.Errorf("fetching cluster state failed: %v, version %d expired", err, c.state.Version)
		c.state = nil
		c.fetchedAt = time.Time{}
	}
}
