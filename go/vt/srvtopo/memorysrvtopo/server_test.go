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

package memorysrvtopo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shardql.io/shardql/go/vt/srvtopo"
)

func TestServer(t *testing.T) {
	ctx := context.Background()
	s := NewServer(&srvtopo.ClusterState{Version: 3})

	got, err := s.CurrentState(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Version)

	s.SetState(&srvtopo.ClusterState{Version: 1})
	got, err = s.CurrentState(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, got.Version)

	s.SetError(errors.New("down"))
	_, err = s.CurrentState(ctx)
	assert.EqualError(t, err, "down")
	s.SetError(nil)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.CurrentState(cancelled)
	assert.ErrorIs(t, err, context.Canceled)

	assert.EqualValues(t, 4, s.Calls())
}
