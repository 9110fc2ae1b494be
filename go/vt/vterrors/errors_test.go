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
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "no error"))
	assert.Nil(t, Wrapf(nil, "no error %d", 1))
}

func TestWrap(t *testing.T) {
	tests := []struct {
		err         error
		message     string
		wantMessage string
		wantCode    codes.Code
	}{
		{io.EOF, "read error", "read error: EOF", codes.Unknown},
		{New(codes.AlreadyExists, "oops"), "client error", "client error: oops", codes.AlreadyExists},
		{context.DeadlineExceeded, "routing", "routing: context deadline exceeded", codes.DeadlineExceeded},
	}

	for _, tt := range tests {
		got := Wrap(tt.err, tt.message)
		assert.Equal(t, tt.wantMessage, got.Error())
		assert.Equal(t, tt.wantCode, Code(got))
	}
}

func TestRootCause(t *testing.T) {
	x := New(codes.FailedPrecondition, "error")
	tests := []struct {
		err  error
		want error
	}{
		{err: nil, want: nil},
		{err: io.EOF, want: io.EOF},
		{err: Wrap(io.EOF, "ignored"), want: io.EOF},
		{err: Wrapf(Wrap(x, "inner"), "outer %d", 2), want: x},
		{err: x, want: x},
	}

	for i, tt := range tests {
		assert.Equal(t, tt.want, RootCause(tt.err), "test %d", i+1)
	}
}

func TestCause(t *testing.T) {
	assert.Nil(t, Cause(nil))
	assert.Nil(t, Cause(io.EOF))
	assert.Equal(t, io.EOF, Cause(Wrap(io.EOF, "ignored")))
}

func TestErrState(t *testing.T) {
	err := NewErrorf(codes.NotFound, UnknownTable, "unknown table '%s'", "t1")
	assert.Equal(t, UnknownTable, ErrState(err))
	assert.Equal(t, UnknownTable, ErrState(Wrap(err, "analyzing")))
	assert.Equal(t, Undefined, ErrState(io.EOF))
	assert.Equal(t, "UnknownTable", UnknownTable.String())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewErrorf(codes.Unavailable, UnavailableShards, "no active replica")))
	assert.True(t, IsRetryable(Wrap(context.DeadlineExceeded, "placement")))
	assert.False(t, IsRetryable(New(codes.InvalidArgument, "bad value")))
}

func TestGRPCRoundTrip(t *testing.T) {
	in := NewErrorf(codes.Unavailable, UnavailableShards, "shard %d of %s", 3, "users")
	out := FromGRPC(ToGRPC(in))
	require.Error(t, out)
	assert.Equal(t, codes.Unavailable, Code(out))
	assert.Equal(t, in.Error(), out.Error())

	long := New(codes.Internal, strings.Repeat("x", 10*1024))
	assert.Contains(t, ToGRPC(long).Error(), "truncated")
}
