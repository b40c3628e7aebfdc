// Copyright 2015 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License. See the AUTHORS file
// for names of contributors.

package cursor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
	"github.com/tagpartitioned/tpls/tlogconn"
)

var errTransient = errors.New("transient peek failure")

// fakeEndpoint serves peek requests from a fixed in-memory batch table
// keyed by BeginVersion, simulating a replica that has messages up to
// a fixed horizon.
type fakeEndpoint struct {
	id       logpb.ReplicaID
	horizon  logpb.Version
	batch    byte // distinguishing byte so merged-cursor tests can tell sources apart
	failOnce bool
}

func (f *fakeEndpoint) ID() logpb.ReplicaID                { return f.id }
func (f *fakeEndpoint) Locality() logpb.LocalityData       { return logpb.LocalityData{} }
func (f *fakeEndpoint) Commit(context.Context, *logpb.CommitRequest) (*logpb.CommitReply, error) {
	return &logpb.CommitReply{}, nil
}
func (f *fakeEndpoint) Pop(context.Context, *logpb.PopRequest) error       { return nil }
func (f *fakeEndpoint) Lock(context.Context) (*logpb.LockReply, error)     { return &logpb.LockReply{}, nil }
func (f *fakeEndpoint) ConfirmRunning(context.Context, *logpb.ConfirmRunningRequest) error {
	return nil
}
func (f *fakeEndpoint) RecoveryFinished(context.Context) error { return nil }
func (f *fakeEndpoint) WaitFailure(ctx context.Context) error  { <-ctx.Done(); return ctx.Err() }

func (f *fakeEndpoint) Peek(ctx context.Context, req *logpb.PeekRequest) (*logpb.PeekReply, error) {
	if f.failOnce {
		f.failOnce = false
		return nil, errTransient
	}
	if req.BeginVersion >= f.horizon {
		return &logpb.PeekReply{Begin: req.BeginVersion, End: req.BeginVersion}, nil
	}
	end := req.BeginVersion + 10
	if end > f.horizon {
		end = f.horizon
	}
	return &logpb.PeekReply{
		Messages: []byte{f.batch},
		Begin:    req.BeginVersion,
		End:      end,
	}, nil
}

func TestServerCursorAdvancesToHorizon(t *testing.T) {
	ep := &fakeEndpoint{horizon: 30}
	c := NewServerCursor(ep, logpb.Tag{ID: 1}, 0, 30)

	hasMore, err := c.Advance(context.Background())
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Equal(t, logpb.Version(10), c.Version())

	hasMore, err = c.Advance(context.Background())
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Equal(t, logpb.Version(20), c.Version())

	hasMore, err = c.Advance(context.Background())
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Equal(t, logpb.Version(30), c.Version())
}

func TestSetCursorPrefersBestReplica(t *testing.T) {
	best := &fakeEndpoint{horizon: 100, batch: 'b'}
	other := &fakeEndpoint{horizon: 100, batch: 'o'}

	s := &logset.LogSet{
		Replicas: []*tlogconn.Handle{
			tlogconn.NewHandle(other, logpb.LocalityData{}),
			tlogconn.NewHandle(best, logpb.LocalityData{}),
		},
		Localities:        []logpb.LocalityData{{}, {}},
		ReplicationFactor: 2,
		WriteAntiQuorum:   0,
		HasBestPolicy:     true,
		BestPolicy: func(tag logpb.Tag, n int) (int, bool) {
			return 1, true
		},
	}

	c := NewSetCursor(s, logpb.Tag{ID: 1}, 0)
	hasMore, err := c.Advance(context.Background())
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Equal(t, []byte{'b'}, c.Messages())
}

func TestMergedAdvancesLeastAdvancedMember(t *testing.T) {
	a := NewServerCursor(&fakeEndpoint{horizon: 10, batch: 'a'}, logpb.Tag{ID: 1}, 0, 10)
	b := NewServerCursor(&fakeEndpoint{horizon: 20, batch: 'b'}, logpb.Tag{ID: 2}, 0, 20)

	m := NewMerged(a, b)
	hasMore, err := m.Advance(context.Background())
	require.NoError(t, err)
	require.True(t, hasMore)
	// a and b both start at 0, so both advance this round.
	require.Equal(t, logpb.Version(10), m.Version())

	hasMore, err = m.Advance(context.Background())
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Equal(t, logpb.Version(10), m.Version())

	hasMore, err = m.Advance(context.Background())
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Equal(t, logpb.Version(20), m.Version())
}

func TestMultiConcatenatesSegments(t *testing.T) {
	g1 := NewServerCursor(&fakeEndpoint{horizon: 1000}, logpb.Tag{ID: 1}, 500, 1000)
	g2 := NewServerCursor(&fakeEndpoint{horizon: 2000}, logpb.Tag{ID: 1}, 1000, 2000)
	cur := NewServerCursor(&fakeEndpoint{horizon: 2500}, logpb.Tag{ID: 1}, 2000, logpb.InvalidVersion)

	multi := NewMulti(
		Segment{Cursor: g1, Begin: 500, End: 1000},
		Segment{Cursor: g2, Begin: 1000, End: 2000},
		Segment{Cursor: cur, Begin: 2000, End: logpb.InvalidVersion},
	)

	var lastVersion logpb.Version
	for {
		hasMore, err := multi.Advance(context.Background())
		require.NoError(t, err)
		lastVersion = multi.Version()
		if !hasMore {
			break
		}
	}
	require.Equal(t, logpb.Version(2500), lastVersion)
}
