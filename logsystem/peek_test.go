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

package logsystem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
	"github.com/tagpartitioned/tpls/tlogconn"
)

// versionedEndpoint answers peek with batches up to a fixed horizon,
// letting tests drive a cursor across a known version range.
type versionedEndpoint struct {
	id      logpb.ReplicaID
	horizon logpb.Version
}

func (v *versionedEndpoint) ID() logpb.ReplicaID          { return v.id }
func (v *versionedEndpoint) Locality() logpb.LocalityData { return logpb.LocalityData{} }
func (v *versionedEndpoint) Commit(context.Context, *logpb.CommitRequest) (*logpb.CommitReply, error) {
	return &logpb.CommitReply{}, nil
}
func (v *versionedEndpoint) Pop(context.Context, *logpb.PopRequest) error   { return nil }
func (v *versionedEndpoint) Lock(context.Context) (*logpb.LockReply, error) { return &logpb.LockReply{}, nil }
func (v *versionedEndpoint) ConfirmRunning(context.Context, *logpb.ConfirmRunningRequest) error {
	return nil
}
func (v *versionedEndpoint) RecoveryFinished(context.Context) error { return nil }
func (v *versionedEndpoint) WaitFailure(ctx context.Context) error  { <-ctx.Done(); return ctx.Err() }
func (v *versionedEndpoint) Peek(ctx context.Context, req *logpb.PeekRequest) (*logpb.PeekReply, error) {
	if req.BeginVersion >= v.horizon {
		return &logpb.PeekReply{Begin: req.BeginVersion, End: req.BeginVersion}, nil
	}
	end := req.BeginVersion + 50
	if end > v.horizon {
		end = v.horizon
	}
	return &logpb.PeekReply{Messages: []byte("m"), Begin: req.BeginVersion, End: end}, nil
}

func localSetAt(startVersion logpb.Version, ep tlogconn.Endpoint) *logset.LogSet {
	return &logset.LogSet{
		Replicas:          []*tlogconn.Handle{tlogconn.NewHandle(ep, logpb.LocalityData{})},
		Localities:        []logpb.LocalityData{{}},
		ReplicationFactor: 1,
		IsLocal:           true,
		HasBestPolicy:     true,
		BestPolicy:        func(logpb.Tag, int) (int, bool) { return 0, true },
		StartVersion:      startVersion,
	}
}

func TestPeekTilesAcrossGenerations(t *testing.T) {
	g1Set := localSetAt(0, &versionedEndpoint{id: logpb.NewID(), horizon: 1000})
	g2Set := localSetAt(1000, &versionedEndpoint{id: logpb.NewID(), horizon: 2000})
	currentSet := localSetAt(2000, &versionedEndpoint{id: logpb.NewID(), horizon: 2500})

	history := []*logset.OldLogData{
		{Sets: []*logset.LogSet{g2Set}, EpochEnd: 2000},
		{Sets: []*logset.LogSet{g1Set}, EpochEnd: 1000},
	}
	s := New([]*logset.LogSet{currentSet}, history, 0, logpb.NewID())

	tag := logpb.Tag{ID: 1}
	c, err := s.Peek(500, tag, true)
	require.NoError(t, err)

	var last logpb.Version
	for {
		hasMore, err := c.Advance(context.Background())
		require.NoError(t, err)
		last = c.Version()
		if !hasMore {
			break
		}
	}
	require.Equal(t, logpb.Version(2500), last)
}

func TestPeekTagsMergesAcrossTags(t *testing.T) {
	setA := localSetAt(0, &versionedEndpoint{id: logpb.NewID(), horizon: 500})
	setA.Locality = logpb.Locality(1)
	setB := localSetAt(0, &versionedEndpoint{id: logpb.NewID(), horizon: 300})
	setB.Locality = logpb.Locality(2)

	s := New([]*logset.LogSet{setA, setB}, nil, 0, logpb.NewID())

	tags := []logpb.Tag{{Locality: logpb.Locality(1), ID: 1}, {Locality: logpb.Locality(2), ID: 2}}
	c, err := s.PeekTags(0, tags, true)
	require.NoError(t, err)

	var last logpb.Version
	for {
		hasMore, err := c.Advance(context.Background())
		require.NoError(t, err)
		last = c.Version()
		if !hasMore {
			break
		}
	}
	require.Equal(t, logpb.Version(500), last)
}

func TestPeekLogRouterRoutesByLocality(t *testing.T) {
	routerID := logpb.NewID()
	router := tlogconn.NewHandle(&versionedEndpoint{id: routerID}, logpb.LocalityData{})
	set := localSetAt(0, &versionedEndpoint{id: logpb.NewID(), horizon: 700})
	set.Locality = logpb.Locality(3)
	set.LogRouters = []*tlogconn.Handle{router}

	s := New([]*logset.LogSet{set}, nil, 1, logpb.NewID())

	c, err := s.PeekLogRouter(0, routerID, true)
	require.NoError(t, err)

	var last logpb.Version
	for {
		hasMore, err := c.Advance(context.Background())
		require.NoError(t, err)
		last = c.Version()
		if !hasMore {
			break
		}
	}
	require.Equal(t, logpb.Version(700), last)
}

func TestPeekLogRouterUnknownReturnsDead(t *testing.T) {
	set := localSetAt(0, &versionedEndpoint{id: logpb.NewID(), horizon: 700})
	s := New([]*logset.LogSet{set}, nil, 1, logpb.NewID())

	_, err := s.PeekLogRouter(0, logpb.NewID(), true)
	require.ErrorIs(t, err, ErrWorkerRemoved)

	c, err := s.PeekLogRouter(0, logpb.NewID(), false)
	require.NoError(t, err)
	hasMore, err := c.Advance(context.Background())
	require.NoError(t, err)
	require.False(t, hasMore)
}
