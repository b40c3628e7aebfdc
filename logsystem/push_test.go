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
	"errors"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/tagpartitioned/tpls/internal/metric"
	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
	"github.com/tagpartitioned/tpls/tlogconn"
)

var errPromiseBroken = errors.New("promise broken")

type fakeReplica struct {
	id        logpb.ReplicaID
	fail      bool
	commits   int32
	pops      []logpb.PopRequest
	confirmed bool
	stopped   bool
}

func (f *fakeReplica) ID() logpb.ReplicaID          { return f.id }
func (f *fakeReplica) Locality() logpb.LocalityData { return logpb.LocalityData{} }
func (f *fakeReplica) Commit(context.Context, *logpb.CommitRequest) (*logpb.CommitReply, error) {
	if f.fail {
		return nil, errPromiseBroken
	}
	atomic.AddInt32(&f.commits, 1)
	return &logpb.CommitReply{}, nil
}
func (f *fakeReplica) Peek(context.Context, *logpb.PeekRequest) (*logpb.PeekReply, error) {
	return &logpb.PeekReply{}, nil
}
func (f *fakeReplica) Pop(_ context.Context, req *logpb.PopRequest) error {
	f.pops = append(f.pops, *req)
	return nil
}
func (f *fakeReplica) Lock(context.Context) (*logpb.LockReply, error) {
	return &logpb.LockReply{}, nil
}
func (f *fakeReplica) ConfirmRunning(context.Context, *logpb.ConfirmRunningRequest) error {
	if f.stopped {
		return ErrTLogStopped
	}
	f.confirmed = true
	return nil
}
func (f *fakeReplica) RecoveryFinished(context.Context) error { return nil }
func (f *fakeReplica) WaitFailure(ctx context.Context) error  { <-ctx.Done(); return ctx.Err() }

func newLocalSet(replicas ...*fakeReplica) *logset.LogSet {
	handles := make([]*tlogconn.Handle, len(replicas))
	locs := make([]logpb.LocalityData, len(replicas))
	for i, r := range replicas {
		handles[i] = tlogconn.NewHandle(r, logpb.LocalityData{})
	}
	return &logset.LogSet{
		Replicas:          handles,
		Localities:        locs,
		IsLocal:           true,
		ReplicationFactor: len(replicas),
		WriteAntiQuorum:   0,
	}
}

func TestPushMeetsAntiQuorum(t *testing.T) {
	r1 := &fakeReplica{id: logpb.NewID()}
	r2 := &fakeReplica{id: logpb.NewID()}
	r3 := &fakeReplica{id: logpb.NewID(), fail: true}
	set := newLocalSet(r1, r2, r3)
	set.WriteAntiQuorum = 1 // need N-W = 2 successes

	s := New([]*logset.LogSet{set}, nil, 0, logpb.NewID())
	err := s.Push(context.Background(), 0, 10, 0, [][]byte{[]byte("payload")}, logpb.NewID())
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&r1.commits))
	require.EqualValues(t, 1, atomic.LoadInt32(&r2.commits))
}

func TestPushFailsWithoutAntiQuorum(t *testing.T) {
	r1 := &fakeReplica{id: logpb.NewID(), fail: true}
	r2 := &fakeReplica{id: logpb.NewID(), fail: true}
	r3 := &fakeReplica{id: logpb.NewID()}
	set := newLocalSet(r1, r2, r3)
	set.WriteAntiQuorum = 0 // need all 3

	s := New([]*logset.LogSet{set}, nil, 0, logpb.NewID())
	err := s.Push(context.Background(), 0, 10, 0, [][]byte{[]byte("payload")}, logpb.NewID())
	require.ErrorIs(t, err, ErrMasterTLogFailed)
}

func TestPushRecordsMetrics(t *testing.T) {
	r1 := &fakeReplica{id: logpb.NewID()}
	set := newLocalSet(r1)

	s := New([]*logset.LogSet{set}, nil, 0, logpb.NewID())
	s.SetMetrics(metric.New())
	err := s.Push(context.Background(), 0, 10, 0, [][]byte{[]byte("payload")}, logpb.NewID())
	require.NoError(t, err)
	require.Equal(t, float64(1), testutil.ToFloat64(s.metrics.PushTotal.WithLabelValues("ok")))
}
