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
)

func TestConfirmEpochLiveSucceedsWithQuorum(t *testing.T) {
	r1 := &fakeReplica{id: logpb.NewID()}
	r2 := &fakeReplica{id: logpb.NewID()}
	r3 := &fakeReplica{id: logpb.NewID()}
	set := newLocalSet(r1, r2, r3)

	s := New([]*logset.LogSet{set}, nil, 0, logpb.NewID())
	err := s.ConfirmEpochLive(context.Background(), logpb.NewID())
	require.NoError(t, err)
}

func TestConfirmEpochLiveObservesStopped(t *testing.T) {
	r1 := &fakeReplica{id: logpb.NewID(), stopped: true}
	r2 := &fakeReplica{id: logpb.NewID(), stopped: true}
	r3 := &fakeReplica{id: logpb.NewID(), stopped: true}
	set := newLocalSet(r1, r2, r3)

	s := New([]*logset.LogSet{set}, nil, 0, logpb.NewID())
	err := s.ConfirmEpochLive(context.Background(), logpb.NewID())
	require.ErrorIs(t, err, ErrTLogStopped)
}
