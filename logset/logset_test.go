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

package logset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/tlogconn"
)

func newTestSet(n, r, w int) *LogSet {
	reps := make([]*tlogconn.Handle, n)
	locs := make([]logpb.LocalityData, n)
	for i := range reps {
		reps[i] = tlogconn.NewHandle(nil, logpb.LocalityData{})
		locs[i] = logpb.LocalityData{}
	}
	return &LogSet{
		Replicas:          reps,
		Localities:        locs,
		ReplicationFactor: r,
		WriteAntiQuorum:   w,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, newTestSet(3, 3, 0).Validate())
	require.Error(t, newTestSet(5, 3, 1).Validate()) // (N-R)+W = 2+1 = 3, not < R=3

	ok := newTestSet(3, 3, 2) // (N-R)+W = 0+2 = 2 < R=3
	require.NoError(t, ok.Validate())

	bad2 := newTestSet(4, 2, 2) // (N-R)+W = 2+2 = 4, not < R=2
	require.Error(t, bad2.Validate())

	bad3 := newTestSet(3, 0, 0)
	require.Error(t, bad3.Validate())

	bad4 := newTestSet(3, 3, 3)
	require.Error(t, bad4.Validate())
}

func TestQuorumSizes(t *testing.T) {
	s := newTestSet(5, 3, 1)
	require.Equal(t, 4, s.AntiQuorumSize())
	require.Equal(t, 3, s.ReadQuorumSize())
}

func TestIdentityBestPolicy(t *testing.T) {
	idx, ok := IdentityBestPolicy(logpb.Tag{ID: 7}, 3)
	require.True(t, ok)
	require.Equal(t, 1, idx)

	_, ok = IdentityBestPolicy(logpb.Tag{ID: 7}, 0)
	require.False(t, ok)
}

func TestOldLogDataLocalMaxStartVersion(t *testing.T) {
	s1 := newTestSet(3, 3, 0)
	s1.IsLocal = true
	s1.StartVersion = 100
	s2 := newTestSet(3, 3, 0)
	s2.IsLocal = true
	s2.StartVersion = 200
	s3 := newTestSet(3, 3, 0)
	s3.IsLocal = false
	s3.StartVersion = 500

	o := &OldLogData{Sets: []*LogSet{s1, s2, s3}}
	v, ok := o.LocalMaxStartVersion()
	require.True(t, ok)
	require.Equal(t, logpb.Version(200), v)
}
