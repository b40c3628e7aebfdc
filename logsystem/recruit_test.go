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

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/policy"
	"github.com/tagpartitioned/tpls/tlogconn"
)

type fakeTLogWorker struct {
	id       logpb.ReplicaID
	locality logpb.LocalityData
	failInit bool
}

func (w *fakeTLogWorker) Locality() logpb.LocalityData { return w.locality }
func (w *fakeTLogWorker) InitializeTLog(ctx context.Context, req *logpb.InitializeTLogRequest) (tlogconn.Endpoint, error) {
	if w.failInit {
		return nil, errFakeInit
	}
	return &versionedEndpoint{id: w.id, horizon: 0}, nil
}

type fakeLogRouterWorker struct {
	id       logpb.ReplicaID
	locality logpb.LocalityData
}

func (w *fakeLogRouterWorker) Locality() logpb.LocalityData { return w.locality }
func (w *fakeLogRouterWorker) InitializeLogRouter(ctx context.Context, req *logpb.InitializeLogRouterRequest) (tlogconn.Endpoint, error) {
	return &versionedEndpoint{id: w.id, horizon: 0}, nil
}

var errFakeInit = errors.New("fake initialize failure")

func TestRecruitInitializesPrimaryAndSatellite(t *testing.T) {
	old := New(nil, nil, 0, logpb.NewID())

	plan := RecruitmentPlan{
		PrimaryWorkers:    []TLogWorker{&fakeTLogWorker{id: logpb.NewID()}, &fakeTLogWorker{id: logpb.NewID()}},
		SatelliteWorkers:  []TLogWorker{&fakeTLogWorker{id: logpb.NewID()}},
		PrimaryLocality:   1,
		ReplicationFactor: 2,
		WriteAntiQuorum:   1,
		Policy:            policy.AtLeast(2),
		AllTags:           []logpb.Tag{{Locality: 1, ID: 0}},
		Epoch:             1,
		RecruitmentID:     logpb.NewID(),
	}

	sys, err := Recruit(context.Background(), old, plan)
	require.NoError(t, err)
	require.Len(t, sys.Current(), 2)
	require.Len(t, sys.Current()[0].Replicas, 2)
	require.Len(t, sys.Current()[1].Replicas, 1)
	require.Equal(t, plan.RecruitmentID, sys.RecruitmentID())
}

func TestRecruitWithRemoteInitializesLogRouters(t *testing.T) {
	old := New(nil, nil, 0, logpb.NewID())

	plan := RecruitmentPlan{
		PrimaryWorkers:    []TLogWorker{&fakeTLogWorker{id: logpb.NewID()}},
		RemoteWorkers:     []TLogWorker{&fakeTLogWorker{id: logpb.NewID()}},
		RouterWorkers:     []LogRouterWorker{&fakeLogRouterWorker{id: logpb.NewID()}},
		PrimaryLocality:   1,
		RemoteLocality:    2,
		HasRemote:         true,
		ReplicationFactor: 1,
		WriteAntiQuorum:   0,
		Policy:            policy.AtLeast(1),
		AllTags:           []logpb.Tag{{Locality: 1, ID: 0}},
		Epoch:             1,
		RecruitmentID:     logpb.NewID(),
	}

	sys, err := Recruit(context.Background(), old, plan)
	require.NoError(t, err)
	require.Len(t, sys.Current(), 2)
	remote := sys.Current()[1]
	require.False(t, remote.IsLocal)
	require.Len(t, remote.LogRouters, 1)
	require.True(t, sys.HasRemoteLogs())
}

func TestRecruitFailsWhenAnyWorkerInitializeFails(t *testing.T) {
	old := New(nil, nil, 0, logpb.NewID())

	plan := RecruitmentPlan{
		PrimaryWorkers: []TLogWorker{
			&fakeTLogWorker{id: logpb.NewID()},
			&fakeTLogWorker{id: logpb.NewID(), failInit: true},
		},
		PrimaryLocality:   1,
		ReplicationFactor: 2,
		WriteAntiQuorum:   1,
		Policy:            policy.AtLeast(2),
		RecruitmentID:     logpb.NewID(),
	}

	_, err := Recruit(context.Background(), old, plan)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMasterRecoveryFailed)
}
