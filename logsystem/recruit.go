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

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tagpartitioned/tpls/internal/log"
	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
	"github.com/tagpartitioned/tpls/policy"
	"github.com/tagpartitioned/tpls/tlogconn"
)

// TLogWorker is a candidate process recruitment can address to become
// one replica of a new LogSet.
type TLogWorker interface {
	Locality() logpb.LocalityData
	InitializeTLog(ctx context.Context, req *logpb.InitializeTLogRequest) (tlogconn.Endpoint, error)
}

// LogRouterWorker is a candidate process recruitment can address to
// become one log-router replica.
type LogRouterWorker interface {
	Locality() logpb.LocalityData
	InitializeLogRouter(ctx context.Context, req *logpb.InitializeLogRouterRequest) (tlogconn.Endpoint, error)
}

// RecruitmentPlan is the input to Recruit: the candidate workers for
// each role, the replication parameters the new primary and satellite
// sets should carry, and the tag universe the new epoch must cover.
type RecruitmentPlan struct {
	PrimaryWorkers   []TLogWorker
	SatelliteWorkers []TLogWorker
	RemoteWorkers    []TLogWorker
	RouterWorkers    []LogRouterWorker

	PrimaryLocality logpb.Locality
	RemoteLocality  logpb.Locality
	HasRemote       bool

	ReplicationFactor int
	WriteAntiQuorum   int
	Policy            policy.Policy

	AllTags       []logpb.Tag
	Epoch         int64
	RecruitmentID logpb.RecruitmentID
	StoreType     string
}

// Recruit drives the concurrent initialization of a new epoch's primary,
// satellite, and (if configured) remote log sets plus their log routers
// on top of old, a frozen LogSystem produced by EndOfEpoch. It returns
// the new running LogSystem, or ErrMasterRecoveryFailed if any worker's
// initialize-tLog/initialize-log-router call failed.
func Recruit(ctx context.Context, old *LogSystem, plan RecruitmentPlan) (*LogSystem, error) {
	logRouterTags := int32(0)
	if plan.HasRemote {
		logRouterTags = int32(len(plan.PrimaryWorkers))
	}

	primaryStart := old.knownCommittedVersion + 1
	if v, ok := old.recoveredStartVersion(plan.PrimaryLocality); ok && v < primaryStart {
		primaryStart = v
	}
	satelliteStart := old.knownCommittedVersion + 1

	if primaryStart < old.knownCommittedVersion+1 {
		log.Infof(ctx, "recruiting old log routers for locality %d before primary initialization", plan.PrimaryLocality)
		recruitOldLogRouters(ctx, old, plan.PrimaryLocality, plan.RouterWorkers, logRouterTags)
	}

	primary := &logset.LogSet{
		IsLocal:           true,
		HasBestPolicy:     true,
		BestPolicy:        logset.IdentityBestPolicy,
		Locality:          plan.PrimaryLocality,
		ReplicationFactor: plan.ReplicationFactor,
		WriteAntiQuorum:   plan.WriteAntiQuorum,
		Policy:            plan.Policy,
		StartVersion:      primaryStart,
	}
	recoverTags := assignRecoverTags(plan.AllTags, len(plan.PrimaryWorkers), logRouterTags, primary)
	if err := initializeSet(ctx, primary, plan.PrimaryWorkers, plan, true, recoverTags, old, logRouterTags); err != nil {
		return nil, err
	}

	var satellite *logset.LogSet
	if len(plan.SatelliteWorkers) > 0 {
		satellite = &logset.LogSet{
			IsLocal:           true,
			HasBestPolicy:     false,
			Locality:          logpb.TagLocalityInvalid,
			ReplicationFactor: plan.ReplicationFactor,
			WriteAntiQuorum:   plan.WriteAntiQuorum,
			Policy:            plan.Policy,
			StartVersion:      satelliteStart,
		}
		satTags := assignRecoverTags(plan.AllTags, len(plan.SatelliteWorkers), 0, satellite)
		if err := initializeSet(ctx, satellite, plan.SatelliteWorkers, plan, false, satTags, old, 0); err != nil {
			return nil, err
		}
	}

	current := []*logset.LogSet{primary}
	if satellite != nil {
		current = append(current, satellite)
	}

	if plan.HasRemote {
		remote, err := recruitRemote(ctx, old, plan, logRouterTags)
		if err != nil {
			return nil, err
		}
		current = append(current, remote)
	}

	return New(current, old.history, logRouterTags, plan.RecruitmentID), nil
}

func initializeSet(
	ctx context.Context,
	set *logset.LogSet,
	workers []TLogWorker,
	plan RecruitmentPlan,
	isPrimary bool,
	recoverTags [][]logpb.Tag,
	old *LogSystem,
	logRouterTags int32,
) error {
	set.Replicas = make([]*tlogconn.Handle, len(workers))
	set.Localities = make([]logpb.LocalityData, len(workers))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range workers {
		i, w := i, w
		g.Go(func() error {
			var remoteTag logpb.Tag
			if isPrimary {
				remoteTag = logpb.Tag{Locality: logpb.TagLocalityRemoteLog, ID: int32(i)}
			}
			ep, err := w.InitializeTLog(gctx, &logpb.InitializeTLogRequest{
				RecruitmentID:         plan.RecruitmentID,
				StoreType:             plan.StoreType,
				RecoverFrom:           old.GetLogSystemConfig(),
				RecoverAt:             old.epochEndVersion,
				KnownCommittedVersion: old.knownCommittedVersion,
				Epoch:                 plan.Epoch,
				Locality:              set.Locality,
				RemoteTag:             remoteTag,
				IsPrimary:             isPrimary,
				AllTags:               plan.AllTags,
				StartVersion:          set.StartVersion,
				LogRouterTags:         logRouterTags,
				RecoverTags:           recoverTags[i],
			})
			if err != nil {
				return errors.Mark(errors.Newf("initialize tlog %d: %v", i, err), ErrMasterRecoveryFailed)
			}
			set.Localities[i] = w.Locality()
			set.Replicas[i] = tlogconn.NewHandle(ep, w.Locality())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, h := range set.Replicas {
		if ep := h.Get(); ep != nil {
			if err := ep.RecoveryFinished(ctx); err != nil {
				log.Warningf(ctx, "recovery-finished to replica %s failed: %v", ep.ID(), err)
			}
		}
	}
	return nil
}

func recruitRemote(ctx context.Context, old *LogSystem, plan RecruitmentPlan, logRouterTags int32) (*logset.LogSet, error) {
	remoteStart := old.knownCommittedVersion + 1
	if v, ok := old.recoveredStartVersion(plan.RemoteLocality); ok && v < remoteStart {
		remoteStart = v
	}
	if remoteStart < old.knownCommittedVersion+1 {
		recruitOldLogRouters(ctx, old, plan.RemoteLocality, plan.RouterWorkers, logRouterTags)
	}

	remote := &logset.LogSet{
		IsLocal:           false,
		HasBestPolicy:     true,
		BestPolicy:        logset.IdentityBestPolicy,
		Locality:          plan.RemoteLocality,
		ReplicationFactor: plan.ReplicationFactor,
		WriteAntiQuorum:   plan.WriteAntiQuorum,
		Policy:            plan.Policy,
		StartVersion:      remoteStart,
	}
	recoverTags := assignRecoverTags(plan.AllTags, len(plan.RemoteWorkers), 0, remote)
	if err := initializeSet(ctx, remote, plan.RemoteWorkers, plan, false, recoverTags, old, 0); err != nil {
		return nil, err
	}

	remote.LogRouters = make([]*tlogconn.Handle, len(plan.RouterWorkers))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range plan.RouterWorkers {
		i, w := i, w
		g.Go(func() error {
			ep, err := w.InitializeLogRouter(gctx, &logpb.InitializeLogRouterRequest{
				RecoveryCount:  plan.Epoch,
				RouterTag:      logpb.Tag{Locality: logpb.TagLocalityLogRouter, ID: int32(i)},
				StartVersion:   remote.StartVersion,
				TLogLocalities: remote.Localities,
				HasBestPolicy:  remote.HasBestPolicy,
				Locality:       remote.Locality,
			})
			if err != nil {
				return errors.Mark(errors.Newf("initialize log router %d: %v", i, err), ErrMasterRecoveryFailed)
			}
			remote.LogRouters[i] = tlogconn.NewHandle(ep, w.Locality())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return remote, nil
}

// recruitOldLogRouters walks every generation of old's history that has
// at least one local set; it does not skip generations by comparing start
// versions. For each, it ensures a LogSet at locality to hold router
// handles and fills it with logRouterTags freshly initialized routers
// starting at that generation's local-max start version, round-robin
// across workers.
func recruitOldLogRouters(ctx context.Context, old *LogSystem, locality logpb.Locality, workers []LogRouterWorker, logRouterTags int32) {
	if logRouterTags <= 0 || len(workers) == 0 {
		return
	}
	for _, gen := range old.history {
		lastStart, ok := gen.LocalMaxStartVersion()
		if !ok {
			continue
		}
		set := gen.SetWithLocality(locality)
		if set == nil {
			set = &logset.LogSet{Locality: locality, IsLocal: true, StartVersion: lastStart}
			gen.Sets = append(gen.Sets, set)
		}
		set.LogRouters = make([]*tlogconn.Handle, logRouterTags)
		for i := 0; i < int(logRouterTags); i++ {
			w := workers[i%len(workers)]
			ep, err := w.InitializeLogRouter(ctx, &logpb.InitializeLogRouterRequest{
				RouterTag:      logpb.Tag{Locality: logpb.TagLocalityLogRouter, ID: int32(i)},
				StartVersion:   lastStart,
				TLogLocalities: set.Localities,
				Locality:       locality,
			})
			if err != nil {
				log.Warningf(ctx, "old log router recruitment %d for generation ending %d failed: %v", i, gen.EpochEnd, err)
				continue
			}
			set.LogRouters[i] = tlogconn.NewHandle(ep, w.Locality())
		}
	}
}

// assignRecoverTags computes, per replica index, the tags that replica
// should recover: one router tag per replica index below logRouterTags,
// plus every tag from allTags whose best-location (or, absent a best
// policy, round-robin placement) selects that index.
func assignRecoverTags(allTags []logpb.Tag, n int, logRouterTags int32, set *logset.LogSet) [][]logpb.Tag {
	out := make([][]logpb.Tag, n)
	for i := 0; i < n && i < int(logRouterTags); i++ {
		out[i] = append(out[i], logpb.Tag{Locality: logpb.TagLocalityLogRouter, ID: int32(i)})
	}
	for _, tag := range allTags {
		if !set.MatchesTagLocality(tag) {
			continue
		}
		idx, ok := set.BestLocationFor(tag)
		if !ok {
			idx, ok = logset.IdentityBestPolicy(tag, n)
		}
		if ok && idx < n {
			out[idx] = append(out[idx], tag)
		}
	}
	return out
}
