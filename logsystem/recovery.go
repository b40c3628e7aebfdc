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
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
	"github.com/tagpartitioned/tpls/policy"
)

// LockResult is one replica's answer (or non-answer) to a lock request
// issued during epoch-end recovery.
type LockResult struct {
	ReplicaIdx            int
	Locality              logpb.LocalityData
	End                   logpb.Version
	KnownCommittedVersion logpb.Version
	Responded             bool
}

// LockSet issues lock to every replica of set and waits for all replies
// or ctx cancellation, returning one LockResult per replica in replica
// order. A replica whose handle has no live endpoint, or whose Lock call
// errors, is reported with Responded=false.
func LockSet(ctx context.Context, set *logset.LogSet) []LockResult {
	results := make([]LockResult, set.N())
	done := make(chan int, set.N())
	for i, h := range set.Replicas {
		i, h := i, h
		go func() {
			results[i] = LockResult{ReplicaIdx: i, Locality: h.Locality()}
			ep := h.Get()
			if ep == nil {
				done <- i
				return
			}
			reply, err := ep.Lock(ctx)
			if err == nil {
				results[i].Responded = true
				results[i].End = reply.End
				results[i].KnownCommittedVersion = reply.KnownCommittedVersion
			}
			done <- i
		}()
	}
	for range results {
		select {
		case <-done:
		case <-ctx.Done():
			return results
		}
	}
	return results
}

// recoveryInfeasible is returned by getDurableVersion to signal that the
// responses gathered so far cannot yet (or will never, absent more
// responses) determine a safe recovery version.
var recoveryInfeasible = errors.New("recovery version not yet determinable")

// getDurableVersion computes the recovery tuple for one local set from
// its lock results, following the quorum-intersection floor
// (requiredCount = N+1-R+W) and the stability gate that forbids a
// proposal from increasing once one has been accepted.
func getDurableVersion(
	set *logset.LogSet, results []LockResult, lastProposal logpb.Version, hasLast bool,
) (proposal, knownCommittedVersion logpb.Version, err error) {
	n := set.N()
	r, w := set.ReplicationFactor, set.WriteAntiQuorum

	var ready []LockResult
	var available, unresponsive []logpb.LocalityData
	maxKCV := logpb.InvalidVersion
	for _, res := range results {
		if res.Responded {
			ready = append(ready, res)
			available = append(available, res.Locality)
			if res.KnownCommittedVersion > maxKCV {
				maxKCV = res.KnownCommittedVersion
			}
		} else {
			unresponsive = append(unresponsive, res.Locality)
		}
	}

	if len(ready) <= w {
		return logpb.InvalidVersion, logpb.InvalidVersion, recoveryInfeasible
	}
	if len(unresponsive) >= r && policy.Validate(unresponsive, set.Policy) {
		return logpb.InvalidVersion, logpb.InvalidVersion, recoveryInfeasible
	}
	if w > 0 && !policy.AllCombinationsInvalid(unresponsive, set.Policy, available, w) {
		return logpb.InvalidVersion, logpb.InvalidVersion, recoveryInfeasible
	}

	sort.Slice(ready, func(i, j int) bool { return ready[i].End < ready[j].End })

	absent := n - len(ready)
	newSafeBegin := w
	if newSafeBegin > len(ready)-1 {
		newSafeBegin = len(ready) - 1
	}
	safeEnd := r - absent

	proposal = ready[newSafeBegin].End
	knownCommittedVersion = maxKCV
	if floor := proposal - logpb.MaxReadTransactionLifeVersions; knownCommittedVersion < floor {
		knownCommittedVersion = floor
	}

	if hasLast {
		if safeEnd < 1 || safeEnd > len(ready) {
			return logpb.InvalidVersion, logpb.InvalidVersion, recoveryInfeasible
		}
		if ready[safeEnd-1].End >= lastProposal {
			return logpb.InvalidVersion, logpb.InvalidVersion, recoveryInfeasible
		}
	}
	return proposal, knownCommittedVersion, nil
}

// EndOfEpoch locks every replica of every current local set of prev and,
// from whichever replies have arrived by the time ctx is done or all
// locks resolve, computes one recovery proposal per local set. It
// returns ErrMasterRecoveryFailed if any local set's proposal remains
// infeasible. The returned LogSystem is frozen (Stopped()==true) and
// carries epochEndVersion = min over local sets of their proposals, and
// knownCommittedVersion = max over local sets of their proposed kcv.
//
// Unlike a long-running recovery task that republishes on every new
// lock reply, this is a single evaluation over the replies gathered
// before returning; a caller that wants the continuous-republish
// behavior calls it again as more replicas rejoin and lock.
func EndOfEpoch(ctx context.Context, prev *LogSystem) (*LogSystem, error) {
	type setOutcome struct {
		idx      int // index into prev.current
		proposal logpb.Version
		kcv      logpb.Version
	}
	outcomes := make([]setOutcome, 0, len(prev.current))

	for i, set := range prev.current {
		if !set.IsLocal {
			continue
		}
		results := LockSet(ctx, set)
		for _, res := range results {
			if res.Responded {
				prev.metrics.ObserveLockOutcome("responded")
			} else {
				prev.metrics.ObserveLockOutcome("unresponsive")
			}
		}

		var last logpb.Version
		hasLast := false
		prev.recoveryMu.Lock()
		if v, ok := prev.lastProposals[i]; ok {
			last, hasLast = v, true
		}
		prev.recoveryMu.Unlock()

		start := time.Now()
		proposal, kcv, err := getDurableVersion(set, results, last, hasLast)
		prev.metrics.ObserveRecovery(time.Since(start).Seconds())
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "local set %d", i), ErrMasterRecoveryFailed)
		}
		prev.recoveryMu.Lock()
		prev.lastProposals[i] = proposal
		prev.recoveryMu.Unlock()
		outcomes = append(outcomes, setOutcome{idx: i, proposal: proposal, kcv: kcv})
	}
	if len(outcomes) == 0 {
		return nil, errors.Mark(errors.New("no local sets to recover"), ErrMasterRecoveryFailed)
	}

	minEnd, maxKCV := outcomes[0].proposal, outcomes[0].kcv
	for _, o := range outcomes[1:] {
		if o.proposal < minEnd {
			minEnd = o.proposal
		}
		if o.kcv > maxKCV {
			maxKCV = o.kcv
		}
	}

	history := make([]*logset.OldLogData, 0, len(prev.history)+1)
	history = append(history, &logset.OldLogData{
		Sets:          prev.current,
		LogRouterTags: prev.logRouterTags,
		EpochEnd:      minEnd,
	})
	history = append(history, prev.history...)

	frozen := New(nil, history, prev.logRouterTags, prev.recruitmentID)
	frozen.stopped = true
	frozen.epochEndVersion = minEnd
	frozen.knownCommittedVersion = maxKCV
	// The per-local-set proposals just computed describe the generation
	// that has now moved into frozen.history[0]; carry them over so
	// recruitment can derive each new set's startVersion from them.
	prev.recoveryMu.Lock()
	for idx, v := range prev.lastProposals {
		frozen.lastProposals[idx] = v
	}
	prev.recoveryMu.Unlock()
	for _, o := range outcomes {
		frozen.lastKCVs[o.idx] = o.kcv
	}
	return frozen, nil
}

// recoveredStartVersion derives the start-version bound a new LogSet at
// locality should use, from the most recently closed generation's
// recovery proposal for the matching local set, per the "wait on
// getDurableVersion until it presents a value" rule: the bound is the
// earlier of one past the old set's known-committed version and the
// version the old set was proven durable through.
func (s *LogSystem) recoveredStartVersion(locality logpb.Locality) (logpb.Version, bool) {
	if len(s.history) == 0 {
		return logpb.InvalidVersion, false
	}
	latest := s.history[0]
	for idx, set := range latest.Sets {
		if set.Locality != locality {
			continue
		}
		proposal, ok := s.lastProposals[idx]
		if !ok {
			continue
		}
		kcv, ok := s.lastKCVs[idx]
		if !ok {
			kcv = proposal
		}
		bound := kcv + 1
		if proposal < bound {
			bound = proposal
		}
		return bound, true
	}
	return logpb.InvalidVersion, false
}
