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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tagpartitioned/tpls/internal/log"
	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
)

// Push fans a batched commit out to every replica of every local LogSet
// and resolves once each local set has collected an anti-quorum of
// successful replies (>= N-W). Every replica error is logged and counted
// as a missing reply, whatever its kind; errors are not told apart, so a
// broken promise is treated like any other failure. A set whose replies
// can no longer reach N-W successes fails the push with
// ErrMasterTLogFailed.
func (s *LogSystem) Push(
	ctx context.Context,
	prevVersion, version, knownCommittedVersion logpb.Version,
	payloads [][]byte,
	debugID logpb.DebugID,
) error {
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for setIdx, set := range s.current {
		if !set.IsLocal || len(set.Replicas) == 0 {
			continue
		}
		set := set
		payload := payloadFor(payloads, setIdx)
		g.Go(func() error {
			return s.pushToSet(ctx, set, prevVersion, version, knownCommittedVersion, payload, debugID)
		})
	}
	err := g.Wait()
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	s.metrics.ObservePush(outcome, time.Since(start).Seconds())
	return err
}

func payloadFor(payloads [][]byte, setIdx int) []byte {
	if setIdx < len(payloads) {
		return payloads[setIdx]
	}
	return nil
}

func (s *LogSystem) pushToSet(
	ctx context.Context,
	set *logset.LogSet,
	prevVersion, version, knownCommittedVersion logpb.Version,
	payload []byte,
	debugID logpb.DebugID,
) error {
	need := set.AntiQuorumSize()
	if need <= 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make(chan bool, set.N())
	for _, h := range set.Replicas {
		h := h
		g.Go(func() error {
			ep := h.Get()
			if ep == nil {
				results <- false
				return nil
			}
			_, err := ep.Commit(gctx, &logpb.CommitRequest{
				PrevVersion:           prevVersion,
				Version:               version,
				KnownCommittedVersion: knownCommittedVersion,
				Payload:               payload,
				DebugID:               debugID,
			})
			if err != nil {
				log.Warningf(gctx, "commit to replica %s failed: %v", ep.ID(), err)
				results <- false
				return nil
			}
			results <- true
			return nil
		})
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	successes := 0
	replies := 0
	for replies < set.N() {
		select {
		case ok := <-results:
			replies++
			if ok {
				successes++
				if successes >= need {
					return nil
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	<-done
	return ErrMasterTLogFailed
}
