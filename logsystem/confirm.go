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

	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
)

// ConfirmEpochLive sends confirmRunning to every present replica of every
// local set and blocks until each set can prove, from the replicas that
// answered, that the set is still collectively live under its
// replication policy. It returns ErrTLogStopped if any replica reports
// that the epoch has already ended, and ErrMasterTLogFailed if a local
// set can never assemble a live-enough group from its responders.
func (s *LogSystem) ConfirmEpochLive(ctx context.Context, debugID logpb.DebugID) error {
	for _, set := range s.current {
		if !set.IsLocal {
			continue
		}
		if err := confirmSetLive(ctx, set, debugID); err != nil {
			return err
		}
	}
	return nil
}

func confirmSetLive(ctx context.Context, set *logset.LogSet, debugID logpb.DebugID) error {
	type reply struct {
		locality logpb.LocalityData
		err      error
	}

	present := 0
	replies := make(chan reply, set.N())
	for _, h := range set.Replicas {
		ep := h.Get()
		if ep == nil {
			continue
		}
		present++
		go func() {
			err := ep.ConfirmRunning(ctx, &logpb.ConfirmRunningRequest{DebugID: debugID})
			replies <- reply{locality: ep.Locality(), err: err}
		}()
	}
	if present == 0 {
		return errors.Mark(errors.New("no present replicas to confirm"), ErrMasterTLogFailed)
	}

	need := set.ReplicationFactor
	if room := present - set.WriteAntiQuorum; room < need {
		need = room
	}
	if need < 1 {
		need = 1
	}

	var group []logpb.LocalityData
	seen := 0
	for seen < present {
		select {
		case r := <-replies:
			seen++
			if r.err != nil {
				if errors.Is(r.err, ErrTLogStopped) {
					return ErrTLogStopped
				}
				continue
			}
			group = append(group, r.locality)
			if len(group) < need {
				continue
			}
			if set.Policy == nil || set.Policy.Validate(group) {
				return nil
			}
			if set.ReplicationFactor == 1 && len(group) >= 1 {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.Mark(errors.Newf("only %d/%d replicas confirmed live, policy unsatisfied", len(group), present),
		ErrMasterTLogFailed)
}
