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

// Package logsystem is the core orchestrator: push, peek, pop,
// confirm-epoch-live, epoch-end recovery, new-epoch recruitment, and the
// config-snapshot helpers that bind all of it into a persistable
// descriptor. Every exported entry point corresponds to one of the
// operations the external interfaces in the top-level design expose.
package logsystem

import (
	"sync"

	"github.com/tagpartitioned/tpls/internal/metric"
	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
	"github.com/tagpartitioned/tpls/tlogconn"
)

// LogSystem is one running or frozen generation of the control plane: the
// current LogSets, the append-only history of prior generations, and the
// bookkeeping (pop watermarks, recovery proposals, failure observers) that
// push/peek/pop/recovery/recruitment share. The current sets and history
// have no mutex: by convention a single owning goroutine drives every
// method that mutates them, matching the single-executor cooperative-task
// discipline the rest of the control plane follows. The pop table, which
// background drain goroutines also touch, is guarded by popMu, and the
// recovery proposals by recoveryMu.
type LogSystem struct {
	current       []*logset.LogSet
	history       []*logset.OldLogData
	logRouterTags int32
	recruitmentID logpb.RecruitmentID
	stopped       bool

	epochEndVersion       logpb.Version
	knownCommittedVersion logpb.Version

	failures map[int]*tlogconn.FailureObserver // keyed by index into current

	popMu    sync.Mutex
	popTable map[popKey]*popEntry

	recoveryMu    sync.Mutex
	lastProposals map[int]logpb.Version // per local-set index, last accepted proposal
	lastKCVs      map[int]logpb.Version // per local-set index, kcv at last accepted proposal

	historyDiscarded bool // latched once both recovery-complete flags have fired

	metrics *metric.Metrics
}

// New constructs a LogSystem over an already-recruited set of current
// LogSets and an existing history, as produced by recruitment or by
// FromLogSystemConfig.
func New(current []*logset.LogSet, history []*logset.OldLogData, logRouterTags int32, recruitmentID logpb.RecruitmentID) *LogSystem {
	s := &LogSystem{
		current:               current,
		history:               history,
		logRouterTags:         logRouterTags,
		recruitmentID:         recruitmentID,
		epochEndVersion:       logpb.InvalidVersion,
		knownCommittedVersion: logpb.InvalidVersion,
		failures:              make(map[int]*tlogconn.FailureObserver),
		popTable:              make(map[popKey]*popEntry),
		lastProposals:         make(map[int]logpb.Version),
		lastKCVs:              make(map[int]logpb.Version),
	}
	return s
}

// SetMetrics attaches the prometheus collectors push/peek/pop/recovery
// record against. A LogSystem with no metrics attached records nothing.
func (s *LogSystem) SetMetrics(m *metric.Metrics) { s.metrics = m }

// Current returns the live LogSets of the running generation.
func (s *LogSystem) Current() []*logset.LogSet { return s.current }

// History returns the append-only sequence of historical generations,
// most recent first.
func (s *LogSystem) History() []*logset.OldLogData { return s.history }

// Stopped reports whether this LogSystem value is a frozen, recovering
// generation (published by epoch-end recovery) rather than a live one.
func (s *LogSystem) Stopped() bool { return s.stopped }

// KnownCommittedVersion returns the latest known-committed watermark.
func (s *LogSystem) KnownCommittedVersion() logpb.Version { return s.knownCommittedVersion }

// EpochEndVersion returns the frozen epoch-end version, valid only once
// Stopped() is true.
func (s *LogSystem) EpochEndVersion() logpb.Version { return s.epochEndVersion }

// HasRemoteLogs reports whether this generation mints log-router tags for
// a configured remote region.
func (s *LogSystem) HasRemoteLogs() bool { return s.logRouterTags > 0 }

// RecruitmentID returns the identifier minted for the recruitment that
// produced this generation.
func (s *LogSystem) RecruitmentID() logpb.RecruitmentID { return s.recruitmentID }
