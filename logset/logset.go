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

// Package logset defines LogSet, one replica group of tLogs plus its
// auxiliary log routers, and OldLogData, the historical-generation record
// that wraps a frozen set of LogSets.
package logset

import (
	"github.com/cockroachdb/errors"

	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/policy"
	"github.com/tagpartitioned/tpls/tlogconn"
)

// BestPolicyFunc maps a tag to the index of the single replica that should
// serve it cheaply, when the set declares HasBestPolicy. A nil
// BestPolicyFunc means the set has no canonical per-tag replica.
type BestPolicyFunc func(tag logpb.Tag, n int) (replicaIndex int, ok bool)

// IdentityBestPolicy selects replica (tag.ID mod n); it is the selection
// function installed for a primary LogSet ("hasBestPolicy=id").
func IdentityBestPolicy(tag logpb.Tag, n int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	idx := int(tag.ID) % n
	if idx < 0 {
		idx += n
	}
	return idx, true
}

// LogSet is one replica group: an ordered sequence of tLog handles plus
// the replication parameters and locality metadata that govern push,
// peek and recovery against it.
type LogSet struct {
	Replicas   []*tlogconn.Handle
	LogRouters []*tlogconn.Handle

	WriteAntiQuorum   int
	ReplicationFactor int
	Policy            policy.Policy

	Localities []logpb.LocalityData
	Locality   logpb.Locality

	IsLocal       bool
	HasBestPolicy bool
	BestPolicy    BestPolicyFunc

	StartVersion logpb.Version
}

// N returns the replica count.
func (s *LogSet) N() int { return len(s.Replicas) }

// Validate enforces the LogSet invariants: 1<=R<=N, 0<=W<N,
// (N-R)+W<R (quorum intersection), and localities.len==replicas.len.
func (s *LogSet) Validate() error {
	n := s.N()
	r, w := s.ReplicationFactor, s.WriteAntiQuorum
	if r < 1 || r > n {
		return errors.Newf("replication factor %d out of range for %d replicas", r, n)
	}
	if w < 0 || w >= n {
		return errors.Newf("write anti-quorum %d out of range for %d replicas", w, n)
	}
	if (n-r)+w >= r {
		return errors.Newf("quorum intersection violated: (n-r)+w=%d >= r=%d", (n-r)+w, r)
	}
	if len(s.Localities) != n {
		return errors.Newf("localities length %d != replica count %d", len(s.Localities), n)
	}
	return nil
}

// AntiQuorumSize is the minimum number of successful replies push must
// collect from this set: N - W.
func (s *LogSet) AntiQuorumSize() int {
	return s.N() - s.WriteAntiQuorum
}

// ReadQuorumSize is the minimum number of replicas a read (merged cursor)
// must consult to be guaranteed to see every durable message: N - R + 1.
func (s *LogSet) ReadQuorumSize() int {
	return s.N() - s.ReplicationFactor + 1
}

// MatchesTagLocality reports whether t should be routed to this set under
// the "Selecting within a generation" rule: exact locality match, or
// Special/Upgraded on either side.
func (s *LogSet) MatchesTagLocality(t logpb.Tag) bool {
	return t.MatchesLocality(s.Locality)
}

// BestLocationFor returns the replica index that owns tag under this
// set's best-policy selection, if any.
func (s *LogSet) BestLocationFor(tag logpb.Tag) (int, bool) {
	if !s.HasBestPolicy || s.BestPolicy == nil {
		return 0, false
	}
	return s.BestPolicy(tag, s.N())
}
