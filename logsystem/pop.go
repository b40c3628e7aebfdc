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

	"github.com/tagpartitioned/tpls/internal/log"
	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
	"github.com/tagpartitioned/tpls/tlogconn"
)

// routerPopDelay and dataPopDelay are the coalescing windows pop waits
// before sending: router pops go out immediately (a router rarely has
// more than one outstanding requester to coalesce with), data pops wait
// briefly to batch requests arriving in the same tick.
const (
	routerPopDelay = 0
	dataPopDelay   = time.Second
)

type popKey struct {
	replica logpb.ReplicaID
	tag     logpb.Tag
}

type popEntry struct {
	upTo                  logpb.Version
	knownCommittedVersion logpb.Version
	lastSent              logpb.Version
}

// Pop advances the durable-watermark past which upTo-prefixed messages
// for tag may be discarded. Non-router tags are broadcast to every
// replica of every current local set; router tags (locality ==
// TagLocalityLogRouter) are broadcast to the routers of every current and
// historical set whose locality equals popLocality.
func (s *LogSystem) Pop(ctx context.Context, upTo, knownCommittedVersion logpb.Version, tag logpb.Tag, popLocality logpb.Locality) {
	if tag.Locality == logpb.TagLocalityLogRouter {
		s.popRoutersMatching(ctx, s.current, popLocality, upTo, knownCommittedVersion, tag)
		for _, gen := range s.history {
			s.popRoutersMatching(ctx, gen.Sets, popLocality, upTo, knownCommittedVersion, tag)
		}
		return
	}
	for _, set := range s.current {
		if !set.IsLocal {
			continue
		}
		for _, h := range set.Replicas {
			s.enqueuePop(ctx, h, upTo, knownCommittedVersion, tag, dataPopDelay)
		}
	}
}

func (s *LogSystem) popRoutersMatching(
	ctx context.Context, sets []*logset.LogSet, popLocality logpb.Locality, upTo, kcv logpb.Version, tag logpb.Tag,
) {
	for _, set := range sets {
		if set.Locality != popLocality {
			continue
		}
		for _, h := range set.LogRouters {
			s.enqueuePop(ctx, h, upTo, kcv, tag, routerPopDelay)
		}
	}
}

// enqueuePop folds (upTo, kcv) into the table entry for (replica, tag),
// taking the max of whatever is already pending, and ensures exactly one
// background task is draining that key.
func (s *LogSystem) enqueuePop(
	ctx context.Context, h *tlogconn.Handle, upTo, kcv logpb.Version, tag logpb.Tag, delay time.Duration,
) {
	ep := h.Get()
	if ep == nil {
		return
	}
	key := popKey{replica: ep.ID(), tag: tag}

	s.popMu.Lock()
	entry, exists := s.popTable[key]
	if !exists {
		entry = &popEntry{lastSent: logpb.InvalidVersion}
		s.popTable[key] = entry
	}
	if upTo > entry.upTo {
		entry.upTo = upTo
	}
	if kcv > entry.knownCommittedVersion {
		entry.knownCommittedVersion = kcv
	}
	s.metrics.SetPopQueueDepth(len(s.popTable))
	s.popMu.Unlock()

	if exists {
		return // a drain task for this key is already running
	}
	go s.drainPop(ctx, h, key, delay)
}

func (s *LogSystem) drainPop(ctx context.Context, h *tlogconn.Handle, key popKey, delay time.Duration) {
	for {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}

		s.popMu.Lock()
		entry := s.popTable[key]
		if entry == nil {
			s.popMu.Unlock()
			return
		}
		if entry.upTo <= entry.lastSent {
			delete(s.popTable, key)
			s.metrics.SetPopQueueDepth(len(s.popTable))
			s.popMu.Unlock()
			return
		}
		upTo, kcv := entry.upTo, entry.knownCommittedVersion
		s.popMu.Unlock()

		ep := h.Get()
		if ep == nil {
			// The replica handle has no endpoint; leave the entry in
			// place so pops to it stay suppressed until it rejoins.
			return
		}
		if err := ep.Pop(ctx, &logpb.PopRequest{UpTo: upTo, KnownCommittedVersion: kcv, Tag: key.tag}); err != nil {
			log.Warningf(ctx, "pop to replica %s tag %s failed: %v", ep.ID(), key.tag, err)
			return
		}

		s.popMu.Lock()
		if entry, ok := s.popTable[key]; ok {
			entry.lastSent = upTo
		}
		s.popMu.Unlock()
	}
}
