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
	"github.com/tagpartitioned/tpls/cursor"
	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
)

// Peek assembles a cursor over tag's history starting at begin. It
// selects, within each generation it must cross, a "best" local set for
// the tag (one declaring a best-policy replica whose locality matches,
// falling back to any best-policy set if none match), and stitches
// historical generations onto the current one with a Multi cursor when
// begin predates the current generation's start. If throwIfDead is set,
// a gap in coverage fails with ErrWorkerRemoved; otherwise it yields the
// permissive empty Dead cursor. The special "txs" tag tolerates history
// exhaustion either way, returning whatever was gathered.
func (s *LogSystem) Peek(begin logpb.Version, tag logpb.Tag, throwIfDead bool) (cursor.Cursor, error) {
	segments, dead, err := s.peekSegments(begin, tag, throwIfDead)
	if err != nil {
		s.metrics.ObservePeek("failed")
		return nil, err
	}
	if dead != nil {
		s.metrics.ObservePeek("dead")
		return dead, nil
	}
	s.metrics.ObservePeek("ok")
	if len(segments) == 1 {
		return segments[0].Cursor, nil
	}
	return cursor.NewMulti(segments...), nil
}

// PeekTags union-merges Peek(begin, tag) for every tag in tags.
func (s *LogSystem) PeekTags(begin logpb.Version, tags []logpb.Tag, throwIfDead bool) (cursor.Cursor, error) {
	members := make([]cursor.Cursor, 0, len(tags))
	for _, tag := range tags {
		c, err := s.Peek(begin, tag, throwIfDead)
		if err != nil {
			return nil, err
		}
		members = append(members, c)
	}
	return cursor.NewMerged(members...), nil
}

// PeekLogRouter peeks on behalf of a log-router worker identified by
// routerID: it locates the generation (current first, then history)
// whose LogRouters contains that id, and reads the primary-side history
// for that set's locality the same way Peek does for a tag's locality.
func (s *LogSystem) PeekLogRouter(begin logpb.Version, routerID logpb.ReplicaID, throwIfDead bool) (cursor.Cursor, error) {
	loc, ok := s.routerLocality(routerID)
	if !ok {
		if throwIfDead {
			return nil, ErrWorkerRemoved
		}
		return cursor.Dead{At: begin}, nil
	}
	fauxTag := logpb.Tag{Locality: loc, ID: 0}
	return s.Peek(begin, fauxTag, throwIfDead)
}

func (s *LogSystem) routerLocality(routerID logpb.ReplicaID) (logpb.Locality, bool) {
	for _, set := range s.current {
		for _, h := range set.LogRouters {
			if ep := h.Get(); ep != nil && ep.ID() == routerID {
				return set.Locality, true
			}
		}
	}
	for _, gen := range s.history {
		for _, set := range gen.Sets {
			for _, h := range set.LogRouters {
				if ep := h.Get(); ep != nil && ep.ID() == routerID {
					return set.Locality, true
				}
			}
		}
	}
	return 0, false
}

func (s *LogSystem) peekSegments(
	begin logpb.Version, tag logpb.Tag, throwIfDead bool,
) (segments []cursor.Segment, dead cursor.Cursor, err error) {
	currentBest, ok := bestSetForTag(s.current, tag)
	if !ok {
		return nil, nil, ErrInternal
	}
	lastBegin, _ := maxLocalStartVersion(s.current)

	cur := lastBegin
	if begin < lastBegin {
		for _, gen := range s.history {
			thisBegin, ok := gen.LocalMaxStartVersion()
			if !ok {
				continue
			}
			if thisBegin < begin {
				thisBegin = begin
			}
			best, ok := bestSetForTag(gen.Sets, tag)
			if !ok {
				if tag.IsTxs() {
					break
				}
				if throwIfDead {
					return nil, nil, ErrWorkerRemoved
				}
				return nil, cursor.Dead{At: begin}, nil
			}
			segments = append([]cursor.Segment{{
				Cursor: cursor.NewSetCursor(best, tag, thisBegin),
				Begin:  thisBegin,
				End:    cur,
			}}, segments...)
			cur = thisBegin
			if begin >= cur {
				break
			}
		}
		if begin < cur && !tag.IsTxs() {
			if throwIfDead {
				return nil, nil, ErrWorkerRemoved
			}
			return nil, cursor.Dead{At: begin}, nil
		}
	}

	start := begin
	if lastBegin > start {
		start = lastBegin
	}
	segments = append(segments, cursor.Segment{
		Cursor: cursor.NewSetCursor(currentBest, tag, start),
		Begin:  start,
		End:    logpb.InvalidVersion,
	})
	return segments, nil, nil
}

// bestSetForTag implements the "best set" selection rule: the first
// local set whose locality matches tag and declares a best-policy
// replica, falling back to the first best-policy local set if none
// match the tag's locality.
func bestSetForTag(sets []*logset.LogSet, tag logpb.Tag) (*logset.LogSet, bool) {
	var fallback *logset.LogSet
	for _, set := range sets {
		if !set.IsLocal || !set.HasBestPolicy {
			continue
		}
		if fallback == nil {
			fallback = set
		}
		if set.MatchesTagLocality(tag) {
			return set, true
		}
	}
	if fallback != nil {
		return fallback, true
	}
	return nil, false
}

func maxLocalStartVersion(sets []*logset.LogSet) (logpb.Version, bool) {
	max := logpb.InvalidVersion
	found := false
	for _, s := range sets {
		if !s.IsLocal {
			continue
		}
		if !found || s.StartVersion > max {
			max, found = s.StartVersion, true
		}
	}
	return max, found
}
