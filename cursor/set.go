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

package cursor

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
)

// SetCursor peeks one LogSet for a single tag. When the set declares a
// best-policy replica for the tag, that replica is tried first (the cheap
// path) and the others follow in index order; otherwise it tries replicas
// in index order. Either way it reads from the first one that answers,
// which is sufficient because any single replica
// among a read quorum of size N-R+1 is guaranteed to have observed every
// version the anti-quorum write discipline made durable — the caller is
// expected to have already restricted the candidate set to one that
// satisfies that bound when there is no best replica.
type SetCursor struct {
	set   *logset.LogSet
	tag   logpb.Tag
	begin logpb.Version

	order    []int // replica indices to try, in preference order
	pos      int
	messages []byte
}

// NewSetCursor builds a cursor over set for tag starting at begin.
func NewSetCursor(set *logset.LogSet, tag logpb.Tag, begin logpb.Version) *SetCursor {
	order := make([]int, 0, set.N())
	if idx, ok := set.BestLocationFor(tag); ok {
		order = append(order, idx)
	}
	for i := 0; i < set.N(); i++ {
		if len(order) > 0 && i == order[0] {
			continue
		}
		order = append(order, i)
	}
	return &SetCursor{set: set, tag: tag, begin: begin, order: order}
}

// Advance tries replicas in preference order until one answers
// successfully, or every candidate has failed.
func (c *SetCursor) Advance(ctx context.Context) (bool, error) {
	var lastErr error
	for _, idx := range c.order {
		h := c.set.Replicas[idx]
		ep := h.Get()
		if ep == nil {
			continue
		}
		sc := NewServerCursor(ep, c.tag, c.begin, logpb.InvalidVersion)
		hasMore, err := sc.Advance(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		c.messages = sc.Messages()
		c.begin = sc.Version()
		return hasMore, nil
	}
	if lastErr != nil {
		return false, errors.Wrap(lastErr, "set cursor exhausted all replicas")
	}
	return false, errors.New("set cursor has no live replicas")
}

func (c *SetCursor) Messages() []byte       { return c.messages }
func (c *SetCursor) Version() logpb.Version { return c.begin }
