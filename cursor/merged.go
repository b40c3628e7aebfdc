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

	"github.com/hashicorp/go-multierror"

	"github.com/tagpartitioned/tpls/logpb"
)

// Merged union-merges several cursors that cover disjoint tags (or
// disjoint router sources) over the same version range, advancing the
// least-advanced member each round so the merged position never outruns
// any one input. It backs peek(begin, tags[]) and router-merged peek.
type Merged struct {
	members []Cursor
	at      logpb.Version
	batch   []byte
}

// NewMerged wraps members, none of which may be nil.
func NewMerged(members ...Cursor) *Merged {
	return &Merged{members: members}
}

// Advance steps the member(s) currently at the lowest version. It
// returns hasMore as long as any member still has more, concatenating
// every batch produced in this round.
func (m *Merged) Advance(ctx context.Context) (bool, error) {
	if len(m.members) == 0 {
		return false, nil
	}
	low := m.members[0].Version()
	for _, c := range m.members[1:] {
		if c.Version() < low {
			low = c.Version()
		}
	}

	var merr *multierror.Error
	var batch []byte
	more := false
	for _, c := range m.members {
		if c.Version() > low {
			more = true
			continue
		}
		hasMore, err := c.Advance(ctx)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		batch = append(batch, c.Messages()...)
		if hasMore {
			more = true
		}
	}
	m.batch = batch
	m.at = m.members[0].Version()
	for _, c := range m.members[1:] {
		if c.Version() < m.at {
			m.at = c.Version()
		}
	}
	return more, merr.ErrorOrNil()
}

func (m *Merged) Messages() []byte       { return m.batch }
func (m *Merged) Version() logpb.Version { return m.at }
