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
)

// Segment is one time-ordered piece of a Multi cursor: a cursor good for
// versions in [Begin, End), where End is the generation's epoch-end
// version (or logpb.InvalidVersion for the open-ended current segment).
type Segment struct {
	Cursor Cursor
	Begin  logpb.Version
	End    logpb.Version
}

// Multi concatenates segments across historical generations and the
// current one: it exhausts each segment's cursor in turn, advancing to
// the next segment only once the current one reports no more data at or
// before its End. It backs the `begin < end` multi-generation span
// described for peek and the generation-crossing legs of router peek.
type Multi struct {
	segments []Segment
	idx      int
}

// NewMulti builds a cursor over segments, which must already be in
// ascending time order with no gaps the caller intends to tolerate.
func NewMulti(segments ...Segment) *Multi {
	return &Multi{segments: segments}
}

// Advance steps the current segment. When it is exhausted, Multi moves
// on to the next segment automatically and reports hasMore based on
// whether any segment remains.
func (m *Multi) Advance(ctx context.Context) (bool, error) {
	for m.idx < len(m.segments) {
		seg := m.segments[m.idx]
		hasMore, err := seg.Cursor.Advance(ctx)
		if err != nil {
			return false, errors.Wrapf(err, "multi cursor segment %d", m.idx)
		}
		if hasMore {
			return true, nil
		}
		// This segment is exhausted; check whether it actually reached
		// its declared end before moving on, so a short read is visible
		// to the caller as a gap rather than silently skipped.
		if seg.End != logpb.InvalidVersion && seg.Cursor.Version() < seg.End {
			return false, errors.Newf("multi cursor segment %d stopped at %d before its end %d",
				m.idx, seg.Cursor.Version(), seg.End)
		}
		m.idx++
	}
	return false, nil
}

func (m *Multi) Messages() []byte {
	if m.idx >= len(m.segments) {
		return nil
	}
	return m.segments[m.idx].Cursor.Messages()
}

func (m *Multi) Version() logpb.Version {
	if m.idx >= len(m.segments) {
		if len(m.segments) == 0 {
			return logpb.InvalidVersion
		}
		return m.segments[len(m.segments)-1].Cursor.Version()
	}
	return m.segments[m.idx].Cursor.Version()
}
