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

// Package cursor implements the lazy, restartable, version-ordered
// iterators peek hands back to consumers: a capability set of four
// concrete variants — server (one replica), set (a read quorum within one
// LogSet), merged (union across tags or across sets), and multi
// (concatenation across historical generations and the current one) —
// composed by value rather than by an inheritance tree.
package cursor

import (
	"context"

	"github.com/tagpartitioned/tpls/logpb"
)

// Cursor is the common capability set every variant below implements:
// advance to the next batch, read the batch just fetched, and report the
// version the cursor is now positioned at.
type Cursor interface {
	// Advance fetches the next batch at or after the cursor's current
	// position. It returns hasMore=false once the cursor has reached its
	// horizon (the version passed at construction, or the live head of an
	// unbounded current-generation cursor returning no data).
	Advance(ctx context.Context) (hasMore bool, err error)
	// Messages returns the batch fetched by the most recent Advance.
	Messages() []byte
	// Version returns the exclusive upper bound of data yielded so far;
	// the next Advance, if any, starts here.
	Version() logpb.Version
}

// Dead is the permissive empty cursor returned when peek finds a gap it
// is allowed to paper over (e.g. a router-less historical segment reached
// in non-strict mode) rather than treat as worker-removed.
type Dead struct {
	At logpb.Version
}

func (d Dead) Advance(ctx context.Context) (bool, error) { return false, nil }
func (d Dead) Messages() []byte                          { return nil }
func (d Dead) Version() logpb.Version                    { return d.At }
