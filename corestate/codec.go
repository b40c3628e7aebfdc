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

package corestate

import (
	"bytes"
	"context"
	"encoding/gob"

	"github.com/cockroachdb/errors"

	"github.com/tagpartitioned/tpls/logpb"
)

// Load reads and decodes the DBCoreState currently held by store. An
// empty store (nothing published yet) returns the zero DBCoreState and
// version 0.
func Load(ctx context.Context, store Store) (logpb.DBCoreState, int64, error) {
	raw, version, err := store.Read(ctx)
	if err != nil {
		return logpb.DBCoreState{}, 0, err
	}
	if len(raw) == 0 {
		return logpb.DBCoreState{}, version, nil
	}
	var state logpb.DBCoreState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&state); err != nil {
		return logpb.DBCoreState{}, 0, errors.Wrap(err, "decoding core state")
	}
	return state, version, nil
}

// Publish encodes state and compare-and-swaps it into store, returning
// the new version on success or ErrVersionMismatch if expectedVersion is
// stale.
func Publish(ctx context.Context, store Store, expectedVersion int64, state logpb.DBCoreState) (int64, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return 0, errors.Wrap(err, "encoding core state")
	}
	return store.CompareAndSwap(ctx, expectedVersion, buf.Bytes())
}
