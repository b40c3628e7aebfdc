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

// Package corestate defines the persistence boundary a coordinator
// outside this module writes recovery decisions through. The control
// plane itself never persists anything; it only reads and
// compare-and-swaps through whatever Store a deployment wires in.
package corestate

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrVersionMismatch is returned by CompareAndSwap when expectedVersion
// no longer matches the stored version, meaning a concurrent writer won
// the race.
var ErrVersionMismatch = errors.New("corestate: compare-and-swap version mismatch")

// Store is the narrow interface a real coordination layer (etcd, a
// Raft-replicated KV, ZooKeeper) implements to hold one deployment's
// encoded logpb.DBCoreState. Every write is conditioned on the reader's
// last-observed version, the same optimistic-concurrency shape the
// config-snapshot callers (epoch-end recovery, recruitment) already use
// for their own in-memory bookkeeping.
type Store interface {
	// Read returns the current value and its version. An empty store
	// (nothing written yet) returns a zero version and a nil value.
	Read(ctx context.Context) (value []byte, version int64, err error)

	// CompareAndSwap writes value only if the store's current version
	// equals expectedVersion, returning the version of the newly
	// written value. It returns ErrVersionMismatch, wrapping the
	// store's current version, if expectedVersion is stale.
	CompareAndSwap(ctx context.Context, expectedVersion int64, value []byte) (newVersion int64, err error)
}
