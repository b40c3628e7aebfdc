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

package tlogconn

import (
	"context"
	"sync"

	"github.com/tagpartitioned/tpls/logpb"
)

// FailureObserver tracks the live/failed state of every replica handle it
// was asked to watch and exposes a single channel that fires once any
// watched replica is believed to have failed. A failure it reports is not
// fatal on its own; it neither tears anything down nor recomputes quorum.
// LogSystem keeps a map of observers keyed by set index, but nothing in
// this module fills that map or calls Watch.
type FailureObserver struct {
	mu     sync.Mutex
	failed map[logpb.ReplicaID]bool
	notify chan logpb.ReplicaID
}

// NewFailureObserver returns an observer with no replicas yet registered.
func NewFailureObserver() *FailureObserver {
	return &FailureObserver{
		failed: make(map[logpb.ReplicaID]bool),
		notify: make(chan logpb.ReplicaID, 1),
	}
}

// Watch spawns a goroutine that blocks on h's current endpoint's
// WaitFailure and marks id failed when it returns nil. Before waiting, the
// goroutine exits if ctx is already cancelled or h has already changed;
// once WaitFailure is under way, only its return ends the goroutine, and a
// later change of h's endpoint does not. It never moves on to a new
// endpoint; watching one takes a fresh Watch call.
func (f *FailureObserver) Watch(ctx context.Context, id logpb.ReplicaID, h *Handle) {
	go func() {
		e := h.Get()
		if e == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-h.Changed():
			return
		default:
		}
		if err := e.WaitFailure(ctx); err != nil {
			return
		}
		f.mu.Lock()
		f.failed[id] = true
		f.mu.Unlock()
		select {
		case f.notify <- id:
		default:
		}
	}()
}

// IsFailed reports whether id has been observed to fail.
func (f *FailureObserver) IsFailed(id logpb.ReplicaID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failed[id]
}

// FailedCount returns the number of replicas currently believed failed.
func (f *FailureObserver) FailedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.failed)
}

// Notify returns the channel that receives a replica id each time a new
// failure is observed.
func (f *FailureObserver) Notify() <-chan logpb.ReplicaID {
	return f.notify
}
