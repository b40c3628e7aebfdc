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
	"sync"

	"github.com/tagpartitioned/tpls/logpb"
)

// Handle is a single-writer, multi-reader cell wrapping an optional
// endpoint for one replica. Push, peek, pop and failure-watch all hold
// the same Handle. Set is its only writer; no code in this module calls
// Set, so a Handle keeps the endpoint it was created with. Get never
// blocks. A Handle is created once per replica for the
// lifetime of the generation that owns it and is shared verbatim with
// router recruitment and peek when a generation becomes historical.
type Handle struct {
	mu       sync.Mutex
	endpoint Endpoint
	locality logpb.LocalityData
	ch       chan struct{} // closed and replaced on every Set
}

// NewHandle wraps an initial (possibly nil) endpoint.
func NewHandle(e Endpoint, locality logpb.LocalityData) *Handle {
	return &Handle{endpoint: e, locality: locality, ch: make(chan struct{})}
}

// Get returns the current endpoint, or nil if the replica has never been
// assigned one (e.g. a dummy slot awaiting a recruitment reply).
func (h *Handle) Get() Endpoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.endpoint
}

// Locality returns the locality recorded for this replica at handle
// construction time; it does not change across Set calls.
func (h *Handle) Locality() logpb.LocalityData {
	return h.locality
}

// Set unconditionally substitutes the endpoint and wakes every pending
// Changed() waiter. It never blocks on in-flight operations: the old
// endpoint is simply dropped, and callers already holding a reference to
// it finish their in-flight RPC against it; only the next call goes to the
// new one.
func (h *Handle) Set(e Endpoint) {
	h.mu.Lock()
	h.endpoint = e
	old := h.ch
	h.ch = make(chan struct{})
	h.mu.Unlock()
	close(old)
}

// Changed returns a channel that is closed the next time Set is called.
// Callers select on it alongside their own deadline/cancellation to learn
// promptly that Set replaced the endpoint they were about to use.
func (h *Handle) Changed() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ch
}
