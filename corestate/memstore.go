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
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// MemStore is an in-memory Store, useful for tests and single-process
// deployments that have no external coordination layer to delegate to.
type MemStore struct {
	mu      sync.Mutex
	value   []byte
	version int64
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Read implements Store.
func (m *MemStore) Read(context.Context) ([]byte, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.version, nil
}

// CompareAndSwap implements Store.
func (m *MemStore) CompareAndSwap(_ context.Context, expectedVersion int64, value []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if expectedVersion != m.version {
		return m.version, errors.Wrapf(ErrVersionMismatch, "expected version %d, store is at %d", expectedVersion, m.version)
	}
	m.value = value
	m.version++
	return m.version, nil
}
