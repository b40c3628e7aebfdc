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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStoreReadOfEmptyStore(t *testing.T) {
	m := NewMemStore()
	value, version, err := m.Read(context.Background())
	require.NoError(t, err)
	require.Nil(t, value)
	require.Zero(t, version)
}

func TestMemStoreCompareAndSwapAdvancesVersion(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	v1, err := m.CompareAndSwap(ctx, 0, []byte("first"))
	require.NoError(t, err)
	require.EqualValues(t, 1, v1)

	value, version, err := m.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), value)
	require.EqualValues(t, 1, version)

	v2, err := m.CompareAndSwap(ctx, v1, []byte("second"))
	require.NoError(t, err)
	require.EqualValues(t, 2, v2)
}

func TestMemStoreCompareAndSwapRejectsStaleVersion(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	_, err := m.CompareAndSwap(ctx, 0, []byte("first"))
	require.NoError(t, err)

	_, err = m.CompareAndSwap(ctx, 0, []byte("racer"))
	require.ErrorIs(t, err, ErrVersionMismatch)

	value, _, err := m.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), value)
}
