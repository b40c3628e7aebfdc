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

package logsystem

import "github.com/cockroachdb/errors"

// Error taxonomy for conditions that end an epoch or make a peek
// unserviceable. Each sentinel is checked with errors.Is; call sites either
// return it directly or attach it with errors.Mark to a more descriptive
// error.
var (
	// ErrMasterTLogFailed signals that a local LogSet can no longer reach
	// anti-quorum; the whole log system must be torn down.
	ErrMasterTLogFailed = errors.New("master tlog failed")

	// ErrMasterRecoveryFailed signals that initializeTLog or
	// initializeLogRouter failed or timed out during new-epoch
	// recruitment.
	ErrMasterRecoveryFailed = errors.New("master recovery failed")

	// ErrWorkerRemoved signals peek-unserviceable: history was exhausted
	// while segments remained uncovered and the caller requested
	// throwIfDead.
	ErrWorkerRemoved = errors.New("worker removed")

	// ErrTLogStopped is observed (never raised) from a replica during
	// confirm-running; it proves the epoch already ended.
	ErrTLogStopped = errors.New("tlog stopped")

	// ErrInternal marks post-condition violations that should never
	// happen given the LogSet invariants.
	ErrInternal = errors.New("internal error")
)
