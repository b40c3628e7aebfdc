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

package logpb

import "github.com/google/uuid"

// DebugID correlates a single push/confirm-running call across every
// replica it touches in the logs.
type DebugID = uuid.UUID

// ReplicaID addresses one tLog or log-router replica.
type ReplicaID = uuid.UUID

// RecruitmentID is minted once per new-epoch recruitment and carried in
// every InitializeTLogRequest so a tLog can tell which recruitment attempt
// it belongs to.
type RecruitmentID = uuid.UUID

// NewID mints a fresh random identifier; used for DebugID/RecruitmentID/
// ReplicaID values that this process originates.
func NewID() uuid.UUID {
	return uuid.New()
}
