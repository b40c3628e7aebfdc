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

// CommitRequest is sent to every replica of a local LogSet by the push
// path.
type CommitRequest struct {
	PrevVersion           Version
	Version               Version
	KnownCommittedVersion Version
	Payload               []byte
	DebugID               DebugID
}

// CommitReply carries nothing but success/failure; a non-nil error from the
// RPC layer is what push inspects.
type CommitReply struct{}

// PeekRequest parametrizes a single getMore/peek round-trip against one
// replica. The cursor implementations in package cursor own the sequencing
// of BeginVersion across calls.
type PeekRequest struct {
	BeginVersion    Version
	Tag             Tag
	ReturnIfBlocked bool
}

// PeekReply is one batch of tagged messages plus the version range it
// covers and whether the replica believes more data exists beyond End.
type PeekReply struct {
	Messages                 []byte
	Begin                    Version
	End                      Version
	Popped                   Version
	MaxKnownVersion          Version
	MinKnownCommittedVersion Version
}

// PopRequest advances the durable-watermark past which a (replica, tag)
// pair's messages may be discarded.
type PopRequest struct {
	UpTo                  Version
	KnownCommittedVersion Version
	Tag                   Tag
}

// LockReply is the result of locking a single tLog replica during
// epoch-end recovery.
type LockReply struct {
	End                   Version
	KnownCommittedVersion Version
}

// ConfirmRunningRequest asks a replica to attest that it is still serving
// the current epoch.
type ConfirmRunningRequest struct {
	DebugID DebugID
}

// InitializeTLogRequest recruits a fresh tLog replica into a new epoch.
type InitializeTLogRequest struct {
	RecruitmentID         RecruitmentID
	StoreType             string
	RecoverFrom           LogSystemConfig
	RecoverAt             Version
	KnownCommittedVersion Version
	Epoch                 int64
	Locality              Locality
	RemoteTag             Tag
	IsPrimary             bool
	AllTags               []Tag
	StartVersion          Version
	LogRouterTags         int32
	RecoverTags           []Tag
}

// InitializeLogRouterRequest recruits a log-router replica.
type InitializeLogRouterRequest struct {
	RecoveryCount  int64
	RouterTag      Tag
	StartVersion   Version
	TLogLocalities []LocalityData
	TLogPolicy     string
	HasBestPolicy  bool
	Locality       Locality
}

// RejoinRequest is sent by a tLog to the TPLS instance recovering the
// epoch it used to belong to.
type RejoinRequest struct {
	ReplicaID ReplicaID
}
