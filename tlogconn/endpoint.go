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

// Package tlogconn implements the tLog interface handle: an opaque,
// addressable endpoint for one tLog replica, and the observable cell that
// lets push/peek/pop/failure-watch share a single-writer,
// multi-reader view of it.
package tlogconn

import (
	"context"

	"github.com/tagpartitioned/tpls/logpb"
)

// Endpoint is the addressable RPC surface of one tLog replica.
type Endpoint interface {
	ID() logpb.ReplicaID
	Locality() logpb.LocalityData

	Commit(ctx context.Context, req *logpb.CommitRequest) (*logpb.CommitReply, error)
	Peek(ctx context.Context, req *logpb.PeekRequest) (*logpb.PeekReply, error)
	Pop(ctx context.Context, req *logpb.PopRequest) error
	Lock(ctx context.Context) (*logpb.LockReply, error)
	ConfirmRunning(ctx context.Context, req *logpb.ConfirmRunningRequest) error
	RecoveryFinished(ctx context.Context) error
	// WaitFailure blocks until the endpoint is believed to have failed,
	// or ctx is cancelled. It never returns a non-nil error for anything
	// other than ctx cancellation.
	WaitFailure(ctx context.Context) error
}

// RouterEndpoint is the addressable RPC surface of one log-router replica.
type RouterEndpoint interface {
	ID() logpb.ReplicaID
	Peek(ctx context.Context, req *logpb.PeekRequest) (*logpb.PeekReply, error)
	Pop(ctx context.Context, req *logpb.PopRequest) error
	WaitFailure(ctx context.Context) error
}
