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

// Package tlogrpc is the network transport for tLog and log-router
// endpoints: a net/rpc server adapter dispatching to a local backend, and
// client stubs satisfying tlogconn.Endpoint over the wire.
package tlogrpc

import (
	"context"

	"github.com/tagpartitioned/tpls/logpb"
)

const (
	tlogServiceName      = "TLog"
	logRouterServiceName = "LogRouter"
	heartbeatServiceName = "Heartbeat"
)

// Empty is the reply type for RPCs that carry no payload; net/rpc still
// requires a concrete pointer to decode into.
type Empty struct{}

// PingRequest and PingResponse are Heartbeat.Ping's argument and reply;
// Ping exists only so a Client can detect a dead connection between
// domain calls.
type PingRequest struct{}
type PingResponse struct{}

// TLogBackend is implemented by the process hosting one tLog replica; the
// server adapter dispatches incoming RPCs to it.
type TLogBackend interface {
	Commit(ctx context.Context, req *logpb.CommitRequest) (*logpb.CommitReply, error)
	Peek(ctx context.Context, req *logpb.PeekRequest) (*logpb.PeekReply, error)
	Pop(ctx context.Context, req *logpb.PopRequest) error
	Lock(ctx context.Context) (*logpb.LockReply, error)
	ConfirmRunning(ctx context.Context, req *logpb.ConfirmRunningRequest) error
	RecoveryFinished(ctx context.Context) error
	Initialize(ctx context.Context, req *logpb.InitializeTLogRequest) error
}

// LogRouterBackend is implemented by the process hosting one log-router
// replica.
type LogRouterBackend interface {
	Peek(ctx context.Context, req *logpb.PeekRequest) (*logpb.PeekReply, error)
	Pop(ctx context.Context, req *logpb.PopRequest) error
	Initialize(ctx context.Context, req *logpb.InitializeLogRouterRequest) error
}

type heartbeatAdapter struct{}

func (*heartbeatAdapter) Ping(req *PingRequest, resp *PingResponse) error { return nil }

// tlogAdapter exposes a TLogBackend under the method names net/rpc
// requires (func(args, *reply) error), translating the context-first
// backend calls this module uses everywhere else.
type tlogAdapter struct{ backend TLogBackend }

func (a *tlogAdapter) Commit(req *logpb.CommitRequest, resp *logpb.CommitReply) error {
	reply, err := a.backend.Commit(context.Background(), req)
	if err != nil {
		return err
	}
	*resp = *reply
	return nil
}

func (a *tlogAdapter) Peek(req *logpb.PeekRequest, resp *logpb.PeekReply) error {
	reply, err := a.backend.Peek(context.Background(), req)
	if err != nil {
		return err
	}
	*resp = *reply
	return nil
}

func (a *tlogAdapter) Pop(req *logpb.PopRequest, resp *Empty) error {
	return a.backend.Pop(context.Background(), req)
}

func (a *tlogAdapter) Lock(req *Empty, resp *logpb.LockReply) error {
	reply, err := a.backend.Lock(context.Background())
	if err != nil {
		return err
	}
	*resp = *reply
	return nil
}

func (a *tlogAdapter) ConfirmRunning(req *logpb.ConfirmRunningRequest, resp *Empty) error {
	return a.backend.ConfirmRunning(context.Background(), req)
}

func (a *tlogAdapter) RecoveryFinished(req *Empty, resp *Empty) error {
	return a.backend.RecoveryFinished(context.Background())
}

func (a *tlogAdapter) Initialize(req *logpb.InitializeTLogRequest, resp *Empty) error {
	return a.backend.Initialize(context.Background(), req)
}

type logRouterAdapter struct{ backend LogRouterBackend }

func (a *logRouterAdapter) Peek(req *logpb.PeekRequest, resp *logpb.PeekReply) error {
	reply, err := a.backend.Peek(context.Background(), req)
	if err != nil {
		return err
	}
	*resp = *reply
	return nil
}

func (a *logRouterAdapter) Pop(req *logpb.PopRequest, resp *Empty) error {
	return a.backend.Pop(context.Background(), req)
}

func (a *logRouterAdapter) Initialize(req *logpb.InitializeLogRouterRequest, resp *Empty) error {
	return a.backend.Initialize(context.Background(), req)
}
