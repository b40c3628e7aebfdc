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

package tlogrpc

import (
	"context"
	"fmt"
	"net/rpc"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tagpartitioned/tpls/internal/log"
	"github.com/tagpartitioned/tpls/logpb"
)

// ErrConnectionLost is returned by a Client's in-flight calls once its
// heartbeat loop has declared the connection dead.
var ErrConnectionLost = errors.New("tlogrpc: connection lost")

const heartbeatInterval = 3 * time.Second

var (
	clientsMu sync.Mutex
	clients   = map[string]*Client{}
)

// Client is the tlogconn.Endpoint implementation backed by a net/rpc
// connection to one replica. Connections are cached by address and role,
// and a background heartbeat loop feeds WaitFailure the way the original
// per-address RPC client cache fed its own health tracking.
type Client struct {
	id       logpb.ReplicaID
	locality logpb.LocalityData
	addr     string
	role     string // "TLog" or "LogRouter"

	conn *rpc.Client

	dead      chan struct{}
	closeOnce sync.Once
}

// Dial returns the cached Client for (addr, role), creating and
// connecting one if necessary.
func Dial(addr string, role string, id logpb.ReplicaID, locality logpb.LocalityData) (*Client, error) {
	key := role + "@" + addr

	clientsMu.Lock()
	if c, ok := clients[key]; ok {
		clientsMu.Unlock()
		return c, nil
	}
	clientsMu.Unlock()

	conn, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	c := &Client{
		id:       id,
		locality: locality,
		addr:     addr,
		role:     role,
		conn:     conn,
		dead:     make(chan struct{}),
	}

	clientsMu.Lock()
	clients[key] = c
	clientsMu.Unlock()

	go c.heartbeat()
	return c, nil
}

func (c *Client) ID() logpb.ReplicaID          { return c.id }
func (c *Client) Locality() logpb.LocalityData { return c.locality }

func (c *Client) Commit(ctx context.Context, req *logpb.CommitRequest) (*logpb.CommitReply, error) {
	reply := &logpb.CommitReply{}
	if err := c.call(ctx, "Commit", req, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *Client) Peek(ctx context.Context, req *logpb.PeekRequest) (*logpb.PeekReply, error) {
	reply := &logpb.PeekReply{}
	if err := c.call(ctx, "Peek", req, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *Client) Pop(ctx context.Context, req *logpb.PopRequest) error {
	return c.call(ctx, "Pop", req, &Empty{})
}

func (c *Client) Lock(ctx context.Context) (*logpb.LockReply, error) {
	reply := &logpb.LockReply{}
	if err := c.call(ctx, "Lock", &Empty{}, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *Client) ConfirmRunning(ctx context.Context, req *logpb.ConfirmRunningRequest) error {
	return c.call(ctx, "ConfirmRunning", req, &Empty{})
}

func (c *Client) RecoveryFinished(ctx context.Context) error {
	return c.call(ctx, "RecoveryFinished", &Empty{}, &Empty{})
}

// WaitFailure blocks until the background heartbeat loop observes a
// connection failure, or ctx is cancelled.
func (c *Client) WaitFailure(ctx context.Context) error {
	select {
	case <-c.dead:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call issues one net/rpc request under this client's role namespace. ctx
// cancellation returns early; net/rpc has no per-call cancellation, so the
// outstanding call is simply abandoned.
func (c *Client) call(ctx context.Context, method string, args, reply interface{}) error {
	done := c.conn.Go(fmt.Sprintf("%s.%s", c.role, method), args, reply, nil)
	select {
	case <-done.Done:
		return done.Error
	case <-ctx.Done():
		return ctx.Err()
	case <-c.dead:
		return ErrConnectionLost
	}
}

func (c *Client) heartbeat() {
	for {
		call := c.conn.Go("Heartbeat.Ping", &PingRequest{}, &PingResponse{}, nil)
		select {
		case <-call.Done:
			if call.Error != nil {
				log.Warningf(context.Background(), "tlogrpc heartbeat to %s failed: %v", c.addr, call.Error)
				c.markDead()
				return
			}
			time.Sleep(heartbeatInterval)
		case <-time.After(heartbeatInterval * 2):
			log.Warningf(context.Background(), "tlogrpc %s unresponsive for %v", c.addr, heartbeatInterval*2)
		}
	}
}

func (c *Client) markDead() {
	clientsMu.Lock()
	delete(clients, c.role+"@"+c.addr)
	clientsMu.Unlock()
	c.closeOnce.Do(func() { close(c.dead) })
	c.conn.Close()
}
