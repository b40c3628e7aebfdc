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

	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/tlogconn"
)

// Worker is a recruitment candidate reachable at a bootstrap address. It
// satisfies both logsystem.TLogWorker and logsystem.LogRouterWorker: which
// one a caller uses depends on whether it calls InitializeTLog or
// InitializeLogRouter.
type Worker struct {
	addr     string
	locality logpb.LocalityData
}

// NewWorker wraps a candidate process's network address and known
// locality. Locality is supplied by the caller (from cluster membership)
// rather than fetched over the wire, since recruitment needs it before
// any connection exists.
func NewWorker(addr string, locality logpb.LocalityData) *Worker {
	return &Worker{addr: addr, locality: locality}
}

func (w *Worker) Locality() logpb.LocalityData { return w.locality }

// InitializeTLog dials the candidate, sends it its InitializeTLogRequest,
// and returns the resulting Endpoint on success. The replica's local
// identity is an ID minted here by the caller, not something the
// candidate reports back.
func (w *Worker) InitializeTLog(ctx context.Context, req *logpb.InitializeTLogRequest) (tlogconn.Endpoint, error) {
	client, err := Dial(w.addr, tlogServiceName, logpb.NewID(), w.locality)
	if err != nil {
		return nil, err
	}
	if err := client.call(ctx, "Initialize", req, &Empty{}); err != nil {
		return nil, err
	}
	return client, nil
}

// InitializeLogRouter dials the candidate, sends it its
// InitializeLogRouterRequest, and returns the resulting Endpoint on
// success.
func (w *Worker) InitializeLogRouter(ctx context.Context, req *logpb.InitializeLogRouterRequest) (tlogconn.Endpoint, error) {
	client, err := Dial(w.addr, logRouterServiceName, logpb.NewID(), w.locality)
	if err != nil {
		return nil, err
	}
	if err := client.call(ctx, "Initialize", req, &Empty{}); err != nil {
		return nil, err
	}
	return client, nil
}
