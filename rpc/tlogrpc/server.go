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
	"net"
	"net/rpc"
	"strings"

	"github.com/tagpartitioned/tpls/internal/log"
)

// Server listens for one tLog and/or log-router backend on a single
// address. A process recruited as a combined tLog/log-router registers
// both backends; a router-only process passes a nil tlogBackend.
type Server struct {
	listener net.Listener
	rpc      *rpc.Server
}

// Serve starts accepting connections on addr, dispatching TLog RPCs to
// tlogBackend and LogRouter RPCs to routerBackend. Either backend may be
// nil.
func Serve(addr string, tlogBackend TLogBackend, routerBackend LogRouterBackend) (*Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName(heartbeatServiceName, &heartbeatAdapter{}); err != nil {
		return nil, err
	}
	if tlogBackend != nil {
		if err := srv.RegisterName(tlogServiceName, &tlogAdapter{tlogBackend}); err != nil {
			return nil, err
		}
	}
	if routerBackend != nil {
		if err := srv.RegisterName(logRouterServiceName, &logRouterAdapter{routerBackend}); err != nil {
			return nil, err
		}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{listener: listener, rpc: srv}
	go s.accept()
	return s, nil
}

func (s *Server) accept() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if strings.HasSuffix(err.Error(), "use of closed network connection") {
				return
			}
			log.Errorf(context.Background(), "tlogrpc accept: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Addr returns the address the server is actually listening on, useful
// when Serve was called with a ":0" port.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Stop closes the listener. Connections already accepted are left to
// drain on their own.
func (s *Server) Stop() error { return s.listener.Close() }
