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

package cursor

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/tlogconn"
)

// ServerCursor peeks a single replica directly. It is the leaf cursor
// variant: every other variant eventually bottoms out in one or more of
// these.
type ServerCursor struct {
	endpoint        tlogconn.Endpoint
	tag             logpb.Tag
	begin           logpb.Version
	horizon         logpb.Version // exclusive upper bound; InvalidVersion means unbounded
	returnIfBlocked bool

	messages []byte
	popped   logpb.Version
}

// NewServerCursor peeks tag starting at begin. A horizon of
// logpb.InvalidVersion means the cursor runs up to whatever the replica
// currently knows about (a live tail read of the current generation).
func NewServerCursor(e tlogconn.Endpoint, tag logpb.Tag, begin, horizon logpb.Version) *ServerCursor {
	return &ServerCursor{endpoint: e, tag: tag, begin: begin, horizon: horizon}
}

// Advance issues one peek RPC. It reports hasMore=false once begin has
// reached the horizon, or once the replica reports no further data and
// this is an unbounded tail cursor.
func (c *ServerCursor) Advance(ctx context.Context) (bool, error) {
	if c.horizon != logpb.InvalidVersion && c.begin >= c.horizon {
		return false, nil
	}
	if c.endpoint == nil {
		return false, errors.New("server cursor has no endpoint")
	}
	reply, err := c.endpoint.Peek(ctx, &logpb.PeekRequest{
		BeginVersion:    c.begin,
		Tag:             c.tag,
		ReturnIfBlocked: c.returnIfBlocked,
	})
	if err != nil {
		return false, errors.Wrapf(err, "peek tag %s from %s", c.tag, c.begin)
	}
	c.messages = reply.Messages
	c.popped = reply.Popped
	prevBegin := c.begin
	c.begin = reply.End
	if c.horizon == logpb.InvalidVersion {
		return c.begin > prevBegin, nil
	}
	return c.begin < c.horizon, nil
}

func (c *ServerCursor) Messages() []byte       { return c.messages }
func (c *ServerCursor) Version() logpb.Version { return c.begin }

// Popped is the version below which the replica has already discarded
// data for this tag; callers that see begin < Popped() know they hit a
// gap rather than a quiet stream.
func (c *ServerCursor) Popped() logpb.Version { return c.popped }
