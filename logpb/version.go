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

// Package logpb defines the wire and domain types shared by every TPLS
// component: versions, tags, localities and the request/reply shapes of
// the external interfaces to tLog replicas, log routers and tLog workers.
package logpb

// Version is a monotonically increasing logical clock. Commit versions
// carry total order; a Version of 0 is never assigned to a real commit.
type Version int64

// InvalidVersion is returned by accessors that have no meaningful version
// to report (e.g. an empty LogSet's startVersion before recruitment).
const InvalidVersion Version = -1

// MaxReadTransactionLifeVersions bounds how far behind a proposed recovery
// version the computed knownCommittedVersion floor may fall.
const MaxReadTransactionLifeVersions Version = 5000000
