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

// TLogSetConfig is the declarative descriptor of one LogSet, as produced by
// ToCoreState/GetLogSystemConfig and consumed by FromLogSystemConfig /
// FromOldLogSystemConfig.
type TLogSetConfig struct {
	TLogs                 []ReplicaID
	TLogLocalities        []LocalityData
	TLogWriteAntiQuorum   int
	TLogReplicationFactor int
	TLogPolicyName        string
	IsLocal               bool
	HasBestPolicy         bool
	Locality              Locality
	StartVersion          Version
	LogRouters            []ReplicaID
}

// OldTLogConfig is the descriptor of one historical generation.
type OldTLogConfig struct {
	TLogs         []TLogSetConfig
	LogRouterTags int32
	EpochEnd      Version
}

// LogSystemConfig is the full public descriptor of a running or frozen
// TPLS instance.
type LogSystemConfig struct {
	TLogs                 []TLogSetConfig
	OldTLogs              []OldTLogConfig
	LogRouterTags         int32
	RecruitmentID         RecruitmentID
	Stopped               bool
	EpochEndVersion       Version
	KnownCommittedVersion Version
}

// DBCoreState is the schema persisted by the external coordination layer.
// History is included only while recovery/remote-write commitment is
// outstanding; see logsystem.ToCoreState.
type DBCoreState struct {
	TLogs         []TLogSetConfig
	OldTLogs      []OldTLogConfig
	LogRouterTags int32
	RecruitmentID RecruitmentID
}
