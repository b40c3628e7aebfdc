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

package config

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logsystem"
	"github.com/tagpartitioned/tpls/policy"
	"github.com/tagpartitioned/tpls/rpc/tlogrpc"
)

func buildPolicy(r PolicyRule) (policy.Policy, error) {
	switch r.Name {
	case "atLeast":
		return policy.AtLeast(r.Count), nil
	case "across":
		return policy.Across(r.Tier, r.Count), nil
	case "required":
		return policy.Required(r.Tier, r.Value), nil
	default:
		return nil, errors.Newf("unknown policy rule %q", r.Name)
	}
}

// PolicyResolver builds a logsystem.PolicyResolver covering every policy
// this descriptor names (the primary policy and, if set, remote_policy),
// keyed by each policy's own String() form so FromLogSystemConfig can
// reconstruct whichever one a TLogSetConfig recorded.
func (d *Deployment) PolicyResolver() (logsystem.PolicyResolver, error) {
	reg := make(map[string]policy.Policy)
	p, err := buildPolicy(d.Policy)
	if err != nil {
		return nil, err
	}
	reg[p.String()] = p
	if d.RemotePolicy != nil {
		rp, err := buildPolicy(*d.RemotePolicy)
		if err != nil {
			return nil, err
		}
		reg[rp.String()] = rp
	}
	return func(name string) policy.Policy { return reg[name] }, nil
}

func (d *Deployment) recruitmentID() (logpb.RecruitmentID, error) {
	if d.RecruitmentID == "" {
		return logpb.NewID(), nil
	}
	id, err := uuid.Parse(d.RecruitmentID)
	if err != nil {
		return logpb.RecruitmentID{}, errors.Wrapf(err, "parsing recruitment_id %q", d.RecruitmentID)
	}
	return id, nil
}

func tlogWorkers(addrs []WorkerAddr) []logsystem.TLogWorker {
	out := make([]logsystem.TLogWorker, len(addrs))
	for i, a := range addrs {
		out[i] = tlogrpc.NewWorker(a.Addr, a.localityData())
	}
	return out
}

func logRouterWorkers(addrs []WorkerAddr) []logsystem.LogRouterWorker {
	out := make([]logsystem.LogRouterWorker, len(addrs))
	for i, a := range addrs {
		out[i] = tlogrpc.NewWorker(a.Addr, a.localityData())
	}
	return out
}

// RecruitmentPlan builds the logsystem.RecruitmentPlan a fresh epoch's
// Recruit call needs from this descriptor: the candidate workers for
// each role dialed through rpc/tlogrpc, and the replication parameters
// and tag universe recruitment applies to the new primary (and, if
// configured, satellite and remote) sets.
//
// Log routers are recruited from the primary region's router pool when
// one is listed, falling back to the remote region's own pool; either
// way they front the link from the primary to the remote region.
func (d *Deployment) RecruitmentPlan(allTags []logpb.Tag, epoch int64) (logsystem.RecruitmentPlan, error) {
	pol, err := buildPolicy(d.Policy)
	if err != nil {
		return logsystem.RecruitmentPlan{}, err
	}
	id, err := d.recruitmentID()
	if err != nil {
		return logsystem.RecruitmentPlan{}, err
	}

	plan := logsystem.RecruitmentPlan{
		PrimaryWorkers:    tlogWorkers(d.Primary.Workers),
		RouterWorkers:     logRouterWorkers(d.Primary.Routers),
		PrimaryLocality:   logpb.Locality(d.Primary.Locality),
		ReplicationFactor: d.ReplicationFactor,
		WriteAntiQuorum:   d.WriteAntiQuorum,
		Policy:            pol,
		AllTags:           allTags,
		Epoch:             epoch,
		RecruitmentID:     id,
		StoreType:         d.StoreType,
	}
	if d.Satellite != nil {
		plan.SatelliteWorkers = tlogWorkers(d.Satellite.Workers)
	}
	if d.Remote != nil {
		plan.RemoteWorkers = tlogWorkers(d.Remote.Workers)
		plan.RemoteLocality = logpb.Locality(d.Remote.Locality)
		plan.HasRemote = true
		if len(plan.RouterWorkers) == 0 {
			plan.RouterWorkers = logRouterWorkers(d.Remote.Routers)
		}
	}
	return plan, nil
}
