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

// Package config loads a declarative YAML deployment descriptor: the
// primary/satellite/remote region layout, replication policy, and
// bootstrap addresses recruitment dials to form a new epoch.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/tagpartitioned/tpls/logpb"
)

// WorkerAddr names one recruitment candidate: the network address
// rpc/tlogrpc dials and the locality tags the policy evaluator judges it
// by.
type WorkerAddr struct {
	Addr     string            `yaml:"addr"`
	Locality map[string]string `yaml:"locality,omitempty"`
}

func (w WorkerAddr) localityData() logpb.LocalityData {
	return logpb.LocalityData(w.Locality)
}

// Region is one local or remote group of tLog candidates, plus the
// log-router candidates fronting it when it sits behind a remote link.
type Region struct {
	Locality int32        `yaml:"locality"`
	Workers  []WorkerAddr `yaml:"workers"`
	Routers  []WorkerAddr `yaml:"routers,omitempty"`
}

// PolicyRule is one named replication-policy constructor from the policy
// package. Name selects the constructor; the remaining fields are its
// arguments, interpreted according to Name.
type PolicyRule struct {
	Name  string `yaml:"name"`
	Tier  string `yaml:"tier,omitempty"`
	Value string `yaml:"value,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// MetricsConfig controls whether prometheus collectors are attached and
// where they are served.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig controls the verbosity of the internal/log sink.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Deployment is the root of a TPLS deployment descriptor: one primary
// region, an optional satellite region whose sets are recruited with the
// invalid tag locality, and an optional remote region reached through log
// routers.
type Deployment struct {
	RecruitmentID string `yaml:"recruitment_id"`
	StoreType     string `yaml:"store_type"`

	Primary   Region  `yaml:"primary"`
	Satellite *Region `yaml:"satellite,omitempty"`
	Remote    *Region `yaml:"remote,omitempty"`

	ReplicationFactor int         `yaml:"replication_factor"`
	WriteAntiQuorum   int         `yaml:"write_anti_quorum"`
	Policy            PolicyRule  `yaml:"policy"`
	RemotePolicy      *PolicyRule `yaml:"remote_policy,omitempty"`

	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// Load reads and validates a deployment descriptor from path.
func Load(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var d Deployment
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	d.setDefaults()
	if err := d.Validate(); err != nil {
		return nil, errors.Wrapf(err, "validating %s", path)
	}
	return &d, nil
}

func (d *Deployment) setDefaults() {
	if d.Policy.Name == "" {
		d.Policy.Name = "atLeast"
		d.Policy.Count = d.ReplicationFactor
	}
	if d.Logging.Level == "" {
		d.Logging.Level = "info"
	}
	if d.Metrics.Enabled && d.Metrics.Addr == "" {
		d.Metrics.Addr = ":9090"
	}
}

// Validate reports a descriptive error for any combination of fields
// recruitment could not act on: a missing worker list, a replication
// factor that exceeds the primary's candidate pool, or a remote region
// with no router candidates to front it.
func (d *Deployment) Validate() error {
	if len(d.Primary.Workers) == 0 {
		return errors.New("primary region must list at least one worker")
	}
	if d.ReplicationFactor <= 0 {
		return errors.New("replication_factor must be positive")
	}
	if d.WriteAntiQuorum < 0 || d.WriteAntiQuorum >= d.ReplicationFactor {
		return errors.Newf("write_anti_quorum (%d) must be in [0, replication_factor)", d.WriteAntiQuorum)
	}
	if d.ReplicationFactor > len(d.Primary.Workers) {
		return errors.Newf("replication_factor (%d) exceeds primary worker count (%d)", d.ReplicationFactor, len(d.Primary.Workers))
	}
	if d.Remote != nil {
		if len(d.Remote.Workers) == 0 {
			return errors.New("remote region must list at least one worker")
		}
		if len(d.Primary.Routers) == 0 && len(d.Remote.Routers) == 0 {
			return errors.New("remote region configured but no log-router workers listed")
		}
	}
	return nil
}
