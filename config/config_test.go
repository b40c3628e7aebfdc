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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
recruitment_id: ""
store_type: ssd
replication_factor: 3
write_anti_quorum: 1
policy:
  name: across
  tier: zone
  count: 3
primary:
  locality: 1
  workers:
    - addr: 10.0.0.1:4001
      locality: {zone: a}
    - addr: 10.0.0.2:4001
      locality: {zone: b}
    - addr: 10.0.0.3:4001
      locality: {zone: c}
  routers:
    - addr: 10.0.0.9:4010
remote:
  locality: 2
  workers:
    - addr: 10.1.0.1:4001
remote_policy:
  name: atLeast
  count: 1
metrics:
  enabled: true
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "deployment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	d, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 3, d.ReplicationFactor)
	require.Equal(t, "info", d.Logging.Level)
	require.Equal(t, ":9090", d.Metrics.Addr)
	require.Len(t, d.Primary.Workers, 3)
	require.NotNil(t, d.Remote)
	require.Len(t, d.Remote.Workers, 1)
}

func TestLoadRejectsReplicationFactorExceedingWorkerCount(t *testing.T) {
	path := writeConfig(t, `
replication_factor: 5
write_anti_quorum: 1
primary:
  workers:
    - addr: 10.0.0.1:4001
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsRemoteWithoutRouters(t *testing.T) {
	path := writeConfig(t, `
replication_factor: 1
write_anti_quorum: 0
primary:
  workers:
    - addr: 10.0.0.1:4001
remote:
  workers:
    - addr: 10.1.0.1:4001
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestPolicyResolverRoundTrips(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	d, err := Load(path)
	require.NoError(t, err)

	resolve, err := d.PolicyResolver()
	require.NoError(t, err)

	primary, err := buildPolicy(d.Policy)
	require.NoError(t, err)
	require.Equal(t, primary, resolve(primary.String()))

	remote, err := buildPolicy(*d.RemotePolicy)
	require.NoError(t, err)
	require.Equal(t, remote, resolve(remote.String()))

	require.Nil(t, resolve("unknown(1)"))
}

func TestRecruitmentPlanWiresWorkersByRole(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	d, err := Load(path)
	require.NoError(t, err)

	plan, err := d.RecruitmentPlan(nil, 7)
	require.NoError(t, err)

	require.Len(t, plan.PrimaryWorkers, 3)
	require.Len(t, plan.RouterWorkers, 1)
	require.True(t, plan.HasRemote)
	require.Len(t, plan.RemoteWorkers, 1)
	require.EqualValues(t, 1, plan.PrimaryLocality)
	require.EqualValues(t, 2, plan.RemoteLocality)
	require.Equal(t, 7, int(plan.Epoch))
}
