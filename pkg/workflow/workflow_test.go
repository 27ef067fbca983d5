// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/facebookincubator/ciflow/pkg/ciflow"
	"github.com/facebookincubator/ciflow/pkg/runners"
)

func linuxSpec(name string) Spec {
	return DefaultSpec(runners.ArchLinux, name, runners.LinuxCPUTestRunner)
}

func TestLibtorchAlwaysExcludesTests(t *testing.T) {
	for _, exclude := range []bool{false, true} {
		spec := linuxSpec("libtorch-linux")
		spec.IsLibtorch = true
		spec.ExcludeTest = exclude
		w, err := New(spec)
		require.NoError(t, err)
		assert.True(t, w.Spec().ExcludeTest)
	}
}

func TestOnlyBuildRequiresPullRequest(t *testing.T) {
	spec := linuxSpec("linux-gcc")
	spec.OnlyBuildOnPullRequest = true
	w, err := New(spec)
	require.NoError(t, err)
	assert.False(t, w.Spec().OnlyBuildOnPullRequest)

	spec.OnPullRequest = true
	w, err = New(spec)
	require.NoError(t, err)
	assert.True(t, w.Spec().OnlyBuildOnPullRequest)
}

func TestPullRequestShardsDefaultToSmokeTests(t *testing.T) {
	spec := linuxSpec("linux-gcc")
	spec.NumTestShards = 4
	spec.OnlyRunSmokeTestsOnPullRequest = true
	w, err := New(spec)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Spec().NumTestShardsOnPullRequest)
	assert.Equal(t, 4, w.Spec().NumTestShards)
}

func TestPullRequestShardsDefaultToFullRun(t *testing.T) {
	spec := linuxSpec("linux-gcc")
	spec.NumTestShards = 3
	w, err := New(spec)
	require.NoError(t, err)
	assert.Equal(t, 3, w.Spec().NumTestShardsOnPullRequest)
}

func TestPullRequestShardsExplicit(t *testing.T) {
	spec := linuxSpec("linux-gcc")
	spec.NumTestShards = 3
	spec.NumTestShardsOnPullRequest = 2
	spec.OnlyRunSmokeTestsOnPullRequest = true
	w, err := New(spec)
	require.NoError(t, err)
	assert.Equal(t, 2, w.Spec().NumTestShardsOnPullRequest)
}

func TestInvalidRunnerForArch(t *testing.T) {
	spec := DefaultSpec(runners.ArchWindows, "win-vs2019-cpu-py3", runners.LinuxCPUTestRunner)
	_, err := New(spec)
	require.Error(t, err)
	var wfErr *ErrInvalidWorkflow
	require.True(t, errors.As(err, &wfErr))
	assert.Equal(t, "win-vs2019-cpu-py3", wfErr.BuildEnvironment)
	var runnerErr *runners.ErrInvalidRunnerType
	assert.True(t, errors.As(err, &runnerErr))
}

func TestInvalidSpecs(t *testing.T) {
	scenarios := map[string]func(*Spec){
		"empty name":      func(s *Spec) { s.BuildEnvironment = "" },
		"name with slash": func(s *Spec) { s.BuildEnvironment = "../escape" },
		"empty runner":    func(s *Spec) { s.TestRunnerType = "" },
		"unknown arch":    func(s *Spec) { s.Arch = "macos" },
		"zero shards":     func(s *Spec) { s.NumTestShards = 0 },
		"zero pr shards":  func(s *Spec) { s.NumTestShardsOnPullRequest = 0 },
		"bad cron":        func(s *Spec) { s.IsScheduled = "every day" },
		"six field cron":  func(s *Spec) { s.IsScheduled = "0 45 0 * * *" },
	}
	for name, mutate := range scenarios {
		spec := linuxSpec("linux-gcc")
		mutate(&spec)
		_, err := New(spec)
		assert.Error(t, err, name)
	}
}

func TestScheduledCron(t *testing.T) {
	spec := linuxSpec("periodic-linux")
	spec.IsScheduled = "45 0,4,8,12,16,20 * * *"
	_, err := New(spec)
	require.NoError(t, err)

	for _, expr := range []string{
		"@every 1h",
		"@daily",
		"CRON_TZ=UTC 0 * * * *",
		"TZ=Europe/Dublin 0 * * * *",
	} {
		spec.IsScheduled = expr
		_, err := New(spec)
		assert.Error(t, err, expr)
	}
}

func TestRoutingDisabledClearsRootJob(t *testing.T) {
	spec := linuxSpec("linux-gcc")
	spec.CIFlow = ciflow.Spec{Labels: []string{"ciflow/slow"}}
	w, err := New(spec)
	require.NoError(t, err)
	assert.Equal(t, "", w.CIFlow().RootJobName())
	assert.Equal(t, "", w.CIFlow().RootJobCondition())
}

func TestRoutingLabels(t *testing.T) {
	spec := linuxSpec("linux-gcc")
	w, err := New(spec)
	require.NoError(t, err)
	assert.Nil(t, w.RoutingLabels())

	spec.OnPullRequest = true
	w, err = New(spec)
	require.NoError(t, err)
	assert.Equal(t, []string{ciflow.LabelDefault}, w.RoutingLabels())

	spec.CIFlow = ciflow.Spec{Enabled: true, Labels: []string{"ciflow/slow", "ciflow/cuda"}}
	w, err = New(spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"ciflow/cuda", "ciflow/slow"}, w.RoutingLabels())
}

func TestWorkflowIsImmutable(t *testing.T) {
	spec := linuxSpec("linux-gcc")
	spec.CIFlow = ciflow.Spec{Enabled: true, Labels: []string{"ciflow/default"}}
	w, err := New(spec)
	require.NoError(t, err)

	spec.CIFlow.Labels[0] = "mutated"
	got := w.Spec()
	got.BuildEnvironment = "mutated"
	got.CIFlow.Labels[0] = "mutated"
	assert.Equal(t, "linux-gcc", w.BuildEnvironment())
	assert.Equal(t, []string{"ciflow/default"}, w.Spec().CIFlow.Labels)
}

func TestVars(t *testing.T) {
	spec := linuxSpec("linux-xenial-cuda10.2-py3.6-gcc7")
	spec.TestRunnerType = runners.LinuxCUDATestRunner
	spec.EnableSlowTest = true
	spec.NumTestShards = 2
	spec.OnPullRequest = true
	spec.CIFlow = ciflow.Spec{Enabled: true, TriggerActionOnly: true, Labels: []string{"ciflow/slow"}}
	w, err := New(spec)
	require.NoError(t, err)

	vars := w.Vars()
	assert.Equal(t, "linux", vars["arch"])
	assert.Equal(t, "linux-xenial-cuda10.2-py3.6-gcc7", vars["build_environment"])
	assert.Equal(t, 2, vars["num_test_shards_on_pull_request"])
	assert.Equal(t, ShellTrue, vars["enable_slow_test"])
	assert.Equal(t, ShellFalse, vars["enable_multigpu_test"])
	assert.Equal(t, true, vars["on_pull_request"])
	cf := vars["ciflow_config"].(map[string]interface{})
	assert.Equal(t, true, cf["trigger_action_only"])
	assert.Equal(t, ciflow.RootJobName, cf["root_job_name"])
	assert.Equal(t, []string{"ciflow/slow"}, cf["labels"])
	// every Spec field is exposed
	assert.Len(t, vars, 20)
}

func TestSpecYAMLDefaults(t *testing.T) {
	var spec Spec
	require.NoError(t, yaml.Unmarshal([]byte(`arch: linux
build_environment: linux-gcc
test_runner_type: linux.2xlarge
ciflow_config:
  enabled: true
  labels: [ciflow/default]
`), &spec))
	assert.Equal(t, runners.ArchLinux, spec.Arch)
	assert.Equal(t, 1, spec.NumTestShards)
	assert.Equal(t, ShardsUnset, spec.NumTestShardsOnPullRequest)
	assert.Equal(t, []string{"ciflow/default"}, spec.CIFlow.Labels)
	assert.True(t, spec.CIFlow.Enabled)
}

func TestSpecYAMLUnknownArch(t *testing.T) {
	var spec Spec
	err := yaml.Unmarshal([]byte(`arch: macos
build_environment: macos-clang
test_runner_type: macos.m1
`), &spec)
	var archErr *runners.ErrUnknownArch
	require.ErrorAs(t, err, &archErr)
	assert.Equal(t, runners.Arch("macos"), archErr.Arch)
}
