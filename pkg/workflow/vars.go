// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package workflow

// YAML shell booleans. Test toggles are exported as environment variables,
// and both shell and Python read the empty string as false.
const (
	ShellFalse = "''"
	ShellTrue  = "1"
)

// ShellBool encodes b as a YAML shell boolean.
func ShellBool(b bool) string {
	if b {
		return ShellTrue
	}
	return ShellFalse
}

// Vars returns the variables a workflow template is rendered with. Every
// Spec field is present under its YAML name. The enable_*_test toggles are
// YAML shell booleans, everything else keeps its Go type.
func (w *Workflow) Vars() map[string]interface{} {
	s := w.spec
	return map[string]interface{}{
		"arch":              string(s.Arch),
		"build_environment": s.BuildEnvironment,
		"test_runner_type":  s.TestRunnerType,
		"ciflow_config": map[string]interface{}{
			"enabled":             w.ciflow.Enabled(),
			"labels":              w.ciflow.Labels(),
			"trigger_action":      w.ciflow.TriggerAction(),
			"trigger_actor":       w.ciflow.TriggerActor(),
			"trigger_action_only": w.ciflow.TriggerActionOnly(),
			"root_job_name":       w.ciflow.RootJobName(),
			"root_job_condition":  w.ciflow.RootJobCondition(),
		},
		"cuda_version":                         s.CUDAVersion,
		"docker_image_base":                    s.DockerImageBase,
		"enable_doc_jobs":                      s.EnableDocJobs,
		"exclude_test":                         s.ExcludeTest,
		"is_libtorch":                          s.IsLibtorch,
		"is_scheduled":                         s.IsScheduled,
		"num_test_shards":                      s.NumTestShards,
		"on_pull_request":                      s.OnPullRequest,
		"only_build_on_pull_request":           s.OnlyBuildOnPullRequest,
		"only_run_smoke_tests_on_pull_request": s.OnlyRunSmokeTestsOnPullRequest,
		"num_test_shards_on_pull_request":      s.NumTestShardsOnPullRequest,
		"enable_jit_legacy_test":               ShellBool(s.EnableJitLegacyTest),
		"enable_multigpu_test":                 ShellBool(s.EnableMultigpuTest),
		"enable_nogpu_no_avx_test":             ShellBool(s.EnableNogpuNoAVXTest),
		"enable_nogpu_no_avx2_test":            ShellBool(s.EnableNogpuNoAVX2Test),
		"enable_slow_test":                     ShellBool(s.EnableSlowTest),
	}
}
