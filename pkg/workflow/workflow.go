// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package workflow defines the build/test configurations that are expanded
// into CI workflow files.
package workflow

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/facebookincubator/ciflow/pkg/ciflow"
	"github.com/facebookincubator/ciflow/pkg/runners"
)

// ShardsUnset marks NumTestShardsOnPullRequest as not set by the user.
const ShardsUnset = -1

// the build environment ends up in file names and job names
var buildEnvironmentRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// GitHub schedules take plain five field expressions only: no descriptors
// such as @daily and no time zone prefix.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Spec describes one build/test configuration as written by the user.
// Zero values are meaningful except for the two shard counts, see
// DefaultSpec.
type Spec struct {
	// Required fields
	Arch             runners.Arch `yaml:"arch"`
	BuildEnvironment string       `yaml:"build_environment"`
	TestRunnerType   string       `yaml:"test_runner_type"`

	// Optional fields
	CIFlow                         ciflow.Spec `yaml:"ciflow_config"`
	CUDAVersion                    string      `yaml:"cuda_version"`
	DockerImageBase                string      `yaml:"docker_image_base"`
	EnableDocJobs                  bool        `yaml:"enable_doc_jobs"`
	ExcludeTest                    bool        `yaml:"exclude_test"`
	IsLibtorch                     bool        `yaml:"is_libtorch"`
	IsScheduled                    string      `yaml:"is_scheduled"`
	NumTestShards                  int         `yaml:"num_test_shards"`
	OnPullRequest                  bool        `yaml:"on_pull_request"`
	OnlyBuildOnPullRequest         bool        `yaml:"only_build_on_pull_request"`
	OnlyRunSmokeTestsOnPullRequest bool        `yaml:"only_run_smoke_tests_on_pull_request"`
	NumTestShardsOnPullRequest     int         `yaml:"num_test_shards_on_pull_request"`

	EnableJitLegacyTest   bool `yaml:"enable_jit_legacy_test"`
	EnableMultigpuTest    bool `yaml:"enable_multigpu_test"`
	EnableNogpuNoAVXTest  bool `yaml:"enable_nogpu_no_avx_test"`
	EnableNogpuNoAVX2Test bool `yaml:"enable_nogpu_no_avx2_test"`
	EnableSlowTest        bool `yaml:"enable_slow_test"`
}

// DefaultSpec returns a Spec with the required fields set and every optional
// field at its default.
func DefaultSpec(arch runners.Arch, buildEnvironment, testRunnerType string) Spec {
	return Spec{
		Arch:                       arch,
		BuildEnvironment:           buildEnvironment,
		TestRunnerType:             testRunnerType,
		NumTestShards:              1,
		NumTestShardsOnPullRequest: ShardsUnset,
	}
}

// UnmarshalYAML implements yaml.Unmarshaler so that fields missing from a
// YAML document get the same defaults as DefaultSpec.
func (s *Spec) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawSpec Spec
	raw := rawSpec(DefaultSpec("", "", ""))
	if err := unmarshal(&raw); err != nil {
		return err
	}
	arch, err := runners.ParseArch(string(raw.Arch))
	if err != nil {
		return fmt.Errorf("build_environment '%s': %w", raw.BuildEnvironment, err)
	}
	raw.Arch = arch
	*s = Spec(raw)
	return nil
}

// Workflow is a validated Spec with every default resolved. It is never
// modified after New returns.
type Workflow struct {
	spec   Spec
	ciflow ciflow.Config
}

// New applies the defaulting rules to spec and validates the result.
func New(spec Spec) (*Workflow, error) {
	spec.CIFlow.Labels = append([]string(nil), spec.CIFlow.Labels...)

	// library-only builds have nothing to test
	if spec.IsLibtorch {
		spec.ExcludeTest = true
	}
	if !spec.OnPullRequest {
		spec.OnlyBuildOnPullRequest = false
	}
	if spec.NumTestShardsOnPullRequest == ShardsUnset {
		if spec.OnlyRunSmokeTestsOnPullRequest {
			spec.NumTestShardsOnPullRequest = 1
		} else {
			spec.NumTestShardsOnPullRequest = spec.NumTestShards
		}
	}
	w := &Workflow{
		spec:   spec,
		ciflow: ciflow.NewConfig(spec.CIFlow),
	}
	if err := w.validate(); err != nil {
		return nil, &ErrInvalidWorkflow{BuildEnvironment: spec.BuildEnvironment, Err: err}
	}
	return w, nil
}

func (w *Workflow) validate() error {
	s := w.spec
	if s.BuildEnvironment == "" {
		return fmt.Errorf("build_environment cannot be empty")
	}
	if !buildEnvironmentRegexp.MatchString(s.BuildEnvironment) {
		return fmt.Errorf("invalid build_environment '%s', not matching regexp '%s'", s.BuildEnvironment, buildEnvironmentRegexp)
	}
	if s.TestRunnerType == "" {
		return fmt.Errorf("test_runner_type cannot be empty")
	}
	if err := runners.Validate(s.Arch, s.TestRunnerType); err != nil {
		return err
	}
	if s.NumTestShards < 1 {
		return fmt.Errorf("num_test_shards must be at least 1, got %d", s.NumTestShards)
	}
	if s.NumTestShardsOnPullRequest < 1 {
		return fmt.Errorf("num_test_shards_on_pull_request must be at least 1, got %d", s.NumTestShardsOnPullRequest)
	}
	if s.IsScheduled != "" {
		if err := validateSchedule(s.IsScheduled); err != nil {
			return fmt.Errorf("invalid is_scheduled cron expression '%s': %w", s.IsScheduled, err)
		}
	}
	return nil
}

func validateSchedule(expr string) error {
	if strings.HasPrefix(expr, "TZ=") || strings.HasPrefix(expr, "CRON_TZ=") {
		return fmt.Errorf("time zone prefixes are not supported, schedules run in UTC")
	}
	_, err := scheduleParser.Parse(expr)
	return err
}

// Spec returns a copy of the resolved spec.
func (w *Workflow) Spec() Spec {
	s := w.spec
	s.CIFlow.Labels = append([]string(nil), w.spec.CIFlow.Labels...)
	return s
}

// BuildEnvironment returns the unique name of the workflow.
func (w *Workflow) BuildEnvironment() string { return w.spec.BuildEnvironment }

// OnPullRequest reports whether the workflow is triggered by pull requests.
func (w *Workflow) OnPullRequest() bool { return w.spec.OnPullRequest }

// CIFlow returns the resolved routing configuration.
func (w *Workflow) CIFlow() ciflow.Config { return w.ciflow }

// RoutingLabels returns the labels the workflow is registered under in the
// ciflow ruleset, or nil if it is not routed at all.
func (w *Workflow) RoutingLabels() []string {
	if w.ciflow.Enabled() {
		return w.ciflow.Labels()
	}
	if w.spec.OnPullRequest {
		return []string{ciflow.LabelDefault}
	}
	return nil
}

func (w *Workflow) String() string {
	return fmt.Sprintf("%s (%s, %s)", w.spec.BuildEnvironment, w.spec.Arch, w.spec.TestRunnerType)
}

// ErrInvalidWorkflow is returned by New when a spec fails validation.
type ErrInvalidWorkflow struct {
	BuildEnvironment string
	Err              error
}

func (err *ErrInvalidWorkflow) Error() string {
	return fmt.Sprintf("invalid workflow '%s': %v", err.BuildEnvironment, err.Err)
}

func (err *ErrInvalidWorkflow) Unwrap() error {
	return err.Err
}
