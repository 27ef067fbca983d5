// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"github.com/facebookincubator/ciflow/pkg/ciflow"
	"github.com/facebookincubator/ciflow/pkg/runners"
	"github.com/facebookincubator/ciflow/pkg/workflow"
)

// WorkflowFileFormat defines a type for the supported formats of workflow files.
type WorkflowFileFormat int

// List of supported workflow file formats
const (
	WorkflowFileFormatYAML WorkflowFileFormat = iota
	WorkflowFileFormatHCL
)

func (f WorkflowFileFormat) String() string {
	switch f {
	case WorkflowFileFormatYAML:
		return "YAML"
	case WorkflowFileFormatHCL:
		return "HCL"
	}
	return fmt.Sprintf("WorkflowFileFormat(%d)", int(f))
}

// FormatFromFilename picks the workflow file format from the file extension.
func FormatFromFilename(filename string) (WorkflowFileFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yml", ".yaml":
		return WorkflowFileFormatYAML, nil
	case ".hcl":
		return WorkflowFileFormatHCL, nil
	}
	return 0, fmt.Errorf("cannot infer workflow file format of '%s', expected .yml, .yaml or .hcl", filename)
}

// yamlWorkflowFile maps a YAML workflow file, for example:
//
//	groups:
//	  - template: linux_ci_workflow.yml.tmpl
//	    workflows:
//	      - arch: linux
//	        build_environment: linux-xenial-py3.6-gcc5.4
//	        test_runner_type: linux.2xlarge
type yamlWorkflowFile struct {
	Groups []workflow.GroupSpec `yaml:"groups"`
}

// hclWorkflowFile maps an HCL workflow file, for example:
//
//	group "linux_ci_workflow.yml.tmpl" {
//	  workflow "linux-xenial-py3.6-gcc5.4" {
//	    arch             = "linux"
//	    test_runner_type = "linux.2xlarge"
//	  }
//	}
type hclWorkflowFile struct {
	Groups []*hclGroup `hcl:"group,block"`
}

type hclGroup struct {
	Template  string         `hcl:"template,label"`
	Workflows []*hclWorkflow `hcl:"workflow,block"`
}

type hclWorkflow struct {
	BuildEnvironment string `hcl:"build_environment,label"`
	Arch             string `hcl:"arch"`
	TestRunnerType   string `hcl:"test_runner_type"`

	CIFlow                         *ciflow.Spec `hcl:"ciflow_config,block"`
	CUDAVersion                    string       `hcl:"cuda_version,optional"`
	DockerImageBase                string       `hcl:"docker_image_base,optional"`
	EnableDocJobs                  bool         `hcl:"enable_doc_jobs,optional"`
	ExcludeTest                    bool         `hcl:"exclude_test,optional"`
	IsLibtorch                     bool         `hcl:"is_libtorch,optional"`
	IsScheduled                    string       `hcl:"is_scheduled,optional"`
	NumTestShards                  *int         `hcl:"num_test_shards,optional"`
	OnPullRequest                  bool         `hcl:"on_pull_request,optional"`
	OnlyBuildOnPullRequest         bool         `hcl:"only_build_on_pull_request,optional"`
	OnlyRunSmokeTestsOnPullRequest bool         `hcl:"only_run_smoke_tests_on_pull_request,optional"`
	NumTestShardsOnPullRequest     *int         `hcl:"num_test_shards_on_pull_request,optional"`

	EnableJitLegacyTest   bool `hcl:"enable_jit_legacy_test,optional"`
	EnableMultigpuTest    bool `hcl:"enable_multigpu_test,optional"`
	EnableNogpuNoAVXTest  bool `hcl:"enable_nogpu_no_avx_test,optional"`
	EnableNogpuNoAVX2Test bool `hcl:"enable_nogpu_no_avx2_test,optional"`
	EnableSlowTest        bool `hcl:"enable_slow_test,optional"`
}

func (hw *hclWorkflow) toSpec() (workflow.Spec, error) {
	arch, err := runners.ParseArch(hw.Arch)
	if err != nil {
		return workflow.Spec{}, fmt.Errorf("workflow '%s': %w", hw.BuildEnvironment, err)
	}
	s := workflow.DefaultSpec(arch, hw.BuildEnvironment, hw.TestRunnerType)
	if hw.CIFlow != nil {
		s.CIFlow = *hw.CIFlow
	}
	s.CUDAVersion = hw.CUDAVersion
	s.DockerImageBase = hw.DockerImageBase
	s.EnableDocJobs = hw.EnableDocJobs
	s.ExcludeTest = hw.ExcludeTest
	s.IsLibtorch = hw.IsLibtorch
	s.IsScheduled = hw.IsScheduled
	if hw.NumTestShards != nil {
		s.NumTestShards = *hw.NumTestShards
	}
	s.OnPullRequest = hw.OnPullRequest
	s.OnlyBuildOnPullRequest = hw.OnlyBuildOnPullRequest
	s.OnlyRunSmokeTestsOnPullRequest = hw.OnlyRunSmokeTestsOnPullRequest
	if hw.NumTestShardsOnPullRequest != nil {
		s.NumTestShardsOnPullRequest = *hw.NumTestShardsOnPullRequest
	}
	s.EnableJitLegacyTest = hw.EnableJitLegacyTest
	s.EnableMultigpuTest = hw.EnableMultigpuTest
	s.EnableNogpuNoAVXTest = hw.EnableNogpuNoAVXTest
	s.EnableNogpuNoAVX2Test = hw.EnableNogpuNoAVX2Test
	s.EnableSlowTest = hw.EnableSlowTest
	return s, nil
}

// ReadWorkflowFile reads a workflow file from afs, picking the format from
// the file extension.
func ReadWorkflowFile(afs afero.Fs, filename string) ([]workflow.GroupSpec, error) {
	format, err := FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(afs, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s': %w", filename, err)
	}
	return ParseWorkflowFile(filename, data, format)
}

// ParseWorkflowFile decodes the workflow groups found in data. Workflows are
// returned as written; defaulting and validation happen in workflow.New.
func ParseWorkflowFile(filename string, data []byte, format WorkflowFileFormat) ([]workflow.GroupSpec, error) {
	var (
		groups []workflow.GroupSpec
		err    error
	)
	switch format {
	case WorkflowFileFormatYAML:
		groups, err = parseYAML(data)
	case WorkflowFileFormatHCL:
		groups, err = parseHCL(filename, data)
	default:
		err = fmt.Errorf("unsupported format %v", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %v workflow file '%s': %w", format, filename, err)
	}
	if len(groups) < 1 {
		return nil, fmt.Errorf("no workflow group found in '%s'", filename)
	}
	return groups, nil
}

func parseYAML(data []byte) ([]workflow.GroupSpec, error) {
	var f yamlWorkflowFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, err
	}
	return f.Groups, nil
}

func parseHCL(filename string, data []byte) ([]workflow.GroupSpec, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	var f hclWorkflowFile
	if diags := gohcl.DecodeBody(file.Body, nil, &f); diags.HasErrors() {
		return nil, diags
	}
	groups := make([]workflow.GroupSpec, 0, len(f.Groups))
	for _, hg := range f.Groups {
		g := workflow.GroupSpec{Template: hg.Template}
		for _, hw := range hg.Workflows {
			spec, err := hw.toSpec()
			if err != nil {
				return nil, err
			}
			g.Workflows = append(g.Workflows, spec)
		}
		groups = append(groups, g)
	}
	return groups, nil
}
