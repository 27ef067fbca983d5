// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package catalog holds the built-in list of CI workflows.
package catalog

import (
	"github.com/facebookincubator/ciflow/pkg/ciflow"
	"github.com/facebookincubator/ciflow/pkg/runners"
	"github.com/facebookincubator/ciflow/pkg/workflow"
	"github.com/facebookincubator/ciflow/templates"
)

// DockerRegistry hosts the CI base images.
const DockerRegistry = "308535385114.dkr.ecr.us-east-1.amazonaws.com"

// every four hours, at 45 past
const periodicSchedule = "45 0,4,8,12,16,20 * * *"

func dockerImage(name string) string {
	return DockerRegistry + "/pytorch/" + name
}

type option func(*workflow.Spec)

func spec(arch runners.Arch, buildEnvironment, testRunnerType string, opts ...option) workflow.Spec {
	s := workflow.DefaultSpec(arch, buildEnvironment, testRunnerType)
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func withDockerImage(name string) option {
	return func(s *workflow.Spec) { s.DockerImageBase = dockerImage(name) }
}

func withCUDA(version string) option {
	return func(s *workflow.Spec) { s.CUDAVersion = version }
}

func withShards(n int) option {
	return func(s *workflow.Spec) { s.NumTestShards = n }
}

func onPullRequest(s *workflow.Spec) { s.OnPullRequest = true }

func smokeTestsOnPullRequest(s *workflow.Spec) { s.OnlyRunSmokeTestsOnPullRequest = true }

func libtorch(s *workflow.Spec) { s.IsLibtorch = true }

func docJobs(s *workflow.Spec) { s.EnableDocJobs = true }

func periodic(s *workflow.Spec) { s.IsScheduled = periodicSchedule }

func withLabels(triggerActionOnly bool, labels ...string) option {
	return func(s *workflow.Spec) {
		s.CIFlow = ciflow.Spec{
			Enabled:           true,
			TriggerActionOnly: triggerActionOnly,
			Labels:            labels,
		}
	}
}

func allExtraTests(s *workflow.Spec) {
	s.EnableJitLegacyTest = true
	s.EnableMultigpuTest = true
	s.EnableNogpuNoAVXTest = true
	s.EnableNogpuNoAVX2Test = true
	s.EnableSlowTest = true
}

// Windows returns the Windows workflows.
func Windows() []workflow.Spec {
	return []workflow.Spec{
		spec(runners.ArchWindows, "win-vs2019-cpu-py3", runners.WindowsCPUTestRunner,
			withCUDA("cpu"), onPullRequest, withShards(2)),
		spec(runners.ArchWindows, "win-vs2019-cuda10.1-py3", runners.WindowsCUDATestRunner,
			withCUDA("10.1"), onPullRequest, smokeTestsOnPullRequest, withShards(2)),
		spec(runners.ArchWindows, "win-vs2019-cuda11.1-py3", runners.WindowsCUDATestRunner,
			withCUDA("11.1"), withShards(2)),
		spec(runners.ArchWindows, "periodic-win-vs2019-cuda11.3-py3", runners.WindowsCUDATestRunner,
			withCUDA("11.3"), withShards(2), periodic, onPullRequest,
			withLabels(true, "ciflow/scheduled")),
	}
}

// Linux returns the Linux workflows.
func Linux() []workflow.Spec {
	return []workflow.Spec{
		spec(runners.ArchLinux, "linux-xenial-py3.6-gcc5.4", runners.LinuxCPUTestRunner,
			withDockerImage("pytorch-linux-xenial-py3.6-gcc5.4"), onPullRequest, docJobs, withShards(2)),
		spec(runners.ArchLinux, "linux-bionic-cuda10.2-py3.9-gcc7", runners.LinuxCUDATestRunner,
			withDockerImage("pytorch-linux-bionic-cuda10.2-cudnn7-py3.9-gcc7"), withShards(2)),
		spec(runners.ArchLinux, "linux-xenial-cuda10.2-py3.6-gcc7", runners.LinuxCUDATestRunner,
			withDockerImage("pytorch-linux-xenial-cuda10.2-cudnn7-py3-gcc7"), allExtraTests, withShards(2),
			onPullRequest, withLabels(true, "ciflow/slow")),
		spec(runners.ArchLinux, "libtorch-linux-xenial-cuda10.2-py3.6-gcc7", runners.LinuxCUDATestRunner,
			withDockerImage("pytorch-linux-xenial-cuda10.2-cudnn7-py3-gcc7"), libtorch),
		spec(runners.ArchLinux, "linux-xenial-cuda11.1-py3.6-gcc7", runners.LinuxCUDATestRunner,
			withDockerImage("pytorch-linux-xenial-cuda11.1-cudnn8-py3-gcc7"), withShards(2)),
		spec(runners.ArchLinux, "libtorch-linux-xenial-cuda11.1-py3.6-gcc7", runners.LinuxCUDATestRunner,
			withDockerImage("pytorch-linux-xenial-cuda11.1-cudnn8-py3-gcc7"), libtorch),
		spec(runners.ArchLinux, "periodic-linux-xenial-cuda11.3-py3.6-gcc7", runners.LinuxCUDATestRunner,
			withDockerImage("pytorch-linux-xenial-cuda11.3-cudnn8-py3-gcc7"), withShards(2), periodic,
			onPullRequest, withLabels(true, "ciflow/scheduled")),
		spec(runners.ArchLinux, "periodic-libtorch-linux-xenial-cuda11.3-py3.6-gcc7", runners.LinuxCUDATestRunner,
			withDockerImage("pytorch-linux-xenial-cuda11.3-cudnn8-py3-gcc7"), libtorch, periodic,
			onPullRequest, withLabels(true, "ciflow/scheduled")),
		spec(runners.ArchLinux, "linux-bionic-py3.8-gcc9-coverage", runners.LinuxCPUTestRunner,
			withDockerImage("pytorch-linux-bionic-py3.8-gcc9"), onPullRequest, withShards(2),
			withLabels(false, "ciflow/default")),
	}
}

// Bazel returns the Bazel workflows.
func Bazel() []workflow.Spec {
	return []workflow.Spec{
		spec(runners.ArchLinux, "linux-xenial-py3.6-gcc7-bazel-test", runners.LinuxCPUTestRunner,
			withDockerImage("pytorch-linux-xenial-py3.6-gcc7"), onPullRequest,
			withLabels(false, "ciflow/default")),
	}
}

// Default returns every built-in workflow grouped by the bundled template
// it is rendered with, in generation order.
func Default() []workflow.GroupSpec {
	return []workflow.GroupSpec{
		{Template: templates.Linux, Workflows: Linux()},
		{Template: templates.Windows, Workflows: Windows()},
		{Template: templates.Bazel, Workflows: Bazel()},
	}
}
