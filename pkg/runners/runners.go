// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package runners enumerates the self-hosted runner types a generated
// workflow may request, per architecture.
package runners

import (
	"fmt"
	"sort"
)

// Arch is the operating system family a workflow builds and tests on.
type Arch string

// List of supported architectures
const (
	ArchLinux   Arch = "linux"
	ArchWindows Arch = "windows"
)

// Runner types known to the CI fleet.
const (
	LinuxCPUTestRunner    = "linux.2xlarge"
	LinuxCUDATestRunner   = "linux.8xlarge.nvidia.gpu"
	WindowsCPUTestRunner  = "windows.4xlarge"
	WindowsCUDATestRunner = "windows.8xlarge.nvidia.gpu"
)

var registry = map[Arch]map[string]struct{}{
	ArchLinux: {
		LinuxCPUTestRunner:  {},
		LinuxCUDATestRunner: {},
	},
	ArchWindows: {
		WindowsCPUTestRunner:  {},
		WindowsCUDATestRunner: {},
	},
}

// ParseArch converts a string into an Arch, failing for unknown values.
func ParseArch(s string) (Arch, error) {
	arch := Arch(s)
	if _, ok := registry[arch]; !ok {
		return "", &ErrUnknownArch{Arch: arch}
	}
	return arch, nil
}

// Archs returns the supported architectures in sorted order.
func Archs() []Arch {
	archs := make([]Arch, 0, len(registry))
	for arch := range registry {
		archs = append(archs, arch)
	}
	sort.Slice(archs, func(i, j int) bool { return archs[i] < archs[j] })
	return archs
}

// Runners returns the sorted list of runner types valid for arch, or nil if
// the architecture is unknown.
func Runners(arch Arch) []string {
	set, ok := registry[arch]
	if !ok {
		return nil
	}
	ret := make([]string, 0, len(set))
	for r := range set {
		ret = append(ret, r)
	}
	sort.Strings(ret)
	return ret
}

// Validate checks that runnerType can be used by a workflow targeting arch.
func Validate(arch Arch, runnerType string) error {
	set, ok := registry[arch]
	if !ok {
		return &ErrUnknownArch{Arch: arch}
	}
	if _, ok := set[runnerType]; !ok {
		return &ErrInvalidRunnerType{Arch: arch, RunnerType: runnerType}
	}
	return nil
}

// ErrUnknownArch is returned for an architecture missing from the registry.
type ErrUnknownArch struct {
	Arch Arch
}

func (err *ErrUnknownArch) Error() string {
	return fmt.Sprintf("unknown arch '%s', expected one of %v", err.Arch, Archs())
}

// ErrInvalidRunnerType is returned when a runner type is not valid for the
// declared architecture.
type ErrInvalidRunnerType struct {
	Arch       Arch
	RunnerType string
}

func (err *ErrInvalidRunnerType) Error() string {
	return fmt.Sprintf("invalid test_runner_type for %s: %s (valid: %v)", err.Arch, err.RunnerType, Runners(err.Arch))
}
