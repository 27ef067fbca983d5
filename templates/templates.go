// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package templates bundles the default workflow templates.
package templates

import "embed"

// Names of the bundled templates.
const (
	Linux   = "linux_ci_workflow.yml.tmpl"
	Windows = "windows_ci_workflow.yml.tmpl"
	Bazel   = "bazel_ci_workflow.yml.tmpl"
)

// FS holds the bundled templates at its root.
//
//go:embed *.yml.tmpl
var FS embed.FS
