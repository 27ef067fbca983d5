// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package catalog

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facebookincubator/ciflow/pkg/generator"
	"github.com/facebookincubator/ciflow/pkg/logging"
	"github.com/facebookincubator/ciflow/pkg/workflow"
	"github.com/facebookincubator/ciflow/templates"
)

func TestDefaultIsValid(t *testing.T) {
	groups, err := workflow.BuildGroups(Default())
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0].Workflows, 9)
	assert.Len(t, groups[1].Workflows, 4)
	assert.Len(t, groups[2].Workflows, 1)

	for _, g := range groups {
		for _, w := range g.Workflows {
			if w.Spec().IsLibtorch {
				assert.True(t, w.Spec().ExcludeTest, w.BuildEnvironment())
			}
		}
	}
}

func TestDefaultReturnsFreshLists(t *testing.T) {
	first := Default()
	first[0].Workflows[0].BuildEnvironment = "mutated"
	assert.Equal(t, "linux-xenial-py3.6-gcc5.4", Default()[0].Workflows[0].BuildEnvironment)
}

func TestGenerateDefault(t *testing.T) {
	logging.Disable()
	groups, err := workflow.BuildGroups(Default())
	require.NoError(t, err)

	res, err := generator.New(afero.NewMemMapFs(), templates.FS).Generate(groups)
	require.NoError(t, err)
	assert.Len(t, res.Files, 14)
	assert.Equal(t, map[string][]string{
		"ciflow/default": {
			"linux-bionic-py3.8-gcc9-coverage",
			"linux-xenial-py3.6-gcc5.4",
			"linux-xenial-py3.6-gcc7-bazel-test",
			"win-vs2019-cpu-py3",
			"win-vs2019-cuda10.1-py3",
		},
		"ciflow/scheduled": {
			"periodic-libtorch-linux-xenial-cuda11.3-py3.6-gcc7",
			"periodic-linux-xenial-cuda11.3-py3.6-gcc7",
			"periodic-win-vs2019-cuda11.3-py3",
		},
		"ciflow/slow": {
			"linux-xenial-cuda10.2-py3.6-gcc7",
		},
	}, res.Ruleset.LabelRules)
}
