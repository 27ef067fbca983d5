// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package ciflow

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesetAccumulatesSorted(t *testing.T) {
	r := NewRuleset()
	r.AddLabelRule([]string{LabelDefault}, "job-B")
	r.AddLabelRule([]string{LabelDefault}, "job-A")
	r.AddLabelRule([]string{LabelDefault}, "job-A")

	a := r.Artifact()
	assert.Equal(t, RulesetVersion, a.Version)
	assert.Equal(t, map[string][]string{LabelDefault: {"job-A", "job-B"}}, a.LabelRules)
}

func TestRulesetFinalize(t *testing.T) {
	r := NewRuleset()
	r.AddLabelRule([]string{"ciflow/scheduled", "ciflow/default"}, "periodic-linux")
	r.AddLabelRule([]string{"ciflow/default"}, "linux-gcc")

	var buf bytes.Buffer
	require.NoError(t, r.Finalize(&buf))
	expected := `{
  "label_rules": {
    "ciflow/default": [
      "linux-gcc",
      "periodic-linux"
    ],
    "ciflow/scheduled": [
      "periodic-linux"
    ]
  },
  "version": "v1"
}
`
	assert.Equal(t, expected, buf.String())
}

func TestRulesetFinalizeEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRuleset().Finalize(&buf))
	assert.Equal(t, "{\n  \"label_rules\": {},\n  \"version\": \"v1\"\n}\n", buf.String())
}

func TestRulesetFinalizeOnce(t *testing.T) {
	r := NewRuleset()
	var buf bytes.Buffer
	require.NoError(t, r.Finalize(&buf))
	assert.Equal(t, ErrFinalized, r.Finalize(&buf))
}
