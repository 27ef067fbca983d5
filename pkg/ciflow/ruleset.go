// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package ciflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// RulesetVersion is the format version written into every ruleset.
const RulesetVersion = "v1"

// ErrFinalized is returned by Finalize when the ruleset was already written.
var ErrFinalized = errors.New("ruleset already finalized")

// Artifact is the serialized form of a Ruleset. Fields are declared in
// lexical order so the encoded keys are sorted.
type Artifact struct {
	LabelRules map[string][]string `json:"label_rules"`
	Version    string              `json:"version"`
}

// Ruleset accumulates label to workflow associations during a generation run.
// It is not safe for concurrent use.
type Ruleset struct {
	labelRules map[string]map[string]struct{}
	finalized  bool
}

// NewRuleset returns an empty Ruleset.
func NewRuleset() *Ruleset {
	return &Ruleset{labelRules: make(map[string]map[string]struct{})}
}

// AddLabelRule associates workflowName with every label in labels.
func (r *Ruleset) AddLabelRule(labels []string, workflowName string) {
	for _, label := range labels {
		workflows, ok := r.labelRules[label]
		if !ok {
			workflows = make(map[string]struct{})
			r.labelRules[label] = workflows
		}
		workflows[workflowName] = struct{}{}
	}
}

// Artifact returns a snapshot of the ruleset with sorted workflow names.
func (r *Ruleset) Artifact() Artifact {
	a := Artifact{
		LabelRules: make(map[string][]string, len(r.labelRules)),
		Version:    RulesetVersion,
	}
	for label, workflows := range r.labelRules {
		names := make([]string, 0, len(workflows))
		for name := range workflows {
			names = append(names, name)
		}
		sort.Strings(names)
		a.LabelRules[label] = names
	}
	return a
}

// Finalize writes the ruleset to w as indented JSON followed by a newline.
// It may be called only once.
func (r *Ruleset) Finalize(w io.Writer) error {
	if r.finalized {
		return ErrFinalized
	}
	r.finalized = true
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	// map keys are sorted by encoding/json
	if err := enc.Encode(r.Artifact()); err != nil {
		return fmt.Errorf("failed to encode ruleset: %w", err)
	}
	return nil
}
