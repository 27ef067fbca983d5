// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package ciflow models label based routing of generated workflows: the
// per-workflow gate that decides whether a pull request event runs the
// workflow, and the ruleset mapping labels to workflows that is consumed by
// the external trigger bot.
package ciflow

import (
	"sort"
	"strings"
)

// Defaults applied by NewConfig.
const (
	DefaultTriggerAction = "unassigned"
	DefaultTriggerActor  = "pytorchbot"
	RootJobName          = "ciflow_should_run"
)

// LabelDefault is the implicit label of workflows that run on every pull
// request without an explicit routing config.
const LabelDefault = "ciflow/default"

// EventPullRequest is the GitHub event name of pull request events.
const EventPullRequest = "pull_request"

// Spec is the user supplied routing configuration of a workflow.
type Spec struct {
	Enabled       bool     `yaml:"enabled" hcl:"enabled,optional"`
	Labels        []string `yaml:"labels" hcl:"labels,optional"`
	TriggerAction string   `yaml:"trigger_action" hcl:"trigger_action,optional"`
	TriggerActor  string   `yaml:"trigger_actor" hcl:"trigger_actor,optional"`
	// TriggerActionOnly makes the workflow listen to the trigger action only,
	// instead of every default pull_request action.
	TriggerActionOnly bool `yaml:"trigger_action_only" hcl:"trigger_action_only,optional"`
}

// Config is the resolved, read-only routing configuration of a workflow.
type Config struct {
	enabled           bool
	labels            []string
	triggerAction     string
	triggerActor      string
	triggerActionOnly bool
	rootJobName       string
	rootJobCondition  string
}

// NewConfig resolves defaults and computes the root job condition. When the
// spec is disabled the root job name and condition are both empty and the
// labels are kept as given.
func NewConfig(spec Spec) Config {
	c := Config{
		enabled:           spec.Enabled,
		labels:            append([]string{}, spec.Labels...),
		triggerAction:     spec.TriggerAction,
		triggerActor:      spec.TriggerActor,
		triggerActionOnly: spec.TriggerActionOnly,
	}
	if c.triggerAction == "" {
		c.triggerAction = DefaultTriggerAction
	}
	if c.triggerActor == "" {
		c.triggerActor = DefaultTriggerActor
	}
	if !c.enabled {
		return c
	}
	c.labels = normalizeLabels(c.labels)
	c.rootJobName = RootJobName
	c.rootJobCondition = rootJobCondition(c.triggerAction, c.labels)
	return c
}

// rootJobCondition builds a GitHub Actions expression which is false only for
// a pull request event carrying the trigger action and every label.
func rootJobCondition(action string, labels []string) string {
	clauses := []string{
		"(github.event_name != " + quote(EventPullRequest) + ")",
		"(github.event.action != " + quote(action) + ")",
	}
	if len(labels) > 0 {
		contains := make([]string, 0, len(labels))
		for _, l := range labels {
			contains = append(contains, "contains(github.event.pull_request.labels.*.name, "+quote(l)+")")
		}
		clauses = append(clauses, "!("+strings.Join(contains, " && ")+")")
	}
	return strings.Join(clauses, " || ")
}

// quote renders s as a single-quoted expression string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func normalizeLabels(labels []string) []string {
	set := make(map[string]struct{}, len(labels))
	ret := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := set[l]; ok {
			continue
		}
		set[l] = struct{}{}
		ret = append(ret, l)
	}
	sort.Strings(ret)
	return ret
}

// Enabled reports whether label routing gates the workflow.
func (c Config) Enabled() bool { return c.enabled }

// Labels returns the sorted, deduplicated routing labels.
func (c Config) Labels() []string {
	return append([]string(nil), c.labels...)
}

// TriggerAction returns the pull_request action the trigger bot emits.
func (c Config) TriggerAction() string { return c.triggerAction }

// TriggerActor returns the account the trigger bot acts as.
func (c Config) TriggerActor() string { return c.triggerActor }

// TriggerActionOnly reports whether the workflow only listens to the trigger action.
func (c Config) TriggerActionOnly() bool { return c.triggerActionOnly }

// RootJobName returns the name of the gating job, empty when disabled.
func (c Config) RootJobName() string { return c.rootJobName }

// RootJobCondition returns the gating expression, empty when disabled.
func (c Config) RootJobCondition() string { return c.rootJobCondition }

// Event is the subset of a GitHub event the root job condition looks at.
type Event struct {
	Name   string
	Action string
	Labels []string
}

// ShouldRun evaluates the root job condition against ev. A disabled config
// never gates the workflow.
func (c Config) ShouldRun(ev Event) bool {
	if !c.enabled {
		return true
	}
	if ev.Name != EventPullRequest || ev.Action != c.triggerAction {
		return true
	}
	present := make(map[string]struct{}, len(ev.Labels))
	for _, l := range ev.Labels {
		present[l] = struct{}{}
	}
	for _, l := range c.labels {
		if _, ok := present[l]; !ok {
			return true
		}
	}
	return false
}
