// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package workflow

import (
	"fmt"
)

// GroupSpec is a list of workflow specs sharing one template.
type GroupSpec struct {
	Template  string `yaml:"template"`
	Workflows []Spec `yaml:"workflows"`
}

// Group is a list of validated workflows sharing one template.
type Group struct {
	Template  string
	Workflows []*Workflow
}

// BuildGroups validates every spec of every group, preserving order. It fails
// on the first invalid spec, and when two workflows share a build environment
// since they would be written to the same file.
func BuildGroups(specs []GroupSpec) ([]Group, error) {
	seen := make(map[string]string)
	groups := make([]Group, 0, len(specs))
	for _, gs := range specs {
		if gs.Template == "" {
			return nil, fmt.Errorf("template cannot be empty")
		}
		g := Group{
			Template:  gs.Template,
			Workflows: make([]*Workflow, 0, len(gs.Workflows)),
		}
		for _, spec := range gs.Workflows {
			w, err := New(spec)
			if err != nil {
				return nil, err
			}
			if tmpl, ok := seen[w.BuildEnvironment()]; ok {
				return nil, &ErrDuplicateWorkflow{
					BuildEnvironment: w.BuildEnvironment(),
					Templates:        []string{tmpl, gs.Template},
				}
			}
			seen[w.BuildEnvironment()] = gs.Template
			g.Workflows = append(g.Workflows, w)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// ErrDuplicateWorkflow means two workflows declare the same build environment.
type ErrDuplicateWorkflow struct {
	BuildEnvironment string
	Templates        []string
}

func (err *ErrDuplicateWorkflow) Error() string {
	return fmt.Sprintf("duplicate build_environment '%s' (templates %v)", err.BuildEnvironment, err.Templates)
}
