// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package generator renders workflows against their templates, writes one
// workflow file per workflow and the ciflow ruleset collecting their
// routing labels.
package generator

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/facebookincubator/ciflow/pkg/ciflow"
	"github.com/facebookincubator/ciflow/pkg/logging"
	"github.com/facebookincubator/ciflow/pkg/workflow"
)

// Default output locations, relative to the repository root.
const (
	DefaultOutputDir   = ".github/workflows"
	DefaultRulesetFile = ".github/generated-ciflow-ruleset.json"
)

// GeneratedMarker is the first line of every generated workflow file.
// Keep the "@generated" tag, code review tools use it to collapse the file.
const GeneratedMarker = "# @generated DO NOT EDIT MANUALLY"

// generated files are matched by this prefix when cleaning up
const generatedPrefix = "generated-"

// Result describes the output of a successful generation run.
type Result struct {
	// Files lists the written workflow files in generation order.
	Files   []string
	Ruleset ciflow.Artifact
}

// Generator writes workflow files and the ciflow ruleset to a filesystem.
type Generator struct {
	fs        afero.Fs
	templates fs.FS
	cfg       config
}

// New returns a Generator writing to afs and reading templates by name from
// templates.
func New(afs afero.Fs, templates fs.FS, opts ...Option) *Generator {
	return &Generator{
		fs:        afs,
		templates: templates,
		cfg:       getConfig(opts...),
	}
}

// OutputFile returns the path the workflow file of w is written to.
func (g *Generator) OutputFile(w *workflow.Workflow) string {
	return filepath.Join(g.cfg.outputDir, generatedPrefix+w.BuildEnvironment()+".yml")
}

// Generate parses the template of every group, removes previously generated
// workflow files, then renders every workflow of every group in order. A
// template error aborts the run before any file is touched. The ruleset is
// written only after all workflow files were written successfully. The first
// failure aborts the run.
func (g *Generator) Generate(groups []workflow.Group) (*Result, error) {
	tmpls := make([]*template.Template, 0, len(groups))
	for _, group := range groups {
		tmpl, err := g.loadTemplate(group.Template)
		if err != nil {
			return nil, &ErrTemplate{Template: group.Template, Err: err}
		}
		tmpls = append(tmpls, tmpl)
	}

	g.removeStale()
	if err := g.fs.MkdirAll(g.cfg.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create output directory '%s': %w", g.cfg.outputDir, err)
	}

	var (
		result  Result
		ruleset = ciflow.NewRuleset()
	)
	for i, group := range groups {
		tmpl := tmpls[i]
		for _, w := range group.Workflows {
			logging.Dump(g.cfg.log, "Resolved workflow "+w.BuildEnvironment(), w.Spec())
			outfile, err := g.generateWorkflow(tmpl, w)
			if err != nil {
				return nil, &ErrRender{BuildEnvironment: w.BuildEnvironment(), Template: group.Template, Err: err}
			}
			g.cfg.log.Infof("Generated '%s'", outfile)
			result.Files = append(result.Files, outfile)

			if labels := w.RoutingLabels(); len(labels) > 0 {
				ruleset.AddLabelRule(labels, w.BuildEnvironment())
			}
		}
	}

	if err := g.writeRuleset(ruleset); err != nil {
		return nil, err
	}
	result.Ruleset = ruleset.Artifact()
	return &result, nil
}

// removeStale deletes every previously generated workflow file. Failures are
// logged and ignored, the file is overwritten or left orphaned.
func (g *Generator) removeStale() {
	pattern := filepath.Join(g.cfg.outputDir, generatedPrefix+"*")
	stale, err := afero.Glob(g.fs, pattern)
	if err != nil {
		g.cfg.log.Warningf("Cannot list generated files matching '%s': %v", pattern, err)
		return
	}
	for _, f := range stale {
		if err := g.fs.Remove(f); err != nil {
			g.cfg.log.Warningf("Error occurred when deleting file '%s': %v", f, err)
			continue
		}
		g.cfg.log.Debugf("Deleted '%s'", f)
	}
}

func (g *Generator) loadTemplate(name string) (*template.Template, error) {
	data, err := fs.ReadFile(g.templates, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	t, err := template.New(name).
		Delims(leftDelim, rightDelim).
		Option("missingkey=error").
		Funcs(funcMap).
		Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("template parsing failed: %w", err)
	}
	return t, nil
}

func (g *Generator) generateWorkflow(tmpl *template.Template, w *workflow.Workflow) (string, error) {
	data, err := render(tmpl, w)
	if err != nil {
		return "", err
	}
	outfile := g.OutputFile(w)
	if err := afero.WriteFile(g.fs, outfile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write output file '%s': %w", outfile, err)
	}
	return outfile, nil
}

// render executes tmpl for w and checks that the result is a YAML mapping.
func render(tmpl *template.Template, w *workflow.Workflow) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(GeneratedMarker + "\n")
	if err := tmpl.Execute(&buf, w.Vars()); err != nil {
		return nil, fmt.Errorf("template execution failed: %w", err)
	}
	out := []byte(strings.TrimRight(buf.String(), "\n") + "\n")

	var doc yaml.Node
	if err := yaml.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("rendered workflow is not valid YAML: %w", err)
	}
	if len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("rendered workflow is not a YAML mapping")
	}
	return out, nil
}

func (g *Generator) writeRuleset(ruleset *ciflow.Ruleset) error {
	var buf bytes.Buffer
	if err := ruleset.Finalize(&buf); err != nil {
		return err
	}
	if err := g.fs.MkdirAll(filepath.Dir(g.cfg.rulesetFile), 0755); err != nil {
		return fmt.Errorf("cannot create ruleset directory: %w", err)
	}
	if err := afero.WriteFile(g.fs, g.cfg.rulesetFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write ruleset '%s': %w", g.cfg.rulesetFile, err)
	}
	g.cfg.log.Infof("Generated '%s'", g.cfg.rulesetFile)
	return nil
}
