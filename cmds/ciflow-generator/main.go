// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"

	"github.com/facebookincubator/ciflow/pkg/catalog"
	"github.com/facebookincubator/ciflow/pkg/config"
	"github.com/facebookincubator/ciflow/pkg/generator"
	"github.com/facebookincubator/ciflow/pkg/logging"
	"github.com/facebookincubator/ciflow/pkg/runners"
	"github.com/facebookincubator/ciflow/pkg/workflow"
	"github.com/facebookincubator/ciflow/templates"
)

var log = logging.GetLogger("ciflow-generator")

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(),
		"%s [--from workflows.yml|workflows.hcl] [--templates dir] [--outdir dir] [--ruleset file]\n",
		os.Args[0],
	)
	flag.PrintDefaults()
}

func registerFlags(flags *flag.FlagSet) {
	config.RegisterFlags(flags)
	flags.Bool("list-runners", false, "Print the valid runner types of every arch and exit")
}

func main() {
	flag.Usage = usage
	registerFlags(flag.CommandLine)
	flag.Parse()

	if err := run(afero.NewOsFs(), flag.CommandLine, os.Stdout); err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
}

// run generates every workflow file and the ruleset, then prints the path of
// each written file to stdout.
func run(afs afero.Fs, flags *flag.FlagSet, stdout io.Writer) error {
	settings, err := config.LoadSettings(afs, flags)
	if err != nil {
		return err
	}
	if err := logging.SetLevel(settings.LogLevel); err != nil {
		return err
	}
	if listRunners, _ := flags.GetBool("list-runners"); listRunners {
		for _, arch := range runners.Archs() {
			fmt.Fprintf(stdout, "%s: %v\n", arch, runners.Runners(arch))
		}
		return nil
	}

	specs := catalog.Default()
	if settings.WorkflowsFile != "" {
		specs, err = config.ReadWorkflowFile(afs, settings.WorkflowsFile)
		if err != nil {
			return fmt.Errorf("error parsing workflow file '%s': %w", settings.WorkflowsFile, err)
		}
	}
	groups, err := workflow.BuildGroups(specs)
	if err != nil {
		return err
	}

	var tmplFS fs.FS = templates.FS
	if settings.TemplateDir != "" {
		tmplFS = afero.NewIOFS(afero.NewBasePathFs(afs, settings.TemplateDir))
	}
	log.Infof("Generating %d workflow group(s) into '%s'", len(groups), settings.OutputDir)

	opts := append(settings.GeneratorOptions(), generator.OptionLogger{Entry: logging.GetLogger("generator")})
	res, err := generator.New(afs, tmplFS, opts...).Generate(groups)
	if err != nil {
		return err
	}
	for _, f := range res.Files {
		fmt.Fprintln(stdout, f)
	}
	fmt.Fprintln(stdout, settings.RulesetFile)
	return nil
}
