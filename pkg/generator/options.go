// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package generator

import (
	"github.com/sirupsen/logrus"

	"github.com/facebookincubator/ciflow/pkg/logging"
)

// Option is an additional argument to method New to change the behavior
// of the Generator.
type Option interface {
	apply(*config)
}

type config struct {
	outputDir   string
	rulesetFile string
	log         *logrus.Entry
}

// OptionOutputDir sets the directory generated workflow files are written to.
type OptionOutputDir string

// apply implements Option.
func (opt OptionOutputDir) apply(cfg *config) {
	cfg.outputDir = string(opt)
}

// OptionRulesetFile sets the path of the ciflow ruleset file.
type OptionRulesetFile string

// apply implements Option.
func (opt OptionRulesetFile) apply(cfg *config) {
	cfg.rulesetFile = string(opt)
}

// OptionLogger sets the logger used to report progress and cleanup errors.
type OptionLogger struct {
	*logrus.Entry
}

// apply implements Option.
func (opt OptionLogger) apply(cfg *config) {
	cfg.log = opt.Entry
}

// getConfig converts a set of Option-s into one structure "config".
func getConfig(opts ...Option) config {
	result := config{
		outputDir:   DefaultOutputDir,
		rulesetFile: DefaultRulesetFile,
		log:         logging.GetLogger("generator"),
	}
	for _, opt := range opts {
		opt.apply(&result)
	}
	return result
}
