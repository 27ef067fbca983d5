// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/facebookincubator/ciflow/pkg/generator"
)

// Settings are the run time settings of the generator.
type Settings struct {
	// ConfigFile, if set, is read instead of looking up .ciflow-generator.yaml
	ConfigFile string `mapstructure:"config"`
	// WorkflowsFile is a YAML or HCL workflow file. Empty means the built-in
	// catalog.
	WorkflowsFile string `mapstructure:"from"`
	// TemplateDir replaces the bundled templates when set.
	TemplateDir string `mapstructure:"templates"`
	OutputDir   string `mapstructure:"outdir"`
	RulesetFile string `mapstructure:"ruleset"`
	LogLevel    string `mapstructure:"log-level"`
}

// EnvPrefix prefixes the environment variables overriding settings, e.g.
// CIFLOW_OUTDIR.
const EnvPrefix = "CIFLOW"

// RegisterFlags defines the generator flags on flags.
func RegisterFlags(flags *flag.FlagSet) {
	flags.StringP("config", "c", "", "Settings file, defaults to .ciflow-generator.yaml in the working directory if present")
	flags.StringP("from", "f", "", "File name to get the workflow list from, in YAML or HCL format. Empty uses the built-in list")
	flags.StringP("templates", "t", "", "Template directory. Empty uses the bundled templates")
	flags.StringP("outdir", "o", generator.DefaultOutputDir, "Output directory of the generated workflow files")
	flags.String("ruleset", generator.DefaultRulesetFile, "Output path of the ciflow ruleset")
	flags.String("log-level", "info", "Log level: debug, info, warning, error")
}

// LoadSettings merges, in increasing priority, flag defaults, the settings
// file, CIFLOW_* environment variables and explicitly set flags.
func LoadSettings(afs afero.Fs, flags *flag.FlagSet) (Settings, error) {
	v := viper.New()
	v.SetFs(afs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return Settings{}, fmt.Errorf("cannot bind flags: %w", err)
	}

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read settings file '%s': %w", cfgFile, err)
		}
	} else {
		v.SetConfigName(".ciflow-generator")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, fmt.Errorf("failed to read settings: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return s, nil
}

// GeneratorOptions converts the output settings into generator options.
func (s Settings) GeneratorOptions() []generator.Option {
	return []generator.Option{
		generator.OptionOutputDir(s.OutputDir),
		generator.OptionRulesetFile(s.RulesetFile),
	}
}
