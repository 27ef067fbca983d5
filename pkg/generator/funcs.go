// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package generator

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/kballard/go-shellquote"

	"github.com/facebookincubator/ciflow/pkg/workflow"
)

// Template delimiters. GitHub Actions expressions use {{ }} already.
const (
	leftDelim  = "!{{"
	rightDelim = "}}"
)

var funcMap = template.FuncMap{
	"shellquote": shellQuote,
	"shellbool":  workflow.ShellBool,
	"quote":      yamlQuote,
}

// shellQuote quotes a string, or each element of a string list, for use as
// shell command arguments.
func shellQuote(v interface{}) (string, error) {
	switch v := v.(type) {
	case string:
		return shellquote.Join(v), nil
	case []string:
		return shellquote.Join(v...), nil
	default:
		return "", fmt.Errorf("shellquote: unsupported type %T", v)
	}
}

// yamlQuote renders s as a single-quoted YAML scalar.
func yamlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
