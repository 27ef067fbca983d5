// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package generator

import (
	"fmt"
)

// ErrTemplate means a template could not be loaded or parsed.
type ErrTemplate struct {
	Template string
	Err      error
}

func (err *ErrTemplate) Error() string {
	return fmt.Sprintf("failed to load template '%s': %v", err.Template, err.Err)
}
func (err *ErrTemplate) Unwrap() error {
	return err.Err
}

// ErrRender means the workflow file of a single workflow could not be
// rendered or written. The generation run is aborted.
type ErrRender struct {
	BuildEnvironment string
	Template         string
	Err              error
}

func (err *ErrRender) Error() string {
	return fmt.Sprintf("failed to generate workflow '%s' from template '%s': %v", err.BuildEnvironment, err.Template, err.Err)
}
func (err *ErrRender) Unwrap() error {
	return err.Err
}
