// Copyright (c) Facebook, Inc. and its affiliates.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package logging

import (
	"fmt"
	"io"
	"io/ioutil"

	log_prefixed "github.com/chappjc/logrus-prefix"
	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
)

var (
	log *logrus.Logger
)

// GetLogger returns a configured logger instance
func GetLogger(prefix string) *logrus.Entry {
	return log.WithField("prefix", prefix)
}

// SetLevel parses level (e.g. "debug", "info") and applies it to every
// logger returned by GetLogger.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", level, err)
	}
	log.SetLevel(lvl)
	return nil
}

// SetOutput redirects all logging output to w.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Disable sends all logging output to the bit bucket.
func Disable() {
	log.SetOutput(ioutil.Discard)
}

// Dump logs a deep, human readable representation of v at debug level.
func Dump(e *logrus.Entry, msg string, v interface{}) {
	if !e.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	e.Debugf("%s:\n%s", msg, dumpConfig.Sdump(v))
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func init() {
	log = logrus.New()
	log.SetFormatter(&log_prefixed.TextFormatter{
		FullTimestamp: true,
	})
}
