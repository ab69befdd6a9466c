// SPDX-License-Identifier: EPL-2.0

// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/config"
)

// Setup sets the level, formatter and output of the standard logrus logger.
func Setup(cfg config.Logging, out io.Writer) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", cfg.Level, config.ErrInvalidConfig)
	}

	var formatter logrus.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if cfg.JSON {
		formatter = &logrus.JSONFormatter{}
	}

	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)
	logrus.SetOutput(out)

	return nil
}
