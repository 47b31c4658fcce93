// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging is the printf-style logging facade used across the toolkit.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var logger = newLogger(os.Stderr)

// exitFunc is replaced in tests so Fatal does not terminate the test binary.
var exitFunc = os.Exit

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(formatterFor(out))
	return l
}

func formatterFor(out io.Writer) logrus.Formatter {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &logrus.TextFormatter{
		DisableColors:    !tty,
		DisableTimestamp: !tty,
		FullTimestamp:    tty,
	}
}

// SetOutput redirects log output. Colours are enabled only when out is a terminal.
func SetOutput(out io.Writer) {
	logger.SetOutput(out)
	logger.SetFormatter(formatterFor(out))
}

// SetLevel parses a level name ("debug", "info", "warn", "error") and applies it.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}

func Debug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Fatal logs at error level and exits with status 1.
func Fatal(format string, args ...interface{}) {
	logger.Errorf(format, args...)
	exitFunc(1)
}
