/*
Copyright © 2025-2026 SUSE LLC
SPDX-License-Identifier: Apache-2.0

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used across the codebase. All methods
// accept a printf style format string.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type logger struct {
	l *logrus.Logger
}

type Option func(*logrus.Logger)

// WithDiscardAll silences the logger entirely, mostly useful in tests.
func WithDiscardAll() Option {
	return func(l *logrus.Logger) {
		l.SetOutput(io.Discard)
	}
}

// WithDebugLevel lowers the threshold so debug messages are emitted.
func WithDebugLevel() Option {
	return func(l *logrus.Logger) {
		l.SetLevel(logrus.DebugLevel)
	}
}

// WithOutput redirects log output to the given writer.
func WithOutput(w io.Writer) Option {
	return func(l *logrus.Logger) {
		l.SetOutput(w)
	}
}

// New returns a Logger writing to standard error at info level unless
// configured otherwise by the given options.
func New(opts ...Option) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	for _, o := range opts {
		o(l)
	}
	return &logger{l: l}
}

func (lg *logger) Debug(format string, args ...any) {
	lg.l.Debugf(format, args...)
}

func (lg *logger) Info(format string, args ...any) {
	lg.l.Infof(format, args...)
}

func (lg *logger) Warn(format string, args ...any) {
	lg.l.Warnf(format, args...)
}

func (lg *logger) Error(format string, args ...any) {
	lg.l.Errorf(format, args...)
}
