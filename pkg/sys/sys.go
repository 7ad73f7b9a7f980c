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

// Package sys bundles the host facing collaborators (filesystem, command
// runner, mounter and logger) behind a single injectable facade so that
// every OS interaction can be substituted in tests.
package sys

import (
	"context"

	"github.com/suse/usbmedia/pkg/log"
	"github.com/suse/usbmedia/pkg/sys/vfs"
)

// Runner executes external commands.
type Runner interface {
	Run(command string, args ...string) ([]byte, error)
	RunContext(ctx context.Context, command string, args ...string) ([]byte, error)
	RunContextParseOutput(ctx context.Context, stdoutHandler, stderrHandler func(string), command string, args ...string) error
}

// Mounter attaches and detaches filesystems.
type Mounter interface {
	Mount(source, target, fstype string, options []string) error
	Unmount(target string) error
	IsMountPoint(path string) (bool, error)
}

type System struct {
	fs      vfs.FS
	logger  log.Logger
	mounter Mounter
	runner  Runner
}

type Option func(*System)

func WithFS(fs vfs.FS) Option {
	return func(s *System) {
		s.fs = fs
	}
}

func WithLogger(logger log.Logger) Option {
	return func(s *System) {
		s.logger = logger
	}
}

func WithMounter(mounter Mounter) Option {
	return func(s *System) {
		s.mounter = mounter
	}
}

func WithRunner(runner Runner) Option {
	return func(s *System) {
		s.runner = runner
	}
}

// NewSystem returns a System with host-backed defaults for any collaborator
// not provided as an option.
func NewSystem(opts ...Option) (*System, error) {
	s := &System{}
	for _, o := range opts {
		o(s)
	}
	if s.fs == nil {
		s.fs = vfs.OSFS()
	}
	if s.logger == nil {
		s.logger = log.New()
	}
	if s.runner == nil {
		s.runner = NewRunner(s.logger)
	}
	if s.mounter == nil {
		s.mounter = NewMounter()
	}
	return s, nil
}

func (s System) FS() vfs.FS {
	return s.fs
}

func (s System) Logger() log.Logger {
	return s.logger
}

func (s System) Mounter() Mounter {
	return s.mounter
}

func (s System) Runner() Runner {
	return s.runner
}
