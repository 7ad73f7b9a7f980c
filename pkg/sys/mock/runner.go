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

// Package mock provides test doubles for the sys collaborators.
package mock

import (
	"context"
	"fmt"
	"strings"
)

// Runner is a Runner double recording every executed command. SideEffect, if
// set, computes the outcome per command, otherwise ReturnValue and
// ReturnError are used for every call.
type Runner struct {
	cmds        [][]string
	ReturnValue []byte
	ReturnError error
	SideEffect  func(command string, args ...string) ([]byte, error)
}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Run(command string, args ...string) ([]byte, error) {
	r.cmds = append(r.cmds, append([]string{command}, args...))
	if r.SideEffect != nil {
		return r.SideEffect(command, args...)
	}
	return r.ReturnValue, r.ReturnError
}

func (r *Runner) RunContext(_ context.Context, command string, args ...string) ([]byte, error) {
	return r.Run(command, args...)
}

func (r *Runner) RunContextParseOutput(_ context.Context, stdoutHandler, _ func(string), command string, args ...string) error {
	out, err := r.Run(command, args...)
	if stdoutHandler != nil {
		for _, line := range strings.Split(string(out), "\n") {
			stdoutHandler(line)
		}
	}
	return err
}

// ClearCmds drops the recorded command history.
func (r *Runner) ClearCmds() {
	r.cmds = nil
}

// GetCmds returns the recorded command history.
func (r *Runner) GetCmds() [][]string {
	return r.cmds
}

// CmdsMatch checks that the recorded commands start with the given sequence.
// Each expected command only needs to match as a prefix of the recorded one.
func (r *Runner) CmdsMatch(expected [][]string) error {
	if len(expected) > len(r.cmds) {
		return fmt.Errorf("expected at least %d commands, %d were run", len(expected), len(r.cmds))
	}
	for i, cmd := range expected {
		if err := matchPrefix(r.cmds[i], cmd); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
	}
	return nil
}

// MatchMilestones checks that the given commands appear in order within the
// recorded history, other commands may run in between.
func (r *Runner) MatchMilestones(milestones [][]string) error {
	got := r.cmds
	for _, m := range milestones {
		found := false
		for len(got) > 0 {
			cmd := got[0]
			got = got[1:]
			if matchPrefix(cmd, m) == nil {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("milestone %v not reached", m)
		}
	}
	return nil
}

// IncludesCmds checks that every given command was run at some point, in any
// order.
func (r *Runner) IncludesCmds(expected [][]string) error {
	for _, cmd := range expected {
		found := false
		for _, got := range r.cmds {
			if matchPrefix(got, cmd) == nil {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("command %v was not run", cmd)
		}
	}
	return nil
}

func matchPrefix(got, want []string) error {
	if len(want) > len(got) {
		return fmt.Errorf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("expected %v, got %v", want, got)
		}
	}
	return nil
}
