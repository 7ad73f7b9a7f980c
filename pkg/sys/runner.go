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

package sys

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/suse/usbmedia/pkg/log"
)

type runner struct {
	logger log.Logger
}

// NewRunner returns a Runner executing commands on the host.
func NewRunner(logger log.Logger) Runner {
	return &runner{logger: logger}
}

func (r runner) Run(command string, args ...string) ([]byte, error) {
	return r.RunContext(context.Background(), command, args...)
}

func (r runner) RunContext(ctx context.Context, command string, args ...string) ([]byte, error) {
	r.logger.Debug("Running command: %s %s", command, strings.Join(args, " "))
	out, err := exec.CommandContext(ctx, command, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("running %s: %w", command, err)
	}
	return out, nil
}

func (r runner) RunContextParseOutput(ctx context.Context, stdoutHandler, stderrHandler func(string), command string, args ...string) error {
	r.logger.Debug("Running command: %s %s", command, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, command, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("connecting stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("connecting stderr pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", command, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if stdoutHandler != nil {
				stdoutHandler(scanner.Text())
			}
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if stderrHandler != nil {
				stderrHandler(scanner.Text())
			}
		}
	}()
	wg.Wait()

	if err = cmd.Wait(); err != nil {
		return fmt.Errorf("running %s: %w", command, err)
	}
	return nil
}
