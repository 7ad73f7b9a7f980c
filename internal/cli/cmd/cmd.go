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

// Package cmd declares the command line surface: global flags, the
// per-command flag sets and the lifecycle hooks wiring up the host facade.
package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/suse/usbmedia/pkg/log"
	"github.com/suse/usbmedia/pkg/sys"
)

const Usage = "Build bootable removable media images"

// GlobalOptions contains the flags valid for every command.
type GlobalOptions struct {
	Debug bool
}

// GlobalArgs holds the parsed global flags.
var GlobalArgs GlobalOptions

// GlobalFlags returns the flags valid for every command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "Enable debug logging",
			Destination: &GlobalArgs.Debug,
		},
	}
}

// Setup creates the host facade and stores it in the application metadata
// for the actions to pick up.
func Setup(ctx *cli.Context) error {
	var opts []log.Option
	if GlobalArgs.Debug {
		opts = append(opts, log.WithDebugLevel())
	}
	s, err := sys.NewSystem(sys.WithLogger(log.New(opts...)))
	if err != nil {
		return fmt.Errorf("setting up the host environment: %w", err)
	}
	if ctx.App.Metadata == nil {
		ctx.App.Metadata = map[string]any{}
	}
	ctx.App.Metadata["system"] = s
	return nil
}

// Teardown runs after any command.
func Teardown(*cli.Context) error {
	return nil
}
