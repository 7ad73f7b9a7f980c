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

package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// BuildFlags contains the flags for the build command.
type BuildFlags struct {
	Scheme      string
	Label       string
	Description string
	TempDir     string
}

// BuildArgs holds the parsed build command flags.
var BuildArgs BuildFlags

// NewBuildCommand creates the build command.
func NewBuildCommand(appName string, action func(*cli.Context) error) *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Build a bootable media image from a source image",
		UsageText: fmt.Sprintf("%s build [OPTIONS] SOURCE-IMAGE DESTINATION-IMAGE", appName),
		Action:    action,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "scheme",
				Usage:       "Partitioning scheme of the destination media (legacy, uefi)",
				Value:       "uefi",
				Destination: &BuildArgs.Scheme,
			},
			&cli.StringFlag{
				Name:        "label",
				Usage:       "Root filesystem label of the destination media",
				Destination: &BuildArgs.Label,
			},
			&cli.StringFlag{
				Name:        "description",
				Usage:       "Path to a YAML build description",
				Destination: &BuildArgs.Description,
			},
			&cli.StringFlag{
				Name:        "temp-dir",
				Usage:       "Directory for transient mount points",
				Destination: &BuildArgs.TempDir,
			},
		},
	}
}
