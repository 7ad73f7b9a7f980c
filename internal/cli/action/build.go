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

package action

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
	"github.com/urfave/cli/v2"

	"github.com/suse/usbmedia/internal/cli/cmd"
	"github.com/suse/usbmedia/internal/config"
	"github.com/suse/usbmedia/pkg/build"
	"github.com/suse/usbmedia/pkg/rsync"
	"github.com/suse/usbmedia/pkg/size"
	"github.com/suse/usbmedia/pkg/sys"
)

// Build runs the media build pipeline for the given source and destination
// images.
func Build(ctx *cli.Context) error {
	var s *sys.System
	args := &cmd.BuildArgs
	if ctx.App.Metadata == nil || ctx.App.Metadata["system"] == nil {
		return fmt.Errorf("error setting up initial configuration")
	}
	s = ctx.App.Metadata["system"].(*sys.System)

	if ctx.Args().Len() != 2 {
		return fmt.Errorf("expected a source image and a destination image, got %d arguments", ctx.Args().Len())
	}
	source := ctx.Args().Get(0)
	destination := ctx.Args().Get(1)

	if os.Geteuid() != 0 {
		return fmt.Errorf("building media images requires root privileges")
	}

	desc := &config.BuildDescription{}
	if args.Description != "" {
		var err error
		desc, err = config.Load(s.FS(), args.Description)
		if err != nil {
			return err
		}
	}
	if args.Scheme != "" {
		desc.Scheme = args.Scheme
	}
	if args.Label != "" {
		desc.Label = args.Label
	}
	if args.TempDir != "" {
		desc.TempDir = args.TempDir
	}

	scheme, err := size.StringToScheme(desc.Scheme)
	if err != nil {
		return err
	}

	srcBytes, err := size.SourceSize(s.FS(), source)
	if err != nil {
		return err
	}
	s.Logger().Info("Starting %s build for a %s source", scheme, units.BytesSize(float64(srcBytes)))

	builder := build.NewBuilder(s, scheme,
		build.WithLabel(desc.Label),
		build.WithMountOptions(desc.MountOptions),
		build.WithTempDir(desc.TempDir),
		build.WithContentCopier(rsync.NewRsync(s, rsync.WithContext(ctx.Context))),
	)
	return builder.Build(source, destination)
}
