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

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/suse/usbmedia/internal/cli/action"
	"github.com/suse/usbmedia/internal/cli/app"
	"github.com/suse/usbmedia/internal/cli/cmd"
)

func main() {
	appName := app.Name()
	application := app.New(
		cmd.Usage,
		cmd.GlobalFlags(),
		cmd.Setup,
		cmd.Teardown,
		cmd.NewBuildCommand(appName, action.Build),
		cmd.NewVersionCommand(appName))

	// Cancelling the context on SIGINT or SIGTERM aborts the running copy
	// and lets the build unwind its acquired resources before exiting.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
