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

// Package rsync copies directory trees preserving modes, ownership and
// special files. It is the bulk copy capability of the build pipeline.
package rsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/suse/usbmedia/pkg/sys"
)

type Rsync struct {
	s     *sys.System
	ctx   context.Context
	flags []string
}

type Opt func(*Rsync)

func WithFlags(flags ...string) Opt {
	return func(r *Rsync) {
		r.flags = flags
	}
}

func WithContext(ctx context.Context) Opt {
	return func(r *Rsync) {
		r.ctx = ctx
	}
}

// DefaultFlags preserve the full file tree. The one-file-system flag keeps
// the copy from descending into mounts below the source root.
func DefaultFlags() []string {
	return []string{
		"--archive", "--hard-links", "--acls", "--xattrs",
		"--sparse", "--one-file-system",
	}
}

func NewRsync(s *sys.System, opts ...Opt) *Rsync {
	r := &Rsync{
		s:   s,
		ctx: context.Background(),
	}
	for _, o := range opts {
		o(r)
	}
	if len(r.flags) == 0 {
		r.flags = DefaultFlags()
	}
	return r
}

// SyncData copies the contents of the source directory into the destination
// directory.
func (r Rsync) SyncData(source, destination string) error {
	if !strings.HasSuffix(source, "/") {
		source += "/"
	}
	args := append([]string{}, r.flags...)
	args = append(args, source, destination)

	r.s.Logger().Debug("Syncing %s into %s", source, destination)
	out, err := r.s.Runner().RunContext(r.ctx, "rsync", args...)
	if err != nil {
		return fmt.Errorf("syncing %s into %s: %w: %s", source, destination, err, string(out))
	}
	return nil
}
