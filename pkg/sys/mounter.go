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
	"fmt"
	"strings"

	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"
)

type mounter struct{}

// NewMounter returns a Mounter backed by the mount syscalls of the host.
func NewMounter() Mounter {
	return &mounter{}
}

var mountFlags = map[string]uintptr{
	"ro":         unix.MS_RDONLY,
	"noatime":    unix.MS_NOATIME,
	"nodiratime": unix.MS_NODIRATIME,
	"nodev":      unix.MS_NODEV,
	"noexec":     unix.MS_NOEXEC,
	"nosuid":     unix.MS_NOSUID,
	"sync":       unix.MS_SYNCHRONOUS,
}

// Mount attaches the given device. Options matching a known mount flag are
// translated to the corresponding flag bit, anything else is handed to the
// filesystem driver as mount data.
func (m mounter) Mount(source, target, fstype string, options []string) error {
	var flags uintptr
	var data []string
	for _, o := range options {
		if f, ok := mountFlags[o]; ok {
			flags |= f
			continue
		}
		data = append(data, o)
	}
	err := unix.Mount(source, target, fstype, flags, strings.Join(data, ","))
	if err != nil {
		return fmt.Errorf("mounting %s on %s: %w", source, target, err)
	}
	return nil
}

func (m mounter) Unmount(target string) error {
	err := unix.Unmount(target, 0)
	if err != nil {
		return fmt.Errorf("unmounting %s: %w", target, err)
	}
	return nil
}

func (m mounter) IsMountPoint(path string) (bool, error) {
	return mountinfo.Mounted(path)
}
