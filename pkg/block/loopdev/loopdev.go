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

// Package loopdev exposes image files as loop block devices. Device is a
// typed handle computing derived paths once at attach time, callers never
// build device names by string substitution.
package loopdev

import (
	"fmt"
	"strings"

	"github.com/suse/usbmedia/pkg/sys"
)

// Device is the handle of an attached loop device.
type Device struct {
	path string
}

// NewDevice wraps an already known loop device path.
func NewDevice(path string) Device {
	return Device{path: path}
}

// Path returns the whole-disk device path, e.g. /dev/loop3.
func (d Device) Path() string {
	return d.path
}

// PartitionPath returns the device path of the given partition index. The
// kernel inserts a 'p' infix when the parent device name ends in a digit.
func (d Device) PartitionPath(index uint32) string {
	if d.path == "" {
		return ""
	}
	last := d.path[len(d.path)-1]
	if last >= '0' && last <= '9' {
		return fmt.Sprintf("%sp%d", d.path, index)
	}
	return fmt.Sprintf("%s%d", d.path, index)
}

type LoSetup struct {
	s *sys.System
}

func NewLoSetup(s *sys.System) *LoSetup {
	return &LoSetup{s: s}
}

// Attach exposes the given image file as a loop device with partition
// scanning enabled and returns the handle of the allocated device.
func (l *LoSetup) Attach(imagePath string, readOnly bool) (Device, error) {
	args := []string{"--find", "--show", "--partscan"}
	if readOnly {
		args = append(args, "--read-only")
	}
	args = append(args, imagePath)

	out, err := l.s.Runner().Run("losetup", args...)
	if err != nil {
		return Device{}, fmt.Errorf("attaching %s: %w", imagePath, err)
	}
	path := strings.TrimSpace(string(out))
	if !strings.HasPrefix(path, "/dev/") {
		return Device{}, fmt.Errorf("attaching %s: losetup reported no device: %q", imagePath, path)
	}
	l.s.Logger().Debug("Attached %s on %s", imagePath, path)
	return NewDevice(path), nil
}

// Detach releases the given loop device.
func (l *LoSetup) Detach(d Device) error {
	_, err := l.s.Runner().Run("losetup", "--detach", d.Path())
	if err != nil {
		return fmt.Errorf("detaching %s: %w", d.Path(), err)
	}
	return nil
}
