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

// Package filesystem formats destination partitions.
package filesystem

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/suse/usbmedia/pkg/sys"
)

const (
	Ext4 = "ext4"
	VFat = "vfat"

	// SourceFS is the filesystem of the source optical media.
	SourceFS = "iso9660"
)

// Format creates a filesystem on the given partition device. The reserved
// percentage only applies to ext4, removable media carries no root reserve
// so builds pass zero.
func Format(s *sys.System, device, fsType, label string, reservedPercent uint) error {
	var args []string
	var tool string

	switch fsType {
	case Ext4:
		tool = "mkfs.ext4"
		args = []string{"-F", "-m", strconv.FormatUint(uint64(reservedPercent), 10)}
		if label != "" {
			args = append(args, "-L", label)
		}
	case VFat:
		tool = "mkfs.vfat"
		if label != "" {
			args = []string{"-n", label}
		}
	default:
		return fmt.Errorf("formatting %s as %s: %w", device, fsType, errors.ErrUnsupported)
	}

	args = append(args, device)
	out, err := s.Runner().Run(tool, args...)
	if err != nil {
		return fmt.Errorf("formatting %s as %s: %w: %s", device, fsType, err, string(out))
	}
	return nil
}
