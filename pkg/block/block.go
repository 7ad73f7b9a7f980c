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

// Package block defines the structured view of block devices and partitions
// used to recover geometry after partitioning. The core never parses the
// textual output of partitioning tools, it goes through implementations of
// the Device interface instead.
package block

// Partition describes one partition of a block device.
type Partition struct {
	Name        string
	Label       string
	UUID        string
	Number      uint32
	Path        string
	Disk        string
	SizeBytes   uint64
	StartSector uint64
	FileSystem  string
	MountPoints []string
}

type PartitionList []*Partition

// GetByNumber returns the partition with the given table index, nil if the
// device has none.
func (pl PartitionList) GetByNumber(number uint32) *Partition {
	for _, p := range pl {
		if p.Number == number {
			return p
		}
	}
	return nil
}

// Device queries partition geometry of block devices.
type Device interface {
	GetDevicePartitions(device string) (PartitionList, error)
	GetDeviceSectorSize(device string) (uint, error)
}
