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

package lsblk

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/suse/usbmedia/pkg/block"
	"github.com/suse/usbmedia/pkg/sys"
)

type lsDevice struct {
	runner sys.Runner
}

func NewLsDevice(s *sys.System) *lsDevice { //nolint:revive
	return &lsDevice{runner: s.Runner()}
}

var _ block.Device = (*lsDevice)(nil)

type jPart struct {
	Label       string   `json:"label,omitempty"`
	Name        string   `json:"partlabel,omitempty"`
	UUID        string   `json:"partuuid,omitempty"`
	Number      uint32   `json:"partn,omitempty"`
	Size        uint64   `json:"size,omitempty"`
	Start       uint64   `json:"start,omitempty"`
	FS          string   `json:"fstype,omitempty"`
	MountPoints []string `json:"mountpoints,omitempty"`
	Path        string   `json:"path,omitempty"`
	Disk        string   `json:"pkname,omitempty"`
	Type        string   `json:"type,omitempty"`
}

type jParts []*block.Partition

func (p jPart) Partition() *block.Partition {
	return &block.Partition{
		Label:       p.Label,
		Name:        p.Name,
		UUID:        p.UUID,
		Number:      p.Number,
		SizeBytes:   p.Size,
		StartSector: p.Start,
		FileSystem:  p.FS,
		MountPoints: p.MountPoints,
		Path:        p.Path,
		Disk:        p.Disk,
	}
}

func (p *jParts) UnmarshalJSON(data []byte) error {
	var parts []jPart

	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}

	var partitions jParts
	for _, part := range parts {
		// only partitions are of interest, not the parent disk itself
		if part.Type == "part" {
			partitions = append(partitions, part.Partition())
		}
	}
	*p = partitions
	return nil
}

func unmarshalLsblk(lsblkOut []byte) (block.PartitionList, error) {
	var objmap map[string]*json.RawMessage
	err := json.Unmarshal(lsblkOut, &objmap)
	if err != nil {
		return nil, err
	}

	if _, ok := objmap["blockdevices"]; !ok {
		return nil, errors.New("invalid json object, no 'blockdevices' key found")
	}

	var parts jParts
	err = json.Unmarshal(*objmap["blockdevices"], &parts)
	if err != nil {
		return nil, err
	}

	return block.PartitionList(parts), nil
}

func unmarshalSectorSize(lsblkOut []byte) (uint, error) {
	var objmap map[string]*json.RawMessage
	err := json.Unmarshal(lsblkOut, &objmap)
	if err != nil {
		return 0, err
	}

	if _, ok := objmap["blockdevices"]; !ok {
		return 0, errors.New("invalid json object, no 'blockdevices' key found")
	}

	devices := []struct {
		Name       string `json:"name,omitempty"`
		SectorSize uint   `json:"log-sec,omitempty"`
	}{}
	err = json.Unmarshal(*objmap["blockdevices"], &devices)
	if err != nil {
		return 0, err
	}
	if len(devices) == 0 {
		return 0, fmt.Errorf("no devices reported by lsblk")
	}
	return devices[0].SectorSize, nil
}

// GetDevicePartitions returns the partitions of the given device with their
// start sector and byte size, as reported by the kernel after the partition
// table was written.
func (l lsDevice) GetDevicePartitions(device string) (block.PartitionList, error) {
	out, err := l.runner.Run("lsblk", "-p", "-b", "-n", "-J", "--output",
		"LABEL,PARTLABEL,PARTUUID,PARTN,SIZE,START,FSTYPE,MOUNTPOINTS,PATH,PKNAME,TYPE", device)
	if err != nil {
		return nil, err
	}

	return unmarshalLsblk(out)
}

// GetDeviceSectorSize returns the logical sector size of the given block
// device. Partition tables are written in logical sectors, so the planned
// geometry must match this unit.
func (l lsDevice) GetDeviceSectorSize(device string) (uint, error) {
	out, err := l.runner.Run("lsblk", "-J", "-d", "-o", "NAME,LOG-SEC", device)
	if err != nil {
		return 0, err
	}

	size, err := unmarshalSectorSize(out)
	if err != nil {
		return 0, err
	}

	if size == 0 {
		return 0, fmt.Errorf("no sector size reported by lsblk %v", device)
	}

	return size, err
}
