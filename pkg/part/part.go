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

// Package part writes partition tables for the planned layout and reads the
// resulting geometry back in structured form. The legacy scheme gets an MBR
// label written with parted, the UEFI scheme a GPT written with sgdisk.
package part

import (
	"errors"
	"fmt"

	"github.com/suse/usbmedia/pkg/block"
	"github.com/suse/usbmedia/pkg/block/lsblk"
	"github.com/suse/usbmedia/pkg/layout"
	"github.com/suse/usbmedia/pkg/size"
	"github.com/suse/usbmedia/pkg/sys"
)

type Partitioner struct {
	s      *sys.System
	device block.Device
}

type Option func(*Partitioner)

// WithBlockDevice overrides the geometry query implementation.
func WithBlockDevice(device block.Device) Option {
	return func(p *Partitioner) {
		p.device = device
	}
}

func NewPartitioner(s *sys.System, opts ...Option) *Partitioner {
	p := &Partitioner{s: s}
	for _, o := range opts {
		o(p)
	}
	if p.device == nil {
		p.device = lsblk.NewLsDevice(s)
	}
	return p
}

// gptType maps a descriptor kind to the sgdisk partition type code.
func gptType(kind layout.Kind) (string, error) {
	switch kind {
	case layout.KindEFISystem:
		return "ef00", nil
	case layout.KindBoot:
		return "ea00", nil
	case layout.KindRoot:
		return "8300", nil
	case layout.KindReserved:
		return "8301", nil
	default:
		return "", fmt.Errorf("no GPT type for %s partition: %w", kind, errors.ErrUnsupported)
	}
}

// WriteTable writes the partition table of the given plan. For the UEFI
// scheme this is the coarse three way split, the data region is refined
// afterwards with Refine once its geometry is known.
func (p *Partitioner) WriteTable(device string, plan *layout.Plan) error {
	var err error
	switch plan.Scheme {
	case size.Legacy:
		err = p.writeMBR(device, plan)
	case size.UEFI:
		err = p.writeGPT(device, plan)
	default:
		return fmt.Errorf("unsupported scheme %d: %w", plan.Scheme, errors.ErrUnsupported)
	}
	if err != nil {
		return err
	}
	return p.reread(device)
}

func (p *Partitioner) writeMBR(device string, plan *layout.Plan) error {
	whole := plan.Root()
	if whole == nil {
		return fmt.Errorf("legacy plan has no whole-disk descriptor")
	}
	end := whole.StartSector + whole.SectorCount - 1
	args := []string{
		"--script", device,
		"mklabel", "msdos",
		"mkpart", "primary", fmt.Sprintf("%ds", whole.StartSector), fmt.Sprintf("%ds", end),
		"set", "1", "boot", "on",
	}
	out, err := p.s.Runner().Run("parted", args...)
	if err != nil {
		return fmt.Errorf("writing MBR label on %s: %w: %s", device, err, string(out))
	}
	return nil
}

func (p *Partitioner) writeGPT(device string, plan *layout.Plan) error {
	args := []string{"--zap-all"}
	for _, d := range plan.Descriptors {
		code, err := gptType(d.Kind)
		if err != nil {
			return err
		}
		args = append(args,
			fmt.Sprintf("--new=%d:%d:+%d", d.Index, d.StartSector, d.SectorCount),
			fmt.Sprintf("--typecode=%d:%s", d.Index, code),
			fmt.Sprintf("--change-name=%d:%s", d.Index, d.Kind),
		)
	}
	args = append(args, device)
	out, err := p.s.Runner().Run("sgdisk", args...)
	if err != nil {
		return fmt.Errorf("writing GPT label on %s: %w: %s", device, err, string(out))
	}
	return nil
}

// Refine replaces the coarse UEFI data region on disk with the derived boot
// and root partitions. The descriptors must come from subdividing the
// geometry reported by DataRegion.
func (p *Partitioner) Refine(device string, boot, root layout.Descriptor) error {
	args := []string{fmt.Sprintf("--delete=%d", boot.Index)}
	for _, d := range []layout.Descriptor{boot, root} {
		code, err := gptType(d.Kind)
		if err != nil {
			return err
		}
		args = append(args,
			fmt.Sprintf("--new=%d:%d:+%d", d.Index, d.StartSector, d.SectorCount),
			fmt.Sprintf("--typecode=%d:%s", d.Index, code),
			fmt.Sprintf("--change-name=%d:%s", d.Index, d.Kind),
		)
	}
	args = append(args, device)
	out, err := p.s.Runner().Run("sgdisk", args...)
	if err != nil {
		return fmt.Errorf("refining data region on %s: %w: %s", device, err, string(out))
	}
	return p.reread(device)
}

// DataRegion queries the written table and returns the sector range the
// partitioner actually allocated to the given partition index.
func (p *Partitioner) DataRegion(device string, index uint32) (layout.Region, error) {
	parts, err := p.device.GetDevicePartitions(device)
	if err != nil {
		return layout.Region{}, fmt.Errorf("querying partitions of %s: %w", device, err)
	}
	part := parts.GetByNumber(index)
	if part == nil {
		return layout.Region{}, fmt.Errorf("device %s has no partition %d", device, index)
	}
	return layout.Region{
		StartSector: part.StartSector,
		SectorCount: part.SizeBytes / layout.SectorSize,
	}, nil
}

// reread asks the kernel to reload the partition table of the device.
func (p *Partitioner) reread(device string) error {
	out, err := p.s.Runner().Run("partprobe", device)
	if err != nil {
		return fmt.Errorf("rereading partition table of %s: %w: %s", device, err, string(out))
	}
	return nil
}
