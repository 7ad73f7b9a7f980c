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

// Package layout computes the ordered partition descriptors of the
// destination media for the two supported schemes. The UEFI scheme is
// planned in two steps: a coarse three way split written by the external
// partitioner, then a subdivision of the reported data region into a fixed
// size boot partition and a root partition absorbing the exact remainder.
package layout

import (
	"errors"
	"fmt"

	"github.com/suse/usbmedia/pkg/size"
)

const (
	SectorSize = 512

	// BootSectors is the fixed size of the boot partition carved from the
	// front of the UEFI data region, 1MiB at 512-byte sectors.
	BootSectors = 2048

	// LegacyFrontSectors is the front reservation of the legacy scheme for
	// the master boot record and disk label.
	LegacyFrontSectors = size.LegacyOverheadBytes / SectorSize

	// UEFI scheme geometry. Label front, EFI system partition and the tail
	// reservation add up with BootSectors to the UEFI overhead constant.
	labelFrontSectors = 2048
	espSectors        = 65536
	reservedSectors   = 12288
)

// Partition indexes as written to the table. The data region keeps its
// index when subdivided, the root partition takes the next one, so the
// reserved tail leaves a gap.
const (
	legacyWholeIndex = 1
	espIndex         = 1
	dataIndex        = 2
	rootIndex        = 3
	reservedIndex    = 4
)

const (
	TypeTagEFISystem   byte = 0xef
	TypeTagLinuxNative byte = 0x83
	TypeTagReserved    byte = 0xda
)

type Kind int

const (
	KindEFISystem Kind = iota + 1
	KindBoot
	KindRoot
	KindReserved
	KindLegacyWhole
)

func (k Kind) String() string {
	switch k {
	case KindEFISystem:
		return "esp"
	case KindBoot:
		return "boot"
	case KindRoot:
		return "root"
	case KindReserved:
		return "reserved"
	case KindLegacyWhole:
		return "whole"
	default:
		return "unknown"
	}
}

// Descriptor is one labeled, sized region of the destination device.
type Descriptor struct {
	Index       uint32
	Kind        Kind
	StartSector uint64
	SectorCount uint64
	TypeTag     byte
}

// Region is a raw sector range, typically reported back by the partitioner
// after the coarse split.
type Region struct {
	StartSector uint64
	SectorCount uint64
}

// Plan is the ordered partition layout for one build. It is computed once
// and, apart from the UEFI data region subdivision, immutable.
type Plan struct {
	Scheme       size.Scheme
	TotalSectors uint64
	Descriptors  []Descriptor
}

var (
	ErrInfeasible = errors.New("total size too small for the requested layout")
	ErrGeometry   = errors.New("partition geometry mismatch")
)

// New produces the partition plan for the given total image size. Sub-sector
// remainder bytes are not representable on the device and the last region
// always absorbs every remaining whole sector.
func New(totalSizeBytes uint64, scheme size.Scheme) (*Plan, error) {
	totalSectors := totalSizeBytes / SectorSize
	p := &Plan{Scheme: scheme, TotalSectors: totalSectors}

	switch scheme {
	case size.Legacy:
		if totalSectors <= LegacyFrontSectors {
			return nil, fmt.Errorf("%w: %d sectors, front reservation %d", ErrInfeasible, totalSectors, LegacyFrontSectors)
		}
		p.Descriptors = []Descriptor{{
			Index:       legacyWholeIndex,
			Kind:        KindLegacyWhole,
			StartSector: LegacyFrontSectors,
			SectorCount: totalSectors - LegacyFrontSectors,
			TypeTag:     TypeTagLinuxNative,
		}}
	case size.UEFI:
		fixed := uint64(labelFrontSectors + espSectors + reservedSectors + BootSectors)
		if totalSectors <= fixed {
			return nil, fmt.Errorf("%w: %d sectors, fixed regions need %d", ErrInfeasible, totalSectors, fixed)
		}
		dataStart := uint64(labelFrontSectors + espSectors)
		dataCount := totalSectors - dataStart - reservedSectors
		p.Descriptors = []Descriptor{
			{
				Index:       espIndex,
				Kind:        KindEFISystem,
				StartSector: labelFrontSectors,
				SectorCount: espSectors,
				TypeTag:     TypeTagEFISystem,
			}, {
				Index:       dataIndex,
				Kind:        KindRoot,
				StartSector: dataStart,
				SectorCount: dataCount,
				TypeTag:     TypeTagLinuxNative,
			}, {
				Index:       reservedIndex,
				Kind:        KindReserved,
				StartSector: dataStart + dataCount,
				SectorCount: reservedSectors,
				TypeTag:     TypeTagReserved,
			},
		}
	default:
		return nil, fmt.Errorf("unsupported scheme %d: %w", scheme, errors.ErrUnsupported)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// SplitDataRegion derives the boot and root descriptors from the data region
// reported by the partitioner. The boot partition is exactly BootSectors at
// the front of the region, the root partition covers every remaining sector.
func SplitDataRegion(data Region) (boot Descriptor, root Descriptor, err error) {
	if data.SectorCount <= BootSectors {
		return boot, root, fmt.Errorf("%w: data region of %d sectors cannot hold a %d sector boot partition",
			ErrInfeasible, data.SectorCount, BootSectors)
	}
	boot = Descriptor{
		Index:       dataIndex,
		Kind:        KindBoot,
		StartSector: data.StartSector,
		SectorCount: BootSectors,
		TypeTag:     TypeTagLinuxNative,
	}
	root = Descriptor{
		Index:       rootIndex,
		Kind:        KindRoot,
		StartSector: data.StartSector + BootSectors,
		SectorCount: data.SectorCount - BootSectors,
		TypeTag:     TypeTagLinuxNative,
	}
	if boot.SectorCount+root.SectorCount != data.SectorCount {
		return boot, root, fmt.Errorf("%w: boot %d + root %d != data region %d",
			ErrGeometry, boot.SectorCount, root.SectorCount, data.SectorCount)
	}
	return boot, root, nil
}

// Subdivide replaces the UEFI data region descriptor with the derived boot
// and root descriptors. The data region is the geometry reported back by the
// partitioner and its sector count must be preserved exactly.
func (p *Plan) Subdivide(data Region) (boot Descriptor, root Descriptor, err error) {
	if p.Scheme != size.UEFI {
		return boot, root, fmt.Errorf("scheme %s has no data region to subdivide: %w", p.Scheme, errors.ErrUnsupported)
	}
	boot, root, err = SplitDataRegion(data)
	if err != nil {
		return boot, root, err
	}
	for i, d := range p.Descriptors {
		if d.Index == dataIndex && d.Kind == KindRoot {
			p.Descriptors = append(p.Descriptors[:i], append([]Descriptor{boot, root}, p.Descriptors[i+1:]...)...)
			return boot, root, p.Validate()
		}
	}
	return boot, root, fmt.Errorf("%w: plan has no data region left to subdivide", ErrGeometry)
}

// Validate checks that the descriptors are ordered, non-overlapping,
// contiguous and that the layout ends exactly at the device capacity.
func (p *Plan) Validate() error {
	if len(p.Descriptors) == 0 {
		return fmt.Errorf("%w: empty plan", ErrGeometry)
	}
	next := p.Descriptors[0].StartSector
	for _, d := range p.Descriptors {
		if d.SectorCount == 0 {
			return fmt.Errorf("%w: empty %s descriptor", ErrGeometry, d.Kind)
		}
		if d.StartSector != next {
			return fmt.Errorf("%w: %s descriptor starts at %d, expected %d", ErrGeometry, d.Kind, d.StartSector, next)
		}
		next = d.StartSector + d.SectorCount
	}
	if next != p.TotalSectors {
		return fmt.Errorf("%w: layout ends at sector %d, device has %d", ErrGeometry, next, p.TotalSectors)
	}
	return nil
}

// Root returns the descriptor holding the destination root filesystem.
func (p *Plan) Root() *Descriptor {
	for i := range p.Descriptors {
		d := &p.Descriptors[i]
		if d.Kind == KindRoot || d.Kind == KindLegacyWhole {
			return d
		}
	}
	return nil
}

// ESP returns the EFI system partition descriptor, nil for legacy plans.
func (p *Plan) ESP() *Descriptor {
	for i := range p.Descriptors {
		if p.Descriptors[i].Kind == KindEFISystem {
			return &p.Descriptors[i]
		}
	}
	return nil
}

// DataRegionIndex returns the partition index of the not yet subdivided
// UEFI data region.
func (p *Plan) DataRegionIndex() uint32 {
	return dataIndex
}
