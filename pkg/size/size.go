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

// Package size derives the total byte size of the destination media image
// from the measured size of the source image and the partitioning scheme.
package size

import (
	"errors"
	"fmt"

	"github.com/suse/usbmedia/pkg/sys/vfs"
)

// Scheme selects the partition layout of the destination media.
type Scheme int

const (
	Legacy Scheme = iota + 1
	UEFI
)

func (s Scheme) String() string {
	switch s {
	case Legacy:
		return "legacy"
	case UEFI:
		return "uefi"
	default:
		return "unknown"
	}
}

func StringToScheme(scheme string) (Scheme, error) {
	switch scheme {
	case "legacy":
		return Legacy, nil
	case "uefi":
		return UEFI, nil
	default:
		return 0, fmt.Errorf("unsupported scheme %s: %w", scheme, errors.ErrUnsupported)
	}
}

const (
	// The destination filesystem uses smaller blocks than the source and
	// carries a journal, a fifth of slack absorbs both.
	marginMul = 6
	marginDiv = 5

	// Fixed off-boundary pad added after rounding to whole kibibytes. Kept
	// for output parity with earlier releases of the tool.
	padBytes = 512

	kib = 1024

	// LegacyOverheadBytes covers the master boot record and disk label.
	LegacyOverheadBytes = 4 * 1024 * 1024
	// UEFIOverheadBytes covers the disk label, the EFI system partition and
	// the boot partition.
	UEFIOverheadBytes = 40 * 1024 * 1024
)

var ErrInvalidSource = errors.New("invalid source image")

// Overhead returns the reserved byte overhead of the given scheme.
func Overhead(scheme Scheme) (uint64, error) {
	switch scheme {
	case Legacy:
		return LegacyOverheadBytes, nil
	case UEFI:
		return UEFIOverheadBytes, nil
	default:
		return 0, fmt.Errorf("unsupported scheme %d: %w", scheme, errors.ErrUnsupported)
	}
}

// Compute derives the total size in bytes of the destination image: the
// source size scaled by a 1.20 margin, floored to whole kibibytes, plus the
// fixed pad and the per-scheme overhead. The result is always strictly
// greater than the source size.
func Compute(sourceSizeBytes uint64, scheme Scheme) (uint64, error) {
	if sourceSizeBytes == 0 {
		return 0, fmt.Errorf("%w: source size is zero", ErrInvalidSource)
	}
	overhead, err := Overhead(scheme)
	if err != nil {
		return 0, err
	}
	scaled := sourceSizeBytes * marginMul / marginDiv
	rounded := scaled / kib * kib
	return rounded + padBytes + overhead, nil
}

// SourceSize measures the source image file.
func SourceSize(f vfs.FS, path string) (uint64, error) {
	info, err := f.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: measuring %s: %w", ErrInvalidSource, path, err)
	}
	if info.IsDir() || info.Size() <= 0 {
		return 0, fmt.Errorf("%w: %s is not a regular non-empty file", ErrInvalidSource, path)
	}
	return uint64(info.Size()), nil
}
