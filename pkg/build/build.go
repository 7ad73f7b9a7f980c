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

// Package build drives the image build pipeline. A Builder runs exactly one
// build, advancing through a linear sequence of states and releasing every
// acquired OS resource in reverse order, on success and on failure alike.
package build

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"

	"github.com/docker/go-units"

	"github.com/suse/usbmedia/pkg/block/loopdev"
	"github.com/suse/usbmedia/pkg/bootloader"
	"github.com/suse/usbmedia/pkg/cleanstack"
	"github.com/suse/usbmedia/pkg/filesystem"
	"github.com/suse/usbmedia/pkg/layout"
	"github.com/suse/usbmedia/pkg/part"
	"github.com/suse/usbmedia/pkg/rsync"
	"github.com/suse/usbmedia/pkg/size"
	"github.com/suse/usbmedia/pkg/sys"
	"github.com/suse/usbmedia/pkg/sys/vfs"
)

// State tracks build progress. States only ever advance, except for Failed
// which is terminal and reachable from any point of the pipeline.
type State int

const (
	Created State = iota + 1
	Attached
	Partitioned
	Formatted
	Mounted
	Populated
	BootInstalled
	Unmounted
	Detached
	Finalized
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Attached:
		return "attached"
	case Partitioned:
		return "partitioned"
	case Formatted:
		return "formatted"
	case Mounted:
		return "mounted"
	case Populated:
		return "populated"
	case BootInstalled:
		return "boot-installed"
	case Unmounted:
		return "unmounted"
	case Detached:
		return "detached"
	case Finalized:
		return "finalized"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ContentCopier transfers the contents of the mounted source tree into the
// mounted destination root.
type ContentCopier interface {
	SyncData(source, destination string) error
}

// Attacher exposes image files as block devices.
type Attacher interface {
	Attach(imagePath string, readOnly bool) (loopdev.Device, error)
	Detach(d loopdev.Device) error
}

// TablePartitioner writes the planned partition table and reads the
// resulting geometry back.
type TablePartitioner interface {
	WriteTable(device string, plan *layout.Plan) error
	Refine(device string, boot, root layout.Descriptor) error
	DataRegion(device string, index uint32) (layout.Region, error)
}

// BootInstaller makes the populated media bootable.
type BootInstaller interface {
	Install(scheme size.Scheme, bootDevice, espDir, rootDir, label string) error
}

// FormatFunc creates a filesystem on a partition device.
type FormatFunc func(s *sys.System, device, fsType, label string, reservedPercent uint) error

const (
	// DefaultLabel is the root filesystem label the bootloader searches for.
	DefaultLabel = "USBMEDIA"

	espLabel   = "EFI"
	markerFile = ".metadata_never_index"
)

// DefaultMountOptions trade crash consistency of the destination mount for
// copy throughput. The media is synced and unmounted before it is handed
// over, nothing rides on the journal.
func DefaultMountOptions() []string {
	return []string{"noatime", "data=writeback", "nobarrier"}
}

type Builder struct {
	s           *sys.System
	scheme      size.Scheme
	copier      ContentCopier
	attacher    Attacher
	partitioner TablePartitioner
	boot        BootInstaller
	format      FormatFunc
	label       string
	mountOpts   []string
	tempBase    string
	state       State
}

type Option func(*Builder)

func WithContentCopier(c ContentCopier) Option {
	return func(b *Builder) {
		b.copier = c
	}
}

func WithAttacher(a Attacher) Option {
	return func(b *Builder) {
		b.attacher = a
	}
}

func WithPartitioner(p TablePartitioner) Option {
	return func(b *Builder) {
		b.partitioner = p
	}
}

func WithBootInstaller(i BootInstaller) Option {
	return func(b *Builder) {
		b.boot = i
	}
}

func WithFormatter(f FormatFunc) Option {
	return func(b *Builder) {
		b.format = f
	}
}

func WithLabel(label string) Option {
	return func(b *Builder) {
		b.label = label
	}
}

func WithMountOptions(opts []string) Option {
	return func(b *Builder) {
		b.mountOpts = opts
	}
}

// WithTempDir sets the directory mount points are created under.
func WithTempDir(dir string) Option {
	return func(b *Builder) {
		b.tempBase = dir
	}
}

func NewBuilder(s *sys.System, scheme size.Scheme, opts ...Option) *Builder {
	b := &Builder{
		s:      s,
		scheme: scheme,
		state:  Created,
	}
	for _, o := range opts {
		o(b)
	}
	if b.copier == nil {
		b.copier = rsync.NewRsync(s)
	}
	if b.attacher == nil {
		b.attacher = loopdev.NewLoSetup(s)
	}
	if b.partitioner == nil {
		b.partitioner = part.NewPartitioner(s)
	}
	if b.boot == nil {
		b.boot = bootloader.NewGrub(s)
	}
	if b.format == nil {
		b.format = filesystem.Format
	}
	if b.label == "" {
		b.label = DefaultLabel
	}
	if len(b.mountOpts) == 0 {
		b.mountOpts = DefaultMountOptions()
	}
	return b
}

// State returns the current pipeline state.
func (b *Builder) State() State {
	return b.state
}

func (b *Builder) advance(next State) {
	if b.state != Failed && next > b.state {
		b.state = next
	}
}

// Build turns the source image into a bootable media image at the
// destination path. A Builder runs one build, reusing it is an error.
func (b *Builder) Build(sourceImage, destImage string) (err error) {
	if b.state != Created {
		return fmt.Errorf("builder already ran, state is %s", b.state)
	}

	cleanup := cleanstack.NewCleanStack()
	defer func() {
		if err != nil && cleanup.Len() > 0 {
			b.s.Logger().Warn("Build failed, releasing %d outstanding resources", cleanup.Len())
		}
		err = cleanup.Cleanup(err)
		if err != nil {
			b.state = Failed
		}
	}()

	srcBytes, err := size.SourceSize(b.s.FS(), sourceImage)
	if err != nil {
		return err
	}
	total, err := size.Compute(srcBytes, b.scheme)
	if err != nil {
		return err
	}
	plan, err := layout.New(total, b.scheme)
	if err != nil {
		return err
	}
	b.s.Logger().Info("Building %s media image of %s from a %s source",
		b.scheme, units.BytesSize(float64(total)), units.BytesSize(float64(srcBytes)))

	device, err := b.createAndAttach(cleanup, destImage, total)
	if err != nil {
		return err
	}
	b.advance(Attached)

	if err = b.partition(device, plan); err != nil {
		return err
	}
	b.advance(Partitioned)

	rootPart := plan.Root()
	if err = b.format(b.s, device.PartitionPath(rootPart.Index), filesystem.Ext4, b.label, 0); err != nil {
		return err
	}
	if esp := plan.ESP(); esp != nil {
		if err = b.format(b.s, device.PartitionPath(esp.Index), filesystem.VFat, espLabel, 0); err != nil {
			return err
		}
	}
	b.advance(Formatted)

	srcDir, rootDir, espDir, err := b.mountAll(cleanup, sourceImage, device, plan)
	if err != nil {
		return err
	}
	b.advance(Mounted)

	if err = b.copier.SyncData(srcDir, rootDir); err != nil {
		return err
	}
	if err = b.s.FS().WriteFile(filepath.Join(rootDir, markerFile), nil, vfs.FilePerm); err != nil {
		return fmt.Errorf("writing indexing marker: %w", err)
	}
	b.advance(Populated)

	if err = b.boot.Install(b.scheme, device.Path(), espDir, rootDir, b.label); err != nil {
		return err
	}
	b.advance(BootInstalled)

	// Release mounts and devices now so a failing unmount fails the build
	// instead of surfacing after the image was declared good. The deferred
	// unwind finds an empty stack.
	if err = cleanup.Cleanup(nil); err != nil {
		return err
	}
	b.advance(Unmounted)
	b.advance(Detached)

	if err = b.finalize(destImage); err != nil {
		return err
	}
	b.advance(Finalized)
	b.s.Logger().Info("Build finished, %s is ready", destImage)
	return nil
}

// createAndAttach creates the sparse destination image and exposes it as a
// loop device. The image file is rolled back if the build fails later.
func (b *Builder) createAndAttach(cleanup *cleanstack.CleanStack, destImage string, totalBytes uint64) (loopdev.Device, error) {
	f, err := b.s.FS().Create(destImage)
	if err != nil {
		return loopdev.Device{}, fmt.Errorf("creating %s: %w", destImage, err)
	}
	if err = f.Close(); err != nil {
		return loopdev.Device{}, fmt.Errorf("creating %s: %w", destImage, err)
	}
	cleanup.PushErrorOnly("destination image", func() error {
		return b.s.FS().Remove(destImage)
	})
	if err = b.s.FS().Truncate(destImage, int64(totalBytes)); err != nil {
		return loopdev.Device{}, fmt.Errorf("sizing %s: %w", destImage, err)
	}

	device, err := b.attacher.Attach(destImage, false)
	if err != nil {
		return loopdev.Device{}, err
	}
	cleanup.Push("destination device "+device.Path(), func() error {
		return b.attacher.Detach(device)
	})
	return device, nil
}

// partition writes the planned table. The UEFI data region is written
// coarse first, then subdivided using the geometry the partitioner actually
// allocated.
func (b *Builder) partition(device loopdev.Device, plan *layout.Plan) error {
	if err := b.partitioner.WriteTable(device.Path(), plan); err != nil {
		return err
	}
	if plan.Scheme != size.UEFI {
		return nil
	}
	data, err := b.partitioner.DataRegion(device.Path(), plan.DataRegionIndex())
	if err != nil {
		return err
	}
	boot, root, err := plan.Subdivide(data)
	if err != nil {
		return err
	}
	return b.partitioner.Refine(device.Path(), boot, root)
}

// mountAll attaches the source image read-only and mounts source and
// destination filesystems on fresh temporary directories.
func (b *Builder) mountAll(cleanup *cleanstack.CleanStack, sourceImage string, device loopdev.Device, plan *layout.Plan) (srcDir, rootDir, espDir string, err error) {
	srcDev, err := b.attacher.Attach(sourceImage, true)
	if err != nil {
		return "", "", "", err
	}
	cleanup.Push("source device "+srcDev.Path(), func() error {
		return b.attacher.Detach(srcDev)
	})

	srcDir, err = b.mount(cleanup, srcDev.Path(), "src", filesystem.SourceFS, []string{"ro"})
	if err != nil {
		return "", "", "", err
	}
	rootDir, err = b.mount(cleanup, device.PartitionPath(plan.Root().Index), "root", filesystem.Ext4, b.mountOpts)
	if err != nil {
		return "", "", "", err
	}
	if esp := plan.ESP(); esp != nil {
		espDir, err = b.mount(cleanup, device.PartitionPath(esp.Index), "esp", filesystem.VFat, nil)
		if err != nil {
			return "", "", "", err
		}
	}
	return srcDir, rootDir, espDir, nil
}

func (b *Builder) mount(cleanup *cleanstack.CleanStack, device, name, fsType string, options []string) (string, error) {
	target, err := vfs.TempDir(b.s.FS(), b.tempBase, "usbmedia-"+name+"-")
	if err != nil {
		return "", fmt.Errorf("creating %s mount point: %w", name, err)
	}
	cleanup.Push(name+" mount point", func() error {
		mounted, mErr := b.s.Mounter().IsMountPoint(target)
		if mErr != nil {
			return mErr
		}
		if mounted {
			return fmt.Errorf("%s is still mounted, leaving %s in place", device, target)
		}
		return b.s.FS().RemoveAll(target)
	})
	if err = b.s.Mounter().Mount(device, target, fsType, options); err != nil {
		return "", fmt.Errorf("mounting %s on %s: %w", device, target, err)
	}
	cleanup.Push(name+" mount", func() error {
		return b.s.Mounter().Unmount(target)
	})
	return target, nil
}

// finalize write-protects the image and drops a checksum sidecar next to it.
func (b *Builder) finalize(destImage string) error {
	if err := b.s.FS().Chmod(destImage, vfs.NoWritePerm); err != nil {
		return fmt.Errorf("write-protecting %s: %w", destImage, err)
	}
	sum, err := b.fileChecksum(destImage)
	if err != nil {
		return err
	}
	sidecar := destImage + ".sha256"
	content := fmt.Sprintf("%s  %s\n", sum, filepath.Base(destImage))
	if err = b.s.FS().WriteFile(sidecar, []byte(content), vfs.FilePerm); err != nil {
		return fmt.Errorf("writing %s: %w", sidecar, err)
	}
	return nil
}

func (b *Builder) fileChecksum(path string) (string, error) {
	f, err := b.s.FS().Open(path)
	if err != nil {
		return "", fmt.Errorf("checksumming %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err = io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksumming %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
