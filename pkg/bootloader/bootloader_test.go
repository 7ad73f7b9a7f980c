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

package bootloader_test

import (
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/suse/usbmedia/pkg/bootloader"
	"github.com/suse/usbmedia/pkg/log"
	"github.com/suse/usbmedia/pkg/size"
	"github.com/suse/usbmedia/pkg/sys"
	sysmock "github.com/suse/usbmedia/pkg/sys/mock"
	"github.com/suse/usbmedia/pkg/sys/vfs"
)

func TestBootloaderSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Bootloader test suite")
}

const osRelease = `NAME="SUSE Linux"
PRETTY_NAME="SUSE Linux 16.0"
ID=suse
`

var _ = Describe("Grub", Label("bootloader"), func() {
	var runner *sysmock.Runner
	var fs vfs.FS
	var cleanup func()
	var s *sys.System
	var grub *bootloader.Grub

	BeforeEach(func() {
		var err error
		runner = sysmock.NewRunner()
		fs, cleanup, err = sysmock.TestFS(map[string]any{
			"/run/root/etc/os-release": osRelease,
		})
		Expect(err).NotTo(HaveOccurred())
		s, err = sys.NewSystem(
			sys.WithRunner(runner),
			sys.WithFS(fs),
			sys.WithLogger(log.New(log.WithDiscardAll())),
		)
		Expect(err).NotTo(HaveOccurred())
		grub = bootloader.NewGrub(s)
	})

	AfterEach(func() {
		if cleanup != nil {
			cleanup()
		}
	})

	It("installs the first stage to the device for the legacy scheme", func() {
		Expect(grub.Install(size.Legacy, "/dev/loop3", "", "/run/root", "USBMEDIA")).To(Succeed())
		Expect(runner.CmdsMatch([][]string{{
			"grub2-install", "--target=i386-pc",
			"--boot-directory=/run/root/boot", "/dev/loop3",
		}})).To(Succeed())
	})

	It("installs the removable fallback path for the UEFI scheme", func() {
		Expect(grub.Install(size.UEFI, "/dev/loop3", "/run/esp", "/run/root", "USBMEDIA")).To(Succeed())
		Expect(runner.CmdsMatch([][]string{{
			"grub2-install", "--target=x86_64-efi",
			"--efi-directory=/run/esp", "--boot-directory=/run/root/boot",
			"--removable", "--no-nvram",
		}})).To(Succeed())
	})

	It("renders the configuration with the OS pretty name and label", func() {
		Expect(grub.Install(size.Legacy, "/dev/loop3", "", "/run/root", "USBMEDIA")).To(Succeed())
		data, err := fs.ReadFile("/run/root/boot/grub2/grub.cfg")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`menuentry "SUSE Linux 16.0"`))
		Expect(string(data)).To(ContainSubstring("--label USBMEDIA"))
		Expect(string(data)).To(ContainSubstring("root=LABEL=USBMEDIA"))
	})

	It("falls back to a generic name without os-release data", func() {
		Expect(fs.Remove("/run/root/etc/os-release")).To(Succeed())
		Expect(grub.Install(size.Legacy, "/dev/loop3", "", "/run/root", "USBMEDIA")).To(Succeed())
		data, err := fs.ReadFile("/run/root/boot/grub2/grub.cfg")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`menuentry "Linux"`))
	})

	It("propagates install failures", func() {
		runner.ReturnError = fmt.Errorf("cannot find EFI directory")
		err := grub.Install(size.UEFI, "/dev/loop3", "/run/esp", "/run/root", "USBMEDIA")
		Expect(err).To(MatchError(ContainSubstring("cannot find EFI directory")))
	})
})
