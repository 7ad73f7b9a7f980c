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

package loopdev_test

import (
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/suse/usbmedia/pkg/block/loopdev"
	"github.com/suse/usbmedia/pkg/log"
	"github.com/suse/usbmedia/pkg/sys"
	sysmock "github.com/suse/usbmedia/pkg/sys/mock"
)

func TestLoopdevSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Loopdev test suite")
}

var _ = Describe("Device", Label("loopdev"), func() {
	It("derives partition paths with the kernel's 'p' infix rule", func() {
		Expect(loopdev.NewDevice("/dev/loop3").PartitionPath(2)).To(Equal("/dev/loop3p2"))
		Expect(loopdev.NewDevice("/dev/mapper/usb").PartitionPath(1)).To(Equal("/dev/mapper/usb1"))
	})
})

var _ = Describe("LoSetup", Label("loopdev"), func() {
	var runner *sysmock.Runner
	var lo *loopdev.LoSetup

	BeforeEach(func() {
		var err error
		runner = sysmock.NewRunner()
		s, err := sys.NewSystem(
			sys.WithRunner(runner),
			sys.WithLogger(log.New(log.WithDiscardAll())),
		)
		Expect(err).NotTo(HaveOccurred())
		lo = loopdev.NewLoSetup(s)
	})

	It("attaches an image and returns the allocated device", func() {
		runner.ReturnValue = []byte("/dev/loop7\n")
		dev, err := lo.Attach("/tmp/media.img", false)
		Expect(err).NotTo(HaveOccurred())
		Expect(dev.Path()).To(Equal("/dev/loop7"))
		Expect(runner.CmdsMatch([][]string{
			{"losetup", "--find", "--show", "--partscan", "/tmp/media.img"},
		})).To(Succeed())
	})

	It("attaches read-only when requested", func() {
		runner.ReturnValue = []byte("/dev/loop0\n")
		_, err := lo.Attach("/tmp/source.iso", true)
		Expect(err).NotTo(HaveOccurred())
		Expect(runner.CmdsMatch([][]string{
			{"losetup", "--find", "--show", "--partscan", "--read-only", "/tmp/source.iso"},
		})).To(Succeed())
	})

	It("fails when losetup reports no device", func() {
		runner.ReturnValue = []byte("")
		_, err := lo.Attach("/tmp/media.img", false)
		Expect(err).To(MatchError(ContainSubstring("no device")))
	})

	It("propagates attach failures", func() {
		runner.ReturnError = fmt.Errorf("no free loop device")
		_, err := lo.Attach("/tmp/media.img", false)
		Expect(err).To(MatchError(ContainSubstring("no free loop device")))
	})

	It("detaches a device", func() {
		dev := loopdev.NewDevice("/dev/loop7")
		Expect(lo.Detach(dev)).To(Succeed())
		Expect(runner.CmdsMatch([][]string{
			{"losetup", "--detach", "/dev/loop7"},
		})).To(Succeed())
	})
})
