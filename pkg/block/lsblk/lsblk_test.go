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

package lsblk_test

import (
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/suse/usbmedia/pkg/block"
	"github.com/suse/usbmedia/pkg/block/lsblk"
	"github.com/suse/usbmedia/pkg/log"
	"github.com/suse/usbmedia/pkg/sys"
	sysmock "github.com/suse/usbmedia/pkg/sys/mock"
)

func TestLsblkSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Lsblk test suite")
}

const partitionsJson = `{
	"blockdevices": [
	   {
		  "path": "/dev/loop3",
		  "type": "loop",
		  "size": 1174405632
	   },{
		  "label": "EFI",
		  "partlabel": "esp",
		  "partuuid": "c60d1845-7b04-4fc4-8639-8c49eb7277d5",
		  "partn": 1,
		  "size": 33554432,
		  "start": 2048,
		  "fstype": "vfat",
		  "mountpoints": [],
		  "path": "/dev/loop3p1",
		  "pkname": "/dev/loop3",
		  "type": "part"
	   },{
		  "partlabel": "root",
		  "partuuid": "ddb334a8-48a2-c4de-ddb3-849eb2443e92",
		  "partn": 2,
		  "size": 1128267776,
		  "start": 67584,
		  "mountpoints": [],
		  "path": "/dev/loop3p2",
		  "pkname": "/dev/loop3",
		  "type": "part"
	   }
	]
 }`

const sectorSizeJson = `{
   "blockdevices": [
      {
         "name": "loop3",
         "log-sec": 512
      }
   ]
}`

var _ = Describe("Lsblk", Label("lsblk"), func() {
	var runner *sysmock.Runner
	var s *sys.System
	var device block.Device

	BeforeEach(func() {
		var err error
		runner = sysmock.NewRunner()
		s, err = sys.NewSystem(
			sys.WithRunner(runner),
			sys.WithLogger(log.New(log.WithDiscardAll())),
		)
		Expect(err).NotTo(HaveOccurred())
		device = lsblk.NewLsDevice(s)
	})

	It("lists partitions of a device with their geometry", func() {
		runner.ReturnValue = []byte(partitionsJson)
		parts, err := device.GetDevicePartitions("/dev/loop3")
		Expect(err).NotTo(HaveOccurred())
		Expect(parts).To(HaveLen(2))

		root := parts.GetByNumber(2)
		Expect(root).NotTo(BeNil())
		Expect(root.Path).To(Equal("/dev/loop3p2"))
		Expect(root.StartSector).To(Equal(uint64(67584)))
		Expect(root.SizeBytes).To(Equal(uint64(1128267776)))
		Expect(parts.GetByNumber(5)).To(BeNil())
	})

	It("reports the logical sector size", func() {
		runner.ReturnValue = []byte(sectorSizeJson)
		size, err := device.GetDeviceSectorSize("/dev/loop3")
		Expect(err).NotTo(HaveOccurred())
		Expect(size).To(Equal(uint(512)))
	})

	It("fails on invalid json", func() {
		runner.ReturnValue = []byte(`{"no-devices": []}`)
		_, err := device.GetDevicePartitions("/dev/loop3")
		Expect(err).To(MatchError(ContainSubstring("blockdevices")))
	})

	It("propagates lsblk failures", func() {
		runner.ReturnError = fmt.Errorf("lsblk failed")
		_, err := device.GetDevicePartitions("/dev/loop3")
		Expect(err).To(MatchError(ContainSubstring("lsblk failed")))
	})
})
