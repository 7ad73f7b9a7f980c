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

package config_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/suse/usbmedia/internal/config"
	sysmock "github.com/suse/usbmedia/pkg/sys/mock"
	"github.com/suse/usbmedia/pkg/sys/vfs"
)

func TestConfigSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config test suite")
}

const description = `scheme: uefi
label: LIVEUSB
mountOptions:
  - noatime
tempDir: /var/tmp
`

var _ = Describe("BuildDescription", Label("config"), func() {
	var fs vfs.FS
	var cleanup func()

	BeforeEach(func() {
		var err error
		fs, cleanup, err = sysmock.TestFS(map[string]any{
			"/etc/usbmedia/build.yaml": description,
			"/etc/usbmedia/typo.yaml":  "scheme: uefi\nlabell: oops\n",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if cleanup != nil {
			cleanup()
		}
	})

	It("loads a build description", func() {
		d, err := config.Load(fs, "/etc/usbmedia/build.yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Scheme).To(Equal("uefi"))
		Expect(d.Label).To(Equal("LIVEUSB"))
		Expect(d.MountOptions).To(Equal([]string{"noatime"}))
		Expect(d.TempDir).To(Equal("/var/tmp"))
	})

	It("rejects unknown fields", func() {
		_, err := config.Load(fs, "/etc/usbmedia/typo.yaml")
		Expect(err).To(MatchError(ContainSubstring("labell")))
	})

	It("fails on a missing file", func() {
		_, err := config.Load(fs, "/etc/usbmedia/absent.yaml")
		Expect(err).To(MatchError(ContainSubstring("absent.yaml")))
	})
})
