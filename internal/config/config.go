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

// Package config loads YAML build descriptions. A description captures the
// same knobs as the build command flags so recurring builds are reproducible
// from a file, explicit flags win over description values.
package config

import (
	"bytes"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/suse/usbmedia/pkg/sys/vfs"
)

// BuildDescription is the on-disk description of one media build.
type BuildDescription struct {
	Scheme       string   `yaml:"scheme,omitempty"`
	Label        string   `yaml:"label,omitempty"`
	MountOptions []string `yaml:"mountOptions,omitempty"`
	TempDir      string   `yaml:"tempDir,omitempty"`
}

// Load reads and parses a build description. Unknown fields are rejected so
// typos do not silently become defaults.
func Load(f vfs.FS, path string) (*BuildDescription, error) {
	data, err := f.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading build description %s: %w", path, err)
	}
	d := &BuildDescription{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err = decoder.Decode(d); err != nil {
		return nil, fmt.Errorf("parsing build description %s: %w", path, err)
	}
	return d, nil
}
