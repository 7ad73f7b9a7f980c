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

package mock

import (
	"fmt"
)

// MountPoint records a single mount performed through the Mounter double.
type MountPoint struct {
	Source  string
	Target  string
	FSType  string
	Options []string
}

// Mounter is a Mounter double keeping an in-memory mount table. Mount and
// unmount failures can be injected through MountError and UnmountError.
type Mounter struct {
	mounts       []MountPoint
	unmounted    []string
	MountError   error
	UnmountError error
}

func NewMounter() *Mounter {
	return &Mounter{}
}

func (m *Mounter) Mount(source, target, fstype string, options []string) error {
	if m.MountError != nil {
		return m.MountError
	}
	m.mounts = append(m.mounts, MountPoint{Source: source, Target: target, FSType: fstype, Options: options})
	return nil
}

func (m *Mounter) Unmount(target string) error {
	if m.UnmountError != nil {
		return m.UnmountError
	}
	for i, mnt := range m.mounts {
		if mnt.Target == target {
			m.mounts = append(m.mounts[:i], m.mounts[i+1:]...)
			m.unmounted = append(m.unmounted, target)
			return nil
		}
	}
	return fmt.Errorf("%s is not mounted", target)
}

func (m *Mounter) IsMountPoint(path string) (bool, error) {
	for _, mnt := range m.mounts {
		if mnt.Target == path {
			return true, nil
		}
	}
	return false, nil
}

// List returns the currently mounted entries.
func (m *Mounter) List() []MountPoint {
	return m.mounts
}

// Unmounted returns the targets unmounted so far, in order.
func (m *Mounter) Unmounted() []string {
	return m.unmounted
}
