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

// Package bootloader installs GRUB on the populated media so the result
// boots on its own.
package bootloader

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/joho/godotenv"

	"github.com/suse/usbmedia/pkg/size"
	"github.com/suse/usbmedia/pkg/sys"
	"github.com/suse/usbmedia/pkg/sys/vfs"
)

//go:embed grub.cfg.tpl
var grubCfgTemplate string

const fallbackName = "Linux"

type Grub struct {
	s *sys.System
}

func NewGrub(s *sys.System) *Grub {
	return &Grub{s: s}
}

// Install writes the GRUB configuration into the populated root tree and
// runs grub2-install against the media. The legacy scheme embeds the first
// stage in the front reservation, the UEFI scheme installs the removable
// fallback path on the EFI system partition without touching NVRAM.
func (g *Grub) Install(scheme size.Scheme, bootDevice, espDir, rootDir, label string) error {
	name, err := g.displayName(rootDir)
	if err != nil {
		g.s.Logger().Warn("Could not read OS release data: %v", err)
		name = fallbackName
	}

	if err = g.writeConfig(rootDir, name, label); err != nil {
		return err
	}

	bootDir := filepath.Join(rootDir, "boot")
	var args []string
	switch scheme {
	case size.Legacy:
		args = []string{
			"--target=i386-pc",
			"--boot-directory=" + bootDir,
			bootDevice,
		}
	case size.UEFI:
		args = []string{
			"--target=x86_64-efi",
			"--efi-directory=" + espDir,
			"--boot-directory=" + bootDir,
			"--removable", "--no-nvram",
		}
	default:
		return fmt.Errorf("no bootloader install method for scheme %d", scheme)
	}

	g.s.Logger().Info("Installing bootloader for %s", name)
	out, err := g.s.Runner().Run("grub2-install", args...)
	if err != nil {
		return fmt.Errorf("installing bootloader: %w: %s", err, string(out))
	}
	return nil
}

// displayName resolves the OS pretty name from the populated tree.
func (g *Grub) displayName(rootDir string) (string, error) {
	file, err := g.s.FS().Open(filepath.Join(rootDir, "etc/os-release"))
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	env, err := godotenv.Parse(file)
	if err != nil {
		return "", fmt.Errorf("parsing os-release: %w", err)
	}
	if name, ok := env["PRETTY_NAME"]; ok && name != "" {
		return name, nil
	}
	if name, ok := env["NAME"]; ok && name != "" {
		return name, nil
	}
	return "", fmt.Errorf("os-release defines no name")
}

func (g *Grub) writeConfig(rootDir, name, label string) error {
	tpl, err := template.New("grub.cfg").Parse(grubCfgTemplate)
	if err != nil {
		return fmt.Errorf("parsing grub config template: %w", err)
	}

	grubDir := filepath.Join(rootDir, "boot/grub2")
	if err = vfs.MkdirAll(g.s.FS(), grubDir, vfs.DirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", grubDir, err)
	}

	file, err := g.s.FS().Create(filepath.Join(grubDir, "grub.cfg"))
	if err != nil {
		return fmt.Errorf("creating grub config: %w", err)
	}
	defer func() { _ = file.Close() }()

	data := struct {
		Name  string
		Label string
	}{Name: name, Label: label}
	if err = tpl.Execute(file, data); err != nil {
		return fmt.Errorf("rendering grub config: %w", err)
	}
	return nil
}
