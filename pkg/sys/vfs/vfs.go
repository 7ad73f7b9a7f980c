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

// Package vfs defines the filesystem interface consumed by this project and
// a handful of helpers on top of it. The production implementation is
// twpayne/go-vfs operating on the host filesystem, tests plug in a scratch
// filesystem instead.
package vfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	govfs "github.com/twpayne/go-vfs/v5"
)

const (
	DirPerm     = fs.FileMode(0755)
	FilePerm    = fs.FileMode(0644)
	NoWritePerm = fs.FileMode(0444)
)

// FS is the subset of filesystem operations used by this project. It is
// satisfied by twpayne/go-vfs filesystems, including the test filesystems
// created by vfst.
type FS interface {
	Chmod(name string, mode fs.FileMode) error
	Create(name string) (*os.File, error)
	Lstat(name string) (fs.FileInfo, error)
	Mkdir(name string, perm fs.FileMode) error
	Open(name string) (fs.File, error)
	OpenFile(name string, flag int, perm fs.FileMode) (*os.File, error)
	ReadDir(dirname string) ([]fs.DirEntry, error)
	ReadFile(filename string) ([]byte, error)
	Remove(name string) error
	RemoveAll(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (fs.FileInfo, error)
	Symlink(oldname, newname string) error
	Truncate(name string, size int64) error
	WriteFile(filename string, data []byte, perm fs.FileMode) error
}

// OSFS returns the filesystem of the host.
func OSFS() FS {
	return govfs.OSFS
}

// MkdirAll creates the named directory and any missing parents.
func MkdirAll(f FS, path string, perm fs.FileMode) error {
	if info, err := f.Stat(path); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("mkdir %s: not a directory", path)
	}
	parent := filepath.Dir(path)
	if parent != path {
		if err := MkdirAll(f, parent, perm); err != nil {
			return err
		}
	}
	if err := f.Mkdir(path, perm); err != nil {
		if info, sErr := f.Stat(path); sErr == nil && info.IsDir() {
			return nil
		}
		return err
	}
	return nil
}

// TempDir creates a fresh directory under dir (the default temporary
// directory if empty) with the given prefix. The name embeds the process ID
// so concurrent builds against different targets never collide.
func TempDir(f FS, dir, prefix string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := MkdirAll(f, dir, DirPerm); err != nil {
		return "", err
	}
	for i := 0; i < 10000; i++ {
		name := filepath.Join(dir, prefix+strconv.Itoa(os.Getpid())+"-"+strconv.FormatInt(time.Now().UnixNano()%1000000000+int64(i), 10))
		err := f.Mkdir(name, DirPerm)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("could not create a unique temporary directory in %s", dir)
}

// Exists reports whether the given path exists.
func Exists(f FS, path string) (bool, error) {
	_, err := f.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// CopyFile copies a regular file, creating or truncating the target.
func CopyFile(f FS, source, target string) (err error) {
	src, err := f.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := f.Create(target)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := dst.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	_, err = io.Copy(dst, src)
	return err
}
