// Copyright 2025 The walvault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"io"
	"io/fs"
	"os"
)

// fileSystem is the seam between the archiver and the operating system.
// The default implementation delegates to package os; tests substitute
// failing implementations to reach every error path without depending on
// real filesystem misbehavior.
type fileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	Remove(name string) error
	Open(name string) (file, error)
	CreateExclusive(name string) (file, error)
	Rename(oldpath, newpath string) error
	SyncFile(name string) error
	SyncDir(name string) error
}

// file is the handle subset the copy loop needs.
type file interface {
	io.Reader
	io.Writer
	io.Closer
}

type osFS struct{}

func (osFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (osFS) Remove(name string) error { return os.Remove(name) }

func (osFS) Open(name string) (file, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CreateExclusive opens name for writing and fails if it already exists.
// The reserved temporary name was cleared just before this call, so an
// "exists" failure here means another archiver is racing on the same
// destination directory.
func (osFS) CreateExclusive(name string) (file, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (osFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

// SyncFile flushes a file's contents and metadata to stable storage.
func (osFS) SyncFile(name string) error {
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// SyncDir flushes a directory's entries so a rename performed inside it
// survives a crash.
func (osFS) SyncDir(name string) error {
	d, err := os.Open(name)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return err
	}
	return d.Close()
}
