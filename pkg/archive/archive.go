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

// Package archive implements a crash-safe single-file archiving primitive.
//
// A completed archive call guarantees the destination file survives a
// subsequent power loss with its full contents, and a crash during the
// call never exposes a partial file under the final name. The sequence
// enforced is: copy into a reserved temporary file, flush the temporary
// file's data and metadata, atomically rename it into place, then flush
// the containing directory so the rename itself is durable. The final
// name only ever comes into existence at the very end of that chain.
package archive

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// TempFileName is the single reserved temporary-artifact name. Every
	// in-flight transfer into a given directory writes here first, so at
	// most one transfer per destination directory may be in flight at a
	// time. Callers wanting concurrency must serialize their calls.
	TempFileName = "archtemp"

	// CopyBufferSize is the chunk size for the copy loop: large enough
	// to amortize syscall overhead, small enough to bound memory use.
	CopyBufferSize = 64 * 1024

	// MaxPathLength is the longest destination or temporary path the
	// archiver will accept. Checked before anything on disk is touched.
	MaxPathLength = 1024
)

// Archiver copies single files into one destination directory. The
// destination namespace is write-once per name: an existing destination
// file is never overwritten, it is reported as a conflict.
//
// Archiver performs no internal retries. A failed call leaves either
// nothing behind or only the temporary artifact, so re-invoking the same
// call after a clean failure is always safe: the stale temporary file is
// cleared by the next call's preconditions.
type Archiver struct {
	dir string
	fs  fileSystem
}

// Option configures an Archiver.
type Option func(*Archiver)

// withFileSystem substitutes the filesystem seam. Used by tests to
// inject failures at specific points in the sequence.
func withFileSystem(fsys fileSystem) Option {
	return func(a *Archiver) {
		a.fs = fsys
	}
}

// New creates an Archiver writing into dir. An empty dir is accepted
// here and rejected per-call, so construction never fails; validate the
// directory up front with CheckArchiveDirectory.
func New(dir string, opts ...Option) *Archiver {
	a := &Archiver{
		dir: dir,
		fs:  osFS{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Directory returns the configured destination directory.
func (a *Archiver) Directory() string {
	return a.dir
}

// CheckArchiveDirectory verifies once, at startup, that dir exists and
// is a directory. Per-call validation inside Archive is limited to the
// cheaper checks; this is the out-of-band setup check.
func CheckArchiveDirectory(dir string) error {
	if dir == "" {
		return ErrNotConfigured
	}
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return errors.Errorf("%q: %w", dir, ErrInvalidDirectory)
	}
	return nil
}

// Archive copies the file at sourcePath to name inside the destination
// directory, durably. On success the destination file is byte-identical
// to the source and survives a crash occurring immediately after the
// call returns. On failure no destination file exists; at worst a stale
// temporary artifact remains and is cleaned up by the next call.
//
// ctx is consulted between copy chunks; cancellation aborts the transfer
// like a read failure.
func (a *Archiver) Archive(ctx context.Context, sourcePath, name string) error {
	logger := zerolog.Ctx(ctx)

	if a.dir == "" {
		return ErrNotConfigured
	}

	destination := filepath.Join(a.dir, name)
	temp := filepath.Join(a.dir, TempFileName)
	if len(destination) >= MaxPathLength || len(temp) >= MaxPathLength {
		return errors.Errorf("%q: %w", destination, ErrPathTooLong)
	}

	// If the file has already been archived, just fail: something
	// upstream is wrong, and overwriting would destroy the one durable
	// copy we are supposed to be producing.
	if _, err := a.fs.Stat(destination); err == nil {
		return errors.Errorf("%q: %w", destination, ErrAlreadyArchived)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return errors.Errorf("stat %q: %w", destination, err)
	}

	// Remove a temporary artifact left behind by an earlier failed or
	// interrupted attempt.
	if err := a.fs.Remove(temp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Errorf("removing stale temporary file %q: %w", temp, err)
	}

	if err := a.copyFile(ctx, sourcePath, temp); err != nil {
		return err
	}

	// Commit. The bytes are complete on the temporary name; the final
	// name must only appear once both the contents and the rename are
	// on stable storage. Rename before the file flush would expose a
	// not-yet-durable file; skipping the directory flush could lose the
	// rename itself on crash.
	if err := a.fs.SyncFile(temp); err != nil {
		return errors.Errorf("syncing file %q: %w", temp, err)
	}
	if err := a.fs.Rename(temp, destination); err != nil {
		return errors.Errorf("renaming %q to %q: %w", temp, destination, err)
	}
	if err := a.fs.SyncDir(a.dir); err != nil {
		return errors.Errorf("syncing directory %q: %w", a.dir, err)
	}

	logger.Debug().
		Str("source", sourcePath).
		Str("destination", destination).
		Msg("archived file")

	return nil
}

// copyFile streams src to dst in CopyBufferSize chunks. dst is created
// with exclusive-create semantics. Both handles are released on every
// exit path; the destination close is checked because a close failure
// after buffered writes can carry a deferred write error.
func (a *Archiver) copyFile(ctx context.Context, src, dst string) error {
	srcFile, err := a.fs.Open(src)
	if err != nil {
		return errors.Errorf("opening file %q: %w", src, err)
	}

	dstFile, err := a.fs.CreateExclusive(dst)
	if err != nil {
		_ = srcFile.Close()
		return errors.Errorf("opening file %q: %w", dst, err)
	}

	buf := make([]byte, CopyBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			_ = dstFile.Close()
			_ = srcFile.Close()
			return errors.Errorf("copying file %q: %w", src, err)
		}

		nr, rerr := srcFile.Read(buf)
		if nr > 0 {
			nw, werr := dstFile.Write(buf[:nr])
			if werr != nil {
				_ = dstFile.Close()
				_ = srcFile.Close()
				return errors.Errorf("writing to file %q: %w", dst, werr)
			}
			if nw != nr {
				// A short write without an error usually means the
				// device filled up; not every platform reports it.
				_ = dstFile.Close()
				_ = srcFile.Close()
				return errors.Errorf("writing to file %q: %w", dst, ErrNoSpace)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = dstFile.Close()
			_ = srcFile.Close()
			return errors.Errorf("reading file %q: %w", src, rerr)
		}
	}

	if err := dstFile.Close(); err != nil {
		_ = srcFile.Close()
		return errors.Errorf("closing file %q: %w", dst, err)
	}
	if err := srcFile.Close(); err != nil {
		return errors.Errorf("closing file %q: %w", src, err)
	}

	return nil
}
