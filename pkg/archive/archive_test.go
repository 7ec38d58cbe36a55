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

package archive_test

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bossartn/walvault/pkg/archive"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 🧪 testContext returns a context carrying a test logger.
func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

// 🧪 writeSource writes a source file with the given content and returns
// its path.
func writeSource(t *testing.T, content []byte) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "segment")
	require.NoError(t, os.WriteFile(src, content, 0o644))
	return src
}

// 🧪 TestArchiveRoundTrip checks byte fidelity across the interesting
// size boundaries of the copy loop.
func TestArchiveRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{name: "empty", size: 0},
		{name: "one_byte", size: 1},
		{name: "exactly_one_buffer", size: archive.CopyBufferSize},
		{name: "several_buffers_and_tail", size: 5*archive.CopyBufferSize + 311},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := make([]byte, tt.size)
			for i := range content {
				content[i] = byte(i % 251)
			}

			dir := t.TempDir()
			src := writeSource(t, content)

			a := archive.New(dir)
			require.NoError(t, a.Archive(testContext(t), src, "segment"))

			got, err := os.ReadFile(filepath.Join(dir, "segment"))
			require.NoError(t, err)
			assert.True(t, bytes.Equal(content, got), "archived bytes differ from source")

			// The temporary artifact must be gone after a successful commit.
			_, statErr := os.Stat(filepath.Join(dir, archive.TempFileName))
			assert.ErrorIs(t, statErr, fs.ErrNotExist)
		})
	}
}

// 🧪 TestArchiveRefusesDuplicate archives the reference scenario and
// checks the write-once contract on the second call.
func TestArchiveRefusesDuplicate(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := writeSource(t, []byte("hello world"))
	const name = "000000010000000000000001"

	a := archive.New(dir)
	require.NoError(t, a.Archive(ctx, src, name))

	got, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))

	// Second call with identical arguments: conflict, original untouched.
	err = a.Archive(ctx, src, name)
	require.Error(t, err)
	assert.ErrorIs(t, err, archive.ErrAlreadyArchived)

	got, err = os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "conflict must leave the directory unchanged")
}

// 🧪 TestArchiveNotConfigured checks the empty-directory fast failure.
func TestArchiveNotConfigured(t *testing.T) {
	src := writeSource(t, []byte("x"))

	a := archive.New("")
	err := a.Archive(testContext(t), src, "segment")
	assert.ErrorIs(t, err, archive.ErrNotConfigured)
}

// 🧪 TestArchivePathLengthBoundary checks the limit exactly at and one
// byte over, with no filesystem mutation on the failing side.
func TestArchivePathLengthBoundary(t *testing.T) {
	ctx := testContext(t)
	src := writeSource(t, []byte("x"))

	// Deepen the destination directory so the boundary-length name
	// stays under the per-component filename limit.
	dir := t.TempDir()
	for archive.MaxPathLength-len(dir) > 200 {
		dir = filepath.Join(dir, strings.Repeat("d", 100))
	}
	require.NoError(t, os.MkdirAll(dir, 0o755))

	a := archive.New(dir)

	// len(dir) + "/" + len(name) == MaxPathLength-1 is the longest
	// accepted destination path.
	fits := strings.Repeat("a", archive.MaxPathLength-len(dir)-2)
	require.NoError(t, a.Archive(ctx, src, fits))

	tooLong := fits + "a"
	err := a.Archive(ctx, src, tooLong)
	require.Error(t, err)
	assert.ErrorIs(t, err, archive.ErrPathTooLong)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "over-limit call must not touch the filesystem")
	assert.Equal(t, fits, entries[0].Name())
}

// 🧪 TestArchiveClearsStaleTemp simulates a crash between copy and
// rename: a leftover temporary artifact and no final file. The next
// call must clear the leftover and produce a correct final artifact.
func TestArchiveClearsStaleTemp(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := writeSource(t, []byte("fresh content"))

	// Leftover from the interrupted attempt, partially written.
	stale := filepath.Join(dir, archive.TempFileName)
	require.NoError(t, os.WriteFile(stale, []byte("partial junk"), 0o644))

	a := archive.New(dir)
	require.NoError(t, a.Archive(ctx, src, "segment"))

	got, err := os.ReadFile(filepath.Join(dir, "segment"))
	require.NoError(t, err)
	assert.Equal(t, "fresh content", string(got))

	_, statErr := os.Stat(stale)
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

// 🧪 TestArchiveMissingSource checks that a missing source fails without
// leaving a final artifact.
func TestArchiveMissingSource(t *testing.T) {
	dir := t.TempDir()

	a := archive.New(dir)
	err := a.Archive(testContext(t), filepath.Join(dir, "no-such-file"), "segment")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, statErr := os.Stat(filepath.Join(dir, "segment"))
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

// 🧪 TestCheckArchiveDirectory covers the once-at-startup validation.
func TestCheckArchiveDirectory(t *testing.T) {
	t.Run("valid_directory", func(t *testing.T) {
		assert.NoError(t, archive.CheckArchiveDirectory(t.TempDir()))
	})

	t.Run("empty", func(t *testing.T) {
		assert.ErrorIs(t, archive.CheckArchiveDirectory(""), archive.ErrNotConfigured)
	})

	t.Run("missing", func(t *testing.T) {
		err := archive.CheckArchiveDirectory(filepath.Join(t.TempDir(), "nope"))
		assert.ErrorIs(t, err, archive.ErrInvalidDirectory)
	})

	t.Run("not_a_directory", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "plain")
		require.NoError(t, os.WriteFile(f, nil, 0o644))
		assert.ErrorIs(t, archive.CheckArchiveDirectory(f), archive.ErrInvalidDirectory)
	})
}
