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

package spool_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bossartn/walvault/pkg/config"
	"github.com/bossartn/walvault/pkg/spool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 🧪 testContext returns a context carrying a test logger.
func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

// 🧪 addSegment creates a segment file in the spool and marks it ready.
func addSegment(t *testing.T, s *spool.Scanner, spoolDir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(spoolDir, name), []byte(content), 0o644))
	require.NoError(t, s.MarkReady(name))
}

// 🧪 TestReadyOrdersOldestFirst checks lexicographic (oldest-first)
// ordering of ready segments.
func TestReadyOrdersOldestFirst(t *testing.T) {
	spoolDir := t.TempDir()
	s := spool.NewScanner(config.SpoolConfig{Directory: spoolDir})

	// Added out of order on purpose.
	addSegment(t, s, spoolDir, "000000010000000000000003", "c")
	addSegment(t, s, spoolDir, "000000010000000000000001", "a")
	addSegment(t, s, spoolDir, "000000010000000000000002", "b")

	segments, err := s.Ready(testContext(t))
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, "000000010000000000000001", segments[0].Name)
	assert.Equal(t, "000000010000000000000002", segments[1].Name)
	assert.Equal(t, "000000010000000000000003", segments[2].Name)
	assert.Equal(t, int64(1), segments[0].Size)
}

// 🧪 TestReadyAppliesGlobs checks include and ignore filtering.
func TestReadyAppliesGlobs(t *testing.T) {
	spoolDir := t.TempDir()
	s := spool.NewScanner(config.SpoolConfig{
		Directory: spoolDir,
		Include:   []string{"*.seg"},
		Ignore:    []string{"junk*"},
	})

	addSegment(t, s, spoolDir, "one.seg", "x")
	addSegment(t, s, spoolDir, "junk.seg", "x")
	addSegment(t, s, spoolDir, "other.log", "x")

	segments, err := s.Ready(testContext(t))
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "one.seg", segments[0].Name)
}

// 🧪 TestReadySkipsOrphanedMarkers checks that a marker without its
// segment file is skipped, not fatal.
func TestReadySkipsOrphanedMarkers(t *testing.T) {
	spoolDir := t.TempDir()
	s := spool.NewScanner(config.SpoolConfig{Directory: spoolDir})

	require.NoError(t, s.MarkReady("ghost"))
	addSegment(t, s, spoolDir, "real", "x")

	segments, err := s.Ready(testContext(t))
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "real", segments[0].Name)
}

// 🧪 TestReadyWithoutStatusDir treats a missing marker directory as an
// empty spool.
func TestReadyWithoutStatusDir(t *testing.T) {
	s := spool.NewScanner(config.SpoolConfig{Directory: t.TempDir()})

	segments, err := s.Ready(testContext(t))
	require.NoError(t, err)
	assert.Empty(t, segments)
}

// 🧪 TestMarkDoneTransitions checks the ready→done flip and the
// recovery path where the ready marker is already gone.
func TestMarkDoneTransitions(t *testing.T) {
	ctx := testContext(t)
	spoolDir := t.TempDir()
	s := spool.NewScanner(config.SpoolConfig{Directory: spoolDir})

	addSegment(t, s, spoolDir, "seg1", "x")
	require.NoError(t, s.MarkDone("seg1"))

	segments, err := s.Ready(ctx)
	require.NoError(t, err)
	assert.Empty(t, segments)

	done, err := s.Done(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"seg1"}, done)

	// No ready marker at all: done marker still lands.
	require.NoError(t, s.MarkDone("seg2"))
	done, err = s.Done(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"seg1", "seg2"}, done)
}

// 🧪 TestRemove deletes done segments and refuses everything else.
func TestRemove(t *testing.T) {
	ctx := testContext(t)
	spoolDir := t.TempDir()
	s := spool.NewScanner(config.SpoolConfig{Directory: spoolDir})

	addSegment(t, s, spoolDir, "keep", "x")
	addSegment(t, s, spoolDir, "gone", "x")
	require.NoError(t, s.MarkDone("gone"))

	// Not done yet: refused.
	assert.Error(t, s.Remove(ctx, "keep"))
	assert.FileExists(t, filepath.Join(spoolDir, "keep"))

	require.NoError(t, s.Remove(ctx, "gone"))
	assert.NoFileExists(t, filepath.Join(spoolDir, "gone"))

	done, err := s.Done(ctx)
	require.NoError(t, err)
	assert.Empty(t, done)
}
