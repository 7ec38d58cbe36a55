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

// Package spool schedules the archiving primitive over a spool
// directory. Producers drop segments into the spool and mark them
// eligible with a `<name>.ready` marker under `<spool>/archive_status/`;
// the runner archives ready segments oldest-first and flips the marker
// to `<name>.done` once the segment is durably archived. At most one
// runner may drain a given spool/archive pair, which keeps the
// archiver's one-temporary-name-per-directory contract safe.
package spool

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bossartn/walvault/pkg/config"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// StatusDirName holds the per-segment markers inside the spool.
	StatusDirName = "archive_status"

	ReadySuffix = ".ready"
	DoneSuffix  = ".done"

	// StatsFileName is the persisted collector snapshot, written at the
	// end of every cycle and read by the status command.
	StatsFileName = "walvault.stats.json"
)

// 📁 StatusDir returns the marker directory for a spool.
func StatusDir(spoolDir string) string {
	return filepath.Join(spoolDir, StatusDirName)
}

// 📁 StatsPath returns the stats snapshot path for a spool.
func StatsPath(spoolDir string) string {
	return filepath.Join(StatusDir(spoolDir), StatsFileName)
}

// 📦 Segment is one spool file eligible for archiving.
type Segment struct {
	Name string // base name, also the destination name in the archive
	Path string // full path of the segment file in the spool
	Size int64
}

// 🔍 Scanner lists spool segments by marker state.
type Scanner struct {
	spoolDir string
	include  []string
	ignore   []string
}

// 🏭 NewScanner creates a scanner over the configured spool.
func NewScanner(cfg config.SpoolConfig) *Scanner {
	return &Scanner{
		spoolDir: cfg.Directory,
		include:  cfg.Include,
		ignore:   cfg.Ignore,
	}
}

// 🔍 Ready returns the segments marked ready, oldest first (segment
// names sort lexicographically by age, like WAL file names). Markers
// whose segment file has disappeared are skipped with a warning; they
// are not an error because the producer may still be mid-write.
func (s *Scanner) Ready(ctx context.Context) ([]Segment, error) {
	logger := zerolog.Ctx(ctx)

	entries, err := os.ReadDir(StatusDir(s.spoolDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Errorf("reading status directory: %w", err)
	}

	var segments []Segment
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ReadySuffix) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ReadySuffix)

		if !s.matches(name) {
			logger.Debug().Str("segment", name).Msg("segment excluded by glob")
			continue
		}

		path := filepath.Join(s.spoolDir, name)
		st, err := os.Stat(path)
		if err != nil {
			logger.Warn().Err(err).Str("segment", name).Msg("ready marker without segment file")
			continue
		}

		segments = append(segments, Segment{Name: name, Path: path, Size: st.Size()})
	}

	// os.ReadDir returns entries sorted by name, so segments are
	// already oldest-first.
	return segments, nil
}

// 🔍 Done returns the names of segments whose marker is done.
func (s *Scanner) Done(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(StatusDir(s.spoolDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Errorf("reading status directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), DoneSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), DoneSuffix))
	}
	return names, nil
}

// 📝 MarkReady creates the ready marker for a segment, creating the
// status directory on first use. Used by producers and tests.
func (s *Scanner) MarkReady(name string) error {
	if err := os.MkdirAll(StatusDir(s.spoolDir), 0o755); err != nil {
		return errors.Errorf("creating status directory: %w", err)
	}
	marker := filepath.Join(StatusDir(s.spoolDir), name+ReadySuffix)
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		return errors.Errorf("writing ready marker: %w", err)
	}
	return nil
}

// ✅ MarkDone flips a segment's marker from ready to done. A missing
// ready marker is tolerated: the done marker is written regardless, so
// recovery paths can settle a segment whose marker state is behind its
// archive state.
func (s *Scanner) MarkDone(name string) error {
	statusDir := StatusDir(s.spoolDir)
	ready := filepath.Join(statusDir, name+ReadySuffix)
	done := filepath.Join(statusDir, name+DoneSuffix)

	err := os.Rename(ready, done)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return errors.Errorf("renaming ready marker: %w", err)
	}

	if err := os.WriteFile(done, nil, 0o644); err != nil {
		return errors.Errorf("writing done marker: %w", err)
	}
	return nil
}

// 🧹 Remove deletes a done segment and both its markers. It refuses to
// touch a segment that is not marked done.
func (s *Scanner) Remove(ctx context.Context, name string) error {
	statusDir := StatusDir(s.spoolDir)
	done := filepath.Join(statusDir, name+DoneSuffix)

	if _, err := os.Stat(done); err != nil {
		return errors.Errorf("segment %q is not marked done: %w", name, err)
	}

	if err := os.Remove(filepath.Join(s.spoolDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Errorf("removing segment %q: %w", name, err)
	}
	if err := os.Remove(filepath.Join(statusDir, name+ReadySuffix)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Errorf("removing ready marker: %w", err)
	}
	if err := os.Remove(done); err != nil {
		return errors.Errorf("removing done marker: %w", err)
	}

	return nil
}

// 🔍 matches applies the include then ignore globs to a segment name.
func (s *Scanner) matches(name string) bool {
	if len(s.include) > 0 {
		included := false
		for _, pattern := range s.include {
			if ok, err := doublestar.Match(pattern, name); err == nil && ok {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	for _, pattern := range s.ignore {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return false
		}
	}

	return true
}
