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

// Package stats accumulates archiver statistics. Each scan cycle owns a
// plain Cycle value it updates without locking; at cycle end the pending
// counters are folded into the shared Collector in one locked step and
// the cycle is zeroed for reuse.
package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 📈 Cycle holds the pending counters of one scan cycle. Not safe for
// concurrent use; each cycle is owned by exactly one runner.
type Cycle struct {
	Archived     int
	Failed       int
	Bytes        int64
	CopyTime     time.Duration
	LastArchived NameStamp
	LastFailed   NameStamp
}

// 🏷️ NameStamp records which segment and when.
type NameStamp struct {
	Name string    `json:"name,omitempty"`
	Time time.Time `json:"time,omitempty"`
}

// 📈 RecordArchived notes one successfully archived segment.
func (c *Cycle) RecordArchived(name string, bytes int64, copyTime time.Duration) {
	c.Archived++
	c.Bytes += bytes
	c.CopyTime += copyTime
	c.LastArchived = NameStamp{Name: name, Time: time.Now()}
}

// 📉 RecordFailed notes one segment that could not be archived.
func (c *Cycle) RecordFailed(name string) {
	c.Failed++
	c.LastFailed = NameStamp{Name: name, Time: time.Now()}
}

// 🫙 empty reports whether the cycle saw no activity at all.
func (c *Cycle) empty() bool {
	return c.Archived == 0 && c.Failed == 0
}

// 📊 Stats is a point-in-time snapshot of the collector totals.
type Stats struct {
	ArchivedCount int64         `json:"archived_count"`
	FailedCount   int64         `json:"failed_count"`
	BytesCopied   int64         `json:"bytes_copied"`
	CopyTime      time.Duration `json:"copy_time"`
	LastArchived  NameStamp     `json:"last_archived,omitempty"`
	LastFailed    NameStamp     `json:"last_failed,omitempty"`
	StartTime     time.Time     `json:"start_time"`
	ResetTime     time.Time     `json:"reset_time,omitempty"`
}

// 🗃️ Collector owns the shared totals. Safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	stats Stats
}

// 🏭 NewCollector creates a collector with the start time stamped.
func NewCollector() *Collector {
	return &Collector{
		stats: Stats{StartTime: time.Now()},
	}
}

// 📥 Report folds a cycle's pending counters into the totals and zeroes
// the cycle for reuse. An all-zero cycle is a no-op, so callers may
// report unconditionally at cycle end.
func (col *Collector) Report(c *Cycle) {
	if c.empty() {
		return
	}

	col.mu.Lock()
	col.stats.ArchivedCount += int64(c.Archived)
	col.stats.FailedCount += int64(c.Failed)
	col.stats.BytesCopied += c.Bytes
	col.stats.CopyTime += c.CopyTime
	if c.LastArchived.Name != "" {
		col.stats.LastArchived = c.LastArchived
	}
	if c.LastFailed.Name != "" {
		col.stats.LastFailed = c.LastFailed
	}
	col.mu.Unlock()

	*c = Cycle{}
}

// 📊 Snapshot returns a copy of the totals.
func (col *Collector) Snapshot() Stats {
	col.mu.Lock()
	defer col.mu.Unlock()
	return col.stats
}

// 🧹 Reset zeroes the totals and stamps the reset time. The start time
// survives resets.
func (col *Collector) Reset() {
	col.mu.Lock()
	defer col.mu.Unlock()
	start := col.stats.StartTime
	col.stats = Stats{StartTime: start, ResetTime: time.Now()}
}

// 💾 Save writes a JSON snapshot to path via write-plus-rename. This is
// plain bookkeeping, not archival: the stats file makes no durability
// claim and losing it costs nothing but counters.
func (col *Collector) Save(path string) error {
	snap := col.Snapshot()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Errorf("encoding stats: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Errorf("writing stats file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Errorf("renaming stats file: %w", err)
	}

	return nil
}

// 📂 LoadStats reads a snapshot previously written by Save.
func LoadStats(path string) (Stats, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Stats{}, errors.Errorf("reading stats file: %w", err)
	}

	var snap Stats
	if err := json.Unmarshal(data, &snap); err != nil {
		return Stats{}, errors.Errorf("decoding stats file: %w", err)
	}

	return snap, nil
}
