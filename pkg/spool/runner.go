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

package spool

import (
	"context"
	"time"

	"github.com/bossartn/walvault/pkg/archive"
	"github.com/bossartn/walvault/pkg/config"
	"github.com/bossartn/walvault/pkg/report"
	"github.com/bossartn/walvault/pkg/stats"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"gitlab.com/tozd/go/errors"
)

// ErrLowDisk reports that the archive device is below the configured
// free-space threshold; the cycle is refused before any copying starts.
var ErrLowDisk = errors.New("archive device below free-space threshold")

// 🏃 Runner drains one spool into one archive directory. It is the sole
// caller of the archiver for that pair, so every Archive call is
// serialized and the reserved temporary name is never contended.
type Runner struct {
	cfg       *config.Config
	archiver  *archive.Archiver
	scanner   *Scanner
	collector *stats.Collector
	reporter  *report.Reporter

	// seam for tests; defaults to gopsutil disk.Usage
	diskUsage func(path string) (*disk.UsageStat, error)
}

// 📊 CycleResult summarizes one scan cycle.
type CycleResult struct {
	Archived int
	Failed   int
	Skipped  int
	Bytes    int64
}

// 🏭 NewRunner creates a runner over the configured spool and archiver.
func NewRunner(cfg *config.Config, archiver *archive.Archiver, collector *stats.Collector, reporter *report.Reporter) *Runner {
	return &Runner{
		cfg:       cfg,
		archiver:  archiver,
		scanner:   NewScanner(cfg.Spool),
		collector: collector,
		reporter:  reporter,
		diskUsage: disk.Usage,
	}
}

// 🏃 Run executes cycles until ctx is done, sleeping on the wake-up
// channel between cycles. Cycle failures are logged and do not stop the
// loop; a stuck oldest segment is retried on every subsequent wake-up.
func (r *Runner) Run(ctx context.Context, wake <-chan struct{}) error {
	logger := zerolog.Ctx(ctx)

	for {
		if _, err := r.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error().Err(err).Msg("archiving cycle failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}

// 🔁 RunCycle performs one scan-and-archive pass. Segments are archived
// oldest first; a segment that keeps failing past the retry budget
// aborts the cycle so no younger segment is archived ahead of an older
// one. Stats are folded and persisted at cycle end regardless of
// outcome.
func (r *Runner) RunCycle(ctx context.Context) (result CycleResult, err error) {
	logger := zerolog.Ctx(ctx)

	var cycle stats.Cycle

	defer func() {
		result.Bytes = cycle.Bytes
		r.collector.Report(&cycle)
		if r.cfg.Spool.Directory != "" {
			if err := r.collector.Save(StatsPath(r.cfg.Spool.Directory)); err != nil {
				logger.Warn().Err(err).Msg("saving stats snapshot")
			}
		}
	}()

	if err := r.checkCapacity(); err != nil {
		return result, err
	}

	segments, err := r.scanner.Ready(ctx)
	if err != nil {
		return result, err
	}

	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		copyTime, err := r.archiveSegment(ctx, seg)
		if err != nil {
			if errors.Is(err, archive.ErrAlreadyArchived) {
				// A crash after the durable rename but before the
				// marker flip leaves exactly this state. The final
				// artifact was fully committed by the only writer
				// that can create finals, so settle the marker and
				// leave the artifact alone.
				r.reporter.Anomaly(seg.Name, err)
				if mErr := r.scanner.MarkDone(seg.Name); mErr != nil {
					return result, mErr
				}
				result.Skipped++
				continue
			}

			cycle.RecordFailed(seg.Name)
			result.Failed++
			r.reporter.SegmentFailed(seg.Name, err)
			return result, errors.Errorf("archiving segment %q: %w", seg.Name, err)
		}

		if err := r.scanner.MarkDone(seg.Name); err != nil {
			return result, err
		}

		cycle.RecordArchived(seg.Name, seg.Size, copyTime)
		result.Archived++
		r.reporter.SegmentArchived(seg.Name, seg.Size, copyTime)
	}

	r.reporter.CycleSummary(result.Archived, result.Failed, cycle.Bytes)
	return result, nil
}

// 🔁 archiveSegment archives one segment, retrying transient failures
// up to the configured budget. A conflict is never retried: it signals
// a logic problem, not a transient fault.
func (r *Runner) archiveSegment(ctx context.Context, seg Segment) (time.Duration, error) {
	logger := zerolog.Ctx(ctx)

	var err error
	for attempt := 0; ; attempt++ {
		start := time.Now()
		err = r.archiver.Archive(ctx, seg.Path, seg.Name)
		if err == nil {
			return time.Since(start), nil
		}
		if errors.Is(err, archive.ErrAlreadyArchived) || attempt >= r.cfg.Spool.MaxRetries {
			return 0, err
		}

		logger.Warn().
			Err(err).
			Str("segment", seg.Name).
			Int("attempt", attempt+1).
			Msg("archive attempt failed, retrying")

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(r.cfg.Spool.RetryInterval):
		}
	}
}

// 💽 checkCapacity refuses a cycle when the archive device is below the
// configured free-space floor. Zero disables the guard.
func (r *Runner) checkCapacity() error {
	min := r.cfg.Archive.MinFreeBytes
	if min == 0 {
		return nil
	}

	usage, err := r.diskUsage(r.cfg.Archive.Directory)
	if err != nil {
		return errors.Errorf("checking free space: %w", err)
	}
	if usage.Free < min {
		return errors.Errorf("%d bytes free, %d required: %w", usage.Free, min, ErrLowDisk)
	}

	return nil
}
