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

package report

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📢 Reporter provides user-friendly feedback about archiving progress.
// Every message is mirrored to the structured log; the console side can
// be silenced with quiet mode (used by tests and scripting).
type Reporter struct {
	log   zerolog.Logger
	quiet bool
}

// 🎯 New creates a reporter using the logger carried by ctx.
func New(ctx context.Context, quiet bool) *Reporter {
	return &Reporter{
		log:   *zerolog.Ctx(ctx),
		quiet: quiet,
	}
}

// 🖼️ Banner prints a startup banner.
func (r *Reporter) Banner(msg string) {
	if !r.quiet {
		pterm.DefaultSection.Println(msg)
	}
	r.log.Info().Msg(msg)
}

// ✨ SegmentArchived reports one durably archived segment.
func (r *Reporter) SegmentArchived(name string, bytes int64, copyTime time.Duration) {
	if !r.quiet {
		printer := pterm.Success.WithPrefix(pterm.Prefix{Text: "✨"})
		printer.Println(fmt.Sprintf("Archived %s (%d bytes in %s)", name, bytes, copyTime.Round(time.Millisecond)))
	}
	r.log.Info().
		Str("segment", name).
		Int64("bytes", bytes).
		Dur("copy_time", copyTime).
		Msg("segment archived")
}

// ❌ SegmentFailed reports a segment that could not be archived.
func (r *Reporter) SegmentFailed(name string, err error) {
	if !r.quiet {
		printer := pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"})
		printer.Println(fmt.Sprintf("Failed %s", name))
		pterm.Error.Println(err)
	}
	r.log.Error().Err(err).Str("segment", name).Msg("segment failed")
}

// ⏭️ SegmentSkipped reports a segment left alone on purpose.
func (r *Reporter) SegmentSkipped(name, reason string) {
	if !r.quiet {
		printer := pterm.Debug.WithPrefix(pterm.Prefix{Text: "⏭️"})
		printer.Println(fmt.Sprintf("Skipped %s (%s)", name, reason))
	}
	r.log.Debug().Str("segment", name).Str("reason", reason).Msg("segment skipped")
}

// 🚨 Anomaly reports a condition that points at an upstream logic error
// rather than a transient fault, loudly.
func (r *Reporter) Anomaly(name string, err error) {
	if !r.quiet {
		printer := pterm.Warning.WithPrefix(pterm.Prefix{Text: "🚨"})
		printer.Println(fmt.Sprintf("Anomaly on %s", name))
		pterm.Warning.Println(err)
	}
	r.log.Warn().Err(err).Str("segment", name).Msg("archiving anomaly")
}

// 📊 CycleSummary reports the outcome of one scan cycle. Idle cycles
// stay silent on the console.
func (r *Reporter) CycleSummary(archived, failed int, bytes int64) {
	if archived == 0 && failed == 0 {
		return
	}
	if !r.quiet {
		printer := pterm.Info.WithPrefix(pterm.Prefix{Text: "📊"})
		printer.Println(fmt.Sprintf("Cycle complete: %d archived, %d failed, %d bytes", archived, failed, bytes))
	}
	r.log.Info().
		Int("archived", archived).
		Int("failed", failed).
		Int64("bytes", bytes).
		Msg("cycle complete")
}
