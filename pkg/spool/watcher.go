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
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 👀 Watcher wakes the runner when new ready markers appear. It carries
// no file payloads, only wake-up ticks: the runner re-scans on every
// wake-up, so a missed event costs latency, never correctness. A
// periodic rescan ticker backs up fsnotify for filesystems that drop
// events.
type Watcher struct {
	dir      string
	debounce time.Duration
	interval time.Duration
	fsw      *fsnotify.Watcher
	wake     chan struct{}
}

// 🏭 NewWatcher creates a watcher over a marker directory. interval is
// the rescan fallback period.
func NewWatcher(dir string, interval time.Duration) *Watcher {
	return &Watcher{
		dir:      dir,
		debounce: 250 * time.Millisecond,
		interval: interval,
		wake:     make(chan struct{}, 1),
	}
}

// 🏃 Start begins watching and returns the wake-up channel. The watcher
// stops when ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) (<-chan struct{}, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating filesystem watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return nil, errors.Errorf("watching %q: %w", w.dir, err)
	}
	w.fsw = fsw

	go w.loop(ctx)
	return w.wake, nil
}

// 🛑 Close stops the watcher.
func (w *Watcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	logger := zerolog.Ctx(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Burst of markers from one producer flush collapses into a single
	// wake-up via the debounce timer.
	var debounce *time.Timer
	var debounceC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ReadySuffix) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(w.debounce)
				debounceC = debounce.C
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.debounce)
			}

		case <-debounceC:
			debounce, debounceC = nil, nil
			w.notify()

		case <-ticker.C:
			w.notify()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("spool watcher error")
		}
	}
}

// 🔔 notify delivers a wake-up without blocking; a pending wake-up
// already covers this one.
func (w *Watcher) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}
