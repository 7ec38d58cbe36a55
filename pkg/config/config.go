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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bossartn/walvault/pkg/archive"
	"gitlab.com/tozd/go/errors"
)

// 📚 Config represents the complete walvault configuration.
type Config struct {
	Archive ArchiveConfig
	Spool   SpoolConfig
	Log     LogConfig
}

// 🗄️ ArchiveConfig configures the archive destination.
type ArchiveConfig struct {
	// Directory is where archived segments land. Validated once at
	// startup as an existing directory.
	Directory string

	// MinFreeBytes refuses an archiving cycle when the destination
	// device has less free space than this. Zero disables the guard.
	MinFreeBytes uint64
}

// 📥 SpoolConfig configures the spool the runner drains.
type SpoolConfig struct {
	Directory     string
	Include       []string // doublestar globs; empty means everything
	Ignore        []string // doublestar globs applied after Include
	ScanInterval  time.Duration
	RetryInterval time.Duration
	MaxRetries    int
}

// 📝 LogConfig configures logging output.
type LogConfig struct {
	Level      string
	File       string // rotating JSON sink; empty disables the file sink
	MaxSizeMB  int
	MaxBackups int
	Console    bool
}

// 🎛️ Default values applied wherever the source leaves a field unset.
const (
	DefaultScanInterval  = 10 * time.Second
	DefaultRetryInterval = 1 * time.Second
	DefaultMaxRetries    = 3
	DefaultLogLevel      = "info"
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3
)

// 🎛️ applyDefaults fills unset fields with their defaults.
func (cfg *Config) applyDefaults() {
	if cfg.Spool.ScanInterval == 0 {
		cfg.Spool.ScanInterval = DefaultScanInterval
	}
	if cfg.Spool.RetryInterval == 0 {
		cfg.Spool.RetryInterval = DefaultRetryInterval
	}
	if cfg.Spool.MaxRetries == 0 {
		cfg.Spool.MaxRetries = DefaultMaxRetries
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = DefaultLogMaxBackups
	}
}

// 🔍 Validate checks the configuration is usable: the archive directory
// exists and is a directory, the spool directory likewise when set,
// intervals are positive, and every glob compiles.
func (cfg *Config) Validate(ctx context.Context) error {
	cfg.applyDefaults()

	if err := archive.CheckArchiveDirectory(cfg.Archive.Directory); err != nil {
		return errors.Errorf("archive.directory: %w", err)
	}
	cfg.Archive.Directory = filepath.Clean(cfg.Archive.Directory)

	if cfg.Spool.Directory != "" {
		st, err := os.Stat(cfg.Spool.Directory)
		if err != nil {
			return errors.Errorf("spool.directory %q: %w", cfg.Spool.Directory, err)
		}
		if !st.IsDir() {
			return errors.Errorf("spool.directory %q is not a directory", cfg.Spool.Directory)
		}
		cfg.Spool.Directory = filepath.Clean(cfg.Spool.Directory)
	}

	if cfg.Spool.ScanInterval <= 0 {
		return errors.Errorf("spool.scan_interval must be positive, got %s", cfg.Spool.ScanInterval)
	}
	if cfg.Spool.RetryInterval <= 0 {
		return errors.Errorf("spool.retry_interval must be positive, got %s", cfg.Spool.RetryInterval)
	}
	if cfg.Spool.MaxRetries < 0 {
		return errors.Errorf("spool.max_retries must not be negative, got %d", cfg.Spool.MaxRetries)
	}

	for _, pattern := range cfg.Spool.Include {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("spool.include pattern %q does not compile", pattern)
		}
	}
	for _, pattern := range cfg.Spool.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("spool.ignore pattern %q does not compile", pattern)
		}
	}

	return nil
}

// 📝 String returns a one-line summary of the config.
func (cfg *Config) String() string {
	if cfg.Spool.Directory == "" {
		return fmt.Sprintf("-> %s", cfg.Archive.Directory)
	}
	return fmt.Sprintf("%s -> %s (every %s)", cfg.Spool.Directory, cfg.Archive.Directory, cfg.Spool.ScanInterval)
}
