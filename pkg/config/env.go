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
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🌱 FromEnv builds a configuration from WALVAULT_* environment
// variables, loading a .env file first when one is present. Used when
// no config file is supplied.
//
// Recognized variables:
//
//	WALVAULT_ARCHIVE_DIR             archive destination directory
//	WALVAULT_ARCHIVE_MIN_FREE_BYTES  free-space guard, bytes
//	WALVAULT_SPOOL_DIR               spool directory
//	WALVAULT_SPOOL_INCLUDE           comma-separated doublestar globs
//	WALVAULT_SPOOL_IGNORE            comma-separated doublestar globs
//	WALVAULT_SCAN_INTERVAL           e.g. "10s"
//	WALVAULT_RETRY_INTERVAL          e.g. "1s"
//	WALVAULT_MAX_RETRIES             integer
//	WALVAULT_LOG_LEVEL               trace|debug|info|warn|error
//	WALVAULT_LOG_FILE                rotating log sink path
func FromEnv(ctx context.Context) (*Config, error) {
	logger := zerolog.Ctx(ctx)

	if err := godotenv.Load(); err == nil {
		logger.Debug().Msg("loaded .env file")
	}

	cfg := &Config{
		Archive: ArchiveConfig{
			Directory: os.Getenv("WALVAULT_ARCHIVE_DIR"),
		},
		Spool: SpoolConfig{
			Directory: os.Getenv("WALVAULT_SPOOL_DIR"),
			Include:   splitList(os.Getenv("WALVAULT_SPOOL_INCLUDE")),
			Ignore:    splitList(os.Getenv("WALVAULT_SPOOL_IGNORE")),
		},
		Log: LogConfig{
			Level:   os.Getenv("WALVAULT_LOG_LEVEL"),
			File:    os.Getenv("WALVAULT_LOG_FILE"),
			Console: true,
		},
	}

	if v := os.Getenv("WALVAULT_ARCHIVE_MIN_FREE_BYTES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errors.Errorf("parsing WALVAULT_ARCHIVE_MIN_FREE_BYTES: %w", err)
		}
		cfg.Archive.MinFreeBytes = n
	}
	if v := os.Getenv("WALVAULT_SCAN_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Errorf("parsing WALVAULT_SCAN_INTERVAL: %w", err)
		}
		cfg.Spool.ScanInterval = d
	}
	if v := os.Getenv("WALVAULT_RETRY_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Errorf("parsing WALVAULT_RETRY_INTERVAL: %w", err)
		}
		cfg.Spool.RetryInterval = d
	}
	if v := os.Getenv("WALVAULT_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Errorf("parsing WALVAULT_MAX_RETRIES: %w", err)
		}
		cfg.Spool.MaxRetries = n
	}

	if err := cfg.Validate(ctx); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// ✂️ splitList splits a comma-separated value, dropping empty entries.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
