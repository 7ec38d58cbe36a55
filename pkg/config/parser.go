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
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(ctx); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔄 wireConfig is the on-disk shape shared by the YAML and JSON
// parsers. Durations travel as strings ("10s") and are parsed here.
type wireConfig struct {
	Archive struct {
		Directory    string `json:"directory" yaml:"directory"`
		MinFreeBytes uint64 `json:"min_free_bytes,omitempty" yaml:"min_free_bytes,omitempty"`
	} `json:"archive" yaml:"archive"`
	Spool struct {
		Directory     string   `json:"directory,omitempty" yaml:"directory,omitempty"`
		Include       []string `json:"include,omitempty" yaml:"include,omitempty"`
		Ignore        []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`
		ScanInterval  string   `json:"scan_interval,omitempty" yaml:"scan_interval,omitempty"`
		RetryInterval string   `json:"retry_interval,omitempty" yaml:"retry_interval,omitempty"`
		MaxRetries    int      `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	} `json:"spool,omitempty" yaml:"spool,omitempty"`
	Log struct {
		Level      string `json:"level,omitempty" yaml:"level,omitempty"`
		File       string `json:"file,omitempty" yaml:"file,omitempty"`
		MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
		MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
		Console    bool   `json:"console,omitempty" yaml:"console,omitempty"`
	} `json:"log,omitempty" yaml:"log,omitempty"`
}

// 🔄 toConfig converts the wire shape into the runtime Config.
func (w *wireConfig) toConfig() (*Config, error) {
	cfg := &Config{
		Archive: ArchiveConfig{
			Directory:    w.Archive.Directory,
			MinFreeBytes: w.Archive.MinFreeBytes,
		},
		Spool: SpoolConfig{
			Directory:  w.Spool.Directory,
			Include:    w.Spool.Include,
			Ignore:     w.Spool.Ignore,
			MaxRetries: w.Spool.MaxRetries,
		},
		Log: LogConfig{
			Level:      w.Log.Level,
			File:       w.Log.File,
			MaxSizeMB:  w.Log.MaxSizeMB,
			MaxBackups: w.Log.MaxBackups,
			Console:    w.Log.Console,
		},
	}

	if w.Spool.ScanInterval != "" {
		d, err := time.ParseDuration(w.Spool.ScanInterval)
		if err != nil {
			return nil, errors.Errorf("parsing spool.scan_interval: %w", err)
		}
		cfg.Spool.ScanInterval = d
	}
	if w.Spool.RetryInterval != "" {
		d, err := time.ParseDuration(w.Spool.RetryInterval)
		if err != nil {
			return nil, errors.Errorf("parsing spool.retry_interval: %w", err)
		}
		cfg.Spool.RetryInterval = d
	}

	return cfg, nil
}
