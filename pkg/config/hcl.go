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
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

// 🔧 hclConfig is the HCL block layout:
//
//	archive {
//	  directory      = "/var/lib/walvault/archive"
//	  min_free_bytes = 1048576
//	}
//	spool {
//	  directory     = "/var/lib/walvault/spool"
//	  include       = ["*.seg"]
//	  scan_interval = "10s"
//	}
//	log {
//	  level = "debug"
//	}
type hclConfig struct {
	Archive *hclArchive `hcl:"archive,block"`
	Spool   *hclSpool   `hcl:"spool,block"`
	Log     *hclLog     `hcl:"log,block"`
}

type hclArchive struct {
	Directory    string `hcl:"directory"`
	MinFreeBytes uint64 `hcl:"min_free_bytes,optional"`
}

type hclSpool struct {
	Directory     string   `hcl:"directory,optional"`
	Include       []string `hcl:"include,optional"`
	Ignore        []string `hcl:"ignore,optional"`
	ScanInterval  string   `hcl:"scan_interval,optional"`
	RetryInterval string   `hcl:"retry_interval,optional"`
	MaxRetries    int      `hcl:"max_retries,optional"`
}

type hclLog struct {
	Level      string `hcl:"level,optional"`
	File       string `hcl:"file,optional"`
	MaxSizeMB  int    `hcl:"max_size_mb,optional"`
	MaxBackups int    `hcl:"max_backups,optional"`
	Console    bool   `hcl:"console,optional"`
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func init() {
	Register(&HCLParser{})
}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var raw hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{}
	if raw.Archive != nil {
		cfg.Archive.Directory = raw.Archive.Directory
		cfg.Archive.MinFreeBytes = raw.Archive.MinFreeBytes
	}
	if raw.Spool != nil {
		cfg.Spool.Directory = raw.Spool.Directory
		cfg.Spool.Include = raw.Spool.Include
		cfg.Spool.Ignore = raw.Spool.Ignore
		cfg.Spool.MaxRetries = raw.Spool.MaxRetries
		if raw.Spool.ScanInterval != "" {
			d, err := time.ParseDuration(raw.Spool.ScanInterval)
			if err != nil {
				return nil, errors.Errorf("parsing spool.scan_interval: %w", err)
			}
			cfg.Spool.ScanInterval = d
		}
		if raw.Spool.RetryInterval != "" {
			d, err := time.ParseDuration(raw.Spool.RetryInterval)
			if err != nil {
				return nil, errors.Errorf("parsing spool.retry_interval: %w", err)
			}
			cfg.Spool.RetryInterval = d
		}
	}
	if raw.Log != nil {
		cfg.Log.Level = raw.Log.Level
		cfg.Log.File = raw.Log.File
		cfg.Log.MaxSizeMB = raw.Log.MaxSizeMB
		cfg.Log.MaxBackups = raw.Log.MaxBackups
		cfg.Log.Console = raw.Log.Console
	}

	return cfg, nil
}
