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

package config_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bossartn/walvault/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 🧪 testContext returns a context carrying a test logger.
func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

// 🧪 writeConfig writes content to a file with the given name inside a
// temp dir and returns its path.
func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// 🧪 TestLoadFormats loads an equivalent config in every supported
// format and checks they decode identically.
func TestLoadFormats(t *testing.T) {
	archiveDir := t.TempDir()
	spoolDir := t.TempDir()

	hclSrc := fmt.Sprintf(`
archive {
  directory      = %q
  min_free_bytes = 4096
}

spool {
  directory     = %q
  include       = ["*.seg"]
  ignore        = ["*.tmp"]
  scan_interval = "5s"
  max_retries   = 2
}

log {
  level = "debug"
}
`, archiveDir, spoolDir)

	yamlSrc := fmt.Sprintf(`
archive:
  directory: %q
  min_free_bytes: 4096
spool:
  directory: %q
  include: ["*.seg"]
  ignore: ["*.tmp"]
  scan_interval: 5s
  max_retries: 2
log:
  level: debug
`, archiveDir, spoolDir)

	jsonSrc := fmt.Sprintf(`{
  "archive": {"directory": %q, "min_free_bytes": 4096},
  "spool": {"directory": %q, "include": ["*.seg"], "ignore": ["*.tmp"], "scan_interval": "5s", "max_retries": 2},
  "log": {"level": "debug"}
}`, archiveDir, spoolDir)

	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{name: "hcl", filename: "walvault.hcl", content: hclSrc},
		{name: "yaml", filename: "walvault.yaml", content: yamlSrc},
		{name: "yml", filename: "walvault.yml", content: yamlSrc},
		{name: "json", filename: "walvault.json", content: jsonSrc},
		{name: "walvault_ext_yaml", filename: "config.walvault", content: yamlSrc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.filename, tt.content)

			cfg, err := config.Load(testContext(t), path)
			require.NoError(t, err)

			assert.Equal(t, archiveDir, cfg.Archive.Directory)
			assert.Equal(t, uint64(4096), cfg.Archive.MinFreeBytes)
			assert.Equal(t, spoolDir, cfg.Spool.Directory)
			assert.Equal(t, []string{"*.seg"}, cfg.Spool.Include)
			assert.Equal(t, []string{"*.tmp"}, cfg.Spool.Ignore)
			assert.Equal(t, 5*time.Second, cfg.Spool.ScanInterval)
			assert.Equal(t, 2, cfg.Spool.MaxRetries)
			assert.Equal(t, "debug", cfg.Log.Level)

			// Unset fields pick up defaults during validation.
			assert.Equal(t, config.DefaultRetryInterval, cfg.Spool.RetryInterval)
		})
	}
}

// 🧪 TestLoadErrors covers the load failure modes.
func TestLoadErrors(t *testing.T) {
	ctx := testContext(t)
	archiveDir := t.TempDir()

	t.Run("missing_file", func(t *testing.T) {
		_, err := config.Load(ctx, filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown_extension", func(t *testing.T) {
		path := writeConfig(t, "walvault.toml", "anything")
		_, err := config.Load(ctx, path)
		assert.ErrorContains(t, err, "no parser found")
	})

	t.Run("unknown_yaml_field", func(t *testing.T) {
		path := writeConfig(t, "walvault.yaml", fmt.Sprintf(`
archive:
  directory: %q
  compression: lz4
`, archiveDir))
		_, err := config.Load(ctx, path)
		assert.Error(t, err)
	})

	t.Run("unknown_json_field", func(t *testing.T) {
		path := writeConfig(t, "walvault.json",
			fmt.Sprintf(`{"archive": {"directory": %q}, "transport": {}}`, archiveDir))
		_, err := config.Load(ctx, path)
		assert.Error(t, err)
	})

	t.Run("bad_duration", func(t *testing.T) {
		path := writeConfig(t, "walvault.yaml", fmt.Sprintf(`
archive:
  directory: %q
spool:
  scan_interval: often
`, archiveDir))
		_, err := config.Load(ctx, path)
		assert.ErrorContains(t, err, "scan_interval")
	})

	t.Run("archive_directory_missing", func(t *testing.T) {
		path := writeConfig(t, "walvault.yaml", `
archive:
  directory: /no/such/walvault/dir
`)
		_, err := config.Load(ctx, path)
		assert.Error(t, err)
	})

	t.Run("bad_glob", func(t *testing.T) {
		path := writeConfig(t, "walvault.yaml", fmt.Sprintf(`
archive:
  directory: %q
spool:
  include: ["[unterminated"]
`, archiveDir))
		_, err := config.Load(ctx, path)
		assert.ErrorContains(t, err, "does not compile")
	})
}

// 🧪 TestValidateDefaults checks the default fill-in and the structural
// checks that do not need the filesystem.
func TestValidateDefaults(t *testing.T) {
	cfg := &config.Config{}
	cfg.Archive.Directory = t.TempDir()

	require.NoError(t, cfg.Validate(testContext(t)))

	assert.Equal(t, config.DefaultScanInterval, cfg.Spool.ScanInterval)
	assert.Equal(t, config.DefaultRetryInterval, cfg.Spool.RetryInterval)
	assert.Equal(t, config.DefaultMaxRetries, cfg.Spool.MaxRetries)
	assert.Equal(t, config.DefaultLogLevel, cfg.Log.Level)
}

// 🧪 TestFromEnv builds a config from environment variables.
func TestFromEnv(t *testing.T) {
	archiveDir := t.TempDir()
	spoolDir := t.TempDir()

	t.Setenv("WALVAULT_ARCHIVE_DIR", archiveDir)
	t.Setenv("WALVAULT_ARCHIVE_MIN_FREE_BYTES", "8192")
	t.Setenv("WALVAULT_SPOOL_DIR", spoolDir)
	t.Setenv("WALVAULT_SPOOL_INCLUDE", "*.seg, *.wal")
	t.Setenv("WALVAULT_SCAN_INTERVAL", "30s")
	t.Setenv("WALVAULT_MAX_RETRIES", "5")
	t.Setenv("WALVAULT_LOG_LEVEL", "warn")

	cfg, err := config.FromEnv(testContext(t))
	require.NoError(t, err)

	assert.Equal(t, archiveDir, cfg.Archive.Directory)
	assert.Equal(t, uint64(8192), cfg.Archive.MinFreeBytes)
	assert.Equal(t, spoolDir, cfg.Spool.Directory)
	assert.Equal(t, []string{"*.seg", "*.wal"}, cfg.Spool.Include)
	assert.Equal(t, 30*time.Second, cfg.Spool.ScanInterval)
	assert.Equal(t, 5, cfg.Spool.MaxRetries)
	assert.Equal(t, "warn", cfg.Log.Level)
}

// 🧪 TestFromEnvBadValues checks malformed environment values fail.
func TestFromEnvBadValues(t *testing.T) {
	t.Setenv("WALVAULT_ARCHIVE_DIR", t.TempDir())
	t.Setenv("WALVAULT_SCAN_INTERVAL", "sometimes")

	_, err := config.FromEnv(testContext(t))
	assert.ErrorContains(t, err, "WALVAULT_SCAN_INTERVAL")
}
