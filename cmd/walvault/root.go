package main

import (
	"context"
	"io"
	"os"

	"github.com/bossartn/walvault/cmd/walvault/opts"
	"github.com/bossartn/walvault/pkg/archive"
	"github.com/bossartn/walvault/pkg/config"
	"github.com/bossartn/walvault/pkg/report"
	"github.com/bossartn/walvault/pkg/stats"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Flags
	configFile string
	logFile    string
	debug      bool
	quiet      bool
)

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".walvault.hcl", "config file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "rotating JSON log sink (overrides config)")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress console reporting")
}

// newRootOpts loads the configuration, configures logging from it, and
// wires the shared dependencies. Called from each command's RunE so
// flags have been parsed.
func newRootOpts(ctx context.Context) (*opts.RootOpts, error) {
	cfg, path, err := loadConfig(ctx)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	setupLogging(cfg)
	logger := *zerolog.DefaultContextLogger
	ctx = logger.WithContext(ctx)

	return &opts.RootOpts{
		Config:     cfg,
		ConfigPath: path,
		Archiver:   archive.New(cfg.Archive.Directory),
		Collector:  stats.NewCollector(),
		Reporter:   report.New(ctx, quiet),
		Quiet:      quiet,
	}, nil
}

// loadConfig reads the config file when it exists and falls back to
// WALVAULT_* environment variables when it does not.
func loadConfig(ctx context.Context) (*config.Config, string, error) {
	if _, err := os.Stat(configFile); err == nil {
		cfg, err := config.Load(ctx, configFile)
		if err != nil {
			return nil, "", err
		}
		return cfg, configFile, nil
	}

	zerolog.Ctx(ctx).Debug().Str("path", configFile).Msg("config file not found, using environment")
	cfg, err := config.FromEnv(ctx)
	if err != nil {
		return nil, "", err
	}
	return cfg, "", nil
}

// setupLogging configures zerolog from the loaded config and flags: a
// console writer on stderr, plus a rotating JSON file sink when one is
// configured.
func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	sink := logFile
	if sink == "" {
		sink = cfg.Log.File
	}

	var writers []io.Writer
	if cfg.Log.Console || sink == "" {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if sink != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   sink,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		})
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger().Level(level)
	zerolog.DefaultContextLogger = &log
}
