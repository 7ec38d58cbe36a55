package opts

import (
	"context"

	"github.com/bossartn/walvault/pkg/archive"
	"github.com/bossartn/walvault/pkg/config"
	"github.com/bossartn/walvault/pkg/report"
	"github.com/bossartn/walvault/pkg/stats"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Config     *config.Config
	ConfigPath string // empty when the config came from the environment
	Archiver   *archive.Archiver
	Collector  *stats.Collector
	Reporter   *report.Reporter
	Quiet      bool
}

// Loader builds RootOpts after flag parsing; commands call it from
// their RunE so the config flag has been resolved by then.
type Loader func(ctx context.Context) (*RootOpts, error)
