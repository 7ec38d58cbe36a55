package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bossartn/walvault/cmd/walvault/opts"
	"github.com/bossartn/walvault/pkg/spool"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// NewRunCmd creates the daemon command
func NewRunCmd(load opts.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drain the spool continuously",
		Long: `Run watches the spool's marker directory and archives every segment
marked ready, oldest first, until interrupted. Each segment is durably
committed to the archive before its marker flips to done.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			o, err := load(ctx)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runDaemon(ctx, o)
		},
	}

	return cmd
}

// runDaemon is the shared daemon body, used by both the run command and
// the service wrapper. It returns nil on a clean shutdown.
func runDaemon(ctx context.Context, o *opts.RootOpts) error {
	if o.Config.Spool.Directory == "" {
		return errors.New("spool.directory must be configured to run the daemon")
	}

	// The marker directory has to exist before producers and the
	// watcher can use it.
	if err := os.MkdirAll(spool.StatusDir(o.Config.Spool.Directory), 0o755); err != nil {
		return errors.Errorf("creating status directory: %w", err)
	}

	o.Reporter.Banner("walvault " + o.Config.String())

	watcher := spool.NewWatcher(spool.StatusDir(o.Config.Spool.Directory), o.Config.Spool.ScanInterval)
	wake, err := watcher.Start(ctx)
	if err != nil {
		return err
	}
	defer watcher.Close()

	runner := spool.NewRunner(o.Config, o.Archiver, o.Collector, o.Reporter)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(gctx, wake)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
