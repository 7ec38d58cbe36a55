package commands

import (
	"github.com/bossartn/walvault/cmd/walvault/opts"
	"github.com/bossartn/walvault/pkg/spool"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewCleanCmd creates the clean command
func NewCleanCmd(load opts.Loader) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove spool segments that are durably archived",
		Long: `Clean deletes spool segments whose marker is done, together with their
markers. Segments without a done marker are never touched: a segment is
only reclaimable once its archive copy is durably committed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			o, err := load(ctx)
			if err != nil {
				return err
			}

			if o.Config.Spool.Directory == "" {
				return errors.New("spool.directory must be configured for clean")
			}

			scanner := spool.NewScanner(o.Config.Spool)

			done, err := scanner.Done(ctx)
			if err != nil {
				return errors.Errorf("scanning spool: %w", err)
			}

			for _, name := range done {
				if dryRun {
					o.Reporter.SegmentSkipped(name, "dry run, would remove")
					continue
				}
				if err := scanner.Remove(ctx, name); err != nil {
					return errors.Errorf("cleaning segment %q: %w", name, err)
				}
				o.Reporter.SegmentSkipped(name, "removed from spool")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list reclaimable segments without removing them")

	return cmd
}
