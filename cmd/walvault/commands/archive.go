package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bossartn/walvault/cmd/walvault/opts"
	"github.com/bossartn/walvault/pkg/stats"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewArchiveCmd creates the one-shot archive command
func NewArchiveCmd(load opts.Loader) *cobra.Command {
	var showStats bool

	cmd := &cobra.Command{
		Use:   "archive SOURCE NAME",
		Short: "Durably archive a single file",
		Long: `Archive copies SOURCE into the configured archive directory under NAME,
durably: the destination only becomes visible after its contents and the
rename itself are flushed to stable storage. If NAME has already been
archived the command fails; archived names are write-once.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			o, err := load(ctx)
			if err != nil {
				return err
			}

			source, name := args[0], args[1]

			start := time.Now()
			if err := o.Archiver.Archive(ctx, source, name); err != nil {
				o.Reporter.SegmentFailed(name, err)
				return errors.Errorf("archiving %q: %w", source, err)
			}
			elapsed := time.Since(start)

			var size int64
			if st, err := os.Stat(filepath.Join(o.Config.Archive.Directory, name)); err == nil {
				size = st.Size()
			}
			o.Reporter.SegmentArchived(name, size, elapsed)

			if showStats {
				var cycle stats.Cycle
				cycle.RecordArchived(name, size, elapsed)
				o.Collector.Report(&cycle)

				snap := o.Collector.Snapshot()
				fmt.Printf("archived: %d  failed: %d  bytes: %d\n",
					snap.ArchivedCount, snap.FailedCount, snap.BytesCopied)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showStats, "stats", false, "print collector totals after archiving")

	return cmd
}
