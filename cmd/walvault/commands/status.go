package commands

import (
	"fmt"
	"time"

	"github.com/bossartn/walvault/cmd/walvault/opts"
	"github.com/bossartn/walvault/pkg/spool"
	"github.com/bossartn/walvault/pkg/stats"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// 🎨 column widths for the status table
const (
	labelWidth = 22
)

// NewStatusCmd creates the status command
func NewStatusCmd(load opts.Loader) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show spool backlog and archiver totals",
		Long: `Status is read-only: it scans the spool for ready and done markers,
loads the persisted statistics snapshot, and prints a summary. With
--check it exits non-zero when a ready backlog exists, for use in
monitoring scripts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			o, err := load(ctx)
			if err != nil {
				return err
			}

			if o.Config.Spool.Directory == "" {
				return errors.New("spool.directory must be configured for status")
			}

			scanner := spool.NewScanner(o.Config.Spool)

			ready, err := scanner.Ready(ctx)
			if err != nil {
				return errors.Errorf("scanning spool: %w", err)
			}
			done, err := scanner.Done(ctx)
			if err != nil {
				return errors.Errorf("scanning spool: %w", err)
			}

			printRow("Spool", o.Config.Spool.Directory, color.FgCyan)
			printRow("Archive", o.Config.Archive.Directory, color.FgCyan)
			printRow("Ready backlog", fmt.Sprintf("%d", len(ready)), backlogColor(len(ready)))
			if len(ready) > 0 {
				printRow("Oldest ready", ready[0].Name, color.FgYellow)
			}
			printRow("Done", fmt.Sprintf("%d", len(done)), color.FgGreen)
			if len(done) > 0 {
				printRow("Newest done", done[len(done)-1], color.FgGreen)
			}

			snap, err := stats.LoadStats(spool.StatsPath(o.Config.Spool.Directory))
			if err == nil {
				printRow("Archived total", fmt.Sprintf("%d", snap.ArchivedCount), color.FgGreen)
				printRow("Failed total", fmt.Sprintf("%d", snap.FailedCount), backlogColor(int(snap.FailedCount)))
				printRow("Bytes copied", fmt.Sprintf("%d", snap.BytesCopied), color.FgCyan)
				if snap.LastArchived.Name != "" {
					printRow("Last archived", fmt.Sprintf("%s (%s)",
						snap.LastArchived.Name,
						snap.LastArchived.Time.Format(time.RFC3339)), color.FgGreen)
				}
				if snap.LastFailed.Name != "" {
					printRow("Last failed", fmt.Sprintf("%s (%s)",
						snap.LastFailed.Name,
						snap.LastFailed.Time.Format(time.RFC3339)), color.FgRed)
				}
			}

			if check && len(ready) > 0 {
				return errors.Errorf("%d segments waiting to be archived", len(ready))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "exit non-zero when a ready backlog exists")

	return cmd
}

// printRow prints one aligned, colored status line
func printRow(label, value string, attr color.Attribute) {
	fmt.Printf("%s %s\n",
		color.New(color.Bold).Sprintf("%-*s", labelWidth, label),
		color.New(attr).Sprint(value))
}

// backlogColor colors counters green at zero, yellow otherwise
func backlogColor(n int) color.Attribute {
	if n == 0 {
		return color.FgGreen
	}
	return color.FgYellow
}
