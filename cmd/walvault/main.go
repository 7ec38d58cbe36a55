package main

import (
	"context"
	"os"

	"github.com/bossartn/walvault/cmd/walvault/commands"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	// Base logging until the config is loaded; newRootOpts refines it.
	baseLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &baseLog
	log.Logger = baseLog
	ctx := baseLog.WithContext(context.Background())

	rootCmd := &cobra.Command{
		Use:   "walvault",
		Short: "Durable, crash-safe archiving of append-only log segments",
		Long: `walvault copies log segments from a spool directory into an archive
directory such that a completed copy survives a power loss with its full
contents, and an interrupted copy is never visible under its final name.
Archived names are write-once: walvault never overwrites an archived file.`,
		SilenceUsage: true,
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewArchiveCmd(newRootOpts),
		commands.NewRunCmd(newRootOpts),
		commands.NewStatusCmd(newRootOpts),
		commands.NewCleanCmd(newRootOpts),
		commands.NewServiceCmd(newRootOpts),
		newVersionCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		baseLog.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
