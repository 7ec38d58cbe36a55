package commands

import (
	"context"

	"github.com/bossartn/walvault/cmd/walvault/opts"
	"github.com/kardianos/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewServiceCmd creates the system-service command
func NewServiceCmd(load opts.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "service [install|uninstall|start|stop|run]",
		Short:     "Manage walvault as a system service",
		Long:      `Service installs and controls walvault as a system service running the daemon.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"install", "uninstall", "start", "stop", "run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			o, err := load(ctx)
			if err != nil {
				return err
			}

			svcConfig := &service.Config{
				Name:        "walvault",
				DisplayName: "walvault archiver",
				Description: "Durably archives log segments from the spool into the archive directory.",
				Arguments:   serviceArguments(o),
			}

			prg := &program{ctx: ctx, opts: o}
			svc, err := service.New(prg, svcConfig)
			if err != nil {
				return errors.Errorf("creating service: %w", err)
			}

			action := args[0]
			if action == "run" {
				return svc.Run()
			}

			if err := service.Control(svc, action); err != nil {
				return errors.Errorf("service %s: %w", action, err)
			}
			return nil
		},
	}

	return cmd
}

// serviceArguments builds the argv the installed service starts with,
// carrying the config path through when one was used.
func serviceArguments(o *opts.RootOpts) []string {
	args := []string{"service", "run"}
	if o.ConfigPath != "" {
		args = append(args, "--config", o.ConfigPath)
	}
	return args
}

// program adapts the daemon to the service lifecycle: Start launches
// the daemon in the background, Stop cancels it and waits.
type program struct {
	ctx    context.Context
	opts   *opts.RootOpts
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(p.ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		if err := runDaemon(ctx, p.opts); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("daemon exited")
		}
	}()

	return nil
}

func (p *program) Stop(s service.Service) error {
	p.cancel()
	<-p.done
	return nil
}
