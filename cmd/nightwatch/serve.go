package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nightwatch/internal/daemon"
	"nightwatch/internal/logging"
	"nightwatch/internal/shifts"
	"nightwatch/internal/store"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Nightwatch daemon (HTTP API and daily backups)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			st, err := store.Open(cfg)
			if err != nil {
				logger.Error("open store", logging.Error(err))
				return err
			}

			service := shifts.NewService(st, logger)
			d, err := daemon.New(cfg, st, service, logger)
			if err != nil {
				_ = st.Close()
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return err
			}

			<-signalCtx.Done()
			logger.Info("nightwatch daemon shutting down")
			d.Stop()
			return nil
		},
	}
}
