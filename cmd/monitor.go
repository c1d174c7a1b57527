// SPDX-License-Identifier: MIT
package cmd

import (
	"audioviz/internal/config"
	"audioviz/internal/log"
	"audioviz/internal/transport"
	"audioviz/internal/transport/udp"
	"audioviz/internal/tui"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newMonitorCommand(opts *options) *cobra.Command {
	var listen string

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Show telemetry received over UDP from another instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			listener, err := udp.Listen(listen)
			if err != nil {
				return err
			}
			defer listener.Close()
			log.Infof("Monitor: listening on %s", listener.Addr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			var mirror transport.Mirror
			errCh := make(chan error, 1)
			go func() {
				errCh <- listener.Receive(ctx, mirror.Update)
			}()

			uiErr := tui.RunMonitor(ctx, &mirror, tui.MonitorOptions{
				Title:   "monitor " + listener.Addr().String(),
				Refresh: cfg.Display.Refresh,
			})
			cancel()
			if err := <-errCh; err != nil {
				return err
			}
			return uiErr
		},
	}

	monitorCmd.Flags().StringVar(&listen, "listen", config.DefaultUDPTarget,
		"UDP address to receive telemetry on")
	return monitorCmd
}
