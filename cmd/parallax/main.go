// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relabs-tech/motion_parallax/internal/app"
	"github.com/relabs-tech/motion_parallax/internal/config"
	"github.com/relabs-tech/motion_parallax/internal/logging"
)

var (
	configPath string
	devLogs    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parallax",
		Short:         "Motion driven parallax offsets over MQTT",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "parallax_config.txt", "path to the KEY=VALUE config file")
	root.PersistentFlags().BoolVar(&devLogs, "dev", false, "human readable development logging")

	root.AddCommand(
		serviceCmd("producer", "Sample the motion sensor and publish offsets", app.RunProducer),
		serviceCmd("web", "Serve the latest offset over HTTP and websocket", app.RunWeb),
		serviceCmd("console", "Print offsets and orientation changes from MQTT", app.RunConsoleMQTT),
		serviceCmd("display", "Draw the parallax card on an SSD1306 OLED", app.RunDisplay),
		mockCmd(),
	)
	return root
}

// serviceCmd wraps a config driven service in a subcommand that loads the
// config, sets up logging and runs until interrupted.
func serviceCmd(use, short string, run func(context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.InitGlobal(configPath); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return setupLogging(config.Get().LogLevel)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer zap.L().Sync() //nolint:errcheck
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			zap.L().Info("starting", zap.String("service", use), zap.String("config", configPath))
			return run(ctx)
		},
	}
}

func mockCmd() *cobra.Command {
	var (
		opts  app.MockOptions
		level string
	)
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Run the pipeline on simulated motion and print offsets",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(level)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer zap.L().Sync() //nolint:errcheck
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			opts.Out = cmd.OutOrStdout()
			return app.RunMockConsole(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Variant, "variant", "accelerometer", "pipeline variant: accelerometer or gyroscope")
	cmd.Flags().DurationVar(&opts.Rotate, "rotate", 3*time.Second, "how often to rotate the simulated device (0 disables)")
	cmd.Flags().StringVar(&level, "log-level", "info", "log level")
	return cmd
}

func setupLogging(level string) error {
	logger, err := logging.New(level, devLogs)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}
