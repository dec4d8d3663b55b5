// cmd/ecycle/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ecycle-workers/internal/common/logger"

	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	configFile string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ecycle",
		Short: "Offline tooling for the e-waste workers",
		Long: `ecycle runs the classifier and value estimator locally, validates the
activity registry and manages the facility directory.

Inputs use the same JSON documents the workers accept as job variables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: configs/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "console", "log format (console, json)")

	cmd.AddCommand(estimateCmd(opts))
	cmd.AddCommand(classifyCmd(opts))
	cmd.AddCommand(registryCmd(opts))
	cmd.AddCommand(facilitiesCmd(opts))
	cmd.AddCommand(versionCmd())

	return cmd
}

func (o *rootOptions) logger() logger.Logger {
	return logger.NewStructured(logger.Options{
		Level:  o.logLevel,
		Format: o.logFormat,
		Output: "stderr",
	})
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
