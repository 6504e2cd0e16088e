package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/roadrunner/internal/config"
	"github.com/oshokin/roadrunner/internal/service/programmer"
	"github.com/oshokin/roadrunner/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// statusAddress overrides the configured HTTP status address.
	statusAddress string

	// rootCmd represents the base command for running the parameter store.
	rootCmd = &cobra.Command{
		Use:   "chip-programmer [address]",
		Short: "Serve chip parameters to remote clients.",
		Long: `Starts the chip programmer: an in-memory parameter store served over gRPC.

Clients GET, PUT, POST and DELETE parameters. The reserved keys "address" and
"keys" hold the bind address and the list of stored keys.
The bind address can be provided as argument to override config (e.g., *:5556).
Parameters live only as long as the process.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use address argument if provided, otherwise rely on config.
			var address string
			if len(args) > 0 {
				address = args[0]
			}

			return programmer.Run(ctx, &programmer.Options{
				ConfigPath:    configPath,
				Address:       address,
				StatusAddress: statusAddress,
			})
		},
	}
)

// Execute runs the chip-programmer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVar(&statusAddress, "status-addr", "", "HTTP address for /status and /metrics, overrides the configuration")
}
