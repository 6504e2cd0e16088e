package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/roadrunner/internal/config"
	"github.com/oshokin/roadrunner/internal/service/watch"
	"github.com/oshokin/roadrunner/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// threshold overrides the configured minimum signal.
	threshold float64
	// statusAddress overrides the configured HTTP status address.
	statusAddress string
	// allowMultiple skips the single-instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the interlock monitor.
	rootCmd = &cobra.Command{
		Use:   "blockwatch",
		Short: "Block the beam when the RoadRunner loses signal.",
		Long: `Watches the RoadRunner analog input and the event sequencer and drives the
attenuator filter used as a blocker.

When the signal drops below the threshold while the sequencer is running, the
filter is inserted and the hard trip flag is raised. When the signal drops while
the sequencer is idle, only the soft trip flag is raised. A returning signal
removes the filter and clears both flags. The filter is only moved while the
enable flag is set.

Process variables are read from and written to the Redis bus in the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return watch.Run(ctx, &watch.Options{
				ConfigPath:    configPath,
				Threshold:     threshold,
				StatusAddress: statusAddress,
				AllowMultiple: allowMultiple,
			})
		},
	}
)

// Execute runs the blockwatch CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		Float64VarP(&threshold, "threshold", "t", 0, "minimum acceptable signal, overrides the configuration")
	rootCmd.Flags().
		StringVar(&statusAddress, "status-addr", "", "HTTP address for /status and /metrics, overrides the configuration")

	// Hidden flag for running a second monitor against a test bus.
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single-instance check")

	err := rootCmd.Flags().MarkHidden("allow-multiple")
	if err != nil {
		panic(err)
	}
}
