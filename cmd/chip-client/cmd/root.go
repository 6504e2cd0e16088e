package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/roadrunner/internal/config"
	"github.com/oshokin/roadrunner/internal/domain/chip"
	"github.com/oshokin/roadrunner/internal/service/client"
	"github.com/oshokin/roadrunner/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// address overrides the configured chip programmer address.
	address string

	// rootCmd represents the base command for talking to a chip programmer.
	rootCmd = &cobra.Command{
		Use:   "chip-client",
		Short: "Read and stage parameters on a chip programmer.",
		Long: `Sends one request to a chip programmer and prints the result as JSON.

Values given as key=value are parsed as JSON, anything else is sent as a string.
The server address defaults to the programmer address in the configuration file.`,
		SilenceUsage: true,
	}
)

// send runs a single request with signal-aware cancellation.
func send(cmd *cobra.Command, req chip.Request) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return client.Run(ctx, &client.Options{
		ConfigPath: configPath,
		Address:    address,
		Request:    req,
		Output:     cmd.OutOrStdout(),
	})
}

// keyCommand builds a command taking a single key.
func keyCommand(use, short string, command chip.Command) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <key>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, chip.Request{Command: command, Payload: args[0]})
		},
	}
}

// mappingCommand builds a command taking key=value pairs.
func mappingCommand(use, short string, command chip.Command) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <key=value>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := client.ParseAssignments(args)
			if err != nil {
				return err
			}

			return send(cmd, chip.Request{Command: command, Payload: info})
		},
	}
}

// Execute runs the chip-client CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&address, "address", "a", "", "chip programmer address, overrides the configuration")

	rootCmd.AddCommand(
		keyCommand("get", "Print the value stored under a key.", chip.CommandGet),
		mappingCommand("put", "Overwrite existing parameters.", chip.CommandPut),
		mappingCommand("post", "Add new parameters.", chip.CommandPost),
		keyCommand("delete", "Remove a parameter.", chip.CommandDelete),
		&cobra.Command{
			Use:   "keys",
			Short: "List every stored key.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return send(cmd, chip.Request{Command: chip.CommandGet, Payload: chip.KeyIndex})
			},
		},
	)
}
