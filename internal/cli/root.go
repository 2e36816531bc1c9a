// Package cli implements the parcelsurf command-line interface.
//
// Commands:
//   - run: parcellate a synthetic surface and print quality metrics
//   - config init: write a default configuration file
//
// All commands accept --verbose (-v) for debug logging. The logger travels
// in the command context.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Execute runs the parcelsurf CLI with the given arguments
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "parcelsurf",
		Short:        "Parcellate cortical surfaces by region growing",
		Long:         `parcelsurf partitions a triangulated cortical surface into contiguous parcels, inflates the surface and scores the parcellation against functional time series.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(stderr, level)))
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newConfigCmd())

	return root
}
