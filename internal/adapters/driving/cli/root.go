// Package cli implements the docq command line interface.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oakum-labs/docq-cli/internal/logger"
)

// version is set from main via Execute.
var version = "dev"

var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "docq",
	Short: "Question answering over your own documents",
	Long: `docq ingests text documents into a local vector index and answers
questions about them using a retrieval-augmented language model.

Documents are chunked, embedded and stored locally. At query time the
most relevant chunks are retrieved and handed to the configured model
as grounding context.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.docq)")
}

// Execute runs the root command. Interrupt and termination signals
// cancel the command context so watch and serve modes shut down cleanly.
func Execute(v string) error {
	if v != "" {
		version = v
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}
