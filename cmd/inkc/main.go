// Command inkc is an offline tool for validating and instrumenting a wasm
// binary against the engine, without a chain embedder: check reports
// whether a binary decodes, validates and instruments cleanly, run links it against an in-memory stub host and executes it, and size
// reports its brotli-compressed footprint against the on-chain artifact
// budget.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logger = logrus.New()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "inkc",
		Short:         "Offline validation and instrumentation tool for ink programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	verbose := root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *verbose {
			logger.SetLevel(logrus.DebugLevel)
		}
	}
	root.AddCommand(newCheckCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newSizeCmd())
	root.AddCommand(newHashCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.WithError(err).Error("inkc: failed")
		os.Exit(1)
	}
}
