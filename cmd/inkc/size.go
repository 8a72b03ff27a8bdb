package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/andybalholm/brotli"
	"github.com/spf13/cobra"

	ink "github.com/inkvm/ink"
)

// onChainArtifactBudget is the maximum brotli-compressed program size a
// deployment may occupy on chain (spec §6).
const onChainArtifactBudget = 24576

func newSizeCmd() *cobra.Command {
	var skipValidate bool

	cmd := &cobra.Command{
		Use:   "size <wasm-file>",
		Short: "Report brotli-compressed size against the on-chain artifact budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wasmBytes, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			if !skipValidate {
				if _, err := ink.CompileModule(wasmBytes, ink.NewRuntimeConfig().WithLogger(logger)); err != nil {
					return fmt.Errorf("refusing to size an invalid module: %w", err)
				}
			}

			var compressed bytes.Buffer
			w := brotli.NewWriterLevel(&compressed, brotli.BestCompression)
			if _, err := w.Write(wasmBytes); err != nil {
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "raw size:        %d bytes\n", len(wasmBytes))
			fmt.Fprintf(out, "compressed size: %d bytes\n", compressed.Len())
			fmt.Fprintf(out, "budget:          %d bytes\n", onChainArtifactBudget)
			if compressed.Len() > onChainArtifactBudget {
				fmt.Fprintf(out, "over budget by:  %d bytes\n", compressed.Len()-onChainArtifactBudget)
				return fmt.Errorf("compressed size %d exceeds on-chain budget %d", compressed.Len(), onChainArtifactBudget)
			}
			fmt.Fprintf(out, "headroom:        %d bytes\n", onChainArtifactBudget-compressed.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "report size without compiling/validating first")
	return cmd
}
