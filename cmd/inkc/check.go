package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ink "github.com/inkvm/ink"
)

func newCheckCmd() *cobra.Command {
	var inkPrice uint32
	var maxDepth uint32
	var pageLimit uint32
	var countOps bool

	cmd := &cobra.Command{
		Use:   "check <wasm-file>",
		Short: "Decode, validate, and instrument a wasm binary without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wasmBytes, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			cfg := ink.NewRuntimeConfig().
				WithInkPrice(inkPrice).
				WithMaxDepth(maxDepth).
				WithPageLimit(pageLimit).
				WithCountingOps(countOps).
				WithLogger(logger)

			if _, err := ink.CompileModule(wasmBytes, cfg); err != nil {
				return fmt.Errorf("check failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s compiles and instruments cleanly\n", args[0])
			return nil
		},
	}

	cmd.Flags().Uint32Var(&inkPrice, "ink-price", 1, "ink-per-gas conversion rate")
	cmd.Flags().Uint32Var(&maxDepth, "max-depth", 4*1024, "call-stack depth budget in words")
	cmd.Flags().Uint32Var(&pageLimit, "page-limit", 2*1024, "maximum linear memory pages")
	cmd.Flags().BoolVar(&countOps, "count-ops", false, "enable the debug opcode counter pass")
	return cmd
}
