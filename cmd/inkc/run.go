package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ink "github.com/inkvm/ink"
	"github.com/inkvm/ink/hostapi"
)

func newRunCmd() *cobra.Command {
	var inputHex string
	var inkBudget uint64
	var inkPrice uint32

	cmd := &cobra.Command{
		Use:   "run <wasm-file>",
		Short: "Compile, link against an in-memory stub host, and invoke user_entrypoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wasmBytes, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			input, err := hex.DecodeString(inputHex)
			if err != nil {
				return fmt.Errorf("--input: invalid hex: %w", err)
			}

			cfg := ink.NewRuntimeConfig().WithInkPrice(inkPrice).WithLogger(logger)
			compiled, err := ink.CompileModule(wasmBytes, cfg)
			if err != nil {
				return fmt.Errorf("compile failed: %w", err)
			}

			evmApi := hostapi.NewStubEvmApi()
			data := &hostapi.EvmData{TxInkPrice: inkPrice}
			program, err := ink.Link(compiled, evmApi, data, nil)
			if err != nil {
				return fmt.Errorf("link failed: %w", err)
			}

			outcome, err := program.Invoke(inkBudget, input)
			if err != nil {
				return fmt.Errorf("invoke escaped: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status:       %s\n", outcome.Status)
			fmt.Fprintf(out, "ink consumed: %d\n", outcome.InkConsumed)
			fmt.Fprintf(out, "gas consumed: %d\n", outcome.GasConsumed)
			if outcome.FailureReason != "" {
				fmt.Fprintf(out, "reason:       %s\n", outcome.FailureReason)
			}
			if outcome.Output != nil {
				fmt.Fprintf(out, "output:       0x%s\n", hex.EncodeToString(outcome.Output))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputHex, "input", "", "hex-encoded calldata (without 0x prefix)")
	cmd.Flags().Uint64Var(&inkBudget, "ink", 10_000_000, "ink budget for this invocation")
	cmd.Flags().Uint32Var(&inkPrice, "ink-price", 1, "ink-per-gas conversion rate")
	return cmd
}
