package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkvm/ink/hostapi"
)

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the Keccak-256 digest of a file's contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			digest := hostapi.Keccak256(data)
			fmt.Fprintf(cmd.OutOrStdout(), "0x%s\n", hex.EncodeToString(digest[:]))
			return nil
		},
	}
}
