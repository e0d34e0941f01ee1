package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alucardeht/prosaic/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "prosaic %s (protocol %s)\n", version.Version, version.ProtocolVersion)
		},
	}
}
