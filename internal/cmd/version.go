package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stateful/blocky/internal/version"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := cobra.Command{
		Use:   "version",
		Short: "Print the version of blocky.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.BaseVersion())
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Summary(cmd.Root().Name()))
			return err
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the major and minor version.")

	return &cmd
}
