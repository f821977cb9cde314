package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the plug-in version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := version.GetVersionJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, info)
			return nil
		},
	}
}
