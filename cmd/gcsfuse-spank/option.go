package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/config"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/spank"
)

// newOptionCommand handles one submission-side `--gcsfuse-mount=ARG`
// occurrence. The updated accumulator is printed on stdout so the
// plugstack shim can export it into the job environment.
func newOptionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "option SPEC[;SPEC...]",
		Short: "Record one --gcsfuse-mount occurrence into " + spank.MountsEnv,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plugin := spank.NewPlugin(config.Default())
			ctx := spank.NewEnvContext(spank.ContextLocal, 0, 0)
			if err := plugin.Init(ctx); err != nil {
				return err
			}
			if err := plugin.OptionCallback(ctx, 1, args[0], false); err != nil {
				return fmt.Errorf("--%s=%s rejected: %w", spank.OptionName, args[0], err)
			}
			fmt.Fprintln(os.Stdout, ctx.Getenv(spank.MountsEnv))
			return nil
		},
	}
}
