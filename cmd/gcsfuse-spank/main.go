// `gcsfuse-spank` is the per-step helper behind the gcsfuse SPANK
// plug-in. A thin plugstack shim drives it: `option` handles one
// `--gcsfuse-mount` occurrence at submission time, and `session` owns
// the execution side of a step, establishing the requested mounts before
// the user task and tearing them down when the shim signals step exit.
//
// The hidden `probe` and `mount-helper` subcommands are re-exec entry
// points for the plug-in's own privilege-dropping children; they are not
// part of the operator surface.
package main

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/config"
)

var configPath string

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	rootCmd := &cobra.Command{
		Use:           "gcsfuse-spank",
		Short:         "gcsfuse mounts around Slurm job steps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Plug-in configuration file (default "+config.DefaultPath+")")

	rootCmd.AddCommand(
		newOptionCommand(),
		newSessionCommand(),
		newListMountsCommand(),
		newVersionCommand(),
		newProbeCommand(),
		newMountHelperCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		klog.Errorf("%v", err)
		klog.Flush()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
