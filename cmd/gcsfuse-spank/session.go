package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/spank"
)

// newSessionCommand owns the execution side of one job step: it performs
// the UserInit mounts, then blocks until the plugstack shim signals step
// exit, then tears everything down. Running both phases in one process
// keeps the session mount table in memory, the way the in-process
// plug-in instance would.
func newSessionCommand() *cobra.Command {
	var uid, gid uint32

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Mount for a step, wait for SIGTERM, tear down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("uid") || !cmd.Flags().Changed("gid") {
				envUid, envGid, err := spank.JobUserFromEnv()
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("uid") {
					uid = envUid
				}
				if !cmd.Flags().Changed("gid") {
					gid = envGid
				}
			}

			plugin := spank.NewPlugin(cfg)
			ctx := spank.NewEnvContext(spank.ContextRemote, uid, gid)
			if err := plugin.Init(ctx); err != nil {
				return err
			}

			mountErr := plugin.UserInit(ctx)
			if mountErr != nil {
				// The step must not start; release whatever did come up.
				klog.Errorf("Mount phase failed: %v", mountErr)
				plugin.Exit(ctx)
				return mountErr
			}

			waitForStepExit()
			plugin.Exit(ctx)
			return nil
		},
	}

	cmd.Flags().Uint32Var(&uid, "uid", 0, "Job user id (default $SLURM_JOB_UID)")
	cmd.Flags().Uint32Var(&gid, "gid", 0, "Job group id (default $SLURM_JOB_GID)")
	return cmd
}

func waitForStepExit() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, unix.SIGTERM, unix.SIGINT)
	sig := <-signals
	klog.Infof("Received %s, tearing down mounts", sig)
}
