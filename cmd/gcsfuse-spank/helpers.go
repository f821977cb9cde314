package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/config"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mounter"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mountprobe"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mountspec"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/util"
)

// newProbeCommand is the privilege-dropping prober child spawned by
// mountprobe.AsUser. It stays quiet and answers through its exit status
// only: 0 mounted, 1 not mounted, 2 probe failure.
func newProbeCommand() *cobra.Command {
	var uid, gid uint32

	cmd := &cobra.Command{
		Use:    "probe PATH",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if os.Geteuid() == 0 {
				if err := util.DropPrivileges(uid, gid); err != nil {
					os.Exit(mountprobe.ExitProbeError)
				}
			}
			mounted, err := mountprobe.IsMountPoint(args[0])
			switch {
			case err != nil:
				os.Exit(mountprobe.ExitProbeError)
			case mounted:
				os.Exit(mountprobe.ExitMounted)
			default:
				os.Exit(mountprobe.ExitNotMounted)
			}
		},
	}

	cmd.Flags().Uint32Var(&uid, "uid", 0, "User id to probe as")
	cmd.Flags().Uint32Var(&gid, "gid", 0, "Group id to probe as")
	return cmd
}

// newMountHelperCommand is the mount child spawned by the lifecycle
// manager. On success the process becomes the gcsfuse daemon and this
// command never returns.
func newMountHelperCommand() *cobra.Command {
	var (
		uid, gid    uint32
		rawSpec     string
		gcsfusePath string
		loggerPath  string
	)

	cmd := &cobra.Command{
		Use:    mounter.HelperSubcommand,
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := mountspec.Parse(rawSpec)
			if err != nil {
				return err
			}
			return mounter.RunHelper(mounter.HelperOptions{
				Uid:         uid,
				Gid:         gid,
				Spec:        spec,
				GcsfusePath: gcsfusePath,
				LoggerPath:  loggerPath,
			})
		},
	}

	cmd.Flags().Uint32Var(&uid, "uid", 0, "Job user id")
	cmd.Flags().Uint32Var(&gid, "gid", 0, "Job group id")
	cmd.Flags().StringVar(&rawSpec, "spec", "", "Serialized mount spec")
	cmd.Flags().StringVar(&gcsfusePath, "gcsfuse-path", config.Default().GcsfusePath, "gcsfuse binary")
	cmd.Flags().StringVar(&loggerPath, "logger-path", config.Default().LoggerPath, "log forwarder binary")
	return cmd
}

// newListMountsCommand prints the gcsfuse mounts currently visible on
// this node, one per line.
func newListMountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-mounts",
		Short: "List live gcsfuse mounts on this node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mounts, err := mountprobe.ListGCSFuseMounts()
			if err != nil {
				return err
			}
			for _, m := range mounts {
				fmt.Fprintf(os.Stdout, "%s\t%s\t%s\n", m.Mountpoint, m.Source, m.Options)
			}
			return nil
		},
	}
}
