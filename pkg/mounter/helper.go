package mounter

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/config"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/gcsfuse"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mountspec"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/util"
)

// HelperSubcommand is the hidden cmd/gcsfuse-spank subcommand that runs
// [RunHelper] in a fresh child process.
const HelperSubcommand = "mount-helper"

// HelperOptions parameterizes one mount helper run.
type HelperOptions struct {
	Uid  uint32
	Gid  uint32
	Spec mountspec.Spec

	GcsfusePath string
	LoggerPath  string
}

// RunHelper is the body of the mount child. It assumes the job user's
// identity, sets HOME from the user's passwd entry, validates the target
// directory, wires stdout and stderr into a syslog forwarder, and then
// replaces itself with the gcsfuse daemon. On success it does not
// return; any return is a failure the parent observes as an early child
// exit.
func RunHelper(opts HelperOptions) error {
	if os.Geteuid() == 0 {
		if err := util.DropPrivileges(opts.Uid, opts.Gid); err != nil {
			return err
		}
	}

	setHome(opts.Uid)

	if err := ValidateTarget(opts.Spec.MountPoint, opts.Uid); err != nil {
		return err
	}

	if err := forwardOutputToSyslog(opts.LoggerPath); err != nil {
		return fmt.Errorf("mounter: cannot set up log forwarding: %w", err)
	}

	argv := append([]string{opts.GcsfusePath},
		gcsfuse.Invocation{Uid: opts.Uid, Gid: opts.Gid, Spec: opts.Spec}.Argv()...)
	if err := unix.Exec(opts.GcsfusePath, argv, os.Environ()); err != nil {
		return fmt.Errorf("mounter: exec %s: %w", opts.GcsfusePath, err)
	}
	return nil
}

// setHome points HOME at the job user's home directory. The daemon's
// credential lookup may read configuration under $HOME, so this is
// preserved, but a user without a passwd entry is not an error.
func setHome(uid uint32) {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		klog.V(4).Infof("No passwd entry for uid %d, leaving HOME alone: %v", uid, err)
		return
	}
	if u.HomeDir != "" {
		os.Setenv("HOME", u.HomeDir)
	}
}

// forwardOutputToSyslog starts the system log forwarder reading a pipe
// and moves this process's stdout and stderr onto the pipe's write end,
// with stdin redirected from the null device. The forwarder stays a
// child of the daemon after exec.
func forwardOutputToSyslog(loggerPath string) error {
	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	logger := exec.Command(loggerPath, "-t", config.LoggerTag, "-p", config.LoggerPriority)
	logger.Stdin = r
	if err := logger.Start(); err != nil {
		r.Close()
		w.Close()
		return err
	}
	r.Close()

	if err := unix.Dup2(int(w.Fd()), 1); err != nil {
		w.Close()
		return err
	}
	if err := unix.Dup2(int(w.Fd()), 2); err != nil {
		w.Close()
		return err
	}
	w.Close()

	devnull, err := os.Open(os.DevNull)
	if err != nil {
		return err
	}
	if err := unix.Dup2(int(devnull.Fd()), 0); err != nil {
		devnull.Close()
		return err
	}
	devnull.Close()
	return nil
}
