// Package mountprobe decides whether a path is currently a filesystem
// boundary. It tolerates FUSE endpoints whose daemon has died: those must
// still count as mounted so teardown gets a chance to unmount them.
package mountprobe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
	"k8s.io/mount-utils"
)

// Exit codes of the privilege-dropping probe child, see [AsUser].
const (
	ExitMounted    = 0
	ExitNotMounted = 1
	ExitProbeError = 2
)

// IsMountPoint reports whether `path` is a mount boundary.
//
// A stat failure that k8s.io/mount-utils classifies as a corrupted mount
// is reported as mounted: a disconnected transport endpoint or a stale
// handle (a FUSE mount whose backing daemon is gone), and also EIO,
// EACCES and EHOSTDOWN.
// Otherwise the path must be a directory, and it is a boundary iff its
// parent lives on a different device, or degenerately iff the parent
// resolves to the very same inode (root of a filesystem).
func IsMountPoint(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if mount.IsCorruptedMnt(err) {
			return true, nil
		}
		return false, fmt.Errorf("mountprobe: stat %s: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return false, nil
	}

	clean := filepath.Clean(path)
	if clean == "/" {
		return true, nil
	}

	var parent unix.Stat_t
	if err := unix.Stat(clean+"/..", &parent); err != nil {
		return false, fmt.Errorf("mountprobe: stat %s/..: %w", clean, err)
	}
	if parent.Dev != st.Dev {
		return true, nil
	}
	return parent.Ino == st.Ino, nil
}

// AsUser answers [IsMountPoint] as the job user sees it. The probe runs
// in a child process that re-executes this binary's hidden `probe`
// subcommand, which drops group and user ids to (gid, uid) before
// probing and reports through its exit status. Output is suppressed.
func AsUser(ctx context.Context, uid, gid uint32, path string) (bool, error) {
	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Errorf("mountprobe: cannot locate own binary: %w", err)
	}

	cmd := exec.CommandContext(ctx, exe, append(probeSubcommand(uid, gid), path)...)
	err = cmd.Run()
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == ExitNotMounted {
		return false, nil
	}
	return false, fmt.Errorf("mountprobe: probe of %s as uid %d failed: %w", path, uid, err)
}

// probeSubcommand is the argument vector understood by the hidden `probe`
// subcommand in cmd/gcsfuse-spank.
func probeSubcommand(uid, gid uint32) []string {
	return []string{
		"probe",
		"--uid", strconv.FormatUint(uint64(uid), 10),
		"--gid", strconv.FormatUint(uint64(gid), 10),
	}
}
