// Package mounter establishes and tears down gcsfuse mounts around a job
// step. Establishment forks a privilege-dropping helper per spec and
// polls until the mount is live; teardown walks the session mount table
// in reverse and escalates from a clean unmount to a lazy one.
package mounter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/config"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mountprobe"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mountspec"
)

// ErrDaemonExited is returned when the mount daemon terminates before its
// mount ever becomes ready, typically a failed exec or a startup error.
var ErrDaemonExited = errors.New("mounter: mount daemon exited before the mount became ready")

// ErrMountTimeout is returned when a mount does not become ready within
// the configured readiness window.
var ErrMountTimeout = errors.New("mounter: timed out waiting for mount to become ready")

// A Prober answers whether a path is currently a mount boundary, either
// directly or through a child running under the job user's identity.
type Prober interface {
	IsMountPoint(path string) (bool, error)
	AsUser(ctx context.Context, uid, gid uint32, path string) (bool, error)
}

type osProber struct{}

func (osProber) IsMountPoint(path string) (bool, error) {
	return mountprobe.IsMountPoint(path)
}

func (osProber) AsUser(ctx context.Context, uid, gid uint32, path string) (bool, error) {
	return mountprobe.AsUser(ctx, uid, gid, path)
}

// A Mounter owns the mount lifecycle for one job step. It is not safe
// for concurrent use; the host calls each callback synchronously.
type Mounter struct {
	Cfg    *config.Config
	Sup    Supervisor
	Prober Prober
	RunCmd CmdRunner
	// Executable locates the plug-in binary for self-exec of the hidden
	// mount-helper subcommand.
	Executable func() (string, error)

	table Table
}

// New returns a Mounter wired to the real process and mount primitives.
func New(cfg *config.Config) *Mounter {
	return &Mounter{
		Cfg:        cfg,
		Sup:        OSSupervisor{},
		Prober:     osProber{},
		RunCmd:     DefaultCmdRunner,
		Executable: os.Executable,
	}
}

// Table exposes the session mount table, mainly to tests.
func (m *Mounter) Table() *Table {
	return &m.table
}

// MountAll establishes every spec in order, left to right. A failing
// spec never blocks its siblings, but any failure makes MountAll return
// an error once the whole list has been attempted. Successful mounts
// stay established and recorded for teardown either way.
func (m *Mounter) MountAll(ctx context.Context, specs []mountspec.Spec, uid, gid uint32) error {
	seen := sets.New[string]()
	var failed []string
	for _, spec := range specs {
		token := spec.String()
		if seen.Has(token) {
			klog.V(4).Infof("Skipping duplicate mount spec %q", token)
			continue
		}
		seen.Insert(token)

		if err := m.mountOne(ctx, spec, uid, gid); err != nil {
			klog.Errorf("Mount of %s failed: %v", spec.MountPoint, err)
			failed = append(failed, spec.MountPoint)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("mounter: %d of %d mounts failed: %s", len(failed), seen.Len(), strings.Join(failed, ", "))
	}
	return nil
}

func (m *Mounter) mountOne(ctx context.Context, spec mountspec.Spec, uid, gid uint32) error {
	attempt := uuid.New().String()

	mounted, err := m.Prober.AsUser(ctx, uid, gid, spec.MountPoint)
	if err != nil {
		klog.V(4).Infof("[%s] probe of %s failed, assuming not mounted: %v", attempt, spec.MountPoint, err)
	}
	if mounted {
		klog.Infof("[%s] %s is already mounted, skipping", attempt, spec.MountPoint)
		return nil
	}

	exe, err := m.Executable()
	if err != nil {
		return fmt.Errorf("mounter: cannot locate own binary: %w", err)
	}
	cmd := exec.Command(exe, helperArgs(spec, uid, gid, m.Cfg)...)
	pid, err := m.Sup.Start(cmd)
	if err != nil {
		return fmt.Errorf("mounter: cannot start mount helper for %s: %w", spec.MountPoint, err)
	}
	klog.Infof("[%s] started mount helper pid %d for %s", attempt, pid, spec.MountPoint)

	pollErr := wait.PollUntilContextTimeout(ctx, m.Cfg.MountWaitSleep, m.Cfg.MountWaitTimeout(), true,
		func(ctx context.Context) (bool, error) {
			live, probeErr := m.Prober.AsUser(ctx, uid, gid, spec.MountPoint)
			if probeErr == nil && live {
				return true, nil
			}
			exited, reapErr := m.Sup.TryReap(pid)
			if reapErr != nil {
				klog.V(4).Infof("[%s] wait on helper pid %d: %v", attempt, pid, reapErr)
			}
			if exited {
				return false, ErrDaemonExited
			}
			return false, nil
		})
	if pollErr == nil {
		m.table.Add(spec.MountPoint, pid)
		klog.Infof("[%s] %s is mounted (daemon pid %d)", attempt, spec.MountPoint, pid)
		return nil
	}
	if errors.Is(pollErr, ErrDaemonExited) {
		return fmt.Errorf("mounter: mount of %s: %w", spec.MountPoint, pollErr)
	}

	// The daemon is still running but its mount never came up. Kill it so
	// the step does not start over a half-dead mount point.
	if err := m.Sup.Kill(pid); err != nil {
		klog.V(4).Infof("[%s] kill of helper pid %d: %v", attempt, pid, err)
	}
	m.Sup.Reap(pid)
	return fmt.Errorf("mounter: mount of %s: %w", spec.MountPoint, ErrMountTimeout)
}

// helperArgs is the argument vector for the hidden `mount-helper`
// subcommand in cmd/gcsfuse-spank.
func helperArgs(spec mountspec.Spec, uid, gid uint32, cfg *config.Config) []string {
	return []string{
		HelperSubcommand,
		"--uid", strconv.FormatUint(uint64(uid), 10),
		"--gid", strconv.FormatUint(uint64(gid), 10),
		"--spec", spec.String(),
		"--gcsfuse-path", cfg.GcsfusePath,
		"--logger-path", cfg.LoggerPath,
	}
}
