package mounter

import (
	"context"
	"os/exec"

	"k8s.io/klog/v2"
)

// UnmountAll tears down every recorded mount in reverse establishment
// order, so mounts nested under other mounts release first. Teardown is
// best-effort throughout: every failure is logged and the walk
// continues, leaving as little behind as possible.
func (m *Mounter) UnmountAll(ctx context.Context) {
	entries := m.table.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		m.unmountOne(ctx, entries[i])
	}
	m.table.Clear()
}

// unmountOne walks one entry through the cascade: clean user-space
// unmount, daemon kill, then a lazy unmount if the path still probes as
// mounted (a hung FUSE endpoint does, which is the point).
func (m *Mounter) unmountOne(ctx context.Context, entry Entry) {
	klog.Infof("Unmounting %s (daemon pid %d)", entry.MountPoint, entry.DaemonPid)

	if code, err := m.RunCmd(exec.CommandContext(ctx, m.Cfg.FusermountPath, "-u", entry.MountPoint)); err != nil || code != 0 {
		klog.Errorf("fusermount -u %s failed (exit %d): %v", entry.MountPoint, code, err)
	}

	if entry.DaemonPid > 0 {
		if err := m.Sup.Kill(entry.DaemonPid); err != nil {
			klog.V(4).Infof("Kill of daemon pid %d: %v", entry.DaemonPid, err)
		}
		m.Sup.Reap(entry.DaemonPid)
	}

	mounted, err := m.Prober.IsMountPoint(entry.MountPoint)
	if err != nil {
		klog.V(4).Infof("Post-unmount probe of %s: %v", entry.MountPoint, err)
	}
	if mounted {
		klog.Infof("%s is still mounted, falling back to lazy unmount", entry.MountPoint)
		if code, err := m.RunCmd(exec.CommandContext(ctx, m.Cfg.UmountPath, "-l", entry.MountPoint)); err != nil || code != 0 {
			klog.Errorf("umount -l %s failed (exit %d): %v", entry.MountPoint, code, err)
		}
	}
}
