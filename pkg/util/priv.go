// Package util provides small helpers shared across the plug-in.
package util

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DropPrivileges assumes the job user's identity in the current process,
// group first: after setresuid the process may no longer change its
// groups.
func DropPrivileges(uid, gid uint32) error {
	if err := unix.Setresgid(int(gid), int(gid), -1); err != nil {
		return fmt.Errorf("util: setresgid(%d) failed: %w", gid, err)
	}
	if err := unix.Setresuid(int(uid), int(uid), -1); err != nil {
		return fmt.Errorf("util: setresuid(%d) failed: %w", uid, err)
	}
	return nil
}
