package mounter

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// A ValidationError explains why a target directory cannot host a mount.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("mounter: target %s: %s", e.Path, e.Reason)
}

// ValidateTarget enforces the target directory policy from the calling
// identity's point of view, so it must run after the privilege drop. An
// existing target must be a directory owned by `uid`, empty, and
// writable; a missing one is created with mode 0755.
func ValidateTarget(path string, uid uint32) error {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("cannot create: %v", err)}
		}
		return nil
	}
	if err != nil {
		return &ValidationError{Path: path, Reason: fmt.Sprintf("cannot stat: %v", err)}
	}

	if !st.IsDir() {
		return &ValidationError{Path: path, Reason: "not a directory"}
	}
	sys, ok := st.Sys().(*syscall.Stat_t)
	if !ok {
		return &ValidationError{Path: path, Reason: "no ownership information"}
	}
	if sys.Uid != uid {
		return &ValidationError{Path: path, Reason: fmt.Sprintf("owned by uid %d, not job uid %d", sys.Uid, uid)}
	}

	empty, err := isEmptyDir(path)
	if err != nil {
		return &ValidationError{Path: path, Reason: fmt.Sprintf("cannot read: %v", err)}
	}
	if !empty {
		return &ValidationError{Path: path, Reason: "not empty"}
	}

	if err := unix.Access(path, unix.W_OK); err != nil {
		return &ValidationError{Path: path, Reason: fmt.Sprintf("not writable: %v", err)}
	}
	return nil
}

func isEmptyDir(path string) (bool, error) {
	dir, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer dir.Close()

	_, err = dir.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}
