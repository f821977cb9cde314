package mounter_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mounter"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/util/testutil/assert"
)

// The tests run as the process owner, so that uid plays the job user.
func currentUid() uint32 {
	return uint32(os.Getuid())
}

func TestMissingTargetIsCreated(t *testing.T) {
	old := unix.Umask(0o022)
	defer unix.Umask(old)

	target := filepath.Join(t.TempDir(), "mnt", "data")

	assert.NoError(t, mounter.ValidateTarget(target, currentUid()))

	st, err := os.Stat(target)
	assert.NoError(t, err)
	assert.Equals(t, true, st.IsDir())
	assert.Equals(t, fs.FileMode(0o755), st.Mode().Perm())
}

func TestEmptyOwnedDirectoryIsAccepted(t *testing.T) {
	assert.NoError(t, mounter.ValidateTarget(t.TempDir(), currentUid()))
}

func TestFileTargetIsRejected(t *testing.T) {
	target := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(target, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	assertValidationFailure(t, mounter.ValidateTarget(target, currentUid()), "not a directory")
}

func TestNonEmptyTargetIsRejected(t *testing.T) {
	target := t.TempDir()
	if err := os.WriteFile(filepath.Join(target, "leftover"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	assertValidationFailure(t, mounter.ValidateTarget(target, currentUid()), "not empty")
}

func TestForeignOwnerIsRejected(t *testing.T) {
	assertValidationFailure(t, mounter.ValidateTarget(t.TempDir(), currentUid()+1), "owned by uid")
}

func TestUnwritableTargetIsRejected(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root passes every access check")
	}

	target := filepath.Join(t.TempDir(), "ro")
	if err := os.Mkdir(target, 0o500); err != nil {
		t.Fatal(err)
	}

	assertValidationFailure(t, mounter.ValidateTarget(target, currentUid()), "not writable")
}

func assertValidationFailure(t *testing.T, err error, reason string) {
	t.Helper()
	var validationErr *mounter.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if !strings.Contains(validationErr.Reason, reason) {
		t.Fatalf("reason %q does not mention %q", validationErr.Reason, reason)
	}
}
