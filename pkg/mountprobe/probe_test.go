package mountprobe_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mountprobe"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/util/testutil/assert"
)

func TestFilesystemRootIsAMountPoint(t *testing.T) {
	mounted, err := mountprobe.IsMountPoint("/")
	assert.NoError(t, err)
	assert.Equals(t, true, mounted)
}

func TestPlainDirectoryIsNotAMountPoint(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	mounted, err := mountprobe.IsMountPoint(sub)
	assert.NoError(t, err)
	assert.Equals(t, false, mounted)
}

func TestRegularFileIsNotAMountPoint(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	mounted, err := mountprobe.IsMountPoint(file)
	assert.NoError(t, err)
	assert.Equals(t, false, mounted)
}

func TestMissingPathIsAnError(t *testing.T) {
	_, err := mountprobe.IsMountPoint(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected an error probing a missing path")
	}
}

func TestProcIsAMountPoint(t *testing.T) {
	if _, err := os.Stat("/proc/self"); err != nil {
		t.Skip("no procfs available")
	}

	mounted, err := mountprobe.IsMountPoint("/proc")
	assert.NoError(t, err)
	assert.Equals(t, true, mounted)
}
