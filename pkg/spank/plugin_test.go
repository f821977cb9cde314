package spank_test

import (
	"errors"
	"os"
	"testing"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/config"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mountspec"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/spank"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/util/testutil"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/util/testutil/assert"
)

const optionVal = 1

func newLocalPlugin(t *testing.T) (*spank.Plugin, spank.Context) {
	t.Helper()
	testutil.ClearMountsEnv(t)

	plugin := spank.NewPlugin(config.Default())
	ctx := spank.NewEnvContext(spank.ContextLocal, 1000, 1000)
	assert.NoError(t, plugin.Init(ctx))
	return plugin, ctx
}

func TestInitRegistersTheMountOption(t *testing.T) {
	plugin, _ := newLocalPlugin(t)

	options := plugin.Options()
	assert.Equals(t, 1, len(options))
	assert.Equals(t, "gcsfuse-mount", options[0].Name)
	assert.Equals(t, true, options[0].HasArg)
}

func TestOptionAccumulates(t *testing.T) {
	plugin, ctx := newLocalPlugin(t)

	assert.NoError(t, plugin.OptionCallback(ctx, optionVal, "data:/mnt/data", false))
	assert.Equals(t, "data:/mnt/data", os.Getenv(spank.MountsEnv))

	assert.NoError(t, plugin.OptionCallback(ctx, optionVal, "logs:/mnt/logs", false))
	assert.Equals(t, "data:/mnt/data;logs:/mnt/logs", os.Getenv(spank.MountsEnv))
}

func TestOptionResolvesRelativeMountPoints(t *testing.T) {
	plugin, ctx := newLocalPlugin(t)

	t.Chdir(t.TempDir())
	wd, err := os.Getwd()
	assert.NoError(t, err)

	assert.NoError(t, plugin.OptionCallback(ctx, optionVal, "./rel", false))
	assert.Equals(t, wd+"/rel", os.Getenv(spank.MountsEnv))
}

func TestConflictingOptionIsRejected(t *testing.T) {
	plugin, ctx := newLocalPlugin(t)

	assert.NoError(t, plugin.OptionCallback(ctx, optionVal, "b1:/m", false))

	err := plugin.OptionCallback(ctx, optionVal, "b2:/m", false)
	var conflictErr *mountspec.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	// The accumulator keeps its pre-conflict value.
	assert.Equals(t, "b1:/m", os.Getenv(spank.MountsEnv))
}

func TestRemoteOptionOccurrenceIsIgnored(t *testing.T) {
	plugin, ctx := newLocalPlugin(t)

	assert.NoError(t, plugin.OptionCallback(ctx, optionVal, "data:/mnt/data", true))
	assert.Equals(t, "", os.Getenv(spank.MountsEnv))
}

func TestUnknownOptionValueIsRejected(t *testing.T) {
	plugin, ctx := newLocalPlugin(t)

	if err := plugin.OptionCallback(ctx, 99, "data:/mnt/data", false); err == nil {
		t.Fatal("expected an error for an unregistered option value")
	}
}

func TestUserInitIsANoOpOutsideRemoteContext(t *testing.T) {
	plugin, ctx := newLocalPlugin(t)

	// Even with a populated accumulator, nothing may mount locally.
	t.Setenv(spank.MountsEnv, "data:/mnt/data")
	assert.NoError(t, plugin.UserInit(ctx))
	assert.Equals(t, 0, plugin.Mounter.Table().Len())
}

func TestUserInitWithEmptyAccumulatorIsANoOp(t *testing.T) {
	testutil.ClearMountsEnv(t)

	plugin := spank.NewPlugin(config.Default())
	ctx := spank.NewEnvContext(spank.ContextRemote, 1000, 1000)
	assert.NoError(t, plugin.Init(ctx))
	assert.NoError(t, plugin.UserInit(ctx))
}

func TestExitOutsideRemoteContextLeavesTableAlone(t *testing.T) {
	plugin, ctx := newLocalPlugin(t)

	plugin.Mounter.Table().Add("/mnt/data", 4243)
	assert.NoError(t, plugin.Exit(ctx))
	assert.Equals(t, 1, plugin.Mounter.Table().Len())
}

func TestJobUserFromEnv(t *testing.T) {
	t.Setenv("SLURM_JOB_UID", "1000")
	t.Setenv("SLURM_JOB_GID", "1001")

	uid, gid, err := spank.JobUserFromEnv()
	assert.NoError(t, err)
	assert.Equals(t, uint32(1000), uid)
	assert.Equals(t, uint32(1001), gid)

	t.Setenv("SLURM_JOB_UID", "")
	if _, _, err := spank.JobUserFromEnv(); err == nil {
		t.Fatal("expected an error when SLURM_JOB_UID is unset")
	}
}
