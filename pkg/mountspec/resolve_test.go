package mountspec_test

import (
	"os"
	"strings"
	"testing"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mountspec"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/util/testutil/assert"
)

func TestResolvingRelativeMountPoints(t *testing.T) {
	testCases := []struct {
		name string
		list string
		want string
	}{
		{
			name: "relative path",
			list: "rel",
			want: "/home/u/rel",
		},
		{
			name: "dot-slash prefix is stripped",
			list: "./rel",
			want: "/home/u/rel",
		},
		{
			name: "absolute path is untouched",
			list: "data:/mnt/data",
			want: "data:/mnt/data",
		},
		{
			name: "bucket and flags layout survives",
			list: "b:rel:-o ro",
			want: "b:/home/u/rel:-o ro",
		},
		{
			name: "explicit all-buckets survives",
			list: ":rel",
			want: ":/home/u/rel",
		},
		{
			name: "mixed list",
			list: "data:/mnt/data;./rel;b:sub/dir",
			want: "data:/mnt/data;/home/u/rel;b:/home/u/sub/dir",
		},
		{
			name: "empty list",
			list: "",
			want: "",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := mountspec.ResolveList(testCase.list, "/home/u")
			assert.NoError(t, err)
			assert.Equals(t, testCase.want, got)
		})
	}
}

func TestResolutionIsIdempotent(t *testing.T) {
	list := "data:/mnt/data;./rel;b:sub/dir:-o ro"
	once, err := mountspec.ResolveList(list, "/home/u")
	assert.NoError(t, err)
	twice, err := mountspec.ResolveList(once, "/home/u")
	assert.NoError(t, err)
	assert.Equals(t, once, twice)
}

func TestResolutionPreservesTokenCount(t *testing.T) {
	list := "data:/mnt/data;./rel;b:sub/dir:-o ro"
	resolved, err := mountspec.ResolveList(list, "/home/u")
	assert.NoError(t, err)

	tokens := strings.Split(resolved, ";")
	assert.Equals(t, 3, len(tokens))
	for _, token := range tokens {
		spec, err := mountspec.Parse(token)
		assert.NoError(t, err)
		if !strings.HasPrefix(spec.MountPoint, "/") {
			t.Fatalf("mount point %q is not absolute", spec.MountPoint)
		}
	}
}

func TestResolutionUsesProcessWorkingDirectory(t *testing.T) {
	t.Chdir(t.TempDir())
	wd, err := os.Getwd()
	assert.NoError(t, err)

	resolved, err := mountspec.ResolveList("rel", "")
	assert.NoError(t, err)
	assert.Equals(t, wd+"/rel", resolved)
}

func TestAppendingToAccumulator(t *testing.T) {
	assert.Equals(t, "a:/m", mountspec.AppendList("", "a:/m"))
	assert.Equals(t, "a:/m", mountspec.AppendList("a:/m", ""))
	assert.Equals(t, "a:/m;b:/n", mountspec.AppendList("a:/m", "b:/n"))
}
