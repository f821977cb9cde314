// Package gcsfuse models the command line of the gcsfuse daemon.
package gcsfuse

import (
	"strconv"
	"strings"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mountspec"
)

const (
	ArgForeground = "--foreground"
	ArgOption     = "-o"
	ArgUid        = "--uid"
	ArgGid        = "--gid"
	ArgLogFormat  = "--log-format"

	// OptionAllowOther lets the job user's processes through the kernel's
	// FUSE access check even though the daemon may run under a different
	// session.
	OptionAllowOther = "allow_other"

	logFormatJSON = "json"
)

// An Invocation describes one gcsfuse daemon launch for a mount spec on
// behalf of the job user.
type Invocation struct {
	Uid  uint32
	Gid  uint32
	Spec mountspec.Spec
}

// Argv assembles the daemon argument vector, without the leading program
// name: the mandatory flag set, then the user's flags verbatim in order,
// then the bucket positional only for an explicit non-empty bucket
// (omitting it selects the daemon's dynamic all-buckets mode), then the
// mount point.
func (i Invocation) Argv() []string {
	argv := []string{
		ArgForeground,
		ArgOption, OptionAllowOther,
		ArgUid, strconv.FormatUint(uint64(i.Uid), 10),
		ArgGid, strconv.FormatUint(uint64(i.Gid), 10),
		ArgLogFormat, logFormatJSON,
	}
	argv = append(argv, strings.Fields(i.Spec.Flags)...)
	if !i.Spec.AllBuckets() {
		argv = append(argv, i.Spec.Bucket)
	}
	return append(argv, i.Spec.MountPoint)
}
