package mountprobe

import (
	"fmt"

	"github.com/moby/sys/mountinfo"
)

// gcsfuseFSType is how gcsfuse mounts appear in /proc/self/mountinfo.
const gcsfuseFSType = "fuse.gcsfuse"

// ListGCSFuseMounts returns the gcsfuse mounts currently visible on this
// node, in mountinfo order.
func ListGCSFuseMounts() ([]*mountinfo.Info, error) {
	mounts, err := mountinfo.GetMounts(mountinfo.FSTypeFilter(gcsfuseFSType))
	if err != nil {
		return nil, fmt.Errorf("mountprobe: cannot list mounts: %w", err)
	}
	return mounts, nil
}
