package mountspec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

// ResolveList rewrites every relative mount point in a `;`-delimited spec
// list to an absolute path under `cwd`, preserving bucket and flag
// segments. When `cwd` is empty the process working directory is used;
// that is only meaningful on the submission side, where the process runs
// in the directory the user submitted from.
//
// The output re-parses to the same specs, every mount point is absolute,
// and resolving an already-absolute list is a no-op. Malformed tokens are
// logged and dropped.
func ResolveList(list, cwd string) (string, error) {
	if list == "" {
		return "", nil
	}
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("mountspec: cannot determine working directory: %w", err)
		}
		cwd = wd
	}

	tokens := strings.Split(list, ListSeparator)
	resolved := make([]string, 0, len(tokens))
	for _, token := range tokens {
		spec, err := Parse(token)
		if err != nil {
			klog.Warningf("Skipping malformed mount spec %q: %v", token, err)
			continue
		}
		if !filepath.IsAbs(spec.MountPoint) {
			spec.MountPoint = cwd + "/" + strings.TrimPrefix(spec.MountPoint, "./")
		}
		resolved = append(resolved, spec.String())
	}
	return strings.Join(resolved, ListSeparator), nil
}

// AppendList joins an already-resolved candidate list onto the current
// accumulator value.
func AppendList(current, candidate string) string {
	if current == "" {
		return candidate
	}
	if candidate == "" {
		return current
	}
	return current + ListSeparator + candidate
}
