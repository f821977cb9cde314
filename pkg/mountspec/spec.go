// Package mountspec implements parsing, resolution and conflict checking
// of `--gcsfuse-mount` specs and of the GCSFUSE_MOUNTS accumulator list.
package mountspec

import (
	"errors"
	"fmt"
	"strings"

	"k8s.io/klog/v2"
)

// ListSeparator joins serialized specs in the GCSFUSE_MOUNTS accumulator.
const ListSeparator = ";"

// ErrEmptyMountPoint is returned when a spec token has no mount point.
var ErrEmptyMountPoint = errors.New("mountspec: empty mount point")

// A Spec is one parsed mount request: which bucket to mount where, plus
// extra flags for the gcsfuse daemon.
type Spec struct {
	// Bucket is the bucket to mount. It is meaningful only when HasBucket
	// is set; an empty Bucket with HasBucket set is the explicit dynamic
	// ("all buckets") form, written as a leading colon in the token.
	Bucket string

	// HasBucket records whether the token carried a bucket segment at all.
	// An absent bucket also mounts all buckets, but it is textually
	// distinct from the explicit empty form and never merged with it.
	HasBucket bool

	// MountPoint is the directory to mount at. Always non-empty.
	MountPoint string

	// Flags is an opaque whitespace-separated option string passed through
	// to the daemon verbatim. May be empty.
	Flags string
}

// AllBuckets reports whether the daemon should be started without a
// bucket positional argument, surfacing every accessible bucket.
func (s Spec) AllBuckets() bool {
	return !s.HasBucket || s.Bucket == ""
}

// SameBucket reports whether two specs name the same bucket identity.
// Absent and explicit-empty buckets are each equal only to themselves.
func (s Spec) SameBucket(o Spec) bool {
	return s.HasBucket == o.HasBucket && s.Bucket == o.Bucket
}

// String serializes the spec back into token form.
func (s Spec) String() string {
	var b strings.Builder
	if s.HasBucket {
		b.WriteString(s.Bucket)
		b.WriteByte(':')
	}
	b.WriteString(s.MountPoint)
	if s.Flags != "" {
		b.WriteByte(':')
		b.WriteString(s.Flags)
	}
	return b.String()
}

// bucketLabel is how a bucket identity reads in diagnostics.
func (s Spec) bucketLabel() string {
	if s.AllBuckets() {
		return "(all buckets)"
	}
	return s.Bucket
}

// Parse classifies a single `[BUCKET:]MOUNT_POINT[:FLAGS]` token.
//
// The first segment is a path, not a bucket name, when it contains a `/`
// before the first colon; bucket names cannot legally contain slashes, so
// ambiguity is resolved in favor of the path reading. An empty first
// segment is the explicit all-buckets form; a token without any colon is
// a bare mount point.
func Parse(token string) (Spec, error) {
	colon := strings.IndexByte(token, ':')
	if colon < 0 {
		if token == "" {
			return Spec{}, ErrEmptyMountPoint
		}
		return Spec{MountPoint: token}, nil
	}

	first, rest := token[:colon], token[colon+1:]
	if strings.ContainsRune(first, '/') {
		// The first segment already is the mount point; everything after
		// the first colon is flags, preserved verbatim.
		return Spec{MountPoint: first, Flags: rest}, nil
	}

	mountPoint, flags := splitOnce(rest)
	if mountPoint == "" {
		return Spec{}, fmt.Errorf("%w in token %q", ErrEmptyMountPoint, token)
	}
	return Spec{
		Bucket:     first,
		HasBucket:  true,
		MountPoint: mountPoint,
		Flags:      flags,
	}, nil
}

// ParseList splits an accumulator list and parses each token. Malformed
// tokens are logged and skipped so one bad spec never takes down its
// siblings.
func ParseList(list string) []Spec {
	if list == "" {
		return nil
	}
	tokens := strings.Split(list, ListSeparator)
	specs := make([]Spec, 0, len(tokens))
	for _, token := range tokens {
		spec, err := Parse(token)
		if err != nil {
			klog.Warningf("Skipping malformed mount spec %q: %v", token, err)
			continue
		}
		specs = append(specs, spec)
	}
	return specs
}

// splitOnce splits `s` at its first colon, returning the remainder
// untouched so flag strings survive verbatim.
func splitOnce(s string) (head, tail string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
