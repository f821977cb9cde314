package mountspec

import "fmt"

// A ConflictError reports two specs that claim the same mount point for
// different bucket identities.
type ConflictError struct {
	Existing  Spec
	Requested Spec
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("mountspec: mount point %s already requested for bucket %s, cannot also mount bucket %s",
		e.Existing.MountPoint, e.Existing.bucketLabel(), e.Requested.bucketLabel())
}

// CheckConflicts compares a candidate spec list against the current
// accumulator and returns a *ConflictError if any candidate binds an
// already-claimed mount point to a different bucket. Exact re-additions
// of an existing spec are allowed. Absent and explicit-empty buckets both
// mean "all buckets" but are distinct identities and never merge.
func CheckConflicts(current, candidate string) error {
	existing := ParseList(current)
	for _, requested := range ParseList(candidate) {
		for _, have := range existing {
			if have.MountPoint == requested.MountPoint && !have.SameBucket(requested) {
				return &ConflictError{Existing: have, Requested: requested}
			}
		}
	}
	return nil
}
