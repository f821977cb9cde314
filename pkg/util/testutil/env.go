// Package testutil provides shared helpers for test environments.
package testutil

import "testing"

// ClearMountsEnv ensures the test case `t` starts with an empty mount
// accumulator. The calling process of `go test` may itself run inside a
// job with GCSFUSE_MOUNTS set, which would leak into accumulator tests.
func ClearMountsEnv(t *testing.T) {
	t.Setenv("GCSFUSE_MOUNTS", "")
}
