// Package spank models the host scheduler's plug-in callback surface and
// implements the gcsfuse mount plug-in behind it. The host calls Init in
// every context, OptionCallback once per `--gcsfuse-mount` occurrence on
// the submission side, and UserInit/Exit around the user task on the
// compute node.
package spank

import (
	"fmt"
	"os"
	"strconv"
)

// A ContextKind tells a callback which side of the scheduler it runs on.
type ContextKind int

const (
	// ContextLocal is the submission client (srun).
	ContextLocal ContextKind = iota
	// ContextAllocator is the resource allocator (sbatch, salloc).
	ContextAllocator
	// ContextRemote is the step runtime on a compute node.
	ContextRemote
)

func (k ContextKind) String() string {
	switch k {
	case ContextLocal:
		return "local"
	case ContextAllocator:
		return "allocator"
	case ContextRemote:
		return "remote"
	default:
		return fmt.Sprintf("ContextKind(%d)", int(k))
	}
}

// A Context is the host's view handed to each callback: which side it
// runs on, the job environment, and the job user's identity.
type Context interface {
	Kind() ContextKind

	// Getenv and Setenv access the job environment. On the local side
	// this environment propagates into the step; the remote side treats
	// it as read-only.
	Getenv(key string) string
	Setenv(key, value string) error

	// JobUser returns the uid and gid the step runs as. Only meaningful
	// in the remote context.
	JobUser() (uid, gid uint32, err error)
}

// An Option describes one plug-in command-line option registered with
// the host at Init time.
type Option struct {
	Name    string
	ArgInfo string
	Usage   string
	HasArg  bool
	Val     int
}

// EnvContext is a Context backed by the process environment, used by the
// cmd driver where the process IS the per-step plug-in instance.
type EnvContext struct {
	kind ContextKind
	uid  uint32
	gid  uint32
}

// NewEnvContext returns a process-environment Context for `kind` running
// a step as `uid`/`gid`.
func NewEnvContext(kind ContextKind, uid, gid uint32) *EnvContext {
	return &EnvContext{kind: kind, uid: uid, gid: gid}
}

func (c *EnvContext) Kind() ContextKind { return c.kind }

func (c *EnvContext) Getenv(key string) string { return os.Getenv(key) }

func (c *EnvContext) Setenv(key, value string) error {
	if err := os.Setenv(key, value); err != nil {
		return fmt.Errorf("spank: cannot set %s: %w", key, err)
	}
	return nil
}

func (c *EnvContext) JobUser() (uint32, uint32, error) {
	return c.uid, c.gid, nil
}

// JobUserFromEnv reads the job user from the scheduler-provided
// environment, the way the step runtime exports it.
func JobUserFromEnv() (uid, gid uint32, err error) {
	parse := func(key string) (uint32, error) {
		value := os.Getenv(key)
		if value == "" {
			return 0, fmt.Errorf("spank: %s is not set", key)
		}
		id, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("spank: malformed %s=%q: %w", key, value, err)
		}
		return uint32(id), nil
	}

	if uid, err = parse("SLURM_JOB_UID"); err != nil {
		return 0, 0, err
	}
	if gid, err = parse("SLURM_JOB_GID"); err != nil {
		return 0, 0, err
	}
	return uid, gid, nil
}
