package spank

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/config"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mounter"
	"github.com/GoogleCloudPlatform/slurm-gcp/pkg/mountspec"
)

// MountsEnv is the accumulator environment variable carrying the
// resolved, conflict-checked mount list from submission to execution. It
// is the only state shared between the two sides.
const MountsEnv = "GCSFUSE_MOUNTS"

// OptionName is the step option users set, as in
// `--gcsfuse-mount=bucket:/mnt/point:flags`.
const OptionName = "gcsfuse-mount"

// optionVal is the callback value registered for [OptionName].
const optionVal = 1

// Plugin is the gcsfuse mount plug-in: one instance per step per
// process image, owning the session mount table through its Mounter.
type Plugin struct {
	Mounter *mounter.Mounter

	options []Option
}

// NewPlugin returns a plug-in using `cfg` for paths and timeouts.
func NewPlugin(cfg *config.Config) *Plugin {
	return &Plugin{Mounter: mounter.New(cfg)}
}

// Init registers the plug-in's option with the host. It runs in every
// context and must stay cheap; all real work happens in later callbacks.
func (p *Plugin) Init(ctx Context) error {
	p.options = []Option{{
		Name:    OptionName,
		ArgInfo: "[BUCKET]:MOUNT_POINT[:FLAGS][;...]",
		Usage:   "Mount GCS buckets at the given paths for the duration of the step. Repeatable.",
		HasArg:  true,
		Val:     optionVal,
	}}
	klog.V(4).Infof("gcsfuse plug-in initialized in %s context", ctx.Kind())
	return nil
}

// Options returns the options Init registered.
func (p *Plugin) Options() []Option {
	return p.options
}

// OptionCallback handles one `--gcsfuse-mount=arg` occurrence. On the
// submission side it resolves relative mount points against the
// submission working directory, refuses additions that would rebind an
// already-claimed mount point, and appends to the accumulator. Remote
// re-invocations are ignored; the remote side consumes the accumulator
// in UserInit instead.
func (p *Plugin) OptionCallback(ctx Context, val int, arg string, remote bool) error {
	if val != optionVal {
		return fmt.Errorf("spank: unknown option value %d", val)
	}
	if remote {
		return nil
	}

	resolved, err := mountspec.ResolveList(arg, "")
	if err != nil {
		return err
	}
	if resolved == "" {
		klog.Warningf("Option --%s=%q contains no usable mount specs", OptionName, arg)
		return nil
	}

	current := ctx.Getenv(MountsEnv)
	if err := mountspec.CheckConflicts(current, resolved); err != nil {
		return err
	}
	return ctx.Setenv(MountsEnv, mountspec.AppendList(current, resolved))
}

// UserInit establishes the requested mounts on the compute node before
// the user task starts. Per-mount failures do not stop the remaining
// mounts, but any failure fails the callback so the step does not start
// with a mount silently missing.
func (p *Plugin) UserInit(ctx Context) error {
	if ctx.Kind() != ContextRemote {
		return nil
	}

	list := ctx.Getenv(MountsEnv)
	if list == "" {
		return nil
	}

	uid, gid, err := ctx.JobUser()
	if err != nil {
		return fmt.Errorf("spank: cannot determine job user: %w", err)
	}

	specs := mountspec.ParseList(list)
	klog.Infof("Establishing %d gcsfuse mounts for uid %d", len(specs), uid)
	return p.Mounter.MountAll(context.Background(), specs, uid, gid)
}

// Exit tears down every mount this instance established. Teardown is
// best-effort and never fails the callback.
func (p *Plugin) Exit(ctx Context) error {
	if ctx.Kind() != ContextRemote {
		return nil
	}
	p.Mounter.UnmountAll(context.Background())
	return nil
}
