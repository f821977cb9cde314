// Package config carries the plug-in's tunables: where the external
// binaries live and how long to wait for a mount to come up.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/ini.v1"
	"k8s.io/klog/v2"
)

const (
	// DefaultPath is where the optional plug-in configuration file lives
	// on cluster nodes.
	DefaultPath = "/etc/slurm/gcsfuse-spank.conf"

	// GcsfusePathEnv overrides the gcsfuse binary location, mainly for
	// development installs.
	GcsfusePathEnv = "GCSFUSE_PATH"

	defaultGcsfusePath    = "/usr/bin/gcsfuse"
	defaultLoggerPath     = "/usr/bin/logger"
	defaultFusermountPath = "/usr/bin/fusermount"
	defaultUmountPath     = "/usr/bin/umount"

	// LoggerTag and LoggerPriority identify daemon output in the system log.
	LoggerTag      = "gcsfuse_mount"
	LoggerPriority = "user.info"

	defaultMountWaitRetries = 60
	defaultMountWaitSleep   = 500 * time.Millisecond
)

// A Config holds the resolved plug-in configuration.
type Config struct {
	// GcsfusePath is the gcsfuse daemon binary.
	GcsfusePath string
	// LoggerPath is the system log forwarder the daemon's output is piped to.
	LoggerPath string
	// FusermountPath is the user-space FUSE unmount tool.
	FusermountPath string
	// UmountPath is the system unmount tool used for the lazy fallback.
	UmountPath string

	// MountWaitRetries and MountWaitSleep bound the readiness poll after
	// the daemon is started.
	MountWaitRetries int
	MountWaitSleep   time.Duration
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		GcsfusePath:      defaultGcsfusePath,
		LoggerPath:       defaultLoggerPath,
		FusermountPath:   defaultFusermountPath,
		UmountPath:       defaultUmountPath,
		MountWaitRetries: defaultMountWaitRetries,
		MountWaitSleep:   defaultMountWaitSleep,
	}
}

// MountWaitTimeout is the hard deadline on a single mount becoming ready.
func (c *Config) MountWaitTimeout() time.Duration {
	return time.Duration(c.MountWaitRetries) * c.MountWaitSleep
}

// Load layers an optional ini file and the environment over the compiled
// defaults. A missing file is not an error; a present but unreadable or
// malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	file, err := ini.Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		klog.V(4).Infof("No plug-in configuration at %s, using defaults", path)
	case err != nil:
		return nil, fmt.Errorf("config: cannot load %s: %w", path, err)
	default:
		if err := cfg.overlay(file.Section("gcsfuse")); err != nil {
			return nil, fmt.Errorf("config: invalid %s: %w", path, err)
		}
	}

	if p := os.Getenv(GcsfusePathEnv); p != "" {
		cfg.GcsfusePath = p
	}
	return cfg, nil
}

func (c *Config) overlay(section *ini.Section) error {
	if key, err := section.GetKey("gcsfuse_path"); err == nil {
		c.GcsfusePath = key.String()
	}
	if key, err := section.GetKey("logger_path"); err == nil {
		c.LoggerPath = key.String()
	}
	if key, err := section.GetKey("fusermount_path"); err == nil {
		c.FusermountPath = key.String()
	}
	if key, err := section.GetKey("umount_path"); err == nil {
		c.UmountPath = key.String()
	}
	if key, err := section.GetKey("mount_wait_retries"); err == nil {
		retries, err := key.Int()
		if err != nil || retries <= 0 {
			return fmt.Errorf("mount_wait_retries must be a positive integer, got %q", key.String())
		}
		c.MountWaitRetries = retries
	}
	if key, err := section.GetKey("mount_wait_sleep_ms"); err == nil {
		ms, err := key.Int()
		if err != nil || ms <= 0 {
			return fmt.Errorf("mount_wait_sleep_ms must be a positive integer, got %q", key.String())
		}
		c.MountWaitSleep = time.Duration(ms) * time.Millisecond
	}
	return nil
}
