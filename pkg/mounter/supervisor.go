package mounter

import (
	"errors"
	"os/exec"

	"golang.org/x/sys/unix"
)

// A CmdRunner runs `cmd` to completion and returns its exit code. It
// exists so tests can observe the exact commands the lifecycle issues
// without executing them; `DefaultCmdRunner` is used everywhere else.
type CmdRunner func(cmd *exec.Cmd) (int, error)

// DefaultCmdRunner is the real CmdRunner implementation.
func DefaultCmdRunner(cmd *exec.Cmd) (int, error) {
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, err
	}
	return 0, nil
}

// A Supervisor starts, signals and reaps the plug-in's long-lived child
// processes. Children started through it are reaped with waitpid rather
// than exec.Cmd.Wait, because the parent must be able to poll without
// blocking while the child keeps running.
type Supervisor interface {
	// Start launches cmd and returns its pid.
	Start(cmd *exec.Cmd) (int, error)
	// TryReap performs a non-blocking wait and reports whether the child
	// has terminated. A child that was already reaped counts as exited.
	TryReap(pid int) (bool, error)
	// Kill sends SIGKILL; a child that is already gone is not an error.
	Kill(pid int) error
	// Reap blocks until the child is reaped.
	Reap(pid int)
}

// OSSupervisor is the real Supervisor.
type OSSupervisor struct{}

func (OSSupervisor) Start(cmd *exec.Cmd) (int, error) {
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	return cmd.Process.Pid, nil
}

func (OSSupervisor) TryReap(pid int) (bool, error) {
	var status unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &status, unix.WNOHANG, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.ECHILD:
			return true, nil
		case err != nil:
			return false, err
		default:
			return wpid == pid, nil
		}
	}
}

func (OSSupervisor) Kill(pid int) error {
	err := unix.Kill(pid, unix.SIGKILL)
	if err == unix.ESRCH {
		return nil
	}
	return err
}

func (OSSupervisor) Reap(pid int) {
	for {
		_, err := unix.Wait4(pid, nil, 0, nil)
		if err != unix.EINTR {
			return
		}
	}
}
