//go:build windows

package runner

import (
	"os/exec"
	"syscall"
)

// setProcAttr detaches the child into its own process group so console
// control events do not propagate to the supervisor.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// terminate stops the child. Windows has no SIGTERM equivalent that a
// console script reliably handles, so termination is immediate.
func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// kill force-stops the child.
func kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
