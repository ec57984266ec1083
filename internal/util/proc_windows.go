//go:build windows

package util

import (
	"os"
	"os/exec"
	"syscall"
)

// SetDetachedProcess puts cmd in its own process group so Ctrl+C delivered
// to this process's console does not also reach the driver child.
func SetDetachedProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// KillProcessGroup kills pid. Windows process groups do not support a
// SIGKILL-equivalent group signal outside job objects (DESIGN.md's open
// question on job-object teardown), so this only terminates the named
// process; call sites fall back to it for the direct kill path too.
func KillProcessGroup(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
