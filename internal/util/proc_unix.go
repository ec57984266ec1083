//go:build !windows

package util

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// SetDetachedProcess puts cmd in its own session so a signal delivered to
// this process's process group does not also reach the driver child.
func SetDetachedProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// KillProcessGroup sends SIGKILL to the whole process group led by pid,
// since Setsid makes pid its own process group leader and the driver spawns
// browser children under it that a lone Process.Kill would orphan.
func KillProcessGroup(pid int) error {
	return unix.Kill(-pid, unix.SIGKILL)
}
