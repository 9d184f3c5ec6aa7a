//go:build unix

package engine

import (
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// setProcessGroup puts the child in its own process group so termination
// reaches any grandchildren it spawned.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate sends SIGTERM to the child's process group, waits out the grace
// period, then SIGKILLs the group.
func terminate(cmd *exec.Cmd, grace time.Duration) {
	pid := cmd.Process.Pid
	_ = unix.Kill(-pid, unix.SIGTERM)
	if grace > 0 {
		deadline := time.Now().Add(grace)
		for time.Now().Before(deadline) {
			if err := unix.Kill(-pid, 0); err != nil {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}
	_ = unix.Kill(-pid, unix.SIGKILL)
}
