//go:build !unix

package engine

import (
	"os/exec"
	"time"
)

func setProcessGroup(cmd *exec.Cmd) {}

func terminate(cmd *exec.Cmd, grace time.Duration) {
	_ = cmd.Process.Kill()
}
