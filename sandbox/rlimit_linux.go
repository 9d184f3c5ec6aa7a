//go:build linux

package sandbox

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const limitsSupported = true

// Apply sets the resource limits on an already-started child process. On
// Linux this uses prlimit, so the limits land before the exec'd program does
// meaningful work.
func (l Limits) Apply(pid int) error {
	if l.CPUSeconds > 0 {
		lim := unix.Rlimit{Cur: l.CPUSeconds, Max: l.CPUSeconds + 1}
		if err := unix.Prlimit(pid, unix.RLIMIT_CPU, &lim, nil); err != nil {
			return fmt.Errorf("set cpu limit: %w", err)
		}
	}
	if l.MemoryBytes > 0 {
		lim := unix.Rlimit{Cur: l.MemoryBytes, Max: l.MemoryBytes}
		if err := unix.Prlimit(pid, unix.RLIMIT_AS, &lim, nil); err != nil {
			return fmt.Errorf("set memory limit: %w", err)
		}
	}
	return nil
}
