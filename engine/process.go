package engine

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/wumbo-framework/wumbo/sandbox"
)

// outputCap bounds how much of each stream is kept. Older output is dropped
// and marked as truncated.
const outputCap = 1 << 20

// stderrTailCap bounds the stderr excerpt attached to a Failure.
const stderrTailCap = 2048

// tailBuffer keeps the last cap bytes written to it.
type tailBuffer struct {
	mu        sync.Mutex
	buf       []byte
	cap       int
	truncated bool
}

func newTailBuffer(cap int) *tailBuffer {
	return &tailBuffer{cap: cap}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.cap; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
		t.truncated = true
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.truncated {
		return "[earlier output truncated]\n" + string(t.buf)
	}
	return string(t.buf)
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// procResult is the raw outcome of one child process run.
type procResult struct {
	stdout   string
	stderr   string
	exitCode int
	timedOut bool
	startErr error
}

// runProcess launches argv under the sandbox spec and waits for it, subject
// to the wall-clock timeout. On timeout the process group gets SIGTERM, a
// grace period, then SIGKILL; runProcess only returns after the child is
// fully reaped, so the result is produced exactly once.
func (e *Engine) runProcess(ctx context.Context, argv []string, spec sandbox.Spec, timeout time.Duration) procResult {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	stdout := newTailBuffer(outputCap)
	stderr := newTailBuffer(outputCap)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return procResult{startErr: err}
	}
	if err := spec.Limits.Apply(cmd.Process.Pid); err != nil {
		// Refusing to run unlimited: kill the child rather than
		// silently downgrade the requested caps.
		terminate(cmd, 0)
		_ = cmd.Wait()
		return procResult{startErr: err}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var (
		waitErr  error
		timedOut bool
	)
	select {
	case waitErr = <-done:
	case <-timer.C:
		timedOut = true
		terminate(cmd, e.grace)
		waitErr = <-done
	case <-ctx.Done():
		timedOut = true
		terminate(cmd, e.grace)
		waitErr = <-done
	}

	exitCode := 0
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if waitErr != nil {
		exitCode = -1
	}
	return procResult{
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		exitCode: exitCode,
		timedOut: timedOut,
	}
}
