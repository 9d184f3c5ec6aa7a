// Package bench provides honest benchmarks comparing wumbo against bare
// interpreter invocations.
//
// Run with: go test -v -run=Test ./bench/
// Benchmarks: go test -bench=. -benchtime=3x ./bench/
package bench

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/wumbo-framework/wumbo/engine"
)

// =============================================================================
// HONEST BENCHMARK SUITE
// =============================================================================
// Every execution pays for artifact generation plus a fresh child process,
// so wumbo is strictly slower than invoking the interpreter directly. The
// value proposition is the structured result protocol, sandboxing, and
// uniform multi-language surface, not raw speed.
// =============================================================================

func requireRuntime(b *testing.B, names ...string) {
	b.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	b.Skipf("none of %v installed", names)
}

func BenchmarkEngine_Shell(b *testing.B) {
	requireRuntime(b, "bash")
	e := engine.New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Execute(context.Background(), "shell", `wumbo_success 1`, nil, nil)
	}
}

func BenchmarkEngine_Python(b *testing.B) {
	requireRuntime(b, "python3")
	e := engine.New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Execute(context.Background(), "python", `wumbo_success(1)`, nil, nil)
	}
}

func BenchmarkEngine_Python_Computation(b *testing.B) {
	requireRuntime(b, "python3")
	e := engine.New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Execute(context.Background(), "python", `wumbo_success(sum(i*i for i in range(1000)))`, nil, nil)
	}
}

func BenchmarkEngine_Python_WithArgs(b *testing.B) {
	requireRuntime(b, "python3")
	e := engine.New()
	args := []any{1, 2, 3}
	kwargs := map[string]any{"scale": 10}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Execute(context.Background(), "python",
			`wumbo_success(sum(wumbo_args) * wumbo_kwargs["scale"])`, args, kwargs)
	}
}

// --- Native interpreter baselines ---

func BenchmarkNative_Python(b *testing.B) {
	requireRuntime(b, "python3")
	for i := 0; i < b.N; i++ {
		exec.Command("python3", "-c", "x=1").Run()
	}
}

func BenchmarkNative_Python_Computation(b *testing.B) {
	requireRuntime(b, "python3")
	for i := 0; i < b.N; i++ {
		exec.Command("python3", "-c", "print(sum(i*i for i in range(1000)))").Run()
	}
}

func BenchmarkNative_Bash(b *testing.B) {
	requireRuntime(b, "bash")
	for i := 0; i < b.N; i++ {
		exec.Command("bash", "-c", "true").Run()
	}
}

// =============================================================================
// COMPARISON TEST - Human readable output
// =============================================================================

func TestOverheadComparison(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not installed")
	}

	fmt.Println()
	fmt.Println("=== wumbo overhead vs bare interpreter ===")
	fmt.Printf("Platform: %s/%s, CPUs: %d\n", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	fmt.Println()

	const runs = 3
	measure := func(fn func()) time.Duration {
		var total time.Duration
		for i := 0; i < runs; i++ {
			start := time.Now()
			fn()
			total += time.Since(start)
		}
		return total / runs
	}

	e := engine.New()
	// Warm the runtime resolution cache so the comparison measures
	// execution, not probing.
	e.ListAvailableLanguages(context.Background())

	engineShell := measure(func() {
		e.Execute(context.Background(), "shell", `wumbo_success 1`, nil, nil)
	})
	nativeShell := measure(func() {
		exec.Command("bash", "-c", "true").Run()
	})

	fmt.Printf("%-24s %12s\n", "wumbo shell", engineShell)
	fmt.Printf("%-24s %12s\n", "bare bash", nativeShell)
	fmt.Printf("overhead: %.1fx\n", float64(engineShell)/float64(nativeShell))
	fmt.Println()

	if _, err := exec.LookPath("python3"); err == nil {
		enginePy := measure(func() {
			e.Execute(context.Background(), "python", `wumbo_success(1)`, nil, nil)
		})
		nativePy := measure(func() {
			exec.Command("python3", "-c", "x=1").Run()
		})
		fmt.Printf("%-24s %12s\n", "wumbo python", enginePy)
		fmt.Printf("%-24s %12s\n", "bare python3", nativePy)
		fmt.Printf("overhead: %.1fx\n", float64(enginePy)/float64(nativePy))
		fmt.Println()
	}

	t.Log("Benchmark complete - see stdout for results")
}
