package runtime_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wumbo-framework/wumbo/runtime"
)

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtimes.yaml")
	content := `
runtimes:
  python:
    candidates: [python3.12, python3]
    min_version: "3.10"
  typescript:
    compiler_candidates: [/opt/node/bin/tsc]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	o, err := runtime.LoadOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := runtime.Descriptor{
		Name:   "python",
		Runner: runtime.Tool{Candidates: []string{"python3"}, MinVersion: "3.8"},
	}
	got := o.Apply(d)
	if diff := cmp.Diff([]string{"python3.12", "python3"}, got.Runner.Candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
	if got.Runner.MinVersion != "3.10" {
		t.Errorf("expected min_version override, got %s", got.Runner.MinVersion)
	}

	ts := runtime.Descriptor{
		Name:     "typescript",
		Runner:   runtime.Tool{Candidates: []string{"node"}},
		Compiler: &runtime.Tool{Candidates: []string{"tsc"}, MinVersion: "4.0"},
	}
	gotTS := o.Apply(ts)
	if gotTS.Compiler.Candidates[0] != "/opt/node/bin/tsc" {
		t.Errorf("compiler candidates not overridden: %v", gotTS.Compiler.Candidates)
	}
	if gotTS.Compiler.MinVersion != "4.0" {
		t.Errorf("compiler min version should be untouched, got %s", gotTS.Compiler.MinVersion)
	}
	// The registered descriptor must not be mutated.
	if ts.Compiler.Candidates[0] != "tsc" {
		t.Error("Apply mutated the original descriptor")
	}
}

func TestApplyNoMatchLeavesDescriptor(t *testing.T) {
	o := &runtime.Overrides{Runtimes: map[string]runtime.Override{}}
	d := runtime.Descriptor{Name: "shell", Runner: runtime.Tool{Candidates: []string{"bash"}}}
	got := o.Apply(d)
	if diff := cmp.Diff(d, got); diff != "" {
		t.Errorf("descriptor changed (-want +got):\n%s", diff)
	}
}

func TestLoadOverridesMissingFile(t *testing.T) {
	if _, err := runtime.LoadOverrides("/nonexistent/runtimes.yaml"); err == nil {
		t.Fatal("expected error")
	}
}
