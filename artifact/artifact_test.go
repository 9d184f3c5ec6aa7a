package artifact_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wumbo-framework/wumbo/artifact"
	"github.com/wumbo-framework/wumbo/language"
	"github.com/wumbo-framework/wumbo/language/shell"
	"github.com/wumbo-framework/wumbo/runtime"
)

// compileFail is a compiled pseudo-language whose compiler always errors.
type compileFail struct{ language.Language }

func (c compileFail) CompileArgs(res *runtime.Resolved, entry, outDir string) []string {
	return []string{"sh", "-c", "echo 'syntax error near line 3' >&2; exit 1"}
}
func (c compileFail) CompiledEntry(outDir, entry string) string {
	return filepath.Join(outDir, "out")
}
func (c compileFail) AuxFiles() map[string]string {
	return map[string]string{"aux.txt": "aux contents\n"}
}

func TestBuildInterpreted(t *testing.T) {
	b := artifact.NewBuilder(artifact.WithBaseDir(t.TempDir()))
	in := language.ShimInput{Payload: []byte(`{"args":[],"kwargs":{}}`)}

	a, err := b.Build(context.Background(), shell.New(), &runtime.Resolved{Path: "/bin/bash"}, "echo hi", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Cleanup()

	if a.Compiled {
		t.Error("shell artifact must not be marked compiled")
	}
	if a.RunPath != a.EntryPath {
		t.Error("interpreted artifacts run their entry file")
	}
	data, err := os.ReadFile(a.EntryPath)
	if err != nil {
		t.Fatalf("entry not written: %v", err)
	}
	if !strings.Contains(string(data), "echo hi") {
		t.Error("user source missing from entry")
	}
}

func TestBuildWritesPayloadFile(t *testing.T) {
	b := artifact.NewBuilder(artifact.WithBaseDir(t.TempDir()))
	in := language.ShimInput{Payload: []byte(`{"args":[1],"kwargs":{}}`), PayloadViaFile: true}

	a, err := b.Build(context.Background(), shell.New(), &runtime.Resolved{Path: "/bin/bash"}, "true", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Cleanup()

	if a.InputFile == "" {
		t.Fatal("input file expected")
	}
	data, err := os.ReadFile(a.InputFile)
	if err != nil {
		t.Fatalf("input file not written: %v", err)
	}
	if string(data) != `{"args":[1],"kwargs":{}}` {
		t.Errorf("unexpected payload: %s", data)
	}
}

func TestBuildCompileErrorCleansUp(t *testing.T) {
	base := t.TempDir()
	b := artifact.NewBuilder(artifact.WithBaseDir(base))
	lang := compileFail{Language: shell.New()}

	_, err := b.Build(context.Background(), lang, &runtime.Resolved{Path: "/bin/bash"}, "whatever", language.ShimInput{Payload: []byte(`{}`)})

	var ce *artifact.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if !strings.Contains(ce.Output, "syntax error near line 3") {
		t.Errorf("compiler diagnostics missing: %q", ce.Output)
	}

	entries, _ := os.ReadDir(base)
	if len(entries) != 0 {
		t.Errorf("failed build must remove its dir, found %d entries", len(entries))
	}
}

func TestCleanupRemovesEverything(t *testing.T) {
	base := t.TempDir()
	b := artifact.NewBuilder(artifact.WithBaseDir(base))

	a, err := b.Build(context.Background(), shell.New(), &runtime.Resolved{Path: "/bin/bash"}, "true", language.ShimInput{Payload: []byte(`{}`), PayloadViaFile: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(a.Dir); !os.IsNotExist(err) {
		t.Error("artifact dir should be gone")
	}
}

func TestUniqueDirsUnderConcurrency(t *testing.T) {
	base := t.TempDir()
	b := artifact.NewBuilder(artifact.WithBaseDir(base))
	in := language.ShimInput{Payload: []byte(`{}`)}

	dirs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		go func() {
			a, err := b.Build(context.Background(), shell.New(), &runtime.Resolved{Path: "/bin/bash"}, "true", in)
			if err != nil {
				t.Error(err)
				dirs <- ""
				return
			}
			dirs <- a.Dir
		}()
	}

	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		d := <-dirs
		if seen[d] {
			t.Fatalf("duplicate artifact dir %s", d)
		}
		seen[d] = true
	}
}
