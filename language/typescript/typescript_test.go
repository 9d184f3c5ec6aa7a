package typescript_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/wumbo-framework/wumbo/language"
	"github.com/wumbo-framework/wumbo/language/typescript"
	"github.com/wumbo-framework/wumbo/runtime"
)

func TestCompileArgs(t *testing.T) {
	ts := typescript.New()
	res := &runtime.Resolved{Path: "/usr/bin/node", CompilerPath: "/usr/bin/tsc"}

	args := ts.CompileArgs(res, "/tmp/a/template.ts", "/tmp/a")
	if args[0] != "/usr/bin/tsc" {
		t.Errorf("compiler path not used: %v", args)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--outDir /tmp/a") {
		t.Errorf("missing outDir: %v", args)
	}
	if args[len(args)-1] != "/tmp/a/template.ts" {
		t.Errorf("entry must come last: %v", args)
	}
}

func TestCompiledEntry(t *testing.T) {
	ts := typescript.New()
	got := ts.CompiledEntry("/tmp/a", "/tmp/a/template.ts")
	if got != filepath.Join("/tmp/a", "template.js") {
		t.Errorf("unexpected compiled entry: %s", got)
	}
}

func TestRunArgsUsesNode(t *testing.T) {
	ts := typescript.New()
	res := &runtime.Resolved{Path: "/usr/bin/node", CompilerPath: "/usr/bin/tsc"}
	args := ts.RunArgs(res, "/tmp/a/template.js", nil)
	if args[0] != "/usr/bin/node" || args[len(args)-1] != "/tmp/a/template.js" {
		t.Errorf("unexpected run args: %v", args)
	}
}

func TestShimDeclaresAmbientSymbols(t *testing.T) {
	shim := typescript.New().Shim("wumboSuccess(1)", language.ShimInput{})
	if !strings.Contains(shim, "declare const process") {
		t.Error("shim must declare process to compile without @types/node")
	}
	if !strings.Contains(shim, "wumboArgs: any[]") {
		t.Error("typed bindings missing")
	}
}

func TestDescriptorHasCompiler(t *testing.T) {
	d := typescript.New().Runtime()
	if d.Compiler == nil {
		t.Fatal("typescript requires a compiler tool")
	}
	v, err := d.Compiler.ParseVersion("Version 5.3.3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "5.3.3" {
		t.Errorf("expected 5.3.3, got %s", v)
	}
}
