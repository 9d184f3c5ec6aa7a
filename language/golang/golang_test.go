package golang_test

import (
	"strings"
	"testing"

	"github.com/wumbo-framework/wumbo/language"
	"github.com/wumbo-framework/wumbo/language/golang"
	"github.com/wumbo-framework/wumbo/runtime"
)

func TestShimWrapsUserCodeInFunction(t *testing.T) {
	shim := golang.New().Shim("wumboSuccess(len(wumboArgs))", language.ShimInput{})

	if !strings.Contains(shim, "package main") {
		t.Error("shim must be a main package")
	}
	if !strings.Contains(shim, "func wumboRun() {") {
		t.Error("user code wrapper missing")
	}
	idx := strings.Index(shim, "wumboSuccess(len(wumboArgs))")
	if idx == -1 || idx < strings.Index(shim, "func wumboRun()") {
		t.Error("user source must sit inside wumboRun")
	}
	// wumboRun must reference the bindings so user code that ignores them
	// still compiles.
	if !strings.Contains(shim, "_ = wumboArgs") || !strings.Contains(shim, "_ = wumboKwargs") {
		t.Error("bindings must be referenced to avoid unused-variable errors")
	}
}

func TestCompileArgs(t *testing.T) {
	g := golang.New()
	res := &runtime.Resolved{Path: "/usr/local/go/bin/go"}
	args := g.CompileArgs(res, "/tmp/a/template.go", "/tmp/a")

	want := []string{"/usr/local/go/bin/go", "build", "-o", "/tmp/a/template", "/tmp/a/template.go"}
	if strings.Join(args, " ") != strings.Join(want, " ") {
		t.Errorf("expected %v, got %v", want, args)
	}
}

func TestRunArgsIsBinaryOnly(t *testing.T) {
	g := golang.New()
	args := g.RunArgs(&runtime.Resolved{Path: "/usr/local/go/bin/go"}, "/tmp/a/template", []string{"-x"})
	if len(args) != 1 || args[0] != "/tmp/a/template" {
		t.Errorf("compiled binary runs directly, got %v", args)
	}
}

func TestAuxFilesIncludeGoMod(t *testing.T) {
	aux := golang.New().AuxFiles()
	mod, ok := aux["go.mod"]
	if !ok {
		t.Fatal("go.mod aux file required")
	}
	if !strings.Contains(mod, "module wumbo-template") {
		t.Errorf("unexpected go.mod contents: %s", mod)
	}
}

func TestNoStaticCheckBeyondCompile(t *testing.T) {
	if golang.New().CheckArgs(&runtime.Resolved{Path: "go"}, "x.go") != nil {
		t.Error("compilation is the static check")
	}
}
