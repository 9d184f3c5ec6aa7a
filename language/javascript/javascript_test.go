package javascript_test

import (
	"strings"
	"testing"

	"github.com/wumbo-framework/wumbo/language"
	"github.com/wumbo-framework/wumbo/language/javascript"
	"github.com/wumbo-framework/wumbo/runtime"
)

func TestShimBindings(t *testing.T) {
	shim := javascript.New().Shim("wumboSuccess(wumboArgs.length)", language.ShimInput{})

	for _, want := range []string{"const wumboArgs", "const wumboKwargs", "function wumboSuccess", "function wumboError", "WUMBO_INPUT_FILE"} {
		if !strings.Contains(shim, want) {
			t.Errorf("shim missing %q", want)
		}
	}
	if strings.Index(shim, "function wumboSuccess") > strings.Index(shim, "wumboSuccess(wumboArgs.length)") {
		t.Error("preamble must precede user source")
	}
}

func TestCalloutsExit(t *testing.T) {
	shim := javascript.New().Shim("", language.ShimInput{})
	// Both call-outs must terminate the process so at most one can report.
	if strings.Count(shim, "process.exit(0)") != 1 || strings.Count(shim, "process.exit(1)") != 1 {
		t.Error("call-outs must exit the process")
	}
}

func TestCheckArgs(t *testing.T) {
	res := &runtime.Resolved{Path: "/usr/bin/node"}
	args := javascript.New().CheckArgs(res, "/tmp/t.js")
	if len(args) != 3 || args[1] != "--check" {
		t.Errorf("expected node --check, got %v", args)
	}
}

func TestDescriptorVersionPattern(t *testing.T) {
	d := javascript.New().Runtime()
	v, err := d.Runner.ParseVersion("v20.11.1\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "20.11.1" {
		t.Errorf("expected 20.11.1, got %s", v)
	}
}
