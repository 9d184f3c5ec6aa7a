package shell_test

import (
	"strings"
	"testing"

	"github.com/wumbo-framework/wumbo/language"
	"github.com/wumbo-framework/wumbo/language/shell"
	"github.com/wumbo-framework/wumbo/runtime"
)

func shim(t *testing.T, source, payload string) string {
	t.Helper()
	return shell.New().Shim(source, language.ShimInput{Payload: []byte(payload)})
}

func TestShimLiteralArgInjection(t *testing.T) {
	s := shim(t, `wumbo_success "${WUMBO_ARGS[0]}"`, `{"args":["hello",42],"kwargs":{"name":"world"}}`)

	if !strings.Contains(s, `WUMBO_ARGS=('hello' '42')`) {
		t.Errorf("args not injected literally:\n%s", s)
	}
	if !strings.Contains(s, `['name']='world'`) {
		t.Errorf("kwargs not injected:\n%s", s)
	}
	if !strings.Contains(s, "wumbo_success()") || !strings.Contains(s, "wumbo_error()") {
		t.Error("call-outs missing")
	}
}

func TestShimQuotesSingleQuotes(t *testing.T) {
	s := shim(t, "true", `{"args":["it's"],"kwargs":{}}`)
	if !strings.Contains(s, `'it'\''s'`) {
		t.Errorf("single quote not escaped:\n%s", s)
	}
}

func TestShimKeepsRawJSON(t *testing.T) {
	payload := `{"args":[1],"kwargs":{}}`
	s := shim(t, "true", payload)
	if !strings.Contains(s, "WUMBO_INPUT_JSON='"+payload+"'") {
		t.Error("raw payload variable missing")
	}
}

func TestShimMarkerOnlyInCallouts(t *testing.T) {
	s := shim(t, "echo hi", `{"args":[],"kwargs":{}}`)
	// The marker appears via printf escapes, never as a raw byte the user
	// could collide with.
	if strings.Contains(s, "\x00") {
		t.Error("shim source should not contain raw NUL bytes")
	}
	if strings.Count(s, `\000WUMBO:`) != 2 {
		t.Error("expected exactly the two call-out marker sites")
	}
}

func TestCheckArgs(t *testing.T) {
	res := &runtime.Resolved{Path: "/bin/bash"}
	args := shell.New().CheckArgs(res, "/tmp/t.sh")
	if len(args) != 3 || args[1] != "-n" {
		t.Errorf("expected bash -n check, got %v", args)
	}
}

func TestDescriptorVersionPattern(t *testing.T) {
	d := shell.New().Runtime()
	v, err := d.Runner.ParseVersion("GNU bash, version 5.2.21(1)-release (x86_64-pc-linux-gnu)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "5.2.21" {
		t.Errorf("expected 5.2.21, got %s", v)
	}
}
