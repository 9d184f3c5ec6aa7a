// Package python provides the Python language adapter.
package python

import (
	"encoding/json"
	"fmt"

	"github.com/wumbo-framework/wumbo/language"
	"github.com/wumbo-framework/wumbo/runtime"
)

// Python implements language.Language for CPython templates. User code sees
// wumbo_args, wumbo_kwargs, wumbo_success and wumbo_error. With sandboxing
// enabled, an import guard installed before user code rejects modules outside
// the allow-list.
type Python struct{}

// New returns the Python adapter.
func New() *Python {
	return &Python{}
}

func (p *Python) Name() string { return "python" }

func (p *Python) Runtime() runtime.Descriptor {
	return runtime.Descriptor{
		Name:      "python",
		Extension: ".py",
		Runner: runtime.Tool{
			Candidates:     []string{"python3", "python"},
			ProbeArgs:      []string{"--version"},
			VersionPattern: `Python (\d+\.\d+(?:\.\d+)?)`,
			MinVersion:     "3.8",
		},
	}
}

const preamble = `import sys as _wumbo_sys
import os as _wumbo_os
import json as _wumbo_json

def _wumbo_load():
    path = _wumbo_os.environ.get("WUMBO_INPUT_FILE")
    if path:
        with open(path, "r", encoding="utf-8") as f:
            return _wumbo_json.load(f)
    return _wumbo_json.loads(_wumbo_os.environ.get("WUMBO_INPUT", '{"args":[],"kwargs":{}}'))

_wumbo_input = _wumbo_load()
wumbo_args = _wumbo_input.get("args", [])
wumbo_kwargs = _wumbo_input.get("kwargs", {})

def _wumbo_emit(envelope):
    _wumbo_sys.stdout.write("\x00WUMBO:" + _wumbo_json.dumps(envelope) + "\n")
    _wumbo_sys.stdout.flush()

def wumbo_success(value):
    _wumbo_emit({"status": "success", "payload": value})
    _wumbo_sys.exit(0)

def wumbo_error(message):
    _wumbo_emit({"status": "error", "payload": {"message": str(message)}})
    _wumbo_sys.exit(1)
`

// guard installs the import hook before any user code runs. The allow-list
// literal is spliced in as a JSON array, which is also valid Python.
const guard = `
import builtins as _wumbo_builtins
_wumbo_allowed = set(%s)
_wumbo_real_import = _wumbo_builtins.__import__

def _wumbo_guarded_import(name, *args, **kwargs):
    root = name.split(".")[0]
    if root not in _wumbo_allowed:
        _wumbo_emit({"status": "error", "payload": {"message": "import of '" + root + "' is not allowed", "kind": "sandbox"}})
        _wumbo_sys.exit(1)
    return _wumbo_real_import(name, *args, **kwargs)

_wumbo_builtins.__import__ = _wumbo_guarded_import
`

func (p *Python) Shim(source string, in language.ShimInput) string {
	shim := preamble
	if in.Sandbox && in.AllowedImports != nil {
		allowed, _ := json.Marshal(in.AllowedImports)
		shim += fmt.Sprintf(guard, allowed)
	}
	return shim + "\n" + source + "\n"
}

func (p *Python) RunArgs(res *runtime.Resolved, entry string, extraArgs []string) []string {
	args := []string{res.Path}
	args = append(args, extraArgs...)
	return append(args, entry)
}

func (p *Python) CheckArgs(res *runtime.Resolved, entry string) []string {
	return []string{res.Path, "-m", "py_compile", entry}
}
