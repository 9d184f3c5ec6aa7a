// Package typescript provides the TypeScript language adapter. Templates are
// compiled with tsc into the artifact directory and the emitted JavaScript is
// run with Node.js.
package typescript

import (
	"path/filepath"
	"strings"

	"github.com/wumbo-framework/wumbo/language"
	"github.com/wumbo-framework/wumbo/runtime"
)

// TypeScript implements language.Compiled. User code sees the same bindings
// as JavaScript (wumboArgs, wumboKwargs, wumboSuccess, wumboError) with types
// attached.
type TypeScript struct{}

// New returns the TypeScript adapter.
func New() *TypeScript {
	return &TypeScript{}
}

func (t *TypeScript) Name() string { return "typescript" }

func (t *TypeScript) Runtime() runtime.Descriptor {
	return runtime.Descriptor{
		Name:      "typescript",
		Extension: ".ts",
		Runner: runtime.Tool{
			Candidates:     []string{"node", "nodejs"},
			ProbeArgs:      []string{"--version"},
			VersionPattern: `v(\d+\.\d+(?:\.\d+)?)`,
			MinVersion:     "16.0",
		},
		Compiler: &runtime.Tool{
			Candidates:     []string{"tsc"},
			ProbeArgs:      []string{"--version"},
			VersionPattern: `Version (\d+\.\d+(?:\.\d+)?)`,
			MinVersion:     "4.0",
		},
	}
}

// The shim avoids @types/node by declaring the two ambient symbols it needs.
const preamble = `declare const process: any;
declare function require(name: string): any;

const _wumboFs = require("fs");

function _wumboLoad(): any {
  const path = process.env.WUMBO_INPUT_FILE;
  const raw = path
    ? _wumboFs.readFileSync(path, "utf8")
    : (process.env.WUMBO_INPUT || '{"args":[],"kwargs":{}}');
  return JSON.parse(raw);
}

const _wumboInput = _wumboLoad();
const wumboArgs: any[] = _wumboInput.args || [];
const wumboKwargs: { [key: string]: any } = _wumboInput.kwargs || {};

function _wumboEmit(envelope: any): void {
  process.stdout.write("\x00WUMBO:" + JSON.stringify(envelope) + "\n");
}

function wumboSuccess(value: any): void {
  _wumboEmit({ status: "success", payload: value === undefined ? null : value });
  process.exit(0);
}

function wumboError(message: string): void {
  _wumboEmit({ status: "error", payload: { message: String(message) } });
  process.exit(1);
}
`

func (t *TypeScript) Shim(source string, in language.ShimInput) string {
	return preamble + "\n" + source + "\n"
}

func (t *TypeScript) RunArgs(res *runtime.Resolved, entry string, extraArgs []string) []string {
	args := []string{res.Path}
	args = append(args, extraArgs...)
	return append(args, entry)
}

// CheckArgs type-checks without emitting.
func (t *TypeScript) CheckArgs(res *runtime.Resolved, entry string) []string {
	args := []string{res.CompilerPath}
	args = append(args, t.compileFlags()...)
	return append(args, "--noEmit", entry)
}

func (t *TypeScript) compileFlags() []string {
	return []string{"--target", "es2020", "--module", "commonjs"}
}

func (t *TypeScript) CompileArgs(res *runtime.Resolved, entry, outDir string) []string {
	args := []string{res.CompilerPath}
	args = append(args, t.compileFlags()...)
	return append(args, "--outDir", outDir, entry)
}

func (t *TypeScript) CompiledEntry(outDir, entry string) string {
	base := strings.TrimSuffix(filepath.Base(entry), ".ts") + ".js"
	return filepath.Join(outDir, base)
}

func (t *TypeScript) AuxFiles() map[string]string { return nil }
