// Package javascript provides the Node.js language adapter.
package javascript

import (
	"github.com/wumbo-framework/wumbo/language"
	"github.com/wumbo-framework/wumbo/runtime"
)

// JavaScript implements language.Language for Node.js templates. User code
// sees wumboArgs, wumboKwargs, wumboSuccess and wumboError.
type JavaScript struct{}

// New returns the JavaScript adapter.
func New() *JavaScript {
	return &JavaScript{}
}

func (j *JavaScript) Name() string { return "javascript" }

func (j *JavaScript) Runtime() runtime.Descriptor {
	return runtime.Descriptor{
		Name:      "javascript",
		Extension: ".js",
		Runner: runtime.Tool{
			Candidates:     []string{"node", "nodejs"},
			ProbeArgs:      []string{"--version"},
			VersionPattern: `v(\d+\.\d+(?:\.\d+)?)`,
			MinVersion:     "16.0",
		},
	}
}

const preamble = `"use strict";
const _wumboFs = require("fs");

function _wumboLoad() {
  const path = process.env.WUMBO_INPUT_FILE;
  const raw = path
    ? _wumboFs.readFileSync(path, "utf8")
    : (process.env.WUMBO_INPUT || '{"args":[],"kwargs":{}}');
  return JSON.parse(raw);
}

const _wumboInput = _wumboLoad();
const wumboArgs = _wumboInput.args || [];
const wumboKwargs = _wumboInput.kwargs || {};

function _wumboEmit(envelope) {
  process.stdout.write("\x00WUMBO:" + JSON.stringify(envelope) + "\n");
}

function wumboSuccess(value) {
  _wumboEmit({ status: "success", payload: value === undefined ? null : value });
  process.exit(0);
}

function wumboError(message) {
  _wumboEmit({ status: "error", payload: { message: String(message) } });
  process.exit(1);
}
`

func (j *JavaScript) Shim(source string, in language.ShimInput) string {
	return preamble + "\n" + source + "\n"
}

func (j *JavaScript) RunArgs(res *runtime.Resolved, entry string, extraArgs []string) []string {
	args := []string{res.Path}
	args = append(args, extraArgs...)
	return append(args, entry)
}

func (j *JavaScript) CheckArgs(res *runtime.Resolved, entry string) []string {
	return []string{res.Path, "--check", entry}
}
