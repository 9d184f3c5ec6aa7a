// Package golang provides the Go language adapter. Templates are compiled
// with the Go toolchain into a binary inside the artifact directory and run
// directly.
package golang

import (
	"path/filepath"

	"github.com/wumbo-framework/wumbo/language"
	"github.com/wumbo-framework/wumbo/runtime"
)

// Go implements language.Compiled. User code is placed inside a function
// body and sees wumboArgs, wumboKwargs, wumboSuccess and wumboError.
type Go struct{}

// New returns the Go adapter.
func New() *Go {
	return &Go{}
}

func (g *Go) Name() string { return "go" }

func (g *Go) Runtime() runtime.Descriptor {
	return runtime.Descriptor{
		Name:      "go",
		Extension: ".go",
		Runner: runtime.Tool{
			Candidates:     []string{"go"},
			ProbeArgs:      []string{"version"},
			VersionPattern: `go(\d+\.\d+(?:\.\d+)?)`,
			MinVersion:     "1.21",
		},
	}
}

const preamble = `package main

import (
	"encoding/json"
	"fmt"
	"os"
)

var wumboArgs []interface{}
var wumboKwargs map[string]interface{}

func wumboLoad() {
	raw := os.Getenv("WUMBO_INPUT")
	if path := os.Getenv("WUMBO_INPUT_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			wumboError("read input: " + err.Error())
		}
		raw = string(data)
	}
	if raw == "" {
		raw = ` + "`" + `{"args":[],"kwargs":{}}` + "`" + `
	}
	var in struct {
		Args   []interface{}          ` + "`json:\"args\"`" + `
		Kwargs map[string]interface{} ` + "`json:\"kwargs\"`" + `
	}
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		wumboError("decode input: " + err.Error())
	}
	wumboArgs, wumboKwargs = in.Args, in.Kwargs
}

func wumboEmit(status string, payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{"status": status, "payload": payload})
	if err != nil {
		fmt.Println("\x00WUMBO:" + ` + "`" + `{"status":"error","payload":{"message":"payload not serializable"}}` + "`" + `)
		os.Exit(1)
	}
	fmt.Println("\x00WUMBO:" + string(data))
}

func wumboSuccess(value interface{}) {
	wumboEmit("success", value)
	os.Exit(0)
}

func wumboError(message string) {
	wumboEmit("error", map[string]interface{}{"message": message})
	os.Exit(1)
}

func main() {
	wumboLoad()
	wumboRun()
}

func wumboRun() {
	_ = wumboArgs
	_ = wumboKwargs
`

const postamble = `}
`

// Shim places user code inside the wumboRun body so statements and short
// variable declarations work verbatim.
func (g *Go) Shim(source string, in language.ShimInput) string {
	return preamble + "\n" + source + "\n" + postamble
}

func (g *Go) RunArgs(res *runtime.Resolved, entry string, extraArgs []string) []string {
	return []string{entry}
}

// CheckArgs returns nil: compilation is the static check.
func (g *Go) CheckArgs(res *runtime.Resolved, entry string) []string {
	return nil
}

func (g *Go) CompileArgs(res *runtime.Resolved, entry, outDir string) []string {
	return []string{res.Path, "build", "-o", g.CompiledEntry(outDir, entry), entry}
}

func (g *Go) CompiledEntry(outDir, entry string) string {
	return filepath.Join(outDir, "template")
}

// AuxFiles supplies the module file the toolchain requires next to the entry
// source.
func (g *Go) AuxFiles() map[string]string {
	return map[string]string{
		"go.mod": "module wumbo-template\n\ngo 1.21\n",
	}
}
