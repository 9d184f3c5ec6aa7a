// Package language defines the interface a language adapter implements to
// plug into the execution engine, mirroring the shim contract every adapter
// must honor: two injected bindings (positional args, keyword args) and two
// call-outs (success, error) that print the terminal marker and exit.
package language

import (
	"github.com/wumbo-framework/wumbo/runtime"
)

// ShimInput carries everything an adapter needs to generate its protocol
// preamble.
type ShimInput struct {
	// Payload is the encoded input document. Adapters that inject inputs as
	// literal text (shell) read it directly; the rest receive it through the
	// environment at run time.
	Payload []byte

	// PayloadViaFile is set when the payload is delivered through
	// WUMBO_INPUT_FILE instead of WUMBO_INPUT.
	PayloadViaFile bool

	// Sandbox enables language-level guards where the language supports them.
	Sandbox bool

	// AllowedImports is the module allow-list consulted by the import guard.
	// Only meaningful for python; nil disables the guard.
	AllowedImports []string
}

// Language is the per-language strategy: descriptor metadata, shim
// generation, and the argv shapes for running and checking an artifact.
// Implementations are stateless and safe for concurrent use.
type Language interface {
	// Name returns the unique language key, e.g. "python".
	Name() string

	// Runtime returns the static descriptor used by the resolver.
	Runtime() runtime.Descriptor

	// Shim returns the complete artifact source: protocol preamble followed
	// by the verbatim user source.
	Shim(source string, in ShimInput) string

	// RunArgs returns the argv that executes the entry file. For compiled
	// languages entry is the compiled output.
	RunArgs(res *runtime.Resolved, entry string, extraArgs []string) []string

	// CheckArgs returns the argv for a syntax check of the entry file without
	// running it, or nil when the language has no static check beyond
	// compilation.
	CheckArgs(res *runtime.Resolved, entry string) []string
}

// Compiled is implemented by languages with a separate compile step. The
// artifact builder invokes CompileArgs after writing the entry file and runs
// the artifact through CompiledEntry.
type Compiled interface {
	Language

	// CompileArgs returns the argv compiling entry into outDir.
	CompileArgs(res *runtime.Resolved, entry, outDir string) []string

	// CompiledEntry returns the path of the runnable the compiler produced.
	CompiledEntry(outDir, entry string) string

	// AuxFiles returns extra files to write beside the entry source before
	// compiling, keyed by file name.
	AuxFiles() map[string]string
}
