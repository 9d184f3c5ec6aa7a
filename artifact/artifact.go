// Package artifact turns shim-wrapped template source into a runnable
// on-disk unit: a script file for interpreted languages, a compiled binary
// for the rest. Every artifact owns an isolated temp directory that the
// creating execution removes when it finishes, on every exit path.
package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/wumbo-framework/wumbo/language"
	"github.com/wumbo-framework/wumbo/runtime"
)

// DefaultCompileTimeout bounds a single compiler invocation.
const DefaultCompileTimeout = 60 * time.Second

// counter feeds unique temp-path suffixes; process-wide and append-only.
var counter atomic.Uint64

// Artifact is a built, runnable template. Owned exclusively by the execution
// that created it.
type Artifact struct {
	Language  string
	Dir       string   // temp directory holding every artifact file
	EntryPath string   // shim-wrapped source file
	RunPath   string   // what to execute: EntryPath, or the compiled output
	AuxFiles  []string // extra files written beside the entry
	InputFile string   // payload file when delivery is via WUMBO_INPUT_FILE
	Compiled  bool
}

// Cleanup removes the artifact directory. Best-effort: the directory lives
// under the temp root, so a failed removal leaks nothing but disk.
func (a *Artifact) Cleanup() error {
	if a == nil || a.Dir == "" {
		return nil
	}
	return os.RemoveAll(a.Dir)
}

// CompileError carries the compiler's diagnostics for a failed build. It is
// a distinct, earlier failure class from runtime errors: the template never
// ran.
type CompileError struct {
	Language string
	Output   string // combined compiler stdout+stderr
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s template: %s", e.Language, strings.TrimSpace(firstLines(e.Output, 3)))
}

// Builder writes and, where required, compiles artifacts.
type Builder struct {
	baseDir        string
	compileTimeout time.Duration
	logger         *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithBaseDir places artifact directories under dir instead of the system
// temp root.
func WithBaseDir(dir string) Option {
	return func(b *Builder) { b.baseDir = dir }
}

// WithCompileTimeout overrides the compiler invocation bound.
func WithCompileTimeout(d time.Duration) Option {
	return func(b *Builder) { b.compileTimeout = d }
}

// WithBuilderLogger sets the logger for build diagnostics.
func WithBuilderLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder returns a Builder writing under the system temp root.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		compileTimeout: DefaultCompileTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces a runnable artifact for the given language and source. The
// shim input must already carry the encoded payload; when PayloadViaFile is
// set the payload is written beside the entry and exposed via the artifact's
// InputFile.
//
// The caller owns the returned artifact and must Cleanup it on every exit
// path. On error, Build removes its own partial state and returns nothing.
func (b *Builder) Build(ctx context.Context, lang language.Language, res *runtime.Resolved, source string, in language.ShimInput) (*Artifact, error) {
	desc := lang.Runtime()
	dir, err := os.MkdirTemp(b.baseDir, tempPrefix(desc.Name))
	if err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	a := &Artifact{Language: desc.Name, Dir: dir}
	if err := b.populate(ctx, a, lang, res, source, in); err != nil {
		a.Cleanup()
		return nil, err
	}
	return a, nil
}

func (b *Builder) populate(ctx context.Context, a *Artifact, lang language.Language, res *runtime.Resolved, source string, in language.ShimInput) error {
	desc := lang.Runtime()

	a.EntryPath = filepath.Join(a.Dir, "template"+desc.Extension)
	if err := os.WriteFile(a.EntryPath, []byte(lang.Shim(source, in)), 0o600); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	a.RunPath = a.EntryPath

	if in.PayloadViaFile {
		a.InputFile = filepath.Join(a.Dir, "input.json")
		if err := os.WriteFile(a.InputFile, in.Payload, 0o600); err != nil {
			return fmt.Errorf("write input payload: %w", err)
		}
	}

	compiled, ok := lang.(language.Compiled)
	if !ok {
		return nil
	}

	for name, contents := range compiled.AuxFiles() {
		path := filepath.Join(a.Dir, name)
		if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
			return fmt.Errorf("write aux file %s: %w", name, err)
		}
		a.AuxFiles = append(a.AuxFiles, path)
	}

	if err := b.compile(ctx, a, compiled, res); err != nil {
		return err
	}
	a.RunPath = compiled.CompiledEntry(a.Dir, a.EntryPath)
	a.Compiled = true
	return nil
}

// compile runs the language's compiler inside the artifact dir with the host
// environment: the build phase is trusted, only the run phase is scrubbed.
func (b *Builder) compile(ctx context.Context, a *Artifact, lang language.Compiled, res *runtime.Resolved) error {
	args := lang.CompileArgs(res, a.EntryPath, a.Dir)

	ctx, cancel := context.WithTimeout(ctx, b.compileTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = a.Dir
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	b.logger.Debug("compile finished",
		"language", a.Language, "duration", time.Since(start), "err", err)

	// tsc reports diagnostics on stdout, most compilers on stderr; surface
	// both. Non-empty stderr on a zero exit still fails the build.
	if err != nil || stderr.Len() > 0 {
		out := stderr.String()
		if out == "" || stdout.Len() > 0 {
			out = stdout.String() + out
		}
		if ctx.Err() == context.DeadlineExceeded {
			out = "compiler timed out\n" + out
		}
		return &CompileError{Language: a.Language, Output: out}
	}
	return nil
}

func tempPrefix(language string) string {
	return fmt.Sprintf("wumbo-%s-%d-%s-", language, counter.Add(1), uuid.NewString()[:8])
}

func firstLines(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
