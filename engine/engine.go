// Package engine executes user-authored templates as out-of-process children
// and reduces each run to a single tagged Result.
//
// An execution moves through a fixed lifecycle: the request is validated, the
// language runtime is resolved, an artifact is generated (and compiled for
// compiled languages), the child process runs under the sandbox policy, and
// its stdout is decoded into the terminal envelope. Temporary state is
// removed on every path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wumbo-framework/wumbo/artifact"
	"github.com/wumbo-framework/wumbo/language"
	"github.com/wumbo-framework/wumbo/language/golang"
	"github.com/wumbo-framework/wumbo/language/javascript"
	"github.com/wumbo-framework/wumbo/language/python"
	"github.com/wumbo-framework/wumbo/language/shell"
	"github.com/wumbo-framework/wumbo/language/typescript"
	"github.com/wumbo-framework/wumbo/protocol"
	"github.com/wumbo-framework/wumbo/runtime"
	"github.com/wumbo-framework/wumbo/sandbox"
)

// defaultGrace is how long a timed-out child gets between SIGTERM and
// SIGKILL.
const defaultGrace = 3 * time.Second

// Engine is the execution façade. It is safe for concurrent use; executions
// share only the runtime resolution cache.
type Engine struct {
	languages   map[string]language.Language
	resolver    *runtime.Resolver
	builder     *artifact.Builder
	overrides   *runtime.Overrides
	logger      *slog.Logger
	grace       time.Duration
	artifactDir string
}

// EngineOption configures an Engine at construction.
type EngineOption func(*Engine)

// WithLanguages replaces the default language set.
func WithLanguages(langs ...language.Language) EngineOption {
	return func(e *Engine) {
		e.languages = make(map[string]language.Language, len(langs))
		for _, l := range langs {
			e.languages[l.Name()] = l
		}
	}
}

// WithRuntimeOverrides applies host-supplied descriptor overrides (candidate
// binaries, version floors) before resolution.
func WithRuntimeOverrides(o *runtime.Overrides) EngineOption {
	return func(e *Engine) { e.overrides = o }
}

// WithLogger sets the structured logger. The default discards nothing but
// logs at the handler's level.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithArtifactDir places per-execution artifact directories under dir
// instead of the system temp directory.
func WithArtifactDir(dir string) EngineOption {
	return func(e *Engine) { e.artifactDir = dir }
}

// WithTerminationGrace sets the SIGTERM-to-SIGKILL window for timed-out
// children.
func WithTerminationGrace(d time.Duration) EngineOption {
	return func(e *Engine) { e.grace = d }
}

// DefaultLanguages returns the built-in language set: python, javascript,
// typescript, go, and shell.
func DefaultLanguages() []language.Language {
	return []language.Language{
		python.New(),
		javascript.New(),
		typescript.New(),
		golang.New(),
		shell.New(),
	}
}

// New builds an Engine with the default language set.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.Default(),
		grace:  defaultGrace,
	}
	WithLanguages(DefaultLanguages()...)(e)
	for _, opt := range opts {
		opt(e)
	}
	e.resolver = runtime.NewResolver(runtime.WithLogger(e.logger))
	bopts := []artifact.Option{artifact.WithBuilderLogger(e.logger)}
	if e.artifactDir != "" {
		bopts = append(bopts, artifact.WithBaseDir(e.artifactDir))
	}
	e.builder = artifact.NewBuilder(bopts...)
	return e
}

// Languages returns the registered language names, sorted.
func (e *Engine) Languages() []string {
	names := make([]string, 0, len(e.languages))
	for name := range e.languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// descriptor returns the language's runtime descriptor with any host
// overrides applied.
func (e *Engine) descriptor(lang language.Language) runtime.Descriptor {
	return e.overrides.Apply(lang.Runtime())
}

// Execute runs source as a template in the named language and returns its
// terminal Result. Exactly one Result is produced per call, on success,
// failure, and timeout alike.
func (e *Engine) Execute(ctx context.Context, langName, source string, args []any, kwargs map[string]any, opts ...Option) Result {
	start := time.Now()
	id := uuid.NewString()
	env := DefaultEnvironment()
	for _, opt := range opts {
		opt(&env)
	}

	res := e.execute(ctx, id, langName, source, args, kwargs, env)
	res.ID = id
	res.Duration = time.Since(start)

	if res.Err != nil {
		e.logger.Debug("execution failed",
			"id", id, "language", langName,
			"kind", res.Err.Kind, "duration", res.Duration)
	} else {
		e.logger.Debug("execution succeeded",
			"id", id, "language", langName, "duration", res.Duration)
	}
	return res
}

func (e *Engine) execute(ctx context.Context, id, langName, source string, args []any, kwargs map[string]any, env Environment) Result {
	fail := func(kind ErrorKind, msg string) Result {
		return Result{Err: &Failure{Kind: kind, Message: msg}}
	}

	lang, ok := e.languages[langName]
	if !ok {
		return fail(ErrRuntimeNotFound, fmt.Sprintf("unsupported language %q (have %s)", langName, strings.Join(e.Languages(), ", ")))
	}
	if strings.TrimSpace(source) == "" {
		return fail(ErrCompile, "empty template source")
	}

	resolved, err := e.resolver.Resolve(ctx, e.descriptor(lang))
	if err != nil {
		var probeErr *runtime.ProbeTimeoutError
		if errors.As(err, &probeErr) {
			return fail(ErrRuntimeProbeTimeout, err.Error())
		}
		return fail(ErrRuntimeNotFound, err.Error())
	}

	payload, err := protocol.EncodeInput(args, kwargs)
	if err != nil {
		return fail(ErrSerialization, err.Error())
	}
	in := language.ShimInput{
		Payload:        payload,
		PayloadViaFile: protocol.NeedsFile(payload),
		Sandbox:        env.Sandbox,
		AllowedImports: env.AllowedImports,
	}

	a, err := e.builder.Build(ctx, lang, resolved, source, in)
	if err != nil {
		var compileErr *artifact.CompileError
		if errors.As(err, &compileErr) {
			return Result{Err: &Failure{
				Kind:       ErrCompile,
				Message:    compileErr.Error(),
				StderrTail: lastN(compileErr.Output, stderrTailCap),
			}}
		}
		return fail(ErrCompile, err.Error())
	}
	defer func() {
		if cerr := a.Cleanup(); cerr != nil {
			e.logger.Warn("artifact cleanup", "id", id, "error", cerr)
		}
	}()

	policy := sandbox.Policy{
		Sandbox:          env.Sandbox,
		NetworkAccess:    env.NetworkAccess,
		FileSystemAccess: env.FileSystemAccess,
		EnvVars:          env.EnvVars,
		WorkingDir:       env.WorkingDir,
		CPUTime:          env.Timeout,
		MaxMemoryMB:      env.MaxMemoryMB,
	}
	spec, err := policy.Build(a.Dir)
	if err != nil {
		return fail(ErrSandboxViolation, err.Error())
	}
	if a.InputFile != "" {
		spec.Env = append(spec.Env, protocol.InputFileEnv+"="+a.InputFile)
	} else {
		spec.Env = append(spec.Env, protocol.InputEnv+"="+string(payload))
	}

	argv := lang.RunArgs(resolved, a.RunPath, env.InterpreterArgs)
	pres := e.runProcess(ctx, argv, spec, env.Timeout)
	if pres.startErr != nil {
		var capErr *sandbox.CapabilityError
		if errors.As(pres.startErr, &capErr) {
			return fail(ErrSandboxViolation, pres.startErr.Error())
		}
		return fail(ErrProcessCrashed, fmt.Sprintf("start %s: %v", argv[0], pres.startErr))
	}
	if pres.timedOut {
		// Partial stdout is useless as a result but kept for diagnosis.
		_, diagnostics, _, _ := protocol.Decode(pres.stdout)
		return Result{Stdout: diagnostics, Err: &Failure{
			Kind:       ErrTimeout,
			Message:    fmt.Sprintf("execution exceeded %s", env.Timeout),
			StderrTail: lastN(pres.stderr, stderrTailCap),
			ExitCode:   pres.exitCode,
		}}
	}
	return e.decode(pres)
}

// decode maps the raw process outcome to a Result. The terminal marker is
// authoritative: a parsed envelope wins over exit code and stderr noise.
func (e *Engine) decode(pres procResult) Result {
	envelope, diagnostics, found, err := protocol.Decode(pres.stdout)
	switch {
	case found && err != nil:
		return Result{Stdout: diagnostics, Err: &Failure{
			Kind:       ErrProtocolViolation,
			Message:    err.Error(),
			StderrTail: lastN(pres.stderr, stderrTailCap),
			ExitCode:   pres.exitCode,
		}}
	case !found && pres.exitCode == 0:
		return Result{Stdout: diagnostics, Err: &Failure{
			Kind:       ErrProtocolViolation,
			Message:    "process exited without reporting a result",
			StderrTail: lastN(pres.stderr, stderrTailCap),
		}}
	case !found:
		return Result{Stdout: diagnostics, Err: &Failure{
			Kind:       ErrProcessCrashed,
			Message:    fmt.Sprintf("process exited with code %d", pres.exitCode),
			StderrTail: lastN(pres.stderr, stderrTailCap),
			ExitCode:   pres.exitCode,
		}}
	}

	if envelope.Status == protocol.StatusError {
		info := envelope.ErrorInfo()
		kind := ErrTemplate
		if info.Kind == protocol.KindSandbox {
			kind = ErrSandboxViolation
		}
		return Result{Stdout: diagnostics, Err: &Failure{
			Kind:       kind,
			Message:    info.Message,
			StderrTail: lastN(pres.stderr, stderrTailCap),
			ExitCode:   pres.exitCode,
		}}
	}

	value, err := envelope.Value()
	if err != nil {
		return Result{Stdout: diagnostics, Err: &Failure{
			Kind:    ErrSerialization,
			Message: err.Error(),
		}}
	}
	return Result{Data: value, Stdout: diagnostics}
}

// ValidateSource checks that source is syntactically valid for the language
// without running it. Compiled languages validate by compiling; interpreted
// ones run the runtime's check mode. A nil return means the template would
// at least parse.
func (e *Engine) ValidateSource(ctx context.Context, langName, source string) error {
	lang, ok := e.languages[langName]
	if !ok {
		return &Failure{Kind: ErrRuntimeNotFound, Message: fmt.Sprintf("unsupported language %q", langName)}
	}
	if strings.TrimSpace(source) == "" {
		return &Failure{Kind: ErrCompile, Message: "empty template source"}
	}
	resolved, err := e.resolver.Resolve(ctx, e.descriptor(lang))
	if err != nil {
		var probeErr *runtime.ProbeTimeoutError
		if errors.As(err, &probeErr) {
			return &Failure{Kind: ErrRuntimeProbeTimeout, Message: err.Error()}
		}
		return &Failure{Kind: ErrRuntimeNotFound, Message: err.Error()}
	}

	payload, _ := protocol.EncodeInput(nil, nil)
	a, err := e.builder.Build(ctx, lang, resolved, source, language.ShimInput{Payload: payload})
	if err != nil {
		var compileErr *artifact.CompileError
		if errors.As(err, &compileErr) {
			return &Failure{Kind: ErrCompile, Message: compileErr.Error(), StderrTail: lastN(compileErr.Output, stderrTailCap)}
		}
		return &Failure{Kind: ErrCompile, Message: err.Error()}
	}
	defer a.Cleanup()

	if _, compiled := lang.(language.Compiled); compiled {
		// Build already compiled the template; it was the check.
		return nil
	}
	argv := lang.CheckArgs(resolved, a.EntryPath)
	if argv == nil {
		return nil
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = a.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &Failure{
			Kind:       ErrCompile,
			Message:    fmt.Sprintf("%s: syntax check failed", langName),
			StderrTail: lastN(string(out), stderrTailCap),
		}
	}
	return nil
}

// LanguageInfo reports one language's runtime availability.
type LanguageInfo struct {
	Name      string
	Available bool
	Path      string
	Version   string
	Detail    string // failure reason when unavailable
}

// ListAvailableLanguages probes every registered language concurrently and
// reports which have a usable runtime. Probing is idempotent; resolved
// runtimes are cached.
func (e *Engine) ListAvailableLanguages(ctx context.Context) []LanguageInfo {
	names := e.Languages()
	infos := make([]LanguageInfo, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			lang := e.languages[name]
			info := LanguageInfo{Name: name}
			if resolved, err := e.resolver.Resolve(gctx, e.descriptor(lang)); err != nil {
				info.Detail = err.Error()
			} else {
				info.Available = true
				info.Path = resolved.Path
				info.Version = resolved.Version
			}
			infos[i] = info
			return nil
		})
	}
	_ = g.Wait()
	return infos
}
