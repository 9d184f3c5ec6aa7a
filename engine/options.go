package engine

import "time"

// Environment carries the per-execution settings. Zero values fall back to
// the defaults documented on each option.
type Environment struct {
	Timeout          time.Duration
	MaxMemoryMB      int
	WorkingDir       string
	EnvVars          map[string]string
	Sandbox          bool
	NetworkAccess    bool
	FileSystemAccess bool
	AllowedImports   []string
	InterpreterArgs  []string
}

// DefaultEnvironment returns the settings Execute starts from: a 30 second
// timeout, sandboxing on, no network or filesystem access, no memory cap.
func DefaultEnvironment() Environment {
	return Environment{
		Timeout: 30 * time.Second,
		Sandbox: true,
	}
}

// Option adjusts one execution.
type Option func(*Environment)

// WithTimeout sets the wall-clock budget for the template process.
func WithTimeout(d time.Duration) Option {
	return func(e *Environment) { e.Timeout = d }
}

// WithMaxMemory caps the template's address space, in megabytes. Only
// honored on platforms with resource limits; elsewhere the execution fails
// rather than run uncapped.
func WithMaxMemory(mb int) Option {
	return func(e *Environment) { e.MaxMemoryMB = mb }
}

// WithWorkingDir overrides the template's working directory. The default is
// the per-execution artifact directory.
func WithWorkingDir(dir string) Option {
	return func(e *Environment) { e.WorkingDir = dir }
}

// WithEnv sets extra environment variables for the template process. They
// survive sandbox scrubbing.
func WithEnv(vars map[string]string) Option {
	return func(e *Environment) {
		if e.EnvVars == nil {
			e.EnvVars = make(map[string]string, len(vars))
		}
		for k, v := range vars {
			e.EnvVars[k] = v
		}
	}
}

// WithSandbox turns sandboxing on or off. It is on by default.
func WithSandbox(enabled bool) Option {
	return func(e *Environment) { e.Sandbox = enabled }
}

// WithNetworkAccess lets a sandboxed template reach the network by keeping
// the proxy variables.
func WithNetworkAccess() Option {
	return func(e *Environment) { e.NetworkAccess = true }
}

// WithFileSystemAccess lets a sandboxed template see the host HOME instead
// of being confined to its artifact directory.
func WithFileSystemAccess() Option {
	return func(e *Environment) { e.FileSystemAccess = true }
}

// WithAllowedImports restricts a sandboxed Python template to the named
// top-level modules. Passing no names blocks all imports.
func WithAllowedImports(modules ...string) Option {
	return func(e *Environment) {
		if modules == nil {
			modules = []string{}
		}
		e.AllowedImports = modules
	}
}

// WithInterpreterArgs appends extra flags to the runtime invocation, before
// the template path.
func WithInterpreterArgs(args ...string) Option {
	return func(e *Environment) { e.InterpreterArgs = append(e.InterpreterArgs, args...) }
}
