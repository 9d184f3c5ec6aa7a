// Package sandbox translates an execution policy into process-level
// restrictions: a scrubbed environment, a confined working directory, and
// platform resource limits.
//
// Restrictions are best-effort only where the platform allows no better, but
// never silently weaker than requested: if a requested limit cannot be
// honored natively, building the launch spec fails with a CapabilityError
// instead of dropping the limit.
package sandbox

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"
)

// Policy is the restriction set requested for one execution. The zero value
// is a fully open policy.
type Policy struct {
	// Sandbox enables environment scrubbing and working-directory
	// confinement. When false the child inherits the host environment.
	Sandbox bool

	// NetworkAccess widens the scrubbed environment with the host's proxy
	// variables. Process-level network denial is a shim/guard concern; the
	// policy only controls what the child can discover.
	NetworkAccess bool

	// FileSystemAccess lets the child see the host HOME. Without it, HOME and
	// the temp variables point into the artifact directory.
	FileSystemAccess bool

	// EnvVars are explicitly granted variables, passed through scrubbing.
	EnvVars map[string]string

	// WorkingDir overrides the working directory; empty means the artifact
	// directory.
	WorkingDir string

	// CPUTime caps child CPU time (applied as RLIMIT_CPU where supported).
	// Zero means no limit.
	CPUTime time.Duration

	// MaxMemoryMB caps the child address space. Zero means no limit.
	// Requesting a limit on a platform without native support is an error.
	MaxMemoryMB int
}

// Spec is the launch specification derived from a Policy, consumed by the
// process executor.
type Spec struct {
	Env    []string
	Dir    string
	Limits Limits
}

// Limits are the platform resource limits to apply at process creation.
type Limits struct {
	CPUSeconds  uint64 // 0 = unlimited
	MemoryBytes uint64 // 0 = unlimited
}

// CapabilityError reports a restriction the current platform cannot honor.
type CapabilityError struct {
	Restriction string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("platform cannot enforce %s natively", e.Restriction)
}

// baseVars survive scrubbing unconditionally; child processes are useless
// without a search path.
var baseVars = []string{"PATH", "LANG", "LC_ALL", "TZ"}

// proxyVars survive scrubbing when the policy grants network access.
var proxyVars = []string{"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "no_proxy"}

// Build derives the launch spec for an artifact rooted at artifactDir.
func (p Policy) Build(artifactDir string) (Spec, error) {
	spec := Spec{Dir: p.WorkingDir}
	if spec.Dir == "" {
		spec.Dir = artifactDir
	}

	if p.MaxMemoryMB > 0 && !limitsSupported {
		return Spec{}, &CapabilityError{Restriction: "memory limit"}
	}
	if p.CPUTime > 0 && limitsSupported {
		spec.Limits.CPUSeconds = uint64(math.Ceil(p.CPUTime.Seconds()))
	}
	if p.MaxMemoryMB > 0 {
		spec.Limits.MemoryBytes = uint64(p.MaxMemoryMB) << 20
	}

	if !p.Sandbox {
		spec.Env = append(os.Environ(), flatten(p.EnvVars)...)
		return spec, nil
	}

	env := map[string]string{}
	for _, name := range baseVars {
		if v, ok := os.LookupEnv(name); ok {
			env[name] = v
		}
	}
	if p.NetworkAccess {
		for _, name := range proxyVars {
			if v, ok := os.LookupEnv(name); ok {
				env[name] = v
			}
		}
	}
	if p.FileSystemAccess {
		if home, ok := os.LookupEnv("HOME"); ok {
			env["HOME"] = home
		}
	} else {
		env["HOME"] = artifactDir
		env["TMPDIR"] = artifactDir
	}
	for k, v := range p.EnvVars {
		env[k] = v
	}
	spec.Env = flatten(env)
	return spec, nil
}

func flatten(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
