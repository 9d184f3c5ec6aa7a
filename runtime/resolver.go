package runtime

import (
	"context"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

// DefaultProbeTimeout bounds a single version probe.
const DefaultProbeTimeout = 5 * time.Second

// Resolver locates toolchains and caches results per language name.
// Safe for concurrent use: reads take a shared lock, and the first caller for
// an uncached language performs discovery while holding the write lock so the
// cache converges to one entry per language.
type Resolver struct {
	probeTimeout time.Duration
	logger       *slog.Logger

	// probe is the version-probe runner; replaced in tests.
	probe func(ctx context.Context, path string, args []string) (string, error)

	mu    sync.RWMutex
	cache map[string]*Resolved
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithProbeTimeout overrides the per-probe timeout.
func WithProbeTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.probeTimeout = d }
}

// WithLogger sets the logger used for probe diagnostics.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver returns a Resolver with an empty cache.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		probeTimeout: DefaultProbeTimeout,
		logger:       slog.Default(),
		probe:        runProbe,
		cache:        make(map[string]*Resolved),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve locates the toolchain for the descriptor, probing candidates in
// declared order and accepting the first that meets the version floor. The
// result is cached for the process lifetime; use ClearCache to invalidate.
func (r *Resolver) Resolve(ctx context.Context, d Descriptor) (*Resolved, error) {
	r.mu.RLock()
	if res, ok := r.cache[d.Name]; ok {
		r.mu.RUnlock()
		return res, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if res, ok := r.cache[d.Name]; ok {
		return res, nil
	}

	path, version, err := r.locate(ctx, d.Name, d.Runner)
	if err != nil {
		return nil, err
	}

	res := &Resolved{Path: path, Version: version}
	if d.Compiler != nil {
		cpath, cversion, err := r.locate(ctx, d.Name, *d.Compiler)
		if err != nil {
			return nil, err
		}
		res.CompilerPath = cpath
		res.CompilerVersion = cversion
	}

	r.logger.Debug("runtime resolved",
		"language", d.Name, "path", res.Path, "version", res.Version)
	r.cache[d.Name] = res
	return res, nil
}

// ClearCache drops all cached resolutions. Intended for tests and for hosts
// that install toolchains at runtime.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[string]*Resolved)
	r.mu.Unlock()
}

// locate tries each candidate and returns the first acceptable path/version.
func (r *Resolver) locate(ctx context.Context, language string, tool Tool) (string, string, error) {
	var tried []string
	var lastReason string
	probes, timeouts := 0, 0

	for _, candidate := range tool.Candidates {
		tried = append(tried, candidate)

		path, err := exec.LookPath(candidate)
		if err != nil {
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
		output, err := r.probe(probeCtx, path, tool.ProbeArgs)
		cancel()
		probes++

		if err != nil {
			if probeCtx.Err() == context.DeadlineExceeded {
				timeouts++
				lastReason = "probe timed out"
			} else {
				lastReason = err.Error()
			}
			r.logger.Debug("version probe failed", "language", language, "candidate", path, "error", err)
			continue
		}

		version, err := tool.ParseVersion(output)
		if err != nil {
			lastReason = err.Error()
			continue
		}
		if !tool.meetsMinimum(version) {
			lastReason = "version " + version + " below minimum " + tool.MinVersion
			r.logger.Debug("version below floor", "language", language, "candidate", path, "version", version)
			continue
		}
		return path, version, nil
	}

	if probes > 0 && probes == timeouts {
		return "", "", &ProbeTimeoutError{Language: language}
	}
	return "", "", &NotFoundError{Language: language, Tried: tried, Reason: lastReason}
}

func runProbe(ctx context.Context, path string, args []string) (string, error) {
	// Combined output: some toolchains print versions to stderr.
	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
