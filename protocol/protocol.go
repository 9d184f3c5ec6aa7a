// Package protocol implements the wire codec between the host and generated
// template artifacts.
//
// Inputs travel to the artifact as a JSON document, delivered through the
// WUMBO_INPUT environment variable for small payloads or a temp file named by
// WUMBO_INPUT_FILE for large ones. The artifact reports its outcome by
// printing a single terminal marker line to stdout:
//
//	\x00WUMBO:{"status":"success","payload":...}
//
// Everything else on stdout is diagnostic text. Shims print the marker only
// through their success/error call-outs; at most one call-out runs per
// execution.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Marker prefixes the terminal envelope line on stdout.
// Format: \x00WUMBO:{json}\n
const Marker = "\x00WUMBO:"

// Environment variables used to deliver the input payload to the artifact.
const (
	InputEnv     = "WUMBO_INPUT"
	InputFileEnv = "WUMBO_INPUT_FILE"
)

// MaxEnvPayload is the largest input document delivered via environment
// variable. Larger payloads go through a temp file to stay clear of typical
// environment size limits.
const MaxEnvPayload = 32 << 10

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Input is the JSON document handed to the artifact.
type Input struct {
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

// EncodeInput serializes positional and keyword arguments into the input
// document. Nil slices and maps encode as empty, not null, so shims can index
// without guarding.
func EncodeInput(args []any, kwargs map[string]any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	data, err := json.Marshal(Input{Args: args, Kwargs: kwargs})
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	return data, nil
}

// NeedsFile reports whether the payload must be delivered via temp file
// rather than environment variable.
func NeedsFile(payload []byte) bool {
	return len(payload) > MaxEnvPayload
}

// Envelope is the terminal result emitted by a shim call-out.
type Envelope struct {
	Status  string          `json:"status"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorPayload is the payload of an error envelope. Kind is optional; the
// python import guard sets it to "sandbox".
type ErrorPayload struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// KindSandbox marks an error envelope raised by a sandbox guard rather than
// user code.
const KindSandbox = "sandbox"

// Decode scans raw stdout for the terminal marker. It returns the parsed
// envelope, the remaining diagnostic text (marker line removed), and whether
// a marker was found. A marker that is present but does not parse yields
// found=true with a non-nil error; callers treat that as a protocol
// violation.
//
// The first marker wins: shims terminate the process inside the call-out, so
// a well-behaved artifact emits exactly one.
func Decode(stdout string) (env Envelope, diagnostics string, found bool, err error) {
	idx := strings.Index(stdout, Marker)
	if idx == -1 {
		return Envelope{}, stdout, false, nil
	}

	rest := stdout[idx+len(Marker):]
	line := rest
	var after string
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		line = rest[:nl]
		after = rest[nl+1:]
	}
	diagnostics = stdout[:idx] + after

	line = strings.TrimRight(line, "\r")
	if jsonErr := json.Unmarshal([]byte(line), &env); jsonErr != nil {
		return Envelope{}, diagnostics, true, fmt.Errorf("malformed envelope %q: %w", truncate(line, 120), jsonErr)
	}
	if env.Status != StatusSuccess && env.Status != StatusError {
		return Envelope{}, diagnostics, true, fmt.Errorf("unknown envelope status %q", env.Status)
	}
	return env, diagnostics, true, nil
}

// Value unmarshals a success payload into host values.
func (e Envelope) Value() (any, error) {
	if len(e.Payload) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(e.Payload, &v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

// ErrorInfo extracts the message and kind from an error envelope. A bare
// string payload is accepted as the message.
func (e Envelope) ErrorInfo() ErrorPayload {
	var p ErrorPayload
	if json.Unmarshal(e.Payload, &p) == nil && p.Message != "" {
		return p
	}
	var s string
	if json.Unmarshal(e.Payload, &s) == nil {
		return ErrorPayload{Message: s}
	}
	return ErrorPayload{Message: string(e.Payload)}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
