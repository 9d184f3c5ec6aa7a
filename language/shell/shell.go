// Package shell provides the bash language adapter. Inputs are injected as
// literal text into the generated script: positional args land in the
// WUMBO_ARGS array and keyword args in the WUMBO_KWARGS associative array.
package shell

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wumbo-framework/wumbo/language"
	"github.com/wumbo-framework/wumbo/runtime"
)

// Shell implements language.Language for bash templates. User code reports
// its outcome with the wumbo_success and wumbo_error functions; scalar
// success values that are not already JSON are quoted by the shim.
type Shell struct{}

// New returns the Shell adapter.
func New() *Shell {
	return &Shell{}
}

func (s *Shell) Name() string { return "shell" }

func (s *Shell) Runtime() runtime.Descriptor {
	return runtime.Descriptor{
		Name:      "shell",
		Extension: ".sh",
		Runner: runtime.Tool{
			Candidates:     []string{"bash"},
			ProbeArgs:      []string{"--version"},
			VersionPattern: `version (\d+\.\d+(?:\.\d+)?)`,
			MinVersion:     "4.0",
		},
	}
}

const callouts = `
_wumbo_json_string() {
    local s=${1//\\/\\\\}
    s=${s//\"/\\\"}
    s=${s//$'\n'/\\n}
    s=${s//$'\t'/\\t}
    printf '"%s"' "$s"
}

_wumbo_json_value() {
    case "$1" in
        null|true|false) printf '%s' "$1" ;;
        \[*|\{*|\"*) printf '%s' "$1" ;;
        *)
            if [[ "$1" =~ ^-?[0-9]+(\.[0-9]+)?$ ]]; then
                printf '%s' "$1"
            else
                _wumbo_json_string "$1"
            fi
            ;;
    esac
}

wumbo_success() {
    printf '\000WUMBO:{"status":"success","payload":%s}\n' "$(_wumbo_json_value "${1:-null}")"
    exit 0
}

wumbo_error() {
    printf '\000WUMBO:{"status":"error","payload":{"message":%s}}\n' "$(_wumbo_json_string "${1:-}")"
    exit 1
}
`

func (s *Shell) Shim(source string, in language.ShimInput) string {
	var b strings.Builder
	b.WriteString("#!/usr/bin/env bash\n")
	b.WriteString("set -u\n")

	// Literal injection keeps the shim free of any JSON parser dependency.
	var input struct {
		Args   []any          `json:"args"`
		Kwargs map[string]any `json:"kwargs"`
	}
	if err := json.Unmarshal(in.Payload, &input); err == nil {
		b.WriteString("WUMBO_ARGS=(")
		for i, arg := range input.Args {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(quote(scalar(arg)))
		}
		b.WriteString(")\n")

		b.WriteString("declare -A WUMBO_KWARGS=(")
		for _, k := range sortedKeys(input.Kwargs) {
			fmt.Fprintf(&b, " [%s]=%s", quote(k), quote(scalar(input.Kwargs[k])))
		}
		b.WriteString(" )\n")
	}
	fmt.Fprintf(&b, "WUMBO_INPUT_JSON=%s\n", quote(string(in.Payload)))

	b.WriteString(callouts)
	b.WriteString("\n")
	b.WriteString(source)
	b.WriteString("\n")
	return b.String()
}

func (s *Shell) RunArgs(res *runtime.Resolved, entry string, extraArgs []string) []string {
	args := []string{res.Path}
	args = append(args, extraArgs...)
	return append(args, entry)
}

func (s *Shell) CheckArgs(res *runtime.Resolved, entry string) []string {
	return []string{res.Path, "-n", entry}
}

// scalar renders a decoded JSON value as the text a shell variable holds:
// strings verbatim, everything else re-encoded as JSON.
func scalar(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, _ := json.Marshal(v)
	return string(data)
}

// quote single-quotes a string for safe literal embedding in bash.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
