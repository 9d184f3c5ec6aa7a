package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wumbo-framework/wumbo/engine"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a template (stateless execution)",
	Long: `Execute a template in a sandboxed child process and print its result.

Source can be provided via:
  - File argument: wumbo run template.py
  - Inline flag: wumbo run -l python -c 'wumbo_success(1+1)'
  - Stdin: echo 'wumbo_success(1+1)' | wumbo run -l python

Positional arguments and keyword arguments are JSON values:
  wumbo run template.py --arg 1 --arg '"two"' --kwarg retries=3`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "Template source to execute")
	cmd.Flags().StringArray("arg", nil, "Positional argument as JSON (repeatable)")
	cmd.Flags().StringArray("kwarg", nil, "Keyword argument key=json (repeatable)")
	cmd.Flags().Duration("timeout", 30*time.Second, "Execution timeout")
	cmd.Flags().Int("memory", 0, "Memory limit in MB (0 = unlimited)")
	cmd.Flags().Bool("no-sandbox", false, "Run with the host environment instead of a scrubbed one")
	cmd.Flags().Bool("net", false, "Grant network access to a sandboxed template")
	cmd.Flags().Bool("fs", false, "Grant filesystem access to a sandboxed template")
	cmd.Flags().String("workdir", "", "Working directory for the template")
	cmd.Flags().StringArray("env", nil, "Extra environment variable key=value (repeatable)")
	cmd.Flags().StringArray("allow-import", nil, "Allowed Python import (repeatable, restricts imports)")
	cmd.Flags().StringArray("interpreter-arg", nil, "Extra runtime flag (repeatable)")
}

// parseArgs decodes each --arg value as JSON; a value that is not valid JSON
// is taken as a plain string.
func parseArgs(raw []string) []any {
	args := make([]any, 0, len(raw))
	for _, r := range raw {
		var v any
		if err := json.Unmarshal([]byte(r), &v); err != nil {
			v = r
		}
		args = append(args, v)
	}
	return args
}

// parseKwargs decodes key=json pairs, falling back to plain strings.
func parseKwargs(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	kwargs := make(map[string]any, len(raw))
	for _, r := range raw {
		key, val, ok := strings.Cut(r, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid kwarg %q (expected key=value)", r)
		}
		var v any
		if err := json.Unmarshal([]byte(val), &v); err != nil {
			v = val
		}
		kwargs[key] = v
	}
	return kwargs, nil
}

func parseEnvVars(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(raw))
	for _, r := range raw {
		key, val, ok := strings.Cut(r, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid env var %q (expected key=value)", r)
		}
		vars[key] = val
	}
	return vars, nil
}

func buildRunOpts(cmd *cobra.Command) ([]engine.Option, error) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	memory, _ := cmd.Flags().GetInt("memory")
	noSandbox, _ := cmd.Flags().GetBool("no-sandbox")
	net, _ := cmd.Flags().GetBool("net")
	fs, _ := cmd.Flags().GetBool("fs")
	workdir, _ := cmd.Flags().GetString("workdir")
	envPairs, _ := cmd.Flags().GetStringArray("env")
	allowImports, _ := cmd.Flags().GetStringArray("allow-import")
	interpArgs, _ := cmd.Flags().GetStringArray("interpreter-arg")

	opts := []engine.Option{engine.WithTimeout(timeout)}
	if memory > 0 {
		opts = append(opts, engine.WithMaxMemory(memory))
	}
	if noSandbox {
		opts = append(opts, engine.WithSandbox(false))
	}
	if net {
		opts = append(opts, engine.WithNetworkAccess())
	}
	if fs {
		opts = append(opts, engine.WithFileSystemAccess())
	}
	if workdir != "" {
		opts = append(opts, engine.WithWorkingDir(workdir))
	}
	if len(envPairs) > 0 {
		vars, err := parseEnvVars(envPairs)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithEnv(vars))
	}
	if len(allowImports) > 0 {
		opts = append(opts, engine.WithAllowedImports(allowImports...))
	}
	if len(interpArgs) > 0 {
		opts = append(opts, engine.WithInterpreterArgs(interpArgs...))
	}
	return opts, nil
}

// readSource pulls template source from -c, a file argument, or stdin.
func readSource(cmd *cobra.Command, args []string) (source, filename string, ok bool) {
	code, _ := cmd.Flags().GetString("code")

	switch {
	case code != "":
		return code, "", true
	case len(args) > 0:
		filename = args[0]
		data, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return string(data), filename, true
	default:
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return "", "", false
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(data) == 0 {
			return "", "", false
		}
		return string(data), "", true
	}
}

func runRun(cmd *cobra.Command, args []string) {
	source, filename, ok := readSource(cmd, args)
	if !ok {
		cmd.Help()
		return
	}

	langFlag, _ := cmd.Flags().GetString("lang")
	langName, err := getLanguageName(langFlag, filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rawArgs, _ := cmd.Flags().GetStringArray("arg")
	rawKwargs, _ := cmd.Flags().GetStringArray("kwarg")
	kwargs, err := parseKwargs(rawKwargs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	opts, err := buildRunOpts(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	e, err := buildEngine(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result := e.Execute(context.Background(), langName, source, parseArgs(rawArgs), kwargs, opts...)
	if result.Stdout != "" {
		fmt.Fprint(os.Stderr, result.Stdout)
		if !strings.HasSuffix(result.Stdout, "\n") {
			fmt.Fprintln(os.Stderr)
		}
	}

	if result.Err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", result.Err)
		if result.Err.StderrTail != "" {
			fmt.Fprint(os.Stderr, result.Err.StderrTail)
		}
		os.Exit(1)
	}

	out, err := json.Marshal(result.Data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
