package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wumbo-framework/wumbo/engine"
	"github.com/wumbo-framework/wumbo/runtime"
)

var rootCmd = &cobra.Command{
	Use:   "wumbo [file]",
	Short: "Polyglot template execution engine",
	Long: `wumbo - Execute templates written in Python, JavaScript, TypeScript, Go,
or shell as sandboxed child processes.

Templates receive their inputs through generated bindings and report a
single structured result. Run templates from files, inline strings, or
stdin. By default templates run sandboxed with a scrubbed environment;
grant network or filesystem access explicitly with flags.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRun, // Default to run command behavior
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("lang", "l", "", "Language: python, javascript, typescript, go, shell (default: detect from extension)")
	rootCmd.PersistentFlags().String("runtimes", "", "Path to runtime overrides YAML")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	addRunFlags(rootCmd)
}

// getLanguageName resolves the language from the flag or, failing that, the
// file extension.
func getLanguageName(langFlag, filename string) (string, error) {
	lang := langFlag

	if lang == "" && filename != "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".py":
			lang = "python"
		case ".js", ".mjs":
			lang = "javascript"
		case ".ts":
			lang = "typescript"
		case ".go":
			lang = "go"
		case ".sh", ".bash":
			lang = "shell"
		}
	}

	switch lang {
	case "":
		return "", fmt.Errorf("language required: use --lang (python, javascript, typescript, go, shell)")
	case "py":
		return "python", nil
	case "js":
		return "javascript", nil
	case "ts":
		return "typescript", nil
	case "golang":
		return "go", nil
	case "bash", "sh":
		return "shell", nil
	case "python", "javascript", "typescript", "go", "shell":
		return lang, nil
	default:
		return "", fmt.Errorf("unknown language %q", lang)
	}
}

// buildEngine constructs the engine from the persistent flags.
func buildEngine(cmd *cobra.Command) (*engine.Engine, error) {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	overridesPath, _ := cmd.Root().PersistentFlags().GetString("runtimes")

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []engine.EngineOption{engine.WithLogger(logger)}
	if overridesPath != "" {
		overrides, err := runtime.LoadOverrides(overridesPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithRuntimeOverrides(overrides))
	}
	return engine.New(opts...), nil
}
