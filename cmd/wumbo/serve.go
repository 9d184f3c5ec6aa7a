package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wumbo-framework/wumbo/engine"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for template execution",
	Long: `Start an HTTP server that executes templates on demand.

Executions are stateless: each request runs in a fresh child process.

Endpoints:
  POST /execute     Execute a template
  GET  /languages   List languages and runtime availability
  GET  /health      Health check`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "Default execution timeout")
	rootCmd.AddCommand(serveCmd)
}

type executeRequest struct {
	Language       string         `json:"language"`
	Source         string         `json:"source"`
	Args           []any          `json:"args,omitempty"`
	Kwargs         map[string]any `json:"kwargs,omitempty"`
	Timeout        string         `json:"timeout,omitempty"`
	NoSandbox      bool           `json:"no_sandbox,omitempty"`
	AllowedImports []string       `json:"allowed_imports,omitempty"`
}

type executeError struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StderrTail string `json:"stderr_tail,omitempty"`
	ExitCode   int    `json:"exit_code,omitempty"`
}

type executeResponse struct {
	ID         string        `json:"id"`
	Data       any           `json:"data"`
	Stdout     string        `json:"stdout,omitempty"`
	DurationMs int64         `json:"duration_ms"`
	Error      *executeError `json:"error,omitempty"`
}

type languageResponse struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Path      string `json:"path,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// newServeHandler builds the HTTP routes around an engine.
func newServeHandler(e *engine.Engine, defaultTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /execute", func(w http.ResponseWriter, r *http.Request) {
		var req executeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Source == "" {
			http.Error(w, "source required", http.StatusBadRequest)
			return
		}
		langName, err := getLanguageName(req.Language, "")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		execTimeout := defaultTimeout
		if req.Timeout != "" {
			if d, err := time.ParseDuration(req.Timeout); err == nil {
				execTimeout = d
			}
		}

		opts := []engine.Option{engine.WithTimeout(execTimeout)}
		if req.NoSandbox {
			opts = append(opts, engine.WithSandbox(false))
		}
		if req.AllowedImports != nil {
			opts = append(opts, engine.WithAllowedImports(req.AllowedImports...))
		}

		result := e.Execute(r.Context(), langName, req.Source, req.Args, req.Kwargs, opts...)

		resp := executeResponse{
			ID:         result.ID,
			Data:       result.Data,
			Stdout:     result.Stdout,
			DurationMs: result.Duration.Milliseconds(),
		}
		if result.Err != nil {
			resp.Error = &executeError{
				Kind:       string(result.Err.Kind),
				Message:    result.Err.Message,
				StderrTail: result.Err.StderrTail,
				ExitCode:   result.Err.ExitCode,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("GET /languages", func(w http.ResponseWriter, r *http.Request) {
		infos := e.ListAvailableLanguages(r.Context())
		resp := make([]languageResponse, len(infos))
		for i, info := range infos {
			resp[i] = languageResponse{
				Name:      info.Name,
				Available: info.Available,
				Version:   info.Version,
				Path:      info.Path,
				Detail:    info.Detail,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

func runServe(cmd *cobra.Command, args []string) {
	port, _ := cmd.Flags().GetInt("port")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	e, err := buildEngine(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", port)
	fmt.Fprintf(os.Stderr, "wumbo server listening on %s\n", addr)
	if err := http.ListenAndServe(addr, newServeHandler(e, timeout)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
