// Package wumbo executes user-authored templates written in Python,
// JavaScript, TypeScript, Go, or shell as sandboxed child processes.
//
// # Overview
//
// A template is a source snippet that receives positional and keyword
// arguments through generated bindings and reports exactly one structured
// result through a success or error call-out. The engine resolves the
// language runtime on the host, generates a self-contained artifact around
// the template, runs it out of process, and decodes the result from a
// terminal marker on stdout.
//
// # Basic Usage
//
//	e := engine.New()
//
//	result := e.Execute(ctx, "python",
//	    `wumbo_success(sum(wumbo_args))`,
//	    []any{1, 2, 3}, nil)
//	fmt.Println(result.Data) // 6
//
// # Sandboxing
//
// Templates run sandboxed by default: a scrubbed environment, a private
// working directory, and no network discovery. Capabilities are granted
// explicitly:
//
//	result := e.Execute(ctx, "python", code,
//	    nil, nil,
//	    engine.WithNetworkAccess(),
//	    engine.WithAllowedImports("json", "math"),
//	    engine.WithTimeout(5*time.Second))
//
// See the [engine], [language], [runtime], and [protocol] packages for
// detailed API documentation.
package wumbo
