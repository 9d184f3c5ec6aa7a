package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var langsCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and runtime availability",
	Long: `Probe the host for each supported language's runtime and report what was
found. A language is available when a runtime binary meeting its minimum
version is on PATH (or named in the runtime overrides file).`,
	Args: cobra.NoArgs,
	Run:  runLangs,
}

func init() {
	rootCmd.AddCommand(langsCmd)
}

func runLangs(cmd *cobra.Command, args []string) {
	e, err := buildEngine(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	infos := e.ListAvailableLanguages(context.Background())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LANGUAGE\tAVAILABLE\tVERSION\tPATH")
	for _, info := range infos {
		if info.Available {
			fmt.Fprintf(w, "%s\tyes\t%s\t%s\n", info.Name, info.Version, info.Path)
		} else {
			fmt.Fprintf(w, "%s\tno\t-\t%s\n", info.Name, info.Detail)
		}
	}
	w.Flush()
}
