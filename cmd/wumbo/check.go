package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate template syntax without running it",
	Long: `Check that a template parses (or compiles) for its language.

The template is wrapped in its bindings and handed to the runtime's syntax
check mode; compiled languages validate by compiling. The template itself
never runs.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runCheck,
}

func init() {
	checkCmd.Flags().StringP("code", "c", "", "Template source to check")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
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

	e, err := buildEngine(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := e.ValidateSource(context.Background(), langName, source); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("ok")
}
