// Command resumematch scores a resume against a job description from the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "resumematch",
	Short:         "AI resume assistant",
	Long:          "resumematch extracts text from a PDF resume, scores it against a job description with an LLM, and suggests improvements.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
