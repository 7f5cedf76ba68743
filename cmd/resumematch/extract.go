package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resume-matcher/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Print the text extracted from a PDF resume",
	RunE:  runExtract,
}

var (
	extractResume string
	extractJSON   bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractResume, "resume", "r", "", "Path to the resume PDF")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Print the full extraction result as JSON")
	_ = extractCmd.MarkFlagRequired("resume")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(extractResume)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}
	if v := extract.Validate(data); !v.IsValid {
		return fmt.Errorf("%s", v.Error)
	}

	res := extract.PDF(cmd.Context(), data)
	out := cmd.OutOrStdout()
	if extractJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if !res.Success {
		return fmt.Errorf("failed to extract text from PDF: %s", res.Error)
	}
	fmt.Fprintf(out, "Pages: %d\nCharacters: %d\n\n%s\n", res.PageCount, len(res.Text), res.Text)
	return nil
}
