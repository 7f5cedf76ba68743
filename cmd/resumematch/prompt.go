package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resume-matcher/internal/extract"
	"resume-matcher/internal/llm"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render an LLM prompt without calling a provider",
	RunE:  runPrompt,
}

var (
	promptResume   string
	promptJD       string
	promptKind     string
	promptAnalysis string
)

func init() {
	promptCmd.Flags().StringVarP(&promptResume, "resume", "r", "", "Path to the resume PDF or a .txt file")
	promptCmd.Flags().StringVar(&promptJD, "jd", "", "Path to a text file holding the job description")
	promptCmd.Flags().StringVar(&promptKind, "kind", llm.PromptMatch, "Prompt kind: match or improvement")
	promptCmd.Flags().StringVar(&promptAnalysis, "analysis", "", "Path to a prior analysis JSON (improvement prompts)")
	_ = promptCmd.MarkFlagRequired("resume")
	_ = promptCmd.MarkFlagRequired("jd")

	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, _ []string) error {
	resumeText, err := readResumeText(cmd, promptResume)
	if err != nil {
		return err
	}
	jd, err := os.ReadFile(promptJD)
	if err != nil {
		return fmt.Errorf("failed to read job description: %w", err)
	}

	var prompt string
	switch promptKind {
	case llm.PromptMatch:
		prompt = llm.BuildMatchPrompt(resumeText, string(jd))
	case llm.PromptImprovement:
		analysis := "{}"
		if promptAnalysis != "" {
			b, err := os.ReadFile(promptAnalysis)
			if err != nil {
				return fmt.Errorf("failed to read analysis: %w", err)
			}
			if !json.Valid(b) {
				return fmt.Errorf("analysis file is not valid JSON")
			}
			analysis = string(b)
		}
		prompt = llm.BuildImprovementPrompt(resumeText, string(jd), analysis)
	default:
		return fmt.Errorf("unknown --kind %q (want match or improvement)", promptKind)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# version=%s hash=%s\n%s\n", llm.PromptVersion, llm.PromptHash(prompt), prompt)
	return nil
}

func readResumeText(cmd *cobra.Command, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read resume: %w", err)
	}
	if extract.Validate(data).IsValid {
		res := extract.PDF(cmd.Context(), data)
		if !res.Success {
			return "", fmt.Errorf("failed to extract text from PDF: %s", res.Error)
		}
		return res.Text, nil
	}
	return string(data), nil
}
