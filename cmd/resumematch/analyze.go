package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"resume-matcher/internal/analyses"
	"resume-matcher/internal/bootstrap"
	"resume-matcher/internal/jobpost"
	"resume-matcher/internal/shared/config"
)

const (
	formatText = "text"
	formatJSON = "json"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a PDF resume against a job description",
	RunE:  runAnalyze,
}

var (
	analyzeResume  string
	analyzeJD      string
	analyzeJDText  string
	analyzeJDURL   string
	analyzeFormat  string
	analyzeOut     string
	analyzeArchive bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeResume, "resume", "r", "", "Path to the resume PDF")
	analyzeCmd.Flags().StringVar(&analyzeJD, "jd", "", "Path to a text file holding the job description")
	analyzeCmd.Flags().StringVar(&analyzeJDText, "jd-text", "", "Job description text")
	analyzeCmd.Flags().StringVar(&analyzeJDURL, "jd-url", "", "URL of a job posting to fetch")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", formatText, "Output format: text or json")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Write the report to this file instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzeArchive, "archive", false, "Store the report in the configured database and object store")
	_ = analyzeCmd.MarkFlagRequired("resume")
	analyzeCmd.MarkFlagsMutuallyExclusive("jd", "jd-text", "jd-url")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if analyzeFormat != formatText && analyzeFormat != formatJSON {
		return fmt.Errorf("unknown --format %q (want text or json)", analyzeFormat)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	jd, err := loadJobDescription(ctx)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(analyzeResume)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{SkipDB: !analyzeArchive, SkipStore: !analyzeArchive})
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.AnalysesService.Run(ctx, analyses.Upload{
		FileName: filepath.Base(analyzeResume),
		Data:     data,
	}, jd)
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	out, err := renderReport(report, analyzeFormat)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), analyzeOut, out)
}

func loadJobDescription(ctx context.Context) (string, error) {
	switch {
	case analyzeJD != "":
		b, err := os.ReadFile(analyzeJD)
		if err != nil {
			return "", fmt.Errorf("failed to read job description: %w", err)
		}
		return string(b), nil
	case analyzeJDText != "":
		return analyzeJDText, nil
	case analyzeJDURL != "":
		return jobpost.NewFetcher().Fetch(ctx, analyzeJDURL)
	default:
		return "", fmt.Errorf("one of --jd, --jd-text or --jd-url is required")
	}
}

func renderReport(report analyses.Report, format string) ([]byte, error) {
	if format == formatJSON {
		return analyses.ExportJSON(report)
	}
	return []byte(analyses.SummaryText(report)), nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Report written to %s\n", path)
	return nil
}
