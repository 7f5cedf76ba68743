package analyses

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"resume-matcher/internal/extract"
	"resume-matcher/internal/llm"
	"resume-matcher/internal/shared/metrics"
	"resume-matcher/internal/shared/storage/object"
	"resume-matcher/internal/shared/telemetry"
)

const (
	uploadsNamespace = "uploads"
	reportsPrefix    = "reports"
)

// Upload is a resume file as received from a client.
type Upload struct {
	FileName string
	Data     []byte
}

// Run extracts text from a PDF upload and runs the full analysis. The job
// description is validated before the upload is parsed.
func (s *Service) Run(ctx context.Context, up Upload, jobDescription string) (Report, error) {
	if err := s.validateJobDescription(jobDescription); err != nil {
		return Report{}, err
	}
	if !strings.EqualFold(filepath.Ext(up.FileName), ".pdf") {
		return Report{}, &ValidationError{Issues: []string{"Please upload a PDF file only."}}
	}
	if s.MaxUploadBytes > 0 && int64(len(up.Data)) > s.MaxUploadBytes {
		metrics.IncExtractionFailed("too_large")
		return Report{}, &ExtractionError{
			Reason: fmt.Sprintf("File size (%.1f MB) exceeds maximum allowed size (%d MB).",
				float64(len(up.Data))/(1024*1024), s.MaxUploadBytes/(1024*1024)),
			Err: ErrFileTooLarge,
		}
	}

	if v := extract.Validate(up.Data); !v.IsValid {
		metrics.IncExtractionFailed("invalid_pdf")
		return Report{}, &ExtractionError{Reason: v.Error}
	}
	res := extract.PDF(ctx, up.Data)
	if !res.Success {
		metrics.IncExtractionFailed("no_text")
		telemetry.Warn("extract.failed", map[string]any{
			"request_id": telemetry.RequestID(ctx),
			"file_name":  up.FileName,
			"error":      res.Error,
		})
		return Report{}, &ExtractionError{Reason: "Failed to extract text from PDF: " + res.Error}
	}

	info := &FileInfo{
		FileName:   filepath.Base(up.FileName),
		PageCount:  res.PageCount,
		FileSize:   len(up.Data),
		MethodUsed: res.MethodUsed,
	}
	return s.complete(ctx, Request{ResumeText: res.Text, JobDescription: jobDescription}, info, &up)
}

// RunText runs the full analysis on already-extracted resume text.
func (s *Service) RunText(ctx context.Context, req Request) (Report, error) {
	return s.complete(ctx, req, nil, nil)
}

func (s *Service) complete(ctx context.Context, req Request, info *FileInfo, up *Upload) (Report, error) {
	result, err := s.Analyze(ctx, req)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		ID:             uuid.NewString(),
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
		Analysis:       result,
		FileInfo:       info,
		Warnings:       []string{},
		ScoreBand:      Band(result.AIAnalysis.OverallMatchScore),
		PromptVersion:  llm.PromptVersion,
		PromptHash:     llm.PromptHash(llm.BuildMatchPrompt(req.ResumeText, req.JobDescription)),
		Provider:       s.Provider,
		Model:          s.Model,
		CreatedAt:      s.now(),
	}

	suggestions, err := s.SuggestImprovements(ctx, req, result)
	if err != nil {
		report.Warnings = append(report.Warnings, err.Error())
	}
	report.Suggestions = suggestions

	s.archive(ctx, &report, up)
	return report, nil
}

// archive stores the upload, the report row and its exports. Failures are
// recorded as warnings; the analysis itself has already succeeded.
func (s *Service) archive(ctx context.Context, report *Report, up *Upload) {
	requestID := telemetry.RequestID(ctx)
	warn := func(stage string, err error) {
		telemetry.Warn("storage.failed", map[string]any{
			"request_id": requestID,
			"report_id":  report.ID,
			"stage":      stage,
			"error":      sanitizeError(err),
		})
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s not saved: %s", stage, sanitizeError(err)))
	}

	if s.Store != nil && up != nil {
		key, err := object.UploadKey(uploadsNamespace, report.ID, up.FileName)
		if err == nil {
			_, err = s.Store.Put(ctx, key, "application/pdf", bytes.NewReader(up.Data))
		}
		if err != nil {
			warn("upload", err)
		} else {
			report.UploadKey = key
		}
	}

	if s.Repo != nil {
		if err := s.Repo.Create(ctx, *report); err != nil {
			warn("report", err)
		}
	}

	if s.Store != nil {
		if _, err := s.Store.Put(ctx, SummaryKey(report.ID), "text/plain; charset=utf-8", strings.NewReader(SummaryText(*report))); err != nil {
			warn("summary", err)
		}
		payload, err := ExportJSON(*report)
		if err == nil {
			_, err = s.Store.Put(ctx, ExportKey(report.ID), "application/json", bytes.NewReader(payload))
		}
		if err != nil {
			warn("export", err)
		}
	}
}

// SummaryKey is the object key of a report's plain-text summary.
func SummaryKey(id string) string {
	return path.Join(reportsPrefix, id, SummaryFileName)
}

// ExportKey is the object key of a report's JSON export.
func ExportKey(id string) string {
	return path.Join(reportsPrefix, id, ExportFileName)
}
