package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"resume-matcher/internal/keywords"
	"resume-matcher/internal/llm"
	"resume-matcher/internal/shared/metrics"
	"resume-matcher/internal/shared/storage/object"
	"resume-matcher/internal/shared/telemetry"
	"resume-matcher/internal/similarity"
)

const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var validate = validator.New()

// Service runs resume/job description analyses. Keywords and Similarity are
// shared read-only across requests; Repo and Store are optional.
type Service struct {
	LLM        llm.Completer
	Keywords   *keywords.Extractor
	Similarity *similarity.Scorer
	Repo       Repo
	Store      object.Store

	TopN                   int
	MinJobDescriptionChars int
	MaxUploadBytes         int64
	Provider               string
	Model                  string
	// DisableRetry turns off the single retry on transient model errors.
	DisableRetry bool

	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ValidateRequest checks the input rules that gate any model call.
func (s *Service) ValidateRequest(req Request) error {
	req.ResumeText = strings.TrimSpace(req.ResumeText)
	req.JobDescription = strings.TrimSpace(req.JobDescription)

	var issues []string
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return &ValidationError{Issues: []string{err.Error()}}
		}
		for _, fe := range fieldErrs {
			if fe.Field() == "ResumeText" {
				issues = append(issues, "Resume text is required.")
			}
		}
	}
	if err := s.validateJobDescription(req.JobDescription); err != nil {
		issues = append(issues, err.(*ValidationError).Issues...)
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func (s *Service) validateJobDescription(jd string) error {
	minChars := s.MinJobDescriptionChars
	if minChars < 1 {
		minChars = 1
	}
	if err := validate.Var(strings.TrimSpace(jd), fmt.Sprintf("required,min=%d", minChars)); err != nil {
		return &ValidationError{Issues: []string{s.jobDescriptionMessage()}}
	}
	return nil
}

func (s *Service) jobDescriptionMessage() string {
	if s.MinJobDescriptionChars > 0 {
		return fmt.Sprintf("Please provide a detailed job description (at least %d characters).", s.MinJobDescriptionChars)
	}
	return "Please provide a job description."
}

// Analyze runs the match analysis. The model call runs concurrently with keyword
// extraction and similarity scoring. A validation failure returns before any model
// call; a model failure returns an error-tagged Result together with a *ModelCallError.
func (s *Service) Analyze(ctx context.Context, req Request) (Result, error) {
	if err := s.ValidateRequest(req); err != nil {
		return Result{}, err
	}
	if s.LLM == nil {
		err := &ModelCallError{Err: llm.ErrNotConfigured}
		return Failed(s.now(), err.Error()), err
	}

	requestID := telemetry.RequestID(ctx)
	startedAt := time.Now()
	metrics.IncAnalysis(StatusStarted)
	telemetry.Info("analysis.status", map[string]any{
		"request_id": requestID,
		"status":     StatusStarted,
		"resume_len": len(req.ResumeText),
		"jd_len":     len(req.JobDescription),
	})

	prompt := llm.BuildMatchPrompt(req.ResumeText, req.JobDescription)
	completer := s.completer(requestID, "match")

	var (
		reply     string
		kwReport  KeywordAnalysisReport
		semantic  float64
		g, gctx   = errgroup.WithContext(ctx)
		extractor = s.extractor()
	)
	g.Go(func() error {
		var err error
		reply, err = completer.Complete(gctx, prompt)
		return err
	})
	g.Go(func() error {
		kwReport = BuildKeywordReport(
			extractor.Extract(req.ResumeText, s.TopN),
			extractor.Extract(req.JobDescription, s.TopN),
		)
		return nil
	})
	g.Go(func() error {
		semantic = s.Similarity.Similarity(gctx, req.ResumeText, req.JobDescription)
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.IncAnalysis(StatusFailed)
		metrics.ObserveAnalysisDurationMs(sinceMs(startedAt))
		telemetry.Error("analysis.status", map[string]any{
			"request_id":  requestID,
			"status":      StatusFailed,
			"error":       sanitizeError(err),
			"duration_ms": sinceMs(startedAt),
		})
		callErr := &ModelCallError{Err: err}
		return Failed(s.now(), callErr.Error()), callErr
	}

	parsed := ParseMatch(reply)
	s.reportParse(requestID, "match", parsed.Fallback, parsed.Issues)

	analysis := parsed.Analysis
	analysis.OverallMatchScore = clampScore(analysis.OverallMatchScore)
	metrics.ObserveMatchScore(analysis.OverallMatchScore)

	result := Result{
		AIAnalysis:         analysis,
		KeywordAnalysis:    kwReport,
		SemanticSimilarity: round2(semantic * 100),
		AnalysisTimestamp:  s.now().Format(time.RFC3339),
	}

	metrics.IncAnalysis(StatusCompleted)
	metrics.ObserveAnalysisDurationMs(sinceMs(startedAt))
	telemetry.Info("analysis.status", map[string]any{
		"request_id":          requestID,
		"status":              StatusCompleted,
		"overall_match_score": analysis.OverallMatchScore,
		"keyword_match_rate":  kwReport.KeywordMatchRate,
		"semantic_similarity": result.SemanticSimilarity,
		"parse_fallback":      parsed.Fallback,
		"duration_ms":         sinceMs(startedAt),
	})
	return result, nil
}

// SuggestImprovements asks for edits given a prior analysis. It always returns
// well-formed suggestions; a non-nil error is a *SuggestionError warning.
func (s *Service) SuggestImprovements(ctx context.Context, req Request, prior Result) (out ImprovementSuggestions, err error) {
	requestID := telemetry.RequestID(ctx)
	defer func() {
		if rec := recover(); rec != nil {
			out, err = EmptySuggestions(), &SuggestionError{Err: fmt.Errorf("panic: %v", rec)}
		}
		if err != nil {
			metrics.IncSuggestionDegraded()
			telemetry.Warn("analysis.suggestions_degraded", map[string]any{
				"request_id": requestID,
				"error":      err.Error(),
			})
		}
	}()

	if prior.HasError() {
		return EmptySuggestions(), &SuggestionError{Err: errors.New("no analysis to build on")}
	}
	if s.LLM == nil {
		return EmptySuggestions(), &SuggestionError{Err: llm.ErrNotConfigured}
	}
	priorJSON, err := json.Marshal(prior.AIAnalysis)
	if err != nil {
		return EmptySuggestions(), &SuggestionError{Err: err}
	}

	prompt := llm.BuildImprovementPrompt(req.ResumeText, req.JobDescription, string(priorJSON))
	reply, err := s.completer(requestID, "improvement").Complete(ctx, prompt)
	if err != nil {
		return EmptySuggestions(), &SuggestionError{Err: err}
	}

	parsed := ParseImprovement(reply)
	s.reportParse(requestID, "improvement", parsed.Fallback, parsed.Issues)
	return parsed.Suggestions, nil
}

func (s *Service) reportParse(requestID, stage string, fallback bool, issues []string) {
	if fallback {
		metrics.IncParseFallback(stage)
		telemetry.Warn("analysis.parse_fallback", map[string]any{
			"request_id": requestID,
			"stage":      stage,
		})
		return
	}
	if len(issues) > 0 {
		metrics.IncSchemaMismatch(stage)
		telemetry.Warn("analysis.schema_mismatch", map[string]any{
			"request_id": requestID,
			"stage":      stage,
			"issues":     issues,
		})
	}
}

func (s *Service) completer(requestID, stage string) llm.Completer {
	if s.DisableRetry {
		return s.LLM
	}
	return newRetryingCompleter(s.LLM, requestID, stage)
}

func (s *Service) extractor() *keywords.Extractor {
	if s.Keywords != nil {
		return s.Keywords
	}
	return keywords.NewExtractor(keywords.English())
}

// BuildKeywordReport compares ranked keyword lists. Common and missing keywords
// keep the job list's rank order.
func BuildKeywordReport(resumeKeywords, jobKeywords []string) KeywordAnalysisReport {
	inResume := make(map[string]struct{}, len(resumeKeywords))
	for _, kw := range resumeKeywords {
		inResume[kw] = struct{}{}
	}

	report := KeywordAnalysisReport{
		ResumeKeywords:  append([]string{}, resumeKeywords...),
		JobKeywords:     append([]string{}, jobKeywords...),
		CommonKeywords:  []string{},
		MissingKeywords: []string{},
	}
	seen := make(map[string]struct{}, len(jobKeywords))
	for _, kw := range jobKeywords {
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		if _, ok := inResume[kw]; ok {
			report.CommonKeywords = append(report.CommonKeywords, kw)
		} else {
			report.MissingKeywords = append(report.MissingKeywords, kw)
		}
	}
	if len(seen) > 0 {
		report.KeywordMatchRate = round2(float64(len(report.CommonKeywords)) / float64(len(seen)) * 100)
	}
	return report
}

// Get returns an archived report.
func (s *Service) Get(ctx context.Context, id string) (Report, error) {
	if strings.TrimSpace(id) == "" {
		return Report{}, errors.New("id is required")
	}
	if s.Repo == nil {
		return Report{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns archived reports newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Report, error) {
	if s.Repo == nil {
		return []Report{}, nil
	}
	return s.Repo.List(ctx, limit, offset)
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
