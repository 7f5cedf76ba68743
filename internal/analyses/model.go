package analyses

import (
	"encoding/json"
	"time"
)

// Request is one resume/job description pair.
type Request struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	JobDescription string `json:"job_description" validate:"required"`
}

// SkillMatches groups skills the model found present or absent.
type SkillMatches struct {
	TechnicalSkills []string `json:"technical_skills"`
	SoftSkills      []string `json:"soft_skills"`
	MissingSkills   []string `json:"missing_skills"`
}

// ExperienceAnalysis is the model's free-text view of experience fit.
type ExperienceAnalysis struct {
	RelevantExperience string `json:"relevant_experience"`
	ExperienceGaps     string `json:"experience_gaps"`
	YearsMatch         string `json:"years_match"`
}

// MatchAnalysis is the structured judgment from the first model call.
type MatchAnalysis struct {
	OverallMatchScore  int                `json:"overall_match_score"`
	Strengths          []string           `json:"strengths"`
	Weaknesses         []string           `json:"weaknesses"`
	MissingKeywords    []string           `json:"missing_keywords"`
	Recommendations    []string           `json:"recommendations"`
	SkillMatches       SkillMatches       `json:"skill_matches"`
	ExperienceAnalysis ExperienceAnalysis `json:"experience_analysis"`
}

// KeywordAnalysisReport is the deterministic keyword comparison.
type KeywordAnalysisReport struct {
	ResumeKeywords   []string `json:"resume_keywords"`
	JobKeywords      []string `json:"job_keywords"`
	CommonKeywords   []string `json:"common_keywords"`
	KeywordMatchRate float64  `json:"keyword_match_rate"`
	MissingKeywords  []string `json:"missing_keywords"`
}

// Result is the outcome of Analyze. When Error is set the other fields are
// zero and the record marshals in its error-tagged form.
type Result struct {
	AIAnalysis         MatchAnalysis         `json:"ai_analysis"`
	KeywordAnalysis    KeywordAnalysisReport `json:"keyword_analysis"`
	SemanticSimilarity float64               `json:"semantic_similarity"`
	AnalysisTimestamp  string                `json:"analysis_timestamp"`
	Error              string                `json:"error,omitempty"`
}

// Failed returns an error-tagged result.
func Failed(ts time.Time, msg string) Result {
	return Result{AnalysisTimestamp: ts.Format(time.RFC3339), Error: msg}
}

// HasError reports whether the result carries an error.
func (r Result) HasError() bool { return r.Error != "" }

type resultJSON Result

type failedResultJSON struct {
	Error              string         `json:"error"`
	AIAnalysis         map[string]any `json:"ai_analysis"`
	KeywordAnalysis    map[string]any `json:"keyword_analysis"`
	SemanticSimilarity float64        `json:"semantic_similarity"`
	AnalysisTimestamp  string         `json:"analysis_timestamp"`
}

// MarshalJSON emits empty objects for the analysis sections of a failed result.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.HasError() {
		return json.Marshal(failedResultJSON{
			Error:             r.Error,
			AIAnalysis:        map[string]any{},
			KeywordAnalysis:   map[string]any{},
			AnalysisTimestamp: r.AnalysisTimestamp,
		})
	}
	return json.Marshal(resultJSON(r))
}

// Improvement is a concrete edit to one resume section.
type Improvement struct {
	Section         string `json:"section"`
	CurrentIssue    string `json:"current_issue"`
	SuggestedChange string `json:"suggested_change"`
}

// Priorities for keyword optimization.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

type KeywordOptimization struct {
	MissingKeyword string `json:"missing_keyword"`
	Suggestion     string `json:"suggestion"`
	Priority       string `json:"priority"`
}

// ImprovementSuggestions is the parsed second model call.
type ImprovementSuggestions struct {
	ImmediateImprovements []Improvement         `json:"immediate_improvements"`
	KeywordOptimization   []KeywordOptimization `json:"keyword_optimization"`
	FormattingSuggestions []string              `json:"formatting_suggestions"`
	ContentEnhancements   []string              `json:"content_enhancements"`
}

// EmptySuggestions is returned when the improvement call fails.
func EmptySuggestions() ImprovementSuggestions {
	return ImprovementSuggestions{
		ImmediateImprovements: []Improvement{},
		KeywordOptimization:   []KeywordOptimization{},
		FormattingSuggestions: []string{},
		ContentEnhancements:   []string{},
	}
}

// FileInfo describes the uploaded resume.
type FileInfo struct {
	FileName   string `json:"file_name,omitempty"`
	PageCount  int    `json:"page_count"`
	FileSize   int    `json:"file_size"`
	MethodUsed string `json:"method_used"`
}

// Report is a completed run: analysis, suggestions and provenance.
type Report struct {
	ID             string                 `json:"id"`
	ResumeText     string                 `json:"-"`
	JobDescription string                 `json:"-"`
	Analysis       Result                 `json:"analysis"`
	Suggestions    ImprovementSuggestions `json:"suggestions"`
	FileInfo       *FileInfo              `json:"file_info,omitempty"`
	Warnings       []string               `json:"warnings"`
	ScoreBand      string                 `json:"score_band"`
	PromptVersion  string                 `json:"prompt_version"`
	PromptHash     string                 `json:"prompt_hash,omitempty"`
	Provider       string                 `json:"provider,omitempty"`
	Model          string                 `json:"model,omitempty"`
	UploadKey      string                 `json:"-"`
	CreatedAt      time.Time              `json:"created_at"`
}
