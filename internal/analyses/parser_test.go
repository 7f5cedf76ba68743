package analyses

import (
	"testing"
)

const fullMatchReply = `{
  "overall_match_score": 78,
  "strengths": ["Strong Go background"],
  "weaknesses": ["No Kubernetes"],
  "missing_keywords": ["kubernetes"],
  "recommendations": ["Mention container work"],
  "skill_matches": {"technical_skills": ["go"], "soft_skills": ["mentoring"], "missing_skills": ["kubernetes"]},
  "experience_analysis": {"relevant_experience": "5 years backend", "experience_gaps": "No cloud", "years_match": "Yes"}
}`

func TestParseMatchFullReply(t *testing.T) {
	parsed := ParseMatch(fullMatchReply)
	if parsed.Fallback {
		t.Fatalf("unexpected fallback")
	}
	if len(parsed.Issues) != 0 {
		t.Fatalf("unexpected schema issues: %v", parsed.Issues)
	}
	a := parsed.Analysis
	if a.OverallMatchScore != 78 {
		t.Fatalf("expected score 78, got %d", a.OverallMatchScore)
	}
	if a.SkillMatches.SoftSkills[0] != "mentoring" || a.ExperienceAnalysis.YearsMatch != "Yes" {
		t.Fatalf("nested sections not decoded: %+v", a)
	}
}

func TestParseMatchFallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "prose", raw: "I think this candidate is great."},
		{name: "empty", raw: ""},
		{name: "array", raw: `[1,2,3]`},
		{name: "null", raw: `null`},
		{name: "truncated", raw: `{"overall_match_score": 80, "strengths": [`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			parsed := ParseMatch(tt.raw)
			if !parsed.Fallback {
				t.Fatalf("expected fallback for %q", tt.raw)
			}
			want := FallbackMatchAnalysis()
			got := parsed.Analysis
			if got.OverallMatchScore != 50 || got.Strengths[0] != want.Strengths[0] || got.Weaknesses[0] != "Response parsing issue" {
				t.Fatalf("unexpected fallback analysis: %+v", got)
			}
			if got.ExperienceAnalysis.RelevantExperience != "Analysis incomplete" {
				t.Fatalf("unexpected experience fallback: %+v", got.ExperienceAnalysis)
			}
		})
	}
}

func TestParseMatchDefaultsMissingFields(t *testing.T) {
	parsed := ParseMatch(`{"strengths": ["Go"]}`)
	if parsed.Fallback {
		t.Fatalf("unexpected fallback")
	}
	a := parsed.Analysis
	if a.OverallMatchScore != 0 {
		t.Fatalf("expected default score 0, got %d", a.OverallMatchScore)
	}
	if a.Weaknesses == nil || a.Recommendations == nil || a.SkillMatches.MissingSkills == nil {
		t.Fatalf("expected empty, non-nil lists: %+v", a)
	}
	if a.ExperienceAnalysis.RelevantExperience != "Unknown" || a.ExperienceAnalysis.YearsMatch != "Cannot determine" {
		t.Fatalf("unexpected experience defaults: %+v", a.ExperienceAnalysis)
	}
	if len(parsed.Issues) == 0 {
		t.Fatalf("expected schema issues for missing fields")
	}
}

func TestParseMatchScoreForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "integer", raw: `{"overall_match_score": 64}`, want: 64},
		{name: "float rounds", raw: `{"overall_match_score": 72.5}`, want: 73},
		{name: "numeric string", raw: `{"overall_match_score": "85"}`, want: 85},
		{name: "percent string", raw: `{"overall_match_score": "90%"}`, want: 90},
		{name: "out of range passes through", raw: `{"overall_match_score": 150}`, want: 150},
		{name: "garbage", raw: `{"overall_match_score": "high"}`, want: 0},
		{name: "huge number is bounded", raw: `{"overall_match_score": 1e20}`, want: 1000},
		{name: "huge numeric string is bounded", raw: `{"overall_match_score": "1e300"}`, want: 1000},
		{name: "huge negative is bounded", raw: `{"overall_match_score": -1e20}`, want: -1000},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseMatch(tt.raw).Analysis.OverallMatchScore; got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestParseMatchStripsCodeFences(t *testing.T) {
	for _, raw := range []string{
		"```json\n" + fullMatchReply + "\n```",
		"```\n" + fullMatchReply + "\n```",
		"  " + fullMatchReply + "  ",
	} {
		parsed := ParseMatch(raw)
		if parsed.Fallback || parsed.Analysis.OverallMatchScore != 78 {
			t.Fatalf("expected fenced reply to decode, got %+v", parsed)
		}
	}
}

func TestParseMatchSkipsNonStringItems(t *testing.T) {
	a := ParseMatchResponse(`{"strengths": ["Go", 3, null, "SQL"], "weaknesses": "none"}`)
	if len(a.Strengths) != 2 || a.Strengths[1] != "SQL" {
		t.Fatalf("unexpected strengths %v", a.Strengths)
	}
	if len(a.Weaknesses) != 0 {
		t.Fatalf("expected non-array weaknesses to be empty, got %v", a.Weaknesses)
	}
}

func TestParseImprovement(t *testing.T) {
	raw := `{
  "immediate_improvements": [{"section": "Summary", "current_issue": "Generic", "suggested_change": "Name the stack"}],
  "keyword_optimization": [
    {"missing_keyword": "kubernetes", "suggestion": "Add deployment work", "priority": "HIGH"},
    {"missing_keyword": "grpc", "suggestion": "Mention APIs", "priority": "urgent"},
    {"missing_keyword": "terraform", "suggestion": "List IaC", "priority": "low"}
  ],
  "formatting_suggestions": ["Use bullets"],
  "content_enhancements": ["Quantify impact"]
}`
	parsed := ParseImprovement(raw)
	if parsed.Fallback {
		t.Fatalf("unexpected fallback")
	}
	s := parsed.Suggestions
	if len(s.ImmediateImprovements) != 1 || s.ImmediateImprovements[0].SuggestedChange != "Name the stack" {
		t.Fatalf("unexpected improvements %+v", s.ImmediateImprovements)
	}
	wantPriorities := []string{PriorityHigh, PriorityMedium, PriorityLow}
	for i, want := range wantPriorities {
		if s.KeywordOptimization[i].Priority != want {
			t.Fatalf("keyword %d: expected priority %s, got %s", i, want, s.KeywordOptimization[i].Priority)
		}
	}
}

func TestParseImprovementFallback(t *testing.T) {
	parsed := ParseImprovement("Sorry, I can't help with that.")
	if !parsed.Fallback {
		t.Fatalf("expected fallback")
	}
	s := parsed.Suggestions
	if len(s.ImmediateImprovements) != 1 || s.ImmediateImprovements[0].Section != "General" {
		t.Fatalf("unexpected fallback improvements %+v", s.ImmediateImprovements)
	}
	if s.KeywordOptimization == nil || len(s.KeywordOptimization) != 0 {
		t.Fatalf("expected empty keyword optimization")
	}
	if s.FormattingSuggestions[0] != "Review document formatting" || s.ContentEnhancements[0] != "Consider professional review" {
		t.Fatalf("unexpected fallback text %+v", s)
	}
}

func TestParseImprovementDefaults(t *testing.T) {
	s := ParseImprovementResponse(`{}`)
	if s.ImmediateImprovements == nil || s.KeywordOptimization == nil || s.FormattingSuggestions == nil || s.ContentEnhancements == nil {
		t.Fatalf("expected empty non-nil sections: %+v", s)
	}
}

func TestParseMatchNullFieldsUseDefaults(t *testing.T) {
	a := ParseMatchResponse(`{"strengths": [null], "experience_analysis": {"relevant_experience": null, "experience_gaps": "None", "years_match": null}}`)
	if len(a.Strengths) != 0 {
		t.Fatalf("expected null items dropped, got %v", a.Strengths)
	}
	exp := a.ExperienceAnalysis
	if exp.RelevantExperience != "Unknown" || exp.ExperienceGaps != "None" || exp.YearsMatch != "Cannot determine" {
		t.Fatalf("unexpected experience analysis %+v", exp)
	}
}
