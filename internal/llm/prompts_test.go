package llm

import (
	"strings"
	"testing"
)

func TestBuildMatchPromptSubstitutesVerbatim(t *testing.T) {
	resume := "Jane Doe\nGo, {{JOB_DESCRIPTION}} and Postgres"
	jd := "Senior Go engineer"
	prompt := BuildMatchPrompt(resume, jd)

	if !strings.Contains(prompt, resume) {
		t.Fatalf("expected resume text verbatim in prompt")
	}
	if !strings.Contains(prompt, "JOB DESCRIPTION:\n"+jd) {
		t.Fatalf("expected job description under its heading")
	}
	if strings.Count(prompt, jd) != 1 {
		t.Fatalf("placeholder inside resume text must not be expanded")
	}
	if strings.Contains(prompt, "{{RESUME_TEXT}}") {
		t.Fatalf("resume placeholder left unreplaced")
	}
}

func TestMatchPromptNamesSchemaAndDimensions(t *testing.T) {
	prompt := BuildMatchPrompt("r", "j")
	for _, field := range []string{
		`"overall_match_score"`, `"strengths"`, `"weaknesses"`, `"missing_keywords"`, `"recommendations"`,
		`"skill_matches"`, `"technical_skills"`, `"soft_skills"`, `"missing_skills"`,
		`"experience_analysis"`, `"relevant_experience"`, `"experience_gaps"`, `"years_match"`,
		"Keyword matching", "Skills alignment", "Experience relevance", "Education requirements", "Specific qualifications",
	} {
		if !strings.Contains(prompt, field) {
			t.Fatalf("match prompt missing %s", field)
		}
	}
}

func TestBuildImprovementPrompt(t *testing.T) {
	prompt := BuildImprovementPrompt("resume body", "jd body", `{"overall_match_score":70}`)
	for _, want := range []string{"resume body", "jd body", `{"overall_match_score":70}`,
		`"immediate_improvements"`, `"keyword_optimization"`, `"formatting_suggestions"`, `"content_enhancements"`,
		`"section"`, `"current_issue"`, `"suggested_change"`, `"missing_keyword"`, `"priority"`} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("improvement prompt missing %s", want)
		}
	}
}

func TestPromptTemplateVersions(t *testing.T) {
	if _, ok := PromptTemplate(PromptMatch, PromptVersion); !ok {
		t.Fatalf("expected match template for %s", PromptVersion)
	}
	if _, ok := PromptTemplate(PromptImprovement, PromptVersion); !ok {
		t.Fatalf("expected improvement template for %s", PromptVersion)
	}
	if _, ok := PromptTemplate(PromptMatch, "v9"); ok {
		t.Fatalf("unexpected template for unknown version")
	}
}

func TestPromptHashDeterministic(t *testing.T) {
	h1 := PromptHash(BuildMatchPrompt("resume text", "job description"))
	h2 := PromptHash(BuildMatchPrompt("resume text", "job description"))
	if h1 != h2 {
		t.Fatalf("expected deterministic prompt hash, got %q and %q", h1, h2)
	}
	if h1 == PromptHash(BuildMatchPrompt("resume text", "different job")) {
		t.Fatalf("expected prompt hash to change when input changes")
	}
}
