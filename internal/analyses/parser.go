package analyses

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const (
	unknownPlaceholder      = "Unknown"
	undeterminedPlaceholder = "Cannot determine"
)

var (
	//go:embed schemas/match.schema.json
	matchSchemaJSON string
	//go:embed schemas/improvement.schema.json
	improvementSchemaJSON string

	matchSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewStringLoader(matchSchemaJSON))
	})
	improvementSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewStringLoader(improvementSchemaJSON))
	})
)

// ParsedMatch is a decoded match reply. Fallback is set when the reply was not
// a JSON object; Issues lists schema deviations of a reply that did decode.
type ParsedMatch struct {
	Analysis MatchAnalysis
	Fallback bool
	Issues   []string
}

// ParsedImprovement mirrors ParsedMatch for the improvement reply.
type ParsedImprovement struct {
	Suggestions ImprovementSuggestions
	Fallback    bool
	Issues      []string
}

// FallbackMatchAnalysis is substituted when the model reply cannot be decoded.
func FallbackMatchAnalysis() MatchAnalysis {
	return MatchAnalysis{
		OverallMatchScore: 50,
		Strengths:         []string{"Analysis completed"},
		Weaknesses:        []string{"Response parsing issue"},
		MissingKeywords:   []string{},
		Recommendations:   []string{"Consider manual review"},
		SkillMatches: SkillMatches{
			TechnicalSkills: []string{},
			SoftSkills:      []string{},
			MissingSkills:   []string{},
		},
		ExperienceAnalysis: ExperienceAnalysis{
			RelevantExperience: "Analysis incomplete",
			ExperienceGaps:     unknownPlaceholder,
			YearsMatch:         undeterminedPlaceholder,
		},
	}
}

// FallbackImprovementSuggestions is substituted when the improvement reply cannot be decoded.
func FallbackImprovementSuggestions() ImprovementSuggestions {
	return ImprovementSuggestions{
		ImmediateImprovements: []Improvement{{
			Section:         "General",
			CurrentIssue:    "Response parsing issue",
			SuggestedChange: "Manual review recommended",
		}},
		KeywordOptimization:   []KeywordOptimization{},
		FormattingSuggestions: []string{"Review document formatting"},
		ContentEnhancements:   []string{"Consider professional review"},
	}
}

// ParseMatchResponse decodes a match reply. It never fails.
func ParseMatchResponse(raw string) MatchAnalysis {
	return ParseMatch(raw).Analysis
}

// ParseImprovementResponse decodes an improvement reply. It never fails.
func ParseImprovementResponse(raw string) ImprovementSuggestions {
	return ParseImprovement(raw).Suggestions
}

// ParseMatch decodes a match reply with defaults for missing fields. The score
// is passed through unclamped.
func ParseMatch(raw string) ParsedMatch {
	cleaned := stripFences(raw)
	fields, ok := decodeObject(cleaned)
	if !ok {
		return ParsedMatch{Analysis: FallbackMatchAnalysis(), Fallback: true}
	}

	out := MatchAnalysis{
		OverallMatchScore: decodeScore(fields["overall_match_score"]),
		Strengths:         decodeStrings(fields["strengths"]),
		Weaknesses:        decodeStrings(fields["weaknesses"]),
		MissingKeywords:   decodeStrings(fields["missing_keywords"]),
		Recommendations:   decodeStrings(fields["recommendations"]),
	}

	skills, _ := decodeObject(string(fields["skill_matches"]))
	out.SkillMatches = SkillMatches{
		TechnicalSkills: decodeStrings(skills["technical_skills"]),
		SoftSkills:      decodeStrings(skills["soft_skills"]),
		MissingSkills:   decodeStrings(skills["missing_skills"]),
	}

	exp, _ := decodeObject(string(fields["experience_analysis"]))
	out.ExperienceAnalysis = ExperienceAnalysis{
		RelevantExperience: decodeString(exp["relevant_experience"], unknownPlaceholder),
		ExperienceGaps:     decodeString(exp["experience_gaps"], unknownPlaceholder),
		YearsMatch:         decodeString(exp["years_match"], undeterminedPlaceholder),
	}

	return ParsedMatch{Analysis: out, Issues: schemaIssues(matchSchema, cleaned)}
}

// ParseImprovement decodes an improvement reply with defaults for missing fields.
func ParseImprovement(raw string) ParsedImprovement {
	cleaned := stripFences(raw)
	fields, ok := decodeObject(cleaned)
	if !ok {
		return ParsedImprovement{Suggestions: FallbackImprovementSuggestions(), Fallback: true}
	}

	out := ImprovementSuggestions{
		ImmediateImprovements: []Improvement{},
		KeywordOptimization:   []KeywordOptimization{},
		FormattingSuggestions: decodeStrings(fields["formatting_suggestions"]),
		ContentEnhancements:   decodeStrings(fields["content_enhancements"]),
	}
	for _, item := range decodeObjects(fields["immediate_improvements"]) {
		out.ImmediateImprovements = append(out.ImmediateImprovements, Improvement{
			Section:         decodeString(item["section"], ""),
			CurrentIssue:    decodeString(item["current_issue"], ""),
			SuggestedChange: decodeString(item["suggested_change"], ""),
		})
	}
	for _, item := range decodeObjects(fields["keyword_optimization"]) {
		out.KeywordOptimization = append(out.KeywordOptimization, KeywordOptimization{
			MissingKeyword: decodeString(item["missing_keyword"], ""),
			Suggestion:     decodeString(item["suggestion"], ""),
			Priority:       normalizePriority(decodeString(item["priority"], "")),
		})
	}

	return ParsedImprovement{Suggestions: out, Issues: schemaIssues(improvementSchema, cleaned)}
}

// stripFences removes a surrounding Markdown code fence, with or without a language tag.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func decodeObject(raw string) (map[string]json.RawMessage, bool) {
	if strings.TrimSpace(raw) == "" {
		return map[string]json.RawMessage{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return map[string]json.RawMessage{}, false
	}
	return fields, true
}

func decodeObjects(raw json.RawMessage) []map[string]json.RawMessage {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]map[string]json.RawMessage, 0, len(items))
	for _, item := range items {
		if obj, ok := decodeObject(string(item)); ok {
			out = append(out, obj)
		}
	}
	return out
}

// decodeStrings accepts an array of strings; non-string items are skipped and
// anything else yields an empty list.
func decodeStrings(raw json.RawMessage) []string {
	out := []string{}
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		var s string
		if !isNull(item) && json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// decodeString returns def for a missing, null or non-string value.
func decodeString(raw json.RawMessage, def string) string {
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return def
	}
	return s
}

// isNull reports an absent value or a JSON null, which decodes into a string without error.
func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// maxRawScore bounds model scores so they survive the int conversion; the
// orchestrator still clamps to [0,100].
const maxRawScore = 1000

// decodeScore accepts a number or numeric string, rounding half away from zero.
// Anything else is 0.
func decodeScore(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")), 64)
		if err != nil {
			return 0
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	// bounded before conversion; out-of-range floats do not convert to int safely
	f = math.Max(-maxRawScore, math.Min(maxRawScore, f))
	return int(math.Round(f))
}

func normalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

func schemaIssues(load func() (*gojsonschema.Schema, error), doc string) []string {
	schema, err := load()
	if err != nil {
		return []string{fmt.Sprintf("schema unavailable: %v", err)}
	}
	res, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return []string{fmt.Sprintf("schema validation: %v", err)}
	}
	if res.Valid() {
		return nil
	}
	issues := make([]string, 0, len(res.Errors()))
	for _, desc := range res.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		issues = append(issues, field+": "+desc.Description())
	}
	return issues
}
