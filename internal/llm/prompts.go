package llm

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"strings"
)

// PromptVersion identifies the template revision. The response parser depends on
// the schema these templates request, so bump it whenever a template changes.
const PromptVersion = "v1"

const (
	PromptMatch       = "match"
	PromptImprovement = "improvement"
)

var (
	//go:embed prompts/match_v1.txt
	matchV1 string
	//go:embed prompts/improvement_v1.txt
	improvementV1 string
)

// PromptTemplate returns the template text and whether the kind/version pair was recognized.
func PromptTemplate(kind, version string) (string, bool) {
	switch kind + "/" + version {
	case PromptMatch + "/v1":
		return matchV1, true
	case PromptImprovement + "/v1":
		return improvementV1, true
	default:
		return "", false
	}
}

// BuildMatchPrompt fills the match-analysis template. Inputs are inserted verbatim.
func BuildMatchPrompt(resumeText, jobDescription string) string {
	r := strings.NewReplacer(
		"{{RESUME_TEXT}}", resumeText,
		"{{JOB_DESCRIPTION}}", jobDescription,
	)
	return r.Replace(matchV1)
}

// BuildImprovementPrompt fills the improvement template; priorAnalysisJSON is the
// JSON encoding of the earlier match analysis.
func BuildImprovementPrompt(resumeText, jobDescription, priorAnalysisJSON string) string {
	r := strings.NewReplacer(
		"{{RESUME_TEXT}}", resumeText,
		"{{JOB_DESCRIPTION}}", jobDescription,
		"{{ANALYSIS}}", priorAnalysisJSON,
	)
	return r.Replace(improvementV1)
}

// PromptHash returns the hex sha256 of a rendered prompt.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
