package analyses

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	SummaryFileName = "resume_analysis_summary.txt"
	ExportFileName  = "resume_analysis_full.json"
)

// Score bands.
const (
	BandExcellent = "excellent"
	BandGood      = "good"
	BandFair      = "fair"
	BandPoor      = "poor"
)

// Band maps an overall score to its display band.
func Band(score int) string {
	switch {
	case score >= 80:
		return BandExcellent
	case score >= 60:
		return BandGood
	case score >= 40:
		return BandFair
	default:
		return BandPoor
	}
}

// SummaryText renders the plain-text report offered for download.
func SummaryText(r Report) string {
	a := r.Analysis.AIAnalysis
	var b strings.Builder
	b.WriteString("AI Resume Assistant - Analysis Report\n")
	b.WriteString("=====================================\n\n")
	fmt.Fprintf(&b, "Overall Match Score: %d/100\n", a.OverallMatchScore)
	fmt.Fprintf(&b, "Semantic Similarity: %s%%\n", formatPercent(r.Analysis.SemanticSimilarity))
	fmt.Fprintf(&b, "Keyword Match Rate: %s%%\n\n", formatPercent(r.Analysis.KeywordAnalysis.KeywordMatchRate))

	writeBullets(&b, "STRENGTHS", a.Strengths)
	writeBullets(&b, "AREAS FOR IMPROVEMENT", a.Weaknesses)
	writeBullets(&b, "MISSING KEYWORDS", r.Analysis.KeywordAnalysis.MissingKeywords)

	b.WriteString("RECOMMENDATIONS:\n")
	for i, rec := range a.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}
	return b.String()
}

func writeBullets(b *strings.Builder, heading string, items []string) {
	b.WriteString(heading + ":\n")
	for _, item := range items {
		b.WriteString("• " + item + "\n")
	}
	b.WriteString("\n")
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type exportDocument struct {
	Analysis    Result                 `json:"analysis"`
	Suggestions ImprovementSuggestions `json:"suggestions"`
	FileInfo    *FileInfo              `json:"file_info"`
}

// ExportJSON renders the full report as indented JSON.
func ExportJSON(r Report) ([]byte, error) {
	return json.MarshalIndent(exportDocument{
		Analysis:    r.Analysis,
		Suggestions: r.Suggestions,
		FileInfo:    r.FileInfo,
	}, "", "  ")
}
