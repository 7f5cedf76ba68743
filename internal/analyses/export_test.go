package analyses

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBand(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, BandExcellent},
		{80, BandExcellent},
		{79, BandGood},
		{60, BandGood},
		{59, BandFair},
		{40, BandFair},
		{39, BandPoor},
		{0, BandPoor},
	}
	for _, tt := range tests {
		if got := Band(tt.score); got != tt.want {
			t.Fatalf("Band(%d): expected %s, got %s", tt.score, tt.want, got)
		}
	}
}

func TestSummaryText(t *testing.T) {
	report := sampleReport()
	report.Analysis.AIAnalysis.Weaknesses = []string{"No Kubernetes"}
	report.Analysis.AIAnalysis.Recommendations = []string{"Add metrics", "Mention on-call"}

	got := SummaryText(report)
	want := strings.Join([]string{
		"AI Resume Assistant - Analysis Report",
		"=====================================",
		"",
		"Overall Match Score: 72/100",
		"Semantic Similarity: 61.5%",
		"Keyword Match Rate: 50%",
		"",
		"STRENGTHS:",
		"• Go",
		"",
		"AREAS FOR IMPROVEMENT:",
		"• No Kubernetes",
		"",
		"MISSING KEYWORDS:",
		"• kubernetes",
		"",
		"RECOMMENDATIONS:",
		"1. Add metrics",
		"2. Mention on-call",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected summary:\n%s\n--- want ---\n%s", got, want)
	}
}

func TestExportJSON(t *testing.T) {
	payload, err := ExportJSON(sampleReport())
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if !strings.Contains(string(payload), "\n  \"analysis\": {") {
		t.Fatalf("expected two-space indentation, got %s", payload)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"analysis", "suggestions", "file_info"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("missing %s in export", key)
		}
	}
	if _, ok := doc["id"]; ok {
		t.Fatalf("export should only carry analysis, suggestions and file_info")
	}
}

func TestExportJSONFailedResult(t *testing.T) {
	report := sampleReport()
	report.Analysis = Failed(report.CreatedAt, "analysis failed: boom")
	payload, err := ExportJSON(report)
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	var doc struct {
		Analysis map[string]any `json:"analysis"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Analysis["error"] != "analysis failed: boom" {
		t.Fatalf("expected error field, got %v", doc.Analysis)
	}
	if ai, ok := doc.Analysis["ai_analysis"].(map[string]any); !ok || len(ai) != 0 {
		t.Fatalf("expected empty ai_analysis object, got %v", doc.Analysis["ai_analysis"])
	}
}
