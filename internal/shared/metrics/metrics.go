package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

var (
	analyses = newCounterVec("analyses_total", "Analyses by outcome", "status")
	parses   = newCounterVec("analysis_parse_issues_total", "Model replies that fell back or failed schema checks", "stage", "kind")
	degraded = newCounterVec("analysis_suggestions_degraded_total", "Improvement calls that degraded to empty suggestions")
	llmCalls = newCounterVec("llm_calls_total", "Outbound model calls, retries included", "stage")
	retries  = newCounterVec("llm_retries_total", "Model calls retried after a transient error", "stage")
	extracts = newCounterVec("extraction_failed_total", "PDF uploads whose text could not be used", "reason")
	requests = newCounterVec("http_requests_total", "HTTP requests by status class", "class")

	analysisDuration = newHistogram("analysis_duration_ms", "Analysis duration in milliseconds",
		[]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	matchScore = newHistogram("analysis_match_score", "Overall match score", []float64{20, 40, 60, 80, 100})

	counters   = []*counterVec{analyses, parses, degraded, llmCalls, retries, extracts, requests}
	histograms = []*histogram{analysisDuration, matchScore}
)

// IncAnalysis counts an analysis reaching status (started, completed or failed).
func IncAnalysis(status string) { analyses.inc(status) }

// IncParseFallback counts model replies that could not be decoded.
func IncParseFallback(stage string) { parses.inc(stage, "fallback") }

// IncSchemaMismatch counts decoded replies that did not match the expected schema.
func IncSchemaMismatch(stage string) { parses.inc(stage, "schema") }

func IncSuggestionDegraded() { degraded.inc() }

// IncLLMCall counts an outbound model call for stage.
func IncLLMCall(stage string) { llmCalls.inc(stage) }

func IncLLMRetry(stage string) { retries.inc(stage) }

// IncExtractionFailed counts rejected uploads; reason is a short label such as "too_large".
func IncExtractionFailed(reason string) { extracts.inc(reason) }

// IncHTTPRequest counts a served request by status class.
func IncHTTPRequest(status int) {
	requests.inc(strconv.Itoa(status/100) + "xx")
}

// ObserveMatchScore records a clamped overall match score.
func ObserveMatchScore(score int) {
	matchScore.observe(float64(score))
}

// ObserveAnalysisDurationMs records an analysis duration in milliseconds.
func ObserveAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders every metric in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	for _, c := range counters {
		c.write(&buf)
	}
	for _, h := range histograms {
		h.write(&buf)
	}
	return buf.String()
}

type counterVec struct {
	name   string
	help   string
	labels []string

	mu     sync.Mutex
	values map[string]uint64
}

func newCounterVec(name, help string, labels ...string) *counterVec {
	return &counterVec{name: name, help: help, labels: labels, values: make(map[string]uint64)}
}

// inc expects one value per label, in declaration order.
func (c *counterVec) inc(values ...string) {
	key := strings.Join(values, "\x00")
	c.mu.Lock()
	c.values[key]++
	c.mu.Unlock()
}

func (c *counterVec) value(values ...string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[strings.Join(values, "\x00")]
}

func (c *counterVec) write(buf *bytes.Buffer) {
	c.mu.Lock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	snapshot := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		snapshot[k] = v
	}
	c.mu.Unlock()
	sort.Strings(keys)

	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s counter\n", c.name, c.help, c.name)
	if len(c.labels) == 0 {
		fmt.Fprintf(buf, "%s %d\n", c.name, snapshot[""])
		return
	}
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s} %d\n", c.name, c.labelPairs(strings.Split(k, "\x00")), snapshot[k])
	}
}

func (c *counterVec) labelPairs(values []string) string {
	pairs := make([]string, 0, len(c.labels))
	for i, l := range c.labels {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		pairs = append(pairs, l+"="+strconv.Quote(v))
	}
	return strings.Join(pairs, ",")
}

type histogram struct {
	name    string
	help    string
	bounds  []float64
	mu      sync.Mutex
	buckets []uint64
	sum     float64
	count   uint64
}

func newHistogram(name, help string, bounds []float64) *histogram {
	return &histogram{name: name, help: help, bounds: bounds, buckets: make([]uint64, len(bounds))}
}

// observe bumps every bucket whose bound covers value, so buckets stay cumulative.
func (h *histogram) observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.bounds {
		if value <= bound {
			h.buckets[i]++
		}
	}
}

func (h *histogram) write(buf *bytes.Buffer) {
	h.mu.Lock()
	buckets := append([]uint64(nil), h.buckets...)
	sum, count := h.sum, h.count
	h.mu.Unlock()

	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name)
	for i, bound := range h.bounds {
		fmt.Fprintf(buf, "%s_bucket{le=%q} %d\n", h.name, strconv.FormatFloat(bound, 'f', -1, 64), buckets[i])
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", h.name, count)
	fmt.Fprintf(buf, "%s_sum %s\n", h.name, strconv.FormatFloat(sum, 'f', -1, 64))
	fmt.Fprintf(buf, "%s_count %d\n", h.name, count)
}
