package analyses

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-matcher/internal/jobpost"
	"resume-matcher/internal/llm"
	"resume-matcher/internal/shared/server/middleware"
	"resume-matcher/internal/shared/server/respond"
	"resume-matcher/internal/shared/storage/object"
	"resume-matcher/internal/shared/telemetry"
)

const multipartOverhead = 1 << 20

// JobPostFetcher loads a job description from a posting URL.
type JobPostFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc     *Service
	JobPost JobPostFetcher
}

// NewHandler constructs a Handler. jobPost may be nil to disable job_url.
func NewHandler(svc *Service, jobPost JobPostFetcher) *Handler {
	return &Handler{Svc: svc, JobPost: jobPost}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.analyzeUpload)
	rg.POST("/analyses/text", h.analyzeText)
	rg.GET("/analyses", h.listReports)
	rg.GET("/analyses/:id", h.getReport)
	rg.GET("/analyses/:id/summary", h.getSummary)
	rg.GET("/analyses/:id/export", h.getExport)
}

func (h *Handler) analyzeUpload(c *gin.Context) {
	if h.Svc.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxUploadBytes+multipartOverhead)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeFileTooLarge, "uploaded file is too large", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
		return
	}

	ctx := h.requestContext(c)
	jobDescription, ok := h.jobDescription(ctx, c)
	if !ok {
		return
	}

	telemetry.Info("analysis.upload_received", map[string]any{
		"request_id": telemetry.RequestID(ctx),
		"file_name":  fileHeader.Filename,
		"bytes":      len(data),
	})
	report, err := h.Svc.Run(ctx, Upload{FileName: fileHeader.Filename, Data: data}, jobDescription)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}
	c.Set(middleware.ReportIDKey, report.ID)
	respond.Created(c, toResponse(report))
}

type textRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
	JobURL         string `json:"job_url"`
}

func (h *Handler) analyzeText(c *gin.Context) {
	var body textRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid JSON body", nil)
		return
	}

	ctx := h.requestContext(c)
	jobDescription := body.JobDescription
	if strings.TrimSpace(jobDescription) == "" && strings.TrimSpace(body.JobURL) != "" {
		fetched, ok := h.fetchJobPost(ctx, c, body.JobURL)
		if !ok {
			return
		}
		jobDescription = fetched
	}

	report, err := h.Svc.RunText(ctx, Request{ResumeText: body.ResumeText, JobDescription: jobDescription})
	if err != nil {
		writeAnalysisError(c, err)
		return
	}
	c.Set(middleware.ReportIDKey, report.ID)
	respond.OK(c, toResponse(report))
}

func (h *Handler) jobDescription(ctx context.Context, c *gin.Context) (string, bool) {
	jd := c.PostForm("job_description")
	if strings.TrimSpace(jd) != "" {
		return jd, true
	}
	if jobURL := strings.TrimSpace(c.PostForm("job_url")); jobURL != "" {
		return h.fetchJobPost(ctx, c, jobURL)
	}
	return jd, true
}

func (h *Handler) fetchJobPost(ctx context.Context, c *gin.Context, jobURL string) (string, bool) {
	if h.JobPost == nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "job_url is not supported; provide job_description", nil)
		return "", false
	}
	text, err := h.JobPost.Fetch(ctx, jobURL)
	if err != nil {
		var fetchErr *jobpost.Error
		if errors.As(err, &fetchErr) {
			respond.Error(c, http.StatusUnprocessableEntity, ErrorCodeJobPostFetch, fetchErr.Error(), []map[string]string{
				{"field": "job_url", "issue": fetchErr.Message},
			})
			return "", false
		}
		respond.Error(c, http.StatusBadGateway, ErrorCodeJobPostFetch, "failed to fetch job posting", nil)
		return "", false
	}
	return text, true
}

func (h *Handler) getReport(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	respond.OK(c, toResponse(report))
}

func (h *Handler) getSummary(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	body := h.storedExport(c.Request.Context(), SummaryKey(report.ID))
	if body == nil {
		body = []byte(SummaryText(report))
	}
	respond.Attachment(c, SummaryFileName, "text/plain; charset=utf-8", body)
}

func (h *Handler) getExport(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	body := h.storedExport(c.Request.Context(), ExportKey(report.ID))
	if body == nil {
		var err error
		body, err = ExportJSON(report)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to render export", nil)
			return
		}
	}
	respond.Attachment(c, ExportFileName, "application/json", body)
}

// storedExport returns the archived copy of an export, or nil when unavailable.
func (h *Handler) storedExport(ctx context.Context, key string) []byte {
	if h.Svc.Store == nil {
		return nil
	}
	rc, err := h.Svc.Store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, object.ErrNotFound) {
			telemetry.Warn("storage.read_failed", map[string]any{
				"request_id": telemetry.RequestID(ctx),
				"key":        key,
				"error":      err.Error(),
			})
		}
		return nil
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil || len(data) == 0 {
		return nil
	}
	return data
}

func (h *Handler) loadReport(c *gin.Context) (Report, bool) {
	reportID := c.Param("id")
	if reportID == "" {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "report id is required", nil)
		return Report{}, false
	}
	c.Set(middleware.ReportIDKey, reportID)

	report, err := h.Svc.Get(c.Request.Context(), reportID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "report not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to fetch report", nil)
		}
		return Report{}, false
	}
	return report, true
}

func (h *Handler) listReports(c *gin.Context) {
	limit := defaultListLimit
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	reports, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to list reports", nil)
		return
	}

	items := make([]gin.H, 0, len(reports))
	for _, report := range reports {
		items = append(items, gin.H{
			"id":                  report.ID,
			"overall_match_score": report.Analysis.AIAnalysis.OverallMatchScore,
			"score_band":          Band(report.Analysis.AIAnalysis.OverallMatchScore),
			"keyword_match_rate":  report.Analysis.KeywordAnalysis.KeywordMatchRate,
			"semantic_similarity": report.Analysis.SemanticSimilarity,
			"file_info":           report.FileInfo,
			"created_at":          report.CreatedAt,
		})
	}
	respond.OK(c, gin.H{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) requestContext(c *gin.Context) context.Context {
	return telemetry.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}

func toResponse(report Report) gin.H {
	return gin.H{
		"id":          report.ID,
		"analysis":    report.Analysis,
		"suggestions": report.Suggestions,
		"file_info":   report.FileInfo,
		"warnings":    report.Warnings,
		"score_band":  Band(report.Analysis.AIAnalysis.OverallMatchScore),
		"created_at":  report.CreatedAt,
	}
}

func writeAnalysisError(c *gin.Context, err error) {
	var validationErr *ValidationError
	var extractionErr *ExtractionError
	var modelErr *ModelCallError
	switch {
	case errors.As(err, &validationErr):
		details := make([]map[string]string, 0, len(validationErr.Issues))
		for _, issue := range validationErr.Issues {
			details = append(details, map[string]string{"issue": issue})
		}
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, strings.Join(validationErr.Issues, " "), details)
	case errors.As(err, &extractionErr) && errors.Is(err, ErrFileTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeFileTooLarge, extractionErr.Reason, nil)
	case errors.As(err, &extractionErr):
		respond.Error(c, http.StatusUnprocessableEntity, ErrorCodeExtraction, extractionErr.Reason, nil)
	case errors.As(err, &modelErr) && errors.Is(err, llm.ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, ErrorCodeNotConfigured, "analysis model is not configured", nil)
	case errors.As(err, &modelErr) && errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusGatewayTimeout, ErrorCodeLLMTimeout, "analysis model timed out", nil)
	case errors.As(err, &modelErr):
		respond.Error(c, http.StatusBadGateway, ErrorCodeModelCall, modelErr.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "analysis failed", nil)
	}
}
