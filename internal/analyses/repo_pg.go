package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const reportColumns = `id, file_name, job_description, resume_text, result, suggestions, file_info, warnings,
       prompt_version, prompt_hash, provider, model, upload_key, created_at`

// Create inserts a new report.
func (r *PGRepo) Create(ctx context.Context, report Report) error {
	const query = `
INSERT INTO reports (
	id, file_name, job_description, resume_text, overall_match_score, semantic_similarity, keyword_match_rate,
	result, suggestions, file_info, warnings, prompt_version, prompt_hash, provider, model, upload_key, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	resultPayload, err := marshalJSONB(report.Analysis)
	if err != nil {
		return err
	}
	suggestionsPayload, err := marshalJSONB(report.Suggestions)
	if err != nil {
		return err
	}
	var fileInfoPayload any
	fileName := ""
	if report.FileInfo != nil {
		fileName = report.FileInfo.FileName
		fileInfoPayload, err = marshalJSONB(report.FileInfo)
		if err != nil {
			return err
		}
	}
	warnings := report.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsPayload, err := marshalJSONB(warnings)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, query,
		report.ID,
		fileName,
		report.JobDescription,
		report.ResumeText,
		report.Analysis.AIAnalysis.OverallMatchScore,
		report.Analysis.SemanticSimilarity,
		report.Analysis.KeywordAnalysis.KeywordMatchRate,
		resultPayload,
		suggestionsPayload,
		fileInfoPayload,
		warningsPayload,
		report.PromptVersion,
		report.PromptHash,
		report.Provider,
		report.Model,
		report.UploadKey,
		report.CreatedAt,
	)
	return err
}

// GetByID returns a report by ID.
func (r *PGRepo) GetByID(ctx context.Context, reportID string) (Report, error) {
	query := `
SELECT ` + reportColumns + `
FROM reports
WHERE id = $1
LIMIT 1`
	report, err := scanReport(r.DB.QueryRowContext(ctx, query, reportID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	return report, nil
}

// List lists reports ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Report, error) {
	limit, offset = normalizePage(limit, offset)
	query := `
SELECT ` + reportColumns + `
FROM reports
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (Report, error) {
	var rep Report
	var fileName string
	var result, suggestions, warnings []byte
	var fileInfo sql.NullString
	if err := row.Scan(
		&rep.ID,
		&fileName,
		&rep.JobDescription,
		&rep.ResumeText,
		&result,
		&suggestions,
		&fileInfo,
		&warnings,
		&rep.PromptVersion,
		&rep.PromptHash,
		&rep.Provider,
		&rep.Model,
		&rep.UploadKey,
		&rep.CreatedAt,
	); err != nil {
		return Report{}, err
	}

	if err := json.Unmarshal(result, &rep.Analysis); err != nil {
		return Report{}, fmt.Errorf("decode result for %s: %w", rep.ID, err)
	}
	rep.Suggestions = EmptySuggestions()
	if len(suggestions) > 0 {
		if err := json.Unmarshal(suggestions, &rep.Suggestions); err != nil {
			return Report{}, fmt.Errorf("decode suggestions for %s: %w", rep.ID, err)
		}
	}
	if fileInfo.Valid {
		rep.FileInfo = &FileInfo{}
		if err := json.Unmarshal([]byte(fileInfo.String), rep.FileInfo); err != nil {
			rep.FileInfo = nil
		}
	}
	rep.Warnings = []string{}
	if len(warnings) > 0 {
		_ = json.Unmarshal(warnings, &rep.Warnings)
	}
	rep.CreatedAt = rep.CreatedAt.UTC()
	rep.ScoreBand = Band(rep.Analysis.AIAnalysis.OverallMatchScore)
	return rep, nil
}

func marshalJSONB(value any) ([]byte, error) {
	if value == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(value)
}
