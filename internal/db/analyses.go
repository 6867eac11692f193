package db

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/sanos-dev/backend/internal/model"
)

// EnsureAnalysisSchema - analyses 테이블 생성 (insert-only)
func (db *Postgres) EnsureAnalysisSchema(ctx context.Context) error {
	return db.execAll(ctx, []string{
		`
		CREATE TABLE IF NOT EXISTS analyses (
			id BIGSERIAL PRIMARY KEY,
			incident_id BIGINT NOT NULL REFERENCES incidents(id) ON DELETE CASCADE,
			llm_model TEXT NOT NULL DEFAULT '',
			prompt TEXT NOT NULL DEFAULT '',
			root_cause TEXT NOT NULL DEFAULT '',
			suggested_fix JSONB,
			files_analyzed JSONB,
			commits_analyzed JSONB,
			pr_url TEXT,
			pr_number INTEGER,
			branch_name TEXT,
			tokens_used INTEGER,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE INDEX IF NOT EXISTS analyses_incident_id_idx ON analyses(incident_id, created_at DESC)`,
	})
}

const analysisColumns = `
	id, incident_id, llm_model, prompt, root_cause, suggested_fix, files_analyzed,
	commits_analyzed, pr_url, pr_number, branch_name, tokens_used, created_at
`

func scanAnalysis(row pgx.Row) (*model.Analysis, error) {
	var a model.Analysis
	var suggestedFix, files, commits []byte
	err := row.Scan(
		&a.ID,
		&a.IncidentID,
		&a.LLMModel,
		&a.Prompt,
		&a.RootCause,
		&suggestedFix,
		&files,
		&commits,
		&a.PRURL,
		&a.PRNumber,
		&a.BranchName,
		&a.TokensUsed,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(suggestedFix) > 0 {
		a.SuggestedFix = json.RawMessage(suggestedFix)
	}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &a.FilesAnalyzed); err != nil {
			return nil, err
		}
	}
	if len(commits) > 0 {
		if err := json.Unmarshal(commits, &a.CommitsAnalyzed); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

// InsertAnalysis - 분석 결과 1건 저장
func (db *Postgres) InsertAnalysis(ctx context.Context, a model.Analysis) (*model.Analysis, error) {
	suggestedFix, err := jsonParam(a.SuggestedFix)
	if err != nil {
		return nil, err
	}
	files, err := jsonParam(a.FilesAnalyzed)
	if err != nil {
		return nil, err
	}
	commits, err := jsonParam(a.CommitsAnalyzed)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO analyses (
			incident_id, llm_model, prompt, root_cause, suggested_fix, files_analyzed,
			commits_analyzed, pr_url, pr_number, branch_name, tokens_used, created_at
		)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8, $9, $10, $11, NOW())
		RETURNING ` + analysisColumns

	return scanAnalysis(db.Pool.QueryRow(ctx, query,
		a.IncidentID,
		a.LLMModel,
		a.Prompt,
		a.RootCause,
		suggestedFix,
		files,
		commits,
		a.PRURL,
		a.PRNumber,
		a.BranchName,
		a.TokensUsed,
	))
}

// ListAnalysesByIncident - 최신순
func (db *Postgres) ListAnalysesByIncident(ctx context.Context, incidentID int64) ([]model.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE incident_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := db.Pool.Query(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// LatestAnalysisWithPR - PR이 생성된 가장 최근 분석 (없으면 nil)
func (db *Postgres) LatestAnalysisWithPR(ctx context.Context, incidentID int64) (*model.Analysis, error) {
	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE incident_id = $1 AND pr_url IS NOT NULL
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	a, err := scanAnalysis(db.Pool.QueryRow(ctx, query, incidentID))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}
