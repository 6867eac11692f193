package db

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/sanos-dev/backend/internal/model"
)

// EnsureEmbeddingSchema - pgvector extension + analysis_embeddings 테이블 생성
// AI_API_KEY가 설정된 경우에만 호출 (pgvector 미설치 환경 고려)
func (db *Postgres) EnsureEmbeddingSchema(ctx context.Context, dimensions int) error {
	return db.execAll(ctx, []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS analysis_embeddings (
			id BIGSERIAL PRIMARY KEY,
			analysis_id BIGINT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			incident_id BIGINT NOT NULL REFERENCES incidents(id) ON DELETE CASCADE,
			target_id BIGINT NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
			summary TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`, dimensions),
		`CREATE INDEX IF NOT EXISTS analysis_embeddings_target_id_idx ON analysis_embeddings(target_id)`,
	})
}

func embeddingInsertQuery() string {
	return `
		INSERT INTO analysis_embeddings (analysis_id, incident_id, target_id, summary, embedding, model)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
}

// InsertAnalysisEmbedding - 분석 root cause 임베딩 저장
func (db *Postgres) InsertAnalysisEmbedding(ctx context.Context, analysisID, incidentID, targetID int64, summary, model string, vector []float32) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, embeddingInsertQuery(),
		analysisID, incidentID, targetID, summary, pgvector.NewVector(vector), model,
	).Scan(&id)
	return id, err
}

// FindSimilarFindings - 같은 target의 과거 분석 중 cosine distance가 가까운 순
// excludeIncidentID의 분석은 제외
func (db *Postgres) FindSimilarFindings(ctx context.Context, targetID, excludeIncidentID int64, vector []float32, limit int) ([]model.SimilarFinding, error) {
	query := `
		SELECT e.incident_id, i.error_message, e.summary, e.embedding <=> $1 AS distance
		FROM analysis_embeddings e
		JOIN incidents i ON i.id = e.incident_id
		WHERE e.target_id = $2 AND e.incident_id <> $3
		ORDER BY distance ASC
		LIMIT $4
	`
	rows, err := db.Pool.Query(ctx, query, pgvector.NewVector(vector), targetID, excludeIncidentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SimilarFinding
	for rows.Next() {
		var f model.SimilarFinding
		if err := rows.Scan(&f.IncidentID, &f.ErrorMessage, &f.RootCause, &f.Distance); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
