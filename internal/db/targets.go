package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sanos-dev/backend/internal/model"
)

// EnsureTargetSchema - targets 테이블 생성
func (db *Postgres) EnsureTargetSchema(ctx context.Context) error {
	return db.execAll(ctx, []string{
		`
		CREATE TABLE IF NOT EXISTS targets (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			repo_owner TEXT NOT NULL,
			repo_name TEXT NOT NULL,
			deploy_project TEXT,
			live_url TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			pipeline_step TEXT NOT NULL DEFAULT 'pending',
			webhook_key TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, repo_owner, repo_name)
		)
		`,
		`CREATE INDEX IF NOT EXISTS targets_user_id_idx ON targets(user_id)`,
		`CREATE INDEX IF NOT EXISTS targets_deploy_project_idx ON targets(deploy_project) WHERE deploy_project IS NOT NULL`,
	})
}

const targetColumns = `
	id, user_id, repo_owner, repo_name, deploy_project, live_url,
	status, pipeline_step, webhook_key, created_at, updated_at
`

func scanTarget(row pgx.Row) (*model.Target, error) {
	var t model.Target
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.RepoOwner,
		&t.RepoName,
		&t.DeployProject,
		&t.LiveURL,
		&t.Status,
		&t.PipelineStep,
		&t.WebhookKey,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTarget - 저장소 연결, 같은 (user, owner, repo)가 있으면 기존 row 반환
func (db *Postgres) CreateTarget(ctx context.Context, userID int64, owner, repo, webhookKey string) (*model.Target, error) {
	query := `
		INSERT INTO targets (user_id, repo_owner, repo_name, webhook_key, status, pipeline_step, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', 'pending', NOW(), NOW())
		ON CONFLICT (user_id, repo_owner, repo_name) DO UPDATE SET updated_at = targets.updated_at
		RETURNING ` + targetColumns

	return scanTarget(db.Pool.QueryRow(ctx, query, userID, owner, repo, webhookKey))
}

func (db *Postgres) GetTarget(ctx context.Context, id int64) (*model.Target, error) {
	query := `SELECT ` + targetColumns + ` FROM targets WHERE id = $1`
	return scanTarget(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) GetTargetByWebhookKey(ctx context.Context, key string) (*model.Target, error) {
	query := `SELECT ` + targetColumns + ` FROM targets WHERE webhook_key = $1`
	return scanTarget(db.Pool.QueryRow(ctx, query, key))
}

func (db *Postgres) GetTargetByDeployProject(ctx context.Context, project string) (*model.Target, error) {
	query := `SELECT ` + targetColumns + ` FROM targets WHERE deploy_project = $1 ORDER BY id LIMIT 1`
	return scanTarget(db.Pool.QueryRow(ctx, query, project))
}

func (db *Postgres) ListTargetsByUser(ctx context.Context, userID int64) ([]model.Target, error) {
	query := `SELECT ` + targetColumns + ` FROM targets WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if list == nil {
		list = []model.Target{}
	}
	return list, nil
}

// UpdateTargetPipeline - nil 필드는 기존 값 유지
func (db *Postgres) UpdateTargetPipeline(ctx context.Context, id int64, req model.UpdatePipelineRequest) (*model.Target, error) {
	query := `
		UPDATE targets
		SET
			pipeline_step = COALESCE($2, pipeline_step),
			status = COALESCE($3, status),
			deploy_project = COALESCE($4, deploy_project),
			live_url = COALESCE($5, live_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + targetColumns

	return scanTarget(db.Pool.QueryRow(ctx, query, id, req.PipelineStep, req.Status, req.DeployProject, req.LiveURL))
}

// SetPipelineStep - Runner가 build_error 처리 중 단계 전환할 때 사용
func (db *Postgres) SetPipelineStep(ctx context.Context, id int64, step model.PipelineStep) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE targets
		SET pipeline_step = $2, updated_at = NOW()
		WHERE id = $1
	`, id, step)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no target found with id: %d", id)
	}
	return nil
}

// DeleteTarget - incidents / analyses는 FK cascade로 함께 삭제
func (db *Postgres) DeleteTarget(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM targets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
