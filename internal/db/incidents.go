package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sanos-dev/backend/internal/model"
)

// EnsureIncidentSchema - incidents 테이블 생성
//
// incidents_active_dedup_idx: non-terminal 상태의 (target, source, error_message)는 1건만 허용
// error_message가 길 수 있어서 md5로 인덱싱
func (db *Postgres) EnsureIncidentSchema(ctx context.Context) error {
	return db.execAll(ctx, []string{
		`
		CREATE TABLE IF NOT EXISTS incidents (
			id BIGSERIAL PRIMARY KEY,
			target_id BIGINT NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			source TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			error_message TEXT NOT NULL,
			stack_trace TEXT,
			logs JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at TIMESTAMPTZ
		)
		`,
		`CREATE INDEX IF NOT EXISTS incidents_target_id_idx ON incidents(target_id, created_at DESC)`,
		`
		CREATE UNIQUE INDEX IF NOT EXISTS incidents_active_dedup_idx
		ON incidents(target_id, source, md5(error_message))
		WHERE status IN ('open', 'analyzing', 'pr_created')
		`,
	})
}

const incidentColumns = `
	id, target_id, type, source, status, error_message, stack_trace, logs, created_at, resolved_at
`

func scanIncident(row pgx.Row) (*model.Incident, error) {
	var i model.Incident
	var logs []byte
	err := row.Scan(
		&i.ID,
		&i.TargetID,
		&i.Type,
		&i.Source,
		&i.Status,
		&i.ErrorMessage,
		&i.StackTrace,
		&logs,
		&i.CreatedAt,
		&i.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(logs) > 0 {
		i.Logs = json.RawMessage(logs)
	}
	return &i, nil
}

// FindActiveIncident - 같은 (target, source, error_message)의 non-terminal incident 조회
// excludeID > 0 이면 해당 incident는 제외 (dequeue 시 재확인용)
func (db *Postgres) FindActiveIncident(ctx context.Context, targetID int64, source, errorMessage string, excludeID int64) (*model.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE target_id = $1
			AND source = $2
			AND error_message = $3
			AND id <> $4
			AND status IN ('open', 'analyzing', 'pr_created')
		ORDER BY id ASC
		LIMIT 1
	`
	inc, err := scanIncident(db.Pool.QueryRow(ctx, query, targetID, source, errorMessage, excludeID))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return inc, nil
}

// CreateIncident - 신규 incident 저장
// dedup 인덱스와 충돌하면 (nil, false, nil) 반환
func (db *Postgres) CreateIncident(ctx context.Context, in model.Incident) (*model.Incident, bool, error) {
	logs, err := jsonParam(in.Logs)
	if err != nil {
		return nil, false, err
	}

	query := `
		INSERT INTO incidents (target_id, type, source, status, error_message, stack_trace, logs, created_at)
		VALUES ($1, $2, $3, 'open', $4, $5, $6::jsonb, NOW())
		ON CONFLICT (target_id, source, md5(error_message))
			WHERE status IN ('open', 'analyzing', 'pr_created')
			DO NOTHING
		RETURNING ` + incidentColumns

	inc, err := scanIncident(db.Pool.QueryRow(ctx, query,
		in.TargetID,
		in.Type,
		in.Source,
		in.ErrorMessage,
		in.StackTrace,
		logs,
	))
	if err != nil {
		if IsNoRows(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return inc, true, nil
}

func (db *Postgres) GetIncident(ctx context.Context, id int64) (*model.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`
	return scanIncident(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) ListIncidentsByTarget(ctx context.Context, targetID int64) ([]model.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE target_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := db.Pool.Query(ctx, query, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *inc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if list == nil {
		list = []model.Incident{}
	}
	return list, nil
}

// UpdateIncidentStatus - 허용된 이전 상태에서만 전환 (read-modify-write를 UPDATE 한 번으로 처리)
// 전환되지 않았으면 false
func (db *Postgres) UpdateIncidentStatus(ctx context.Context, id int64, to model.IncidentStatus) (bool, error) {
	from := model.AllowedFrom(to)
	fromText := make([]string, 0, len(from))
	for _, s := range from {
		fromText = append(fromText, string(s))
	}

	var resolvedAt *time.Time
	if to == model.IncidentResolved {
		now := time.Now().UTC()
		resolvedAt = &now
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE incidents
		SET status = $2, resolved_at = COALESCE($4, resolved_at)
		WHERE id = $1 AND status = ANY($3)
	`, id, to, fromText, resolvedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateIncidentLogs - 처리 시점에 보강한 logs(빌드 로그 등) 저장
func (db *Postgres) UpdateIncidentLogs(ctx context.Context, id int64, logs json.RawMessage) error {
	param, err := jsonParam(logs)
	if err != nil {
		return err
	}
	tag, err := db.Pool.Exec(ctx, `UPDATE incidents SET logs = $2 WHERE id = $1`, id, param)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteIncident - analyses는 FK cascade로 함께 삭제
func (db *Postgres) DeleteIncident(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
