package db

import (
	"context"

	"github.com/sanos-dev/backend/internal/model"
)

// EnsureUserSchema - users 테이블 생성
// 로그인/OAuth는 외부 서비스 담당, 여기서는 위임 토큰 조회만 사용
func (db *Postgres) EnsureUserSchema(ctx context.Context) error {
	return db.execAll(ctx, []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			login_id TEXT NOT NULL UNIQUE,
			access_token TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
	})
}

func (db *Postgres) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `
		SELECT id, login_id, access_token, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	err := db.Pool.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.LoginID,
		&user.AccessToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOwnerCredential - Target 소유자의 GitHub 위임 토큰 조회 (없으면 "")
func (db *Postgres) GetOwnerCredential(ctx context.Context, targetID int64) (string, error) {
	query := `
		SELECT u.access_token
		FROM targets t
		JOIN users u ON u.id = t.user_id
		WHERE t.id = $1
	`
	var token string
	err := db.Pool.QueryRow(ctx, query, targetID).Scan(&token)
	if err != nil {
		if IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}
