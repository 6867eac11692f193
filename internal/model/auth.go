package model

import "time"

// AuthUser - JWT에서 복원한 요청 사용자
type AuthUser struct {
	ID      int64
	LoginID string
}

// User - 저장소 소유자
// AccessToken은 외부 OAuth 흐름이 저장하는 GitHub 위임 토큰
type User struct {
	ID          int64
	LoginID     string
	AccessToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
