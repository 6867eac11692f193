package model

import "time"

// Target - 모니터링 대상 앱(저장소)
type Target struct {
	ID            int64        `json:"id"`
	UserID        int64        `json:"user_id"`
	RepoOwner     string       `json:"repo_owner"`
	RepoName      string       `json:"repo_name"`
	DeployProject *string      `json:"deploy_project"` // Vercel 프로젝트 이름 (배포 전에는 null)
	LiveURL       *string      `json:"live_url"`
	Status        TargetStatus `json:"status"`
	PipelineStep  PipelineStep `json:"pipeline_step"`
	WebhookKey    string       `json:"webhook_key"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// FullName - owner/repo 형식
func (t Target) FullName() string {
	return t.RepoOwner + "/" + t.RepoName
}

// ConnectTargetRequest - 저장소 연결 요청
type ConnectTargetRequest struct {
	FullName string `json:"full_name" binding:"required"` // owner/repo
}

// UpdatePipelineRequest - setup 파이프라인 / 배포 poller가 상태를 갱신할 때 사용
type UpdatePipelineRequest struct {
	PipelineStep  *PipelineStep `json:"pipeline_step"`
	Status        *TargetStatus `json:"status"`
	DeployProject *string       `json:"deploy_project"`
	LiveURL       *string       `json:"live_url"`
}

// TargetStatusResponse - 상태 조회 응답
type TargetStatusResponse struct {
	TargetID     int64        `json:"target_id"`
	Status       TargetStatus `json:"status"`
	PipelineStep PipelineStep `json:"pipeline_step"`
	LiveURL      *string      `json:"live_url"`
	WebhookKey   string       `json:"webhook_key"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
