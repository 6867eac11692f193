// 인입 webhook 페이로드 구조체 정의
// handler, service 레이어에서 공통으로 사용

package model

import "encoding/json"

// RuntimeErrorPayload - 모니터링 대상 앱이 직접 보내는 런타임 에러
type RuntimeErrorPayload struct {
	WebhookKey   string          `json:"webhook_key" binding:"required"`
	Source       string          `json:"source" binding:"required"` // server, client-global 등
	ErrorMessage string          `json:"error_message" binding:"required"`
	StackTrace   *string         `json:"stack_trace"`
	Logs         json.RawMessage `json:"logs" swaggertype:"object"`
}

// VercelEvent - Vercel 배포 이벤트 webhook
type VercelEvent struct {
	Type    string             `json:"type"`
	Payload VercelEventPayload `json:"payload"`
}

// VercelEventPayload - 이벤트 타입에 따라 필드 위치가 달라서 둘 다 받음
type VercelEventPayload struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	URL        string            `json:"url"`
	Deployment *VercelDeployment `json:"deployment"`
	Project    *VercelProject    `json:"project"`
}

type VercelDeployment struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type VercelProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeploymentID - payload.id 우선, 없으면 payload.deployment.id
func (p VercelEventPayload) DeploymentID() string {
	if p.ID != "" {
		return p.ID
	}
	if p.Deployment != nil {
		return p.Deployment.ID
	}
	return ""
}

// ProjectName - payload.name 우선, 없으면 payload.project.name
func (p VercelEventPayload) ProjectName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Project != nil {
		return p.Project.Name
	}
	return ""
}

// DeploymentURL - payload.url 우선, 없으면 payload.deployment.url
func (p VercelEventPayload) DeploymentURL() string {
	if p.URL != "" {
		return p.URL
	}
	if p.Deployment != nil {
		return p.Deployment.URL
	}
	return ""
}

// Ingest 결과 상태
const (
	IngestCreated   = "created"
	IngestDuplicate = "duplicate"
	IngestIgnored   = "ignored"
)

// IngestResponse - webhook 응답
type IngestResponse struct {
	Status     string `json:"status"`
	IncidentID int64  `json:"incident_id,omitempty"`
	EventType  string `json:"event_type,omitempty"`
	Reason     string `json:"reason,omitempty"`
}
