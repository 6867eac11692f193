package model

import (
	"encoding/json"
	"time"
)

// Incident - 보고된 장애 1건
// dedup 식별자는 (target_id, source, error_message)
type Incident struct {
	ID           int64           `json:"id"`
	TargetID     int64           `json:"target_id"`
	Type         IncidentType    `json:"type"`
	Source       string          `json:"source"`
	Status       IncidentStatus  `json:"status"`
	ErrorMessage string          `json:"error_message"`
	StackTrace   *string         `json:"stack_trace"`
	Logs         json.RawMessage `json:"logs" swaggertype:"object"`
	CreatedAt    time.Time       `json:"created_at"`
	ResolvedAt   *time.Time      `json:"resolved_at"`
}

// IncidentWithAnalyses - 상태 조회용 (분석 이력 포함)
type IncidentWithAnalyses struct {
	Incident
	Analyses []Analysis `json:"analyses"`
}

// ResolveIncidentResponse - Incident 종료 응답
type ResolveIncidentResponse struct {
	Status      string         `json:"status"`
	IncidentID  int64          `json:"incident_id"`
	State       IncidentStatus `json:"state"`
	ResolvedAt  time.Time      `json:"resolved_at"`
	MergeStatus *string        `json:"merge_status"`
}
