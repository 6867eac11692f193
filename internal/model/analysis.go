package model

import (
	"encoding/json"
	"time"
)

// Analysis - 자동 수정 시도 1회의 결과 (append-only)
type Analysis struct {
	ID              int64           `json:"id"`
	IncidentID      int64           `json:"incident_id"`
	LLMModel        string          `json:"llm_model"`
	Prompt          string          `json:"prompt"`
	RootCause       string          `json:"root_cause"`
	SuggestedFix    json.RawMessage `json:"suggested_fix" swaggertype:"object"`
	FilesAnalyzed   []string        `json:"files_analyzed"`
	CommitsAnalyzed []string        `json:"commits_analyzed"`
	PRURL           *string         `json:"pr_url"`
	PRNumber        *int            `json:"pr_number"`
	BranchName      *string         `json:"branch_name"`
	TokensUsed      *int            `json:"tokens_used"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SimilarFinding - 과거 분석 중 유사한 root cause
type SimilarFinding struct {
	IncidentID   int64   `json:"incident_id"`
	ErrorMessage string  `json:"error_message"`
	RootCause    string  `json:"root_cause"`
	Distance     float64 `json:"distance"`
}
