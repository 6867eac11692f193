package service

import (
	"context"
	"encoding/json"

	"github.com/sanos-dev/backend/internal/model"
	"github.com/sanos-dev/backend/internal/queue"
)

// TargetRepo - targets 테이블 접근
type TargetRepo interface {
	CreateTarget(ctx context.Context, userID int64, owner, repo, webhookKey string) (*model.Target, error)
	GetTarget(ctx context.Context, id int64) (*model.Target, error)
	GetTargetByWebhookKey(ctx context.Context, key string) (*model.Target, error)
	GetTargetByDeployProject(ctx context.Context, project string) (*model.Target, error)
	ListTargetsByUser(ctx context.Context, userID int64) ([]model.Target, error)
	UpdateTargetPipeline(ctx context.Context, id int64, req model.UpdatePipelineRequest) (*model.Target, error)
	SetPipelineStep(ctx context.Context, id int64, step model.PipelineStep) error
	DeleteTarget(ctx context.Context, id int64) error
}

// IncidentRepo - incidents 테이블 접근
type IncidentRepo interface {
	FindActiveIncident(ctx context.Context, targetID int64, source, errorMessage string, excludeID int64) (*model.Incident, error)
	CreateIncident(ctx context.Context, in model.Incident) (*model.Incident, bool, error)
	GetIncident(ctx context.Context, id int64) (*model.Incident, error)
	ListIncidentsByTarget(ctx context.Context, targetID int64) ([]model.Incident, error)
	UpdateIncidentStatus(ctx context.Context, id int64, to model.IncidentStatus) (bool, error)
	UpdateIncidentLogs(ctx context.Context, id int64, logs json.RawMessage) error
	DeleteIncident(ctx context.Context, id int64) error
}

// AnalysisRepo - analyses 테이블 접근 (insert-only)
type AnalysisRepo interface {
	InsertAnalysis(ctx context.Context, a model.Analysis) (*model.Analysis, error)
	ListAnalysesByIncident(ctx context.Context, incidentID int64) ([]model.Analysis, error)
	LatestAnalysisWithPR(ctx context.Context, incidentID int64) (*model.Analysis, error)
}

// CredentialRepo - 저장소 소유자의 위임 토큰 조회 (없으면 "")
type CredentialRepo interface {
	GetOwnerCredential(ctx context.Context, targetID int64) (string, error)
}

// FindingRepo - 분석 임베딩 저장 / 유사도 검색
type FindingRepo interface {
	InsertAnalysisEmbedding(ctx context.Context, analysisID, incidentID, targetID int64, summary, model string, vector []float32) (int64, error)
	FindSimilarFindings(ctx context.Context, targetID, excludeIncidentID int64, vector []float32, limit int) ([]model.SimilarFinding, error)
}

// Store - 서비스 레이어가 사용하는 전체 저장소
type Store interface {
	TargetRepo
	IncidentRepo
	AnalysisRepo
	CredentialRepo
}

// Enqueuer - target 단위 순차 처리 큐
type Enqueuer interface {
	Enqueue(item queue.Item) bool
	Requeue(item queue.Item) bool
	Contains(targetID, incidentID int64) bool
}
