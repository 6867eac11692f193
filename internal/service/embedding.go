package service

import (
	"context"

	"github.com/sanos-dev/backend/internal/model"
	"go.uber.org/zap"
)

// 작업 설명에 포함하는 유사 과거 분석 수
const priorFindingsLimit = 3

type EmbeddingClient interface {
	EmbedText(ctx context.Context, text string) ([]float32, string, error)
}

// FindingService - 분석 root cause 임베딩 저장 / 유사 분석 검색
// nil이면 아무 동작도 하지 않음 (AI_API_KEY 미설정)
type FindingService struct {
	repo   FindingRepo
	client EmbeddingClient
	logger *zap.Logger
}

func NewFindingService(repo FindingRepo, client EmbeddingClient, logger *zap.Logger) *FindingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FindingService{repo: repo, client: client, logger: logger}
}

// Similar - 같은 target의 유사 분석 (실패 시 nil)
func (s *FindingService) Similar(ctx context.Context, targetID, incidentID int64, errorMessage string) []model.SimilarFinding {
	if s == nil {
		return nil
	}
	vector, _, err := s.client.EmbedText(ctx, errorMessage)
	if err != nil {
		s.logger.Warn("Failed to embed error message", zap.Int64("incident_id", incidentID), zap.Error(err))
		return nil
	}
	findings, err := s.repo.FindSimilarFindings(ctx, targetID, incidentID, vector, priorFindingsLimit)
	if err != nil {
		s.logger.Warn("Failed to search similar findings", zap.Int64("incident_id", incidentID), zap.Error(err))
		return nil
	}
	return findings
}

// Record - root cause 임베딩 저장 (실패는 로그만)
func (s *FindingService) Record(ctx context.Context, targetID int64, a *model.Analysis) {
	if s == nil || a == nil || a.RootCause == "" {
		return
	}
	vector, embedModel, err := s.client.EmbedText(ctx, a.RootCause)
	if err != nil {
		s.logger.Warn("Failed to embed root cause", zap.Int64("analysis_id", a.ID), zap.Error(err))
		return
	}
	if _, err := s.repo.InsertAnalysisEmbedding(ctx, a.ID, a.IncidentID, targetID, a.RootCause, embedModel, vector); err != nil {
		s.logger.Warn("Failed to store embedding", zap.Int64("analysis_id", a.ID), zap.Error(err))
	}
}
