package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sanos-dev/backend/internal/db"
	"github.com/sanos-dev/backend/internal/model"
	"go.uber.org/zap"
)

// TargetService - 저장소(target) 등록 / 조회 / 파이프라인 갱신
type TargetService struct {
	repo   TargetRepo
	cache  *TargetKeyCache
	logger *zap.Logger
}

func NewTargetService(repo TargetRepo, cache *TargetKeyCache, logger *zap.Logger) *TargetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TargetService{repo: repo, cache: cache, logger: logger}
}

// Connect - owner/repo 연결 (같은 사용자의 같은 저장소면 기존 target 반환)
func (s *TargetService) Connect(ctx context.Context, userID int64, fullName string) (*model.Target, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(fullName), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("%w: full_name must be owner/repo", ErrInvalidInput)
	}

	t, err := s.repo.CreateTarget(ctx, userID, owner, repo, uuid.NewString())
	if err != nil {
		return nil, err
	}
	s.logger.Info("Target connected",
		zap.Int64("target_id", t.ID),
		zap.Int64("user_id", userID),
		zap.String("repo", t.FullName()),
	)
	return t, nil
}

func (s *TargetService) List(ctx context.Context, userID int64) ([]model.Target, error) {
	return s.repo.ListTargetsByUser(ctx, userID)
}

// Get - 다른 사용자의 target은 not found로 처리
func (s *TargetService) Get(ctx context.Context, userID, targetID int64) (*model.Target, error) {
	t, err := s.repo.GetTarget(ctx, targetID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, fmt.Errorf("%w: target %d", ErrNotFound, targetID)
		}
		return nil, err
	}
	if t.UserID != userID {
		return nil, fmt.Errorf("%w: target %d", ErrNotFound, targetID)
	}
	return t, nil
}

func (s *TargetService) Status(ctx context.Context, userID, targetID int64) (*model.TargetStatusResponse, error) {
	t, err := s.Get(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}
	return &model.TargetStatusResponse{
		TargetID:     t.ID,
		Status:       t.Status,
		PipelineStep: t.PipelineStep,
		LiveURL:      t.LiveURL,
		WebhookKey:   t.WebhookKey,
		UpdatedAt:    t.UpdatedAt,
	}, nil
}

// UpdatePipeline - setup 파이프라인 / 배포 poller용 상태 갱신
func (s *TargetService) UpdatePipeline(ctx context.Context, userID, targetID int64, req model.UpdatePipelineRequest) (*model.Target, error) {
	if req.PipelineStep != nil && !req.PipelineStep.Valid() {
		return nil, fmt.Errorf("%w: unknown pipeline_step %q", ErrInvalidInput, *req.PipelineStep)
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *req.Status)
	}
	if req.DeployProject != nil && strings.TrimSpace(*req.DeployProject) == "" {
		return nil, fmt.Errorf("%w: deploy_project must not be empty", ErrInvalidInput)
	}

	if _, err := s.Get(ctx, userID, targetID); err != nil {
		return nil, err
	}

	t, err := s.repo.UpdateTargetPipeline(ctx, targetID, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Target pipeline updated",
		zap.Int64("target_id", t.ID),
		zap.String("pipeline_step", string(t.PipelineStep)),
		zap.String("status", string(t.Status)),
	)
	return t, nil
}

// Delete - incidents / analyses는 cascade 삭제
func (s *TargetService) Delete(ctx context.Context, userID, targetID int64) error {
	t, err := s.Get(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTarget(ctx, targetID); err != nil {
		if db.IsNoRows(err) {
			return fmt.Errorf("%w: target %d", ErrNotFound, targetID)
		}
		return err
	}
	if s.cache != nil {
		s.cache.Forget(t.WebhookKey)
	}
	s.logger.Info("Target deleted", zap.Int64("target_id", targetID))
	return nil
}
