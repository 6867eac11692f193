package service

import (
	"context"
	"fmt"

	"github.com/sanos-dev/backend/internal/db"
	"github.com/sanos-dev/backend/internal/model"
	"go.uber.org/zap"
)

// PullRequestMerger - 자동 수정 PR merge
type PullRequestMerger interface {
	MergePullRequest(ctx context.Context, token, owner, repo string, number int, title string) error
}

// Resolve 응답의 merge_status 값
const (
	MergeStatusMerged  = "merged"
	mergeFailedPrefix  = "merge_failed: "
	MergeStatusSkipped = "merge_skipped: no delegated credential"
)

// IncidentService - target 소유자 기준 incident 조회 / 종료 / 재시도
type IncidentService struct {
	store     Store
	targets   *TargetService
	queue     Enqueuer
	merger    PullRequestMerger
	commitTag string
	logger    *zap.Logger
}

func NewIncidentService(store Store, targets *TargetService, q Enqueuer, merger PullRequestMerger, commitTag string, logger *zap.Logger) *IncidentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncidentService{
		store:     store,
		targets:   targets,
		queue:     q,
		merger:    merger,
		commitTag: commitTag,
		logger:    logger,
	}
}

// ListWithAnalyses - 최신순 incident + 각 분석 이력
func (s *IncidentService) ListWithAnalyses(ctx context.Context, userID, targetID int64) ([]model.IncidentWithAnalyses, error) {
	if _, err := s.targets.Get(ctx, userID, targetID); err != nil {
		return nil, err
	}

	incidents, err := s.store.ListIncidentsByTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}

	out := make([]model.IncidentWithAnalyses, 0, len(incidents))
	for _, inc := range incidents {
		analyses, err := s.store.ListAnalysesByIncident(ctx, inc.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.IncidentWithAnalyses{Incident: inc, Analyses: analyses})
	}
	return out, nil
}

func (s *IncidentService) Analyses(ctx context.Context, userID, targetID, incidentID int64) ([]model.Analysis, error) {
	if _, _, err := s.load(ctx, userID, targetID, incidentID); err != nil {
		return nil, err
	}
	return s.store.ListAnalysesByIncident(ctx, incidentID)
}

func (s *IncidentService) Delete(ctx context.Context, userID, targetID, incidentID int64) error {
	if _, _, err := s.load(ctx, userID, targetID, incidentID); err != nil {
		return err
	}
	if err := s.store.DeleteIncident(ctx, incidentID); err != nil {
		if db.IsNoRows(err) {
			return fmt.Errorf("%w: incident %d", ErrNotFound, incidentID)
		}
		return err
	}
	s.logger.Info("Incident deleted", zap.Int64("incident_id", incidentID), zap.Int64("target_id", targetID))
	return nil
}

// Resolve - 최신 PR을 squash merge 후 resolved 처리
// merge 실패는 merge_status로만 알리고 종료는 진행
func (s *IncidentService) Resolve(ctx context.Context, userID, targetID, incidentID int64) (*model.ResolveIncidentResponse, error) {
	target, inc, err := s.load(ctx, userID, targetID, incidentID)
	if err != nil {
		return nil, err
	}
	if inc.Status == model.IncidentResolved {
		return resolveResponse(inc, nil), nil
	}

	mergeStatus, err := s.mergeLatestPR(ctx, target, inc)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.UpdateIncidentStatus(ctx, incidentID, model.IncidentResolved); err != nil {
		return nil, err
	}
	inc, err = s.store.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if inc.Status != model.IncidentResolved {
		return nil, fmt.Errorf("%w: incident %d is %s", ErrConflict, incidentID, inc.Status)
	}

	s.logger.Info("Incident resolved", zap.Int64("incident_id", incidentID), zap.Int64("target_id", targetID))
	return resolveResponse(inc, mergeStatus), nil
}

func (s *IncidentService) mergeLatestPR(ctx context.Context, target *model.Target, inc *model.Incident) (*string, error) {
	analysis, err := s.store.LatestAnalysisWithPR(ctx, inc.ID)
	if err != nil {
		return nil, err
	}
	if analysis == nil || analysis.PRNumber == nil || s.merger == nil {
		return nil, nil
	}

	credential, err := s.store.GetOwnerCredential(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	status := MergeStatusSkipped
	if credential != "" {
		title := fmt.Sprintf("%s Merge fix for incident #%d", s.commitTag, inc.ID)
		err := s.merger.MergePullRequest(ctx, credential, target.RepoOwner, target.RepoName, *analysis.PRNumber, title)
		if err != nil {
			s.logger.Warn("Failed to merge pull request",
				zap.Int64("incident_id", inc.ID),
				zap.Int("pr_number", *analysis.PRNumber),
				zap.Error(err),
			)
			status = mergeFailedPrefix + err.Error()
		} else {
			status = MergeStatusMerged
		}
	}
	return &status, nil
}

// Retry - open(또는 멈춘 analyzing) incident를 다시 enqueue
func (s *IncidentService) Retry(ctx context.Context, userID, targetID, incidentID int64) (*model.RetryIncidentResponse, error) {
	target, inc, err := s.load(ctx, userID, targetID, incidentID)
	if err != nil {
		return nil, err
	}
	if inc.Status != model.IncidentOpen && inc.Status != model.IncidentAnalyzing {
		return nil, fmt.Errorf("%w: incident %d is %s", ErrConflict, incidentID, inc.Status)
	}
	if s.queue.Contains(targetID, incidentID) {
		return &model.RetryIncidentResponse{Status: "already_queued", IncidentID: incidentID, Queued: true}, nil
	}

	credential, err := s.store.GetOwnerCredential(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if credential == "" {
		return nil, fmt.Errorf("%w: owner has no delegated credential", ErrConflict)
	}

	status := "queued"
	if !s.queue.Enqueue(NewQueueItem(target, inc, credential)) {
		status = "already_queued"
	}
	s.logger.Info("Incident retry requested", zap.Int64("incident_id", incidentID), zap.String("result", status))
	return &model.RetryIncidentResponse{Status: status, IncidentID: incidentID, Queued: true}, nil
}

// load - 소유자 확인 후 target에 속한 incident 조회
func (s *IncidentService) load(ctx context.Context, userID, targetID, incidentID int64) (*model.Target, *model.Incident, error) {
	target, err := s.targets.Get(ctx, userID, targetID)
	if err != nil {
		return nil, nil, err
	}
	inc, err := s.store.GetIncident(ctx, incidentID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil, fmt.Errorf("%w: incident %d", ErrNotFound, incidentID)
		}
		return nil, nil, err
	}
	if inc.TargetID != targetID {
		return nil, nil, fmt.Errorf("%w: incident %d", ErrNotFound, incidentID)
	}
	return target, inc, nil
}

func resolveResponse(inc *model.Incident, mergeStatus *string) *model.ResolveIncidentResponse {
	res := &model.ResolveIncidentResponse{
		Status:      "success",
		IncidentID:  inc.ID,
		State:       inc.Status,
		MergeStatus: mergeStatus,
	}
	if inc.ResolvedAt != nil {
		res.ResolvedAt = *inc.ResolvedAt
	}
	return res
}
