package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sanos-dev/backend/internal/db"
	"github.com/sanos-dev/backend/internal/metrics"
	"github.com/sanos-dev/backend/internal/model"
	"github.com/sanos-dev/backend/internal/queue"
	"go.uber.org/zap"
)

const vercelEventDeploymentError = "deployment.error"

// IngestService - 런타임 에러 / 배포 실패 webhook 처리
//
// 처리 순서: target 확인 → dedup → incident 생성 → (위임 토큰이 있으면) enqueue
// 외부 API 호출은 하지 않음 (빌드 로그는 worker가 조회)
type IngestService struct {
	store         Store
	dedup         *DedupFilter
	queue         Enqueuer
	cache         *TargetKeyCache
	webhookSecret string
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

func NewIngestService(
	store Store,
	dedup *DedupFilter,
	q Enqueuer,
	cache *TargetKeyCache,
	webhookSecret string,
	logger *zap.Logger,
) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewTargetKeyCache(0)
	}
	return &IngestService{
		store:         store,
		dedup:         dedup,
		queue:         q,
		cache:         cache,
		webhookSecret: webhookSecret,
		metrics:       metrics.New(),
		logger:        logger,
	}
}

// IngestRuntimeError - POST /webhooks/logs
func (s *IngestService) IngestRuntimeError(ctx context.Context, p model.RuntimeErrorPayload) (model.IngestResponse, error) {
	if strings.TrimSpace(p.WebhookKey) == "" || strings.TrimSpace(p.Source) == "" || strings.TrimSpace(p.ErrorMessage) == "" {
		return model.IngestResponse{}, fmt.Errorf("%w: webhook_key, source and error_message are required", ErrInvalidInput)
	}
	if len(p.Logs) > 0 && !json.Valid(p.Logs) {
		return model.IngestResponse{}, fmt.Errorf("%w: logs must be valid JSON", ErrInvalidInput)
	}

	target, err := s.cache.Lookup(ctx, s.store, p.WebhookKey)
	if err != nil {
		if db.IsNoRows(err) {
			return model.IngestResponse{}, fmt.Errorf("%w: unknown webhook key", ErrUnauthorized)
		}
		return model.IngestResponse{}, err
	}

	return s.admit(ctx, target, model.Incident{
		TargetID:     target.ID,
		Type:         model.IncidentTypeRuntime,
		Source:       p.Source,
		ErrorMessage: p.ErrorMessage,
		StackTrace:   p.StackTrace,
		Logs:         p.Logs,
	})
}

// VerifySignature - x-vercel-signature (raw body의 HMAC-SHA1 hex) 검증
// secret이 비어 있으면 검증 생략
func (s *IngestService) VerifySignature(body []byte, signature string) error {
	if s.webhookSecret == "" {
		return nil
	}
	if signature == "" {
		return fmt.Errorf("%w: missing signature", ErrUnauthorized)
	}

	mac := hmac.New(sha1.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature)))) {
		return fmt.Errorf("%w: invalid signature", ErrUnauthorized)
	}
	return nil
}

// IngestDeployment - POST /webhooks/vercel
// deployment.error 이외의 이벤트, setup 단계의 배포 실패는 무시
func (s *IngestService) IngestDeployment(ctx context.Context, body []byte, signature string) (model.IngestResponse, error) {
	if err := s.VerifySignature(body, signature); err != nil {
		return model.IngestResponse{}, err
	}

	var event model.VercelEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return model.IngestResponse{}, fmt.Errorf("%w: invalid event payload", ErrInvalidInput)
	}

	if event.Type != vercelEventDeploymentError {
		return s.ignored(model.SourceVercel, model.IngestResponse{Status: model.IngestIgnored, EventType: event.Type}), nil
	}

	deploymentID := event.Payload.DeploymentID()
	project := event.Payload.ProjectName()
	if deploymentID == "" || project == "" {
		return s.ignored(model.SourceVercel, model.IngestResponse{Status: model.IngestIgnored, Reason: "missing deployment info"}), nil
	}

	target, err := s.store.GetTargetByDeployProject(ctx, project)
	if err != nil {
		if db.IsNoRows(err) {
			return s.ignored(model.SourceVercel, model.IngestResponse{Status: model.IngestIgnored, Reason: "target not found"}), nil
		}
		return model.IngestResponse{}, err
	}

	if target.PipelineStep.IsInitialSetup() {
		s.logger.Info("Skipping deployment failure during initial setup",
			zap.Int64("target_id", target.ID),
			zap.String("pipeline_step", string(target.PipelineStep)),
			zap.String("deployment_id", deploymentID),
		)
		return s.ignored(model.SourceVercel, model.IngestResponse{Status: model.IngestIgnored, Reason: "initial deployment"}), nil
	}

	logs, err := json.Marshal(map[string]string{
		deploymentIDKey:  deploymentID,
		deploymentURLKey: event.Payload.DeploymentURL(),
	})
	if err != nil {
		return model.IngestResponse{}, err
	}

	return s.admit(ctx, target, model.Incident{
		TargetID:     target.ID,
		Type:         model.IncidentTypeBuild,
		Source:       model.SourceVercel,
		ErrorMessage: fmt.Sprintf("Vercel deployment failed (deployment %s)", deploymentID),
		Logs:         logs,
	})
}

// admit - dedup 후 생성, enqueue
func (s *IngestService) admit(ctx context.Context, target *model.Target, in model.Incident) (model.IngestResponse, error) {
	log := s.logger.With(
		zap.Int64("target_id", target.ID),
		zap.String("source", in.Source),
	)

	admit, existing, err := s.dedup.ShouldAdmit(ctx, target.ID, in.Source, in.ErrorMessage, 0)
	if err != nil {
		return model.IngestResponse{}, err
	}
	if !admit {
		return s.duplicate(ctx, target, existing), nil
	}

	created, ok, err := s.store.CreateIncident(ctx, in)
	if err != nil {
		return model.IngestResponse{}, err
	}
	if !ok {
		// 동시 인입으로 dedup 인덱스와 충돌
		existing, err := s.store.FindActiveIncident(ctx, target.ID, in.Source, in.ErrorMessage, 0)
		if err != nil {
			return model.IngestResponse{}, err
		}
		if existing == nil {
			return model.IngestResponse{}, fmt.Errorf("%w: incident changed concurrently", ErrConflict)
		}
		return s.duplicate(ctx, target, existing), nil
	}

	log.Info("Incident created", zap.Int64("incident_id", created.ID), zap.String("type", string(created.Type)))
	s.metrics.IncidentsIngested.WithLabelValues(in.Source, model.IngestCreated).Inc()

	s.enqueue(ctx, target, created, false)
	return model.IngestResponse{Status: model.IngestCreated, IncidentID: created.ID}, nil
}

// duplicate - 기존 incident가 open이면 다시 enqueue
// 처리 중이면 현재 실행이 끝난 뒤 재처리 (실패 후 open으로 돌아온 경우 대비)
func (s *IngestService) duplicate(ctx context.Context, target *model.Target, existing *model.Incident) model.IngestResponse {
	s.logger.Info("Duplicate incident",
		zap.Int64("target_id", target.ID),
		zap.Int64("incident_id", existing.ID),
		zap.String("status", string(existing.Status)),
	)
	s.metrics.IncidentsIngested.WithLabelValues(existing.Source, model.IngestDuplicate).Inc()

	if existing.Status == model.IncidentOpen {
		s.enqueue(ctx, target, existing, true)
	}
	return model.IngestResponse{Status: model.IngestDuplicate, IncidentID: existing.ID}
}

func (s *IngestService) ignored(source string, res model.IngestResponse) model.IngestResponse {
	s.metrics.IncidentsIngested.WithLabelValues(source, model.IngestIgnored).Inc()
	return res
}

// enqueue - 위임 토큰이 없으면 incident만 기록
func (s *IngestService) enqueue(ctx context.Context, target *model.Target, inc *model.Incident, redelivery bool) {
	credential, err := s.store.GetOwnerCredential(ctx, target.ID)
	if err != nil {
		s.logger.Error("Failed to load owner credential", zap.Int64("target_id", target.ID), zap.Error(err))
		return
	}
	if credential == "" {
		s.logger.Warn("Owner has no delegated credential, incident recorded without remediation",
			zap.Int64("target_id", target.ID),
			zap.Int64("incident_id", inc.ID),
		)
		return
	}

	item := NewQueueItem(target, inc, credential)
	if redelivery {
		item.Redelivery = true
		s.queue.Requeue(item)
		return
	}
	s.queue.Enqueue(item)
}

// NewQueueItem - incident를 큐 item으로 변환
func NewQueueItem(target *model.Target, inc *model.Incident, credential string) queue.Item {
	return queue.Item{
		IncidentID:   inc.ID,
		TargetID:     target.ID,
		Credential:   credential,
		RepoOwner:    target.RepoOwner,
		RepoName:     target.RepoName,
		Type:         inc.Type,
		Source:       inc.Source,
		ErrorMessage: inc.ErrorMessage,
		StackTrace:   inc.StackTrace,
		Logs:         inc.Logs,
	}
}
