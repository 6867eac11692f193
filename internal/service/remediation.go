package service

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sanos-dev/backend/internal/client"
	"github.com/sanos-dev/backend/internal/config"
	"github.com/sanos-dev/backend/internal/db"
	"github.com/sanos-dev/backend/internal/metrics"
	"github.com/sanos-dev/backend/internal/model"
	"github.com/sanos-dev/backend/internal/queue"
	"github.com/sanos-dev/backend/internal/template"
	"go.uber.org/zap"
)

const (
	// suggested_fix.agent_output에 저장하는 출력 길이
	storedOutputChars = 2000
	// PR URL을 못 찾았을 때 경고 로그에 남기는 출력 길이
	warnOutputChars = 500

	unparsedRootCause = "Analysis completed but root cause could not be parsed."
)

// Agent - 진단 Agent 실행
type Agent interface {
	Run(ctx context.Context, credential, task string) (*client.AgentResult, error)
	Model() string
}

// RemediationService - 큐 item 1건 처리 (진단 → 수정 PR → 결과 기록)
type RemediationService struct {
	store    Store
	dedup    *DedupFilter
	agent    Agent
	findings *FindingService
	builds   BuildLogFetcher

	task         string
	commitTag    string
	branchPrefix string
	timeout      time.Duration

	buildLogTimeout time.Duration

	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewRemediationService(
	store Store,
	dedup *DedupFilter,
	agent Agent,
	findings *FindingService,
	builds BuildLogFetcher,
	agentCfg config.AgentConfig,
	cfg config.RemediationConfig,
	logger *zap.Logger,
) *RemediationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemediationService{
		store:           store,
		dedup:           dedup,
		agent:           agent,
		findings:        findings,
		builds:          builds,
		task:            template.DefaultTask,
		commitTag:       cfg.CommitTag,
		branchPrefix:    cfg.BranchPrefix,
		timeout:         agentCfg.Timeout,
		buildLogTimeout: defaultBuildLogTimeout,
		metrics:         metrics.New(),
		logger:          logger,
	}
}

// Process - queue.ProcessFunc
// 모든 에러와 panic을 내부에서 처리 (다음 item 처리에 영향 없음)
func (s *RemediationService) Process(ctx context.Context, item queue.Item) {
	log := s.logger.With(
		zap.Int64("incident_id", item.IncidentID),
		zap.Int64("target_id", item.TargetID),
		zap.String("source", item.Source),
	)
	start := time.Now()
	outcome := metrics.OutcomeFailed

	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomeFailed
			log.Error("Remediation panicked",
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()),
			)
			s.resetToOpen(context.WithoutCancel(ctx), item, log)
		}
		s.metrics.RemediationRuns.WithLabelValues(outcome).Inc()
		if outcome != metrics.OutcomeSkipped {
			s.metrics.RemediationDuration.Observe(time.Since(start).Seconds())
		}
	}()

	outcome = s.process(ctx, item, log)
}

func (s *RemediationService) process(ctx context.Context, item queue.Item, log *zap.Logger) string {
	// 1. dequeue 시점 dedup 재확인 (자기 자신 제외)
	admit, existing, err := s.dedup.ShouldAdmit(ctx, item.TargetID, item.Source, item.ErrorMessage, item.IncidentID)
	if err != nil {
		log.Warn("Dedup re-check failed, continuing", zap.Error(err))
	} else if !admit {
		log.Info("Dropping duplicate incident", zap.Int64("existing_incident_id", existing.ID))
		return metrics.OutcomeSkipped
	}

	// 재전송 item은 아직 open일 때만 처리 (앞선 실행이 이미 끝냈을 수 있음)
	if item.Redelivery {
		inc, err := s.store.GetIncident(ctx, item.IncidentID)
		if err != nil {
			if db.IsNoRows(err) {
				return metrics.OutcomeSkipped
			}
			log.Error("Failed to load incident", zap.Error(err))
			return metrics.OutcomeFailed
		}
		if inc.Status != model.IncidentOpen {
			log.Info("Redelivered incident already handled, skipping", zap.String("status", string(inc.Status)))
			return metrics.OutcomeSkipped
		}
	}

	// 2. analyzing 전환 (open / analyzing 상태에서만)
	ok, err := s.store.UpdateIncidentStatus(ctx, item.IncidentID, model.IncidentAnalyzing)
	if err != nil {
		log.Error("Failed to mark incident analyzing", zap.Error(err))
		return metrics.OutcomeFailed
	}
	if !ok {
		log.Info("Incident is no longer processable, skipping")
		return metrics.OutcomeSkipped
	}
	s.setStep(ctx, item, model.StepAutofixRunning, log)

	// 3. 작업 설명 렌더링 (build_error는 빌드 로그 조회 후)
	logs := s.attachBuildLogs(ctx, item, log)
	branch := template.BranchName(s.branchPrefix, item.IncidentID)
	task := template.RenderTask(s.task, template.TaskData{
		RepoOwner:     item.RepoOwner,
		RepoName:      item.RepoName,
		IncidentID:    item.IncidentID,
		Type:          item.Type,
		Source:        item.Source,
		ErrorMessage:  item.ErrorMessage,
		StackTrace:    item.StackTrace,
		Logs:          logs,
		Branch:        branch,
		CommitTag:     s.commitTag,
		PriorFindings: s.findings.Similar(ctx, item.TargetID, item.IncidentID, item.ErrorMessage),
	})

	// 4. Agent 실행 (AGENT_TIMEOUT)
	log.Info("Running diagnosis agent", zap.String("branch", branch))
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	result, err := s.agent.Run(runCtx, item.Credential, task)
	cancel()

	// 이후 기록은 shutdown으로 ctx가 취소돼도 진행
	writeCtx := context.WithoutCancel(ctx)
	if err != nil {
		s.fail(writeCtx, item, task, err, log)
		return metrics.OutcomeFailed
	}

	// 5. 결과 파싱 / 기록
	parsed := ParseAgentOutput(result.AgentOutput)
	rootCause := parsed.RootCause
	if rootCause == "" {
		rootCause = unparsedRootCause
	}
	suggestedFix, err := json.Marshal(map[string]string{"agent_output": tail(result.AgentOutput, storedOutputChars)})
	if err != nil {
		s.fail(writeCtx, item, task, err, log)
		return metrics.OutcomeFailed
	}

	analysis, err := s.store.InsertAnalysis(writeCtx, model.Analysis{
		IncidentID:      item.IncidentID,
		LLMModel:        s.agent.Model(),
		Prompt:          task,
		RootCause:       rootCause,
		SuggestedFix:    suggestedFix,
		FilesAnalyzed:   parsed.FilesAnalyzed,
		CommitsAnalyzed: parsed.CommitsAnalyzed,
		PRURL:           parsed.PRURL,
		PRNumber:        parsed.PRNumber,
		BranchName:      &branch,
		TokensUsed:      result.TokensUsed,
	})
	if err != nil {
		s.fail(writeCtx, item, task, fmt.Errorf("failed to store analysis: %w", err), log)
		return metrics.OutcomeFailed
	}

	if parsed.RootCause != "" {
		s.findings.Record(writeCtx, item.TargetID, analysis)
	}

	if parsed.PRURL == nil {
		log.Warn("No PR URL parsed from agent output", zap.String("output_tail", tail(result.AgentOutput, warnOutputChars)))
		s.setStep(writeCtx, item, model.StepAutofixCompleted, log)
		return metrics.OutcomeNoPR
	}

	if _, err := s.store.UpdateIncidentStatus(writeCtx, item.IncidentID, model.IncidentPRCreated); err != nil {
		log.Error("Failed to mark incident pr_created", zap.Error(err))
	}
	s.setStep(writeCtx, item, model.StepAutofixPRCreated, log)
	log.Info("Fix pull request created", zap.String("pr_url", *parsed.PRURL))
	return metrics.OutcomePRCreated
}

// fail - 실패 원인을 분석으로 남기고 open으로 되돌림 (재시도 가능)
func (s *RemediationService) fail(ctx context.Context, item queue.Item, task string, cause error, log *zap.Logger) {
	log.Error("Remediation failed", zap.Error(cause))

	if _, err := s.store.InsertAnalysis(ctx, model.Analysis{
		IncidentID: item.IncidentID,
		LLMModel:   s.agent.Model(),
		Prompt:     task,
		RootCause:  "Analysis failed: " + cause.Error(),
	}); err != nil {
		log.Error("Failed to store failed analysis", zap.Error(err))
	}
	s.resetToOpen(ctx, item, log)
	s.setStep(ctx, item, model.StepAutofixError, log)
}

func (s *RemediationService) resetToOpen(ctx context.Context, item queue.Item, log *zap.Logger) {
	if _, err := s.store.UpdateIncidentStatus(ctx, item.IncidentID, model.IncidentOpen); err != nil {
		log.Error("Failed to reset incident to open", zap.Error(err))
	}
}

// setStep - build_error incident만 target 파이프라인 단계를 갱신
func (s *RemediationService) setStep(ctx context.Context, item queue.Item, step model.PipelineStep, log *zap.Logger) {
	if item.Type != model.IncidentTypeBuild {
		return
	}
	if err := s.store.SetPipelineStep(ctx, item.TargetID, step); err != nil {
		log.Error("Failed to update pipeline step", zap.String("pipeline_step", string(step)), zap.Error(err))
	}
}
