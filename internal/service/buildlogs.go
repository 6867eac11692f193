package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sanos-dev/backend/internal/model"
	"github.com/sanos-dev/backend/internal/queue"
	"go.uber.org/zap"
)

// build_error incident의 logs 키
const (
	deploymentIDKey  = "deployment_id"
	deploymentURLKey = "deployment_url"
	buildLogsKey     = "build_logs"
)

const (
	// worker에서 빌드 로그 조회에 쓰는 최대 시간 (재시도 포함)
	defaultBuildLogTimeout = time.Minute

	noBuildLogs          = "No build logs available."
	buildLogsUnavailable = "Build logs unavailable: VERCEL_TOKEN is not configured."
)

// BuildLogFetcher - 배포 빌드 로그 조회
type BuildLogFetcher interface {
	IsConfigured() bool
	FetchBuildLogs(ctx context.Context, deploymentID string) (string, error)
}

// attachBuildLogs - build_error item의 logs에 빌드 로그를 붙이고 incident에도 저장
// 조회 실패는 placeholder 문자열로 대체 (처리는 계속)
func (s *RemediationService) attachBuildLogs(ctx context.Context, item queue.Item, log *zap.Logger) json.RawMessage {
	if item.Type != model.IncidentTypeBuild || len(item.Logs) == 0 {
		return item.Logs
	}

	var logs map[string]any
	if err := json.Unmarshal(item.Logs, &logs); err != nil {
		return item.Logs
	}
	deploymentID, _ := logs[deploymentIDKey].(string)
	if deploymentID == "" {
		return item.Logs
	}

	logs[buildLogsKey] = s.fetchBuildLogs(ctx, deploymentID, log)
	enriched, err := json.Marshal(logs)
	if err != nil {
		return item.Logs
	}
	if err := s.store.UpdateIncidentLogs(ctx, item.IncidentID, enriched); err != nil {
		log.Warn("Failed to store build logs", zap.Error(err))
	}
	return enriched
}

func (s *RemediationService) fetchBuildLogs(ctx context.Context, deploymentID string, log *zap.Logger) string {
	if s.builds == nil || !s.builds.IsConfigured() {
		return buildLogsUnavailable
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.buildLogTimeout)
	defer cancel()

	logs, err := s.builds.FetchBuildLogs(fetchCtx, deploymentID)
	if err != nil {
		log.Warn("Failed to fetch build logs", zap.String("deployment_id", deploymentID), zap.Error(err))
		return "Error fetching logs: " + err.Error()
	}
	if strings.TrimSpace(logs) == "" {
		return noBuildLogs
	}
	return logs
}
