// 진단 Agent 서비스와 HTTP 통신하는 클라이언트 정의
//
// 설정:
//   - AGENT_URL: Agent 서비스 URL (예: http://sanos-agent:8000)
//   - AGENT_MODEL: Agent가 사용할 모델 식별자
//
// Agent에 전달하는 데이터:
//   - input: 작업 설명 (렌더링된 task)
//   - github_token: 저장소 소유자의 위임 토큰 (Agent의 GitHub tool이 사용)

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sanos-dev/backend/internal/config"
)

// AgentClient 구조체 정의
type AgentClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// AgentRunRequest 구조체 정의
type AgentRunRequest struct {
	Input       string `json:"input"`
	Model       string `json:"model,omitempty"`
	GitHubToken string `json:"github_token"`
}

// AgentResult - Agent 실행 결과
type AgentResult struct {
	Success     bool   `json:"success"`
	AgentOutput string `json:"agent_output"`
	TokensUsed  *int   `json:"tokens_used,omitempty"`
	Error       string `json:"error,omitempty"`
}

// AgentClient 객체 생성
func NewAgentClient(cfg config.AgentConfig) *AgentClient {
	return &AgentClient{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		// 실행 시간은 호출자의 ctx(AGENT_TIMEOUT)로 제한
		httpClient: &http.Client{},
	}
}

// Model - Analysis.llm_model에 기록할 모델 식별자
func (c *AgentClient) Model() string {
	return c.model
}

// POST /run 작업 실행 요청하고 결과 반환 (동기)
func (c *AgentClient) Run(ctx context.Context, credential, task string) (*AgentResult, error) {
	payload, err := json.Marshal(AgentRunRequest{
		Input:       task,
		Model:       c.model,
		GitHubToken: credential,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to agent: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent returned status: %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var result AgentResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("agent run failed: %s", result.Error)
	}

	return &result, nil
}

// truncate - 앞에서 n rune만 유지 (멀티바이트 문자가 잘리지 않도록)
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
