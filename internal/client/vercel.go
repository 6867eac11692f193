// Vercel REST API 클라이언트 (배포 빌드 로그 조회)
//
// 설정:
//   - VERCEL_TOKEN: API 토큰 (없으면 빌드 로그 조회 생략)
//   - VERCEL_API_URL (default: https://api.vercel.com)

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Songmu/retry"
	"github.com/sanos-dev/backend/internal/config"
)

// 빌드 로그는 마지막 200줄만 유지 (프롬프트 길이 제한)
const maxBuildLogLines = 200

type VercelClient struct {
	baseURL    string
	token      string
	httpClient *http.Client

	retryCount    uint
	retryInterval time.Duration
}

// VercelEvent - GET /v2/deployments/:id/events 응답 항목
type VercelEvent struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Payload struct {
		Text string `json:"text"`
	} `json:"payload"`
}

func NewVercelClient(cfg config.VercelConfig) *VercelClient {
	return &VercelClient{
		baseURL:       strings.TrimRight(cfg.APIURL, "/"),
		token:         cfg.Token,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		retryCount:    3,
		retryInterval: 2 * time.Second,
	}
}

// Vercel 토큰 설정 여부 체크
func (c *VercelClient) IsConfigured() bool {
	return c.token != ""
}

// FetchBuildLogs - 배포 이벤트에서 stdout/stderr 라인만 추출
// 로그가 없으면 빈 문자열
func (c *VercelClient) FetchBuildLogs(ctx context.Context, deploymentID string) (string, error) {
	if !c.IsConfigured() {
		return "", errors.New("missing VERCEL_TOKEN")
	}

	var events []VercelEvent
	var permanent error
	err := retry.WithContext(ctx, c.retryCount, c.retryInterval, func() error {
		var status int
		var err error
		events, status, err = c.fetchEvents(ctx, deploymentID)
		if err == nil {
			return nil
		}
		// 4xx, ctx 취소는 재시도하지 않음 (대기 중 취소도 즉시 반환)
		if ctx.Err() != nil || (status >= 400 && status < 500) {
			permanent = err
			return nil
		}
		return err
	})
	if permanent != nil {
		return "", permanent
	}
	if err != nil {
		return "", err
	}

	return buildLogLines(events), nil
}

func (c *VercelClient) fetchEvents(ctx context.Context, deploymentID string) ([]VercelEvent, int, error) {
	endpoint := fmt.Sprintf("%s/v2/deployments/%s/events", c.baseURL, url.PathEscape(deploymentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request to vercel: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("vercel returned status: %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var events []VercelEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
	}
	return events, resp.StatusCode, nil
}

func buildLogLines(events []VercelEvent) string {
	var lines []string
	for _, ev := range events {
		switch {
		case ev.Type == "stdout" || ev.Type == "stderr":
			if ev.Payload.Text != "" {
				lines = append(lines, ev.Payload.Text)
			} else if ev.Text != "" {
				lines = append(lines, ev.Text)
			}
		case ev.Text != "":
			lines = append(lines, ev.Text)
		}
	}
	if len(lines) > maxBuildLogLines {
		lines = lines[len(lines)-maxBuildLogLines:]
	}
	return strings.Join(lines, "\n")
}
