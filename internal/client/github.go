// GitHub API 클라이언트 (자동 수정 PR merge)
//
// 요청마다 저장소 소유자의 위임 토큰으로 클라이언트를 생성
//
// 설정:
//   - GITHUB_API_URL: GitHub Enterprise 등 API base URL (비어 있으면 api.github.com)

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Songmu/retry"
	"github.com/google/go-github/v57/github"
	"github.com/sanos-dev/backend/internal/config"
	"golang.org/x/oauth2"
)

type GitHubClient struct {
	baseURL *url.URL

	retryCount    uint
	retryInterval time.Duration
}

func NewGitHubClient(cfg config.GitHubConfig) (*GitHubClient, error) {
	c := &GitHubClient{retryCount: 3, retryInterval: 2 * time.Second}
	if cfg.APIURL != "" {
		u, err := url.Parse(strings.TrimRight(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GITHUB_API_URL: %w", err)
		}
		c.baseURL = u
	}
	return c, nil
}

func (c *GitHubClient) newClient(ctx context.Context, token string) *github.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))
	if c.baseURL != nil {
		gh.BaseURL = c.baseURL
	}
	return gh
}

// MergePullRequest - squash merge
// 405/409/422 등 4xx 응답은 재시도하지 않음
func (c *GitHubClient) MergePullRequest(ctx context.Context, token, owner, repo string, number int, title string) error {
	if token == "" {
		return errors.New("missing github token")
	}
	gh := c.newClient(ctx, token)

	var permanent error
	err := retry.WithContext(ctx, c.retryCount, c.retryInterval, func() error {
		result, resp, err := gh.PullRequests.Merge(ctx, owner, repo, number, "", &github.PullRequestOptions{
			CommitTitle: title,
			MergeMethod: "squash",
		})
		if err != nil {
			if ctx.Err() != nil || (resp != nil && resp.StatusCode < http.StatusInternalServerError) {
				permanent = err
				return nil
			}
			return err
		}
		if result != nil && !result.GetMerged() {
			permanent = fmt.Errorf("pull request not merged: %s", result.GetMessage())
		}
		return nil
	})
	if permanent != nil {
		return permanent
	}
	return err
}
