package service

import (
	"context"
	"errors"
	"sync"

	"github.com/sanos-dev/backend/internal/client"
	"github.com/sanos-dev/backend/internal/db/dbtest"
	"github.com/sanos-dev/backend/internal/model"
	"github.com/sanos-dev/backend/internal/queue"
)

type fakeQueue struct {
	mu    sync.Mutex
	items []queue.Item
	busy  map[int64]bool
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{busy: make(map[int64]bool)}
}

func (q *fakeQueue) Enqueue(item queue.Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.busy[item.IncidentID] {
		return false
	}
	q.items = append(q.items, item)
	q.busy[item.IncidentID] = true
	return true
}

// Requeue - 처리 중 / 대기 구분이 없으므로 Enqueue와 동일
func (q *fakeQueue) Requeue(item queue.Item) bool {
	return q.Enqueue(item)
}

func (q *fakeQueue) Contains(targetID, incidentID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.busy[incidentID]
}

func (q *fakeQueue) release(incidentID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.busy, incidentID)
}

func (q *fakeQueue) enqueued() []queue.Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Item(nil), q.items...)
}

type fakeAgent struct {
	mu     sync.Mutex
	tasks  []string
	tokens []string
	run    func(ctx context.Context, task string) (*client.AgentResult, error)
}

func (a *fakeAgent) Run(ctx context.Context, credential, task string) (*client.AgentResult, error) {
	a.mu.Lock()
	a.tasks = append(a.tasks, task)
	a.tokens = append(a.tokens, credential)
	run := a.run
	a.mu.Unlock()

	if run == nil {
		return &client.AgentResult{Success: true}, nil
	}
	return run(ctx, task)
}

func (a *fakeAgent) Model() string { return "test-model" }

func (a *fakeAgent) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tasks)
}

func outputAgent(output string) *fakeAgent {
	return &fakeAgent{run: func(ctx context.Context, task string) (*client.AgentResult, error) {
		return &client.AgentResult{Success: true, AgentOutput: output}, nil
	}}
}

type fakeBuilds struct {
	configured bool
	logs       string
	err        error
	// true면 ctx가 끝날 때까지 응답하지 않음
	hang bool

	calls        int
	deploymentID string
}

func (b *fakeBuilds) IsConfigured() bool { return b.configured }

func (b *fakeBuilds) FetchBuildLogs(ctx context.Context, deploymentID string) (string, error) {
	b.calls++
	b.deploymentID = deploymentID
	if b.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return b.logs, b.err
}

type fakeMerger struct {
	err    error
	calls  int
	number int
	title  string
	token  string
}

func (m *fakeMerger) MergePullRequest(ctx context.Context, token, owner, repo string, number int, title string) error {
	m.calls++
	m.number, m.title, m.token = number, title, token
	return m.err
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, string, error) {
	if e.err != nil {
		return nil, "", e.err
	}
	return []float32{float32(len(text)), 1}, "test-embedding", nil
}

var errAgent = errors.New("agent exploded")

// seedTarget - 위임 토큰이 있는 사용자와 ready 상태 target
func seedTarget(store *dbtest.Store, token string) *model.Target {
	userID := store.AddUser("octocat", token)
	project := "shop"
	return store.AddTarget(model.Target{
		UserID:        userID,
		RepoOwner:     "acme",
		RepoName:      "shop",
		WebhookKey:    "key-" + token,
		DeployProject: &project,
	})
}
