package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sanos-dev/backend/internal/config"
	"github.com/sanos-dev/backend/internal/db/dbtest"
	"github.com/sanos-dev/backend/internal/model"
	"github.com/sanos-dev/backend/internal/queue"
	"github.com/sanos-dev/backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec"

type recordingQueue struct {
	mu    sync.Mutex
	items []queue.Item
	busy  map[int64]bool
}

func (q *recordingQueue) Enqueue(item queue.Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.busy[item.IncidentID] {
		return false
	}
	q.items = append(q.items, item)
	q.busy[item.IncidentID] = true
	return true
}

func (q *recordingQueue) Requeue(item queue.Item) bool {
	return q.Enqueue(item)
}

func (q *recordingQueue) Contains(targetID, incidentID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.busy[incidentID]
}

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type testServer struct {
	router *gin.Engine
	store  *dbtest.Store
	queue  *recordingQueue
	auth   *service.AuthService
	target *model.Target
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := dbtest.New()
	userID := store.AddUser("octocat", "gho_tok")
	project := "shop"
	target := store.AddTarget(model.Target{
		UserID:        userID,
		RepoOwner:     "acme",
		RepoName:      "shop",
		WebhookKey:    "key-1",
		DeployProject: &project,
	})

	auth, err := service.NewAuthService(config.AuthConfig{JWTSecret: "test-secret"})
	require.NoError(t, err)

	q := &recordingQueue{busy: make(map[int64]bool)}
	cache := service.NewTargetKeyCache(0)
	targets := service.NewTargetService(store, cache, nil)
	ingest := service.NewIngestService(store, service.NewDedupFilter(store), q, cache, testSecret, nil)
	incidents := service.NewIncidentService(store, targets, q, nil, "[Sanos]", nil)

	router := NewRouter(RouterDeps{
		Auth:      auth,
		Ingest:    NewIngestHandler(ingest),
		Targets:   NewTargetHandler(targets),
		Incidents: NewIncidentHandler(incidents),
	})
	return &testServer{router: router, store: store, queue: q, auth: auth, target: target}
}

func (s *testServer) token(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := s.auth.IssueAccessToken(userID, "octocat", time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) authed(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	return s.do(method, path, body, map[string]string{"Authorization": "Bearer " + s.token(t, s.target.UserID)})
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPing(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/ping", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestRuntimeErrorCreatedThenDuplicate(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"webhook_key":"key-1","source":"server","error_message":"TypeError: x is undefined"}`)

	first := s.do(http.MethodPost, "/webhooks/logs", body, nil)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	created := decode[model.IngestResponse](t, first)
	assert.Equal(t, "created", created.Status)
	assert.NotZero(t, created.IncidentID)

	second := s.do(http.MethodPost, "/webhooks/logs", body, nil)
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
	dup := decode[model.IngestResponse](t, second)
	assert.Equal(t, "duplicate", dup.Status)
	assert.Equal(t, created.IncidentID, dup.IncidentID)

	assert.Len(t, s.store.Incidents(), 1)
	assert.Equal(t, 1, s.queue.count())
}

func TestRuntimeErrorRejectsBadRequests(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/webhooks/logs", []byte(`{"webhook_key":"nope","source":"server","error_message":"boom"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/webhooks/logs", []byte(`{"webhook_key":"key-1","source":"server"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/webhooks/logs", []byte(`not json`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, s.store.Incidents())
}

func TestVercelSignature(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"type":"deployment.created","payload":{"deployment":{"id":"dpl_1"}}}`)

	w := s.do(http.MethodPost, "/webhooks/vercel", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/webhooks/vercel", body, map[string]string{"x-vercel-signature": "deadbeef"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	mac := hmac.New(sha1.New, []byte(testSecret))
	mac.Write(body)
	w = s.do(http.MethodPost, "/webhooks/vercel", body, map[string]string{"x-vercel-signature": hex.EncodeToString(mac.Sum(nil))})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[model.IngestResponse](t, w)
	assert.Equal(t, "ignored", res.Status)
	assert.Equal(t, "deployment.created", res.EventType)
}

func TestVercelDeploymentErrorIsAcknowledged(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"type":"deployment.error","payload":{"deployment":{"id":"dpl_1","url":"shop-abc.vercel.app"},"project":{"name":"shop"}}}`)

	mac := hmac.New(sha1.New, []byte(testSecret))
	mac.Write(body)

	start := time.Now()
	w := s.do(http.MethodPost, "/webhooks/vercel", body, map[string]string{"x-vercel-signature": hex.EncodeToString(mac.Sum(nil))})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Less(t, time.Since(start), time.Second)

	res := decode[model.IngestResponse](t, w)
	assert.Equal(t, "created", res.Status)
	assert.Equal(t, 1, s.queue.count())
}

func TestAPIRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/targets", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/targets", nil, map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
}

func TestTargetEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.authed(t, http.MethodGet, "/api/v1/targets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[model.TargetListEnvelope](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "acme", list.Data[0].RepoOwner)

	w = s.authed(t, http.MethodGet, fmt.Sprintf("/api/v1/targets/%d/status", s.target.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[model.TargetStatusEnvelope](t, w)
	assert.Equal(t, model.StepReady, status.Data.PipelineStep)

	w = s.authed(t, http.MethodPut, fmt.Sprintf("/api/v1/targets/%d/pipeline", s.target.ID), []byte(`{"pipeline_step":"bogus"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.authed(t, http.MethodGet, "/api/v1/targets/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.authed(t, http.MethodPost, "/api/v1/targets", []byte(`{"full_name":"acme/web"}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.TargetEnvelope](t, w)
	assert.Equal(t, model.StepPending, created.Data.PipelineStep)
	assert.NotEmpty(t, created.Data.WebhookKey)

	w = s.authed(t, http.MethodPost, "/api/v1/targets", []byte(`{"full_name":"nope"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTargetOfAnotherUserIsNotFound(t *testing.T) {
	s := newTestServer(t)
	other := s.store.AddUser("mallory", "")

	w := s.do(http.MethodGet, fmt.Sprintf("/api/v1/targets/%d", s.target.ID), nil,
		map[string]string{"Authorization": "Bearer " + s.token(t, other)})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIncidentEndpoints(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"webhook_key":"key-1","source":"client-global","error_message":"boom"}`)
	created := decode[model.IngestResponse](t, s.do(http.MethodPost, "/webhooks/logs", body, nil))
	base := fmt.Sprintf("/api/v1/targets/%d/incidents", s.target.ID)

	w := s.authed(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[model.IncidentListEnvelope](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, created.IncidentID, list.Data[0].ID)
	assert.Equal(t, model.IncidentOpen, list.Data[0].Status)
	assert.Empty(t, list.Data[0].Analyses)

	w = s.authed(t, http.MethodGet, fmt.Sprintf("%s/%d/analyses", base, created.IncidentID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())

	// 이미 대기열에 있으므로 재시도는 중복 enqueue 없이 already_queued
	w = s.authed(t, http.MethodPost, fmt.Sprintf("%s/%d/retry", base, created.IncidentID), nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "already_queued", decode[model.RetryIncidentResponse](t, w).Status)
	assert.Equal(t, 1, s.queue.count())

	w = s.authed(t, http.MethodPost, fmt.Sprintf("%s/%d/resolve", base, created.IncidentID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resolved := decode[model.ResolveIncidentResponse](t, w)
	assert.Equal(t, model.IncidentResolved, resolved.State)
	assert.Nil(t, resolved.MergeStatus)

	w = s.authed(t, http.MethodPost, fmt.Sprintf("%s/%d/retry", base, created.IncidentID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.authed(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, created.IncidentID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.store.Incidents())

	w = s.authed(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, created.IncidentID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenAPIDoc(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/openapi.json", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc.Paths, "/webhooks/logs")
	assert.Contains(t, doc.Paths, "/api/v1/targets/{id}/incidents")
}
