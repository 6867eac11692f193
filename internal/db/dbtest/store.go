// Package dbtest provides an in-memory store with the same semantics as the
// Postgres repositories, for service and handler tests.
package dbtest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sanos-dev/backend/internal/model"
)

type embedding struct {
	analysisID int64
	incidentID int64
	targetID   int64
	summary    string
	vector     []float32
}

// Store - mutex 하나로 보호되는 in-memory 저장소
type Store struct {
	mu sync.Mutex

	nextID int64

	users      map[int64]*model.User
	targets    map[int64]*model.Target
	incidents  map[int64]*model.Incident
	analyses   map[int64]*model.Analysis
	embeddings []embedding

	// 에러 주입용
	FindActiveErr     error
	InsertAnalysisErr error

	// 호출 기록
	StatusUpdates []StatusUpdate
	StepUpdates   []StepUpdate
}

type StatusUpdate struct {
	IncidentID int64
	To         model.IncidentStatus
	Applied    bool
}

type StepUpdate struct {
	TargetID int64
	Step     model.PipelineStep
}

func New() *Store {
	return &Store{
		users:     make(map[int64]*model.User),
		targets:   make(map[int64]*model.Target),
		incidents: make(map[int64]*model.Incident),
		analyses:  make(map[int64]*model.Analysis),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddUser - 사용자 추가 (accessToken이 비어 있으면 위임 토큰 없음)
func (s *Store) AddUser(loginID, accessToken string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	now := time.Now().UTC()
	s.users[id] = &model.User{ID: id, LoginID: loginID, AccessToken: accessToken, CreatedAt: now, UpdatedAt: now}
	return id
}

// AddTarget - setup이 끝난 target을 바로 추가
func (s *Store) AddTarget(t model.Target) *model.Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.id()
	if t.Status == "" {
		t.Status = model.TargetReady
	}
	if t.PipelineStep == "" {
		t.PipelineStep = model.StepReady
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	s.targets[t.ID] = &t
	cp := t
	return &cp
}

// SetIncidentStatus - 전이 규칙을 우회해서 상태 지정
func (s *Store) SetIncidentStatus(id int64, status model.IncidentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inc, ok := s.incidents[id]; ok {
		inc.Status = status
	}
}

// Incidents - 전체 incident (id 오름차순)
func (s *Store) Incidents() []model.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		out = append(out, copyIncident(inc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Analyses - incident의 분석 (id 오름차순)
func (s *Store) Analyses(incidentID int64) []model.Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.analysesFor(incidentID)
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (s *Store) Embeddings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.embeddings)
}

// --- users ---

func (s *Store) GetOwnerCredential(ctx context.Context, targetID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.targets[targetID]
	if !ok {
		return "", nil
	}
	if u, ok := s.users[t.UserID]; ok {
		return u.AccessToken, nil
	}
	return "", nil
}

// --- targets ---

func (s *Store) CreateTarget(ctx context.Context, userID int64, owner, repo, webhookKey string) (*model.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, t := range s.targets {
		if t.UserID == userID && t.RepoOwner == owner && t.RepoName == repo {
			t.UpdatedAt = now
			cp := *t
			return &cp, nil
		}
	}

	t := &model.Target{
		ID:           s.id(),
		UserID:       userID,
		RepoOwner:    owner,
		RepoName:     repo,
		Status:       model.TargetPending,
		PipelineStep: model.StepPending,
		WebhookKey:   webhookKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.targets[t.ID] = t
	cp := *t
	return &cp, nil
}

func (s *Store) GetTarget(ctx context.Context, id int64) (*model.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.targets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (s *Store) GetTargetByWebhookKey(ctx context.Context, key string) (*model.Target, error) {
	return s.findTarget(func(t *model.Target) bool { return t.WebhookKey == key })
}

func (s *Store) GetTargetByDeployProject(ctx context.Context, project string) (*model.Target, error) {
	return s.findTarget(func(t *model.Target) bool { return t.DeployProject != nil && *t.DeployProject == project })
}

func (s *Store) findTarget(match func(*model.Target) bool) (*model.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *model.Target
	for _, t := range s.targets {
		if match(t) && (found == nil || t.ID < found.ID) {
			found = t
		}
	}
	if found == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *found
	return &cp, nil
}

func (s *Store) ListTargetsByUser(ctx context.Context, userID int64) ([]model.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := []model.Target{}
	for _, t := range s.targets {
		if t.UserID == userID {
			list = append(list, *t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (s *Store) UpdateTargetPipeline(ctx context.Context, id int64, req model.UpdatePipelineRequest) (*model.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.targets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if req.PipelineStep != nil {
		t.PipelineStep = *req.PipelineStep
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.DeployProject != nil {
		v := *req.DeployProject
		t.DeployProject = &v
	}
	if req.LiveURL != nil {
		v := *req.LiveURL
		t.LiveURL = &v
	}
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	return &cp, nil
}

func (s *Store) SetPipelineStep(ctx context.Context, id int64, step model.PipelineStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.StepUpdates = append(s.StepUpdates, StepUpdate{TargetID: id, Step: step})
	t, ok := s.targets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.PipelineStep = step
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) DeleteTarget(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.targets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.targets, id)
	for incID, inc := range s.incidents {
		if inc.TargetID == id {
			s.deleteIncidentLocked(incID)
		}
	}
	return nil
}

// --- incidents ---

func (s *Store) FindActiveIncident(ctx context.Context, targetID int64, source, errorMessage string, excludeID int64) (*model.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FindActiveErr != nil {
		return nil, s.FindActiveErr
	}
	if inc := s.findActiveLocked(targetID, source, errorMessage, excludeID); inc != nil {
		cp := copyIncident(inc)
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) findActiveLocked(targetID int64, source, errorMessage string, excludeID int64) *model.Incident {
	var found *model.Incident
	for _, inc := range s.incidents {
		if inc.TargetID != targetID || inc.Source != source || inc.ErrorMessage != errorMessage {
			continue
		}
		if inc.ID == excludeID || !inc.Status.IsActive() {
			continue
		}
		if found == nil || inc.ID < found.ID {
			found = inc
		}
	}
	return found
}

// CreateIncident - dedup 인덱스와 같은 조건으로 check-and-insert
func (s *Store) CreateIncident(ctx context.Context, in model.Incident) (*model.Incident, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.targets[in.TargetID]; !ok {
		return nil, false, pgx.ErrNoRows
	}
	if s.findActiveLocked(in.TargetID, in.Source, in.ErrorMessage, 0) != nil {
		return nil, false, nil
	}

	inc := copyIncident(&in)
	inc.ID = s.id()
	inc.Status = model.IncidentOpen
	inc.CreatedAt = time.Now().UTC()
	inc.ResolvedAt = nil
	s.incidents[inc.ID] = &inc

	cp := copyIncident(&inc)
	return &cp, true, nil
}

func (s *Store) GetIncident(ctx context.Context, id int64) (*model.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := copyIncident(inc)
	return &cp, nil
}

func (s *Store) ListIncidentsByTarget(ctx context.Context, targetID int64) ([]model.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := []model.Incident{}
	for _, inc := range s.incidents {
		if inc.TargetID == targetID {
			list = append(list, copyIncident(inc))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (s *Store) UpdateIncidentStatus(ctx context.Context, id int64, to model.IncidentStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	applied := ok && model.CanTransition(inc.Status, to)
	s.StatusUpdates = append(s.StatusUpdates, StatusUpdate{IncidentID: id, To: to, Applied: applied})
	if !applied {
		return false, nil
	}

	inc.Status = to
	if to == model.IncidentResolved {
		now := time.Now().UTC()
		inc.ResolvedAt = &now
	}
	return true, nil
}

func (s *Store) UpdateIncidentLogs(ctx context.Context, id int64, logs json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return pgx.ErrNoRows
	}
	inc.Logs = append(json.RawMessage(nil), logs...)
	return nil
}

func (s *Store) DeleteIncident(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.incidents[id]; !ok {
		return pgx.ErrNoRows
	}
	s.deleteIncidentLocked(id)
	return nil
}

func (s *Store) deleteIncidentLocked(id int64) {
	delete(s.incidents, id)
	for aID, a := range s.analyses {
		if a.IncidentID == id {
			delete(s.analyses, aID)
		}
	}
	kept := s.embeddings[:0]
	for _, e := range s.embeddings {
		if e.incidentID != id {
			kept = append(kept, e)
		}
	}
	s.embeddings = kept
}

// --- analyses ---

func (s *Store) InsertAnalysis(ctx context.Context, a model.Analysis) (*model.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.InsertAnalysisErr != nil {
		return nil, s.InsertAnalysisErr
	}
	if _, ok := s.incidents[a.IncidentID]; !ok {
		return nil, pgx.ErrNoRows
	}

	a.ID = s.id()
	a.CreatedAt = time.Now().UTC()
	stored := copyAnalysis(&a)
	s.analyses[a.ID] = &stored

	cp := copyAnalysis(&stored)
	return &cp, nil
}

func (s *Store) ListAnalysesByIncident(ctx context.Context, incidentID int64) ([]model.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.analysesFor(incidentID)
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (s *Store) LatestAnalysisWithPR(ctx context.Context, incidentID int64) (*model.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *model.Analysis
	for _, a := range s.analyses {
		if a.IncidentID == incidentID && a.PRURL != nil && (latest == nil || a.ID > latest.ID) {
			latest = a
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := copyAnalysis(latest)
	return &cp, nil
}

func (s *Store) analysesFor(incidentID int64) []model.Analysis {
	list := []model.Analysis{}
	for _, a := range s.analyses {
		if a.IncidentID == incidentID {
			list = append(list, copyAnalysis(a))
		}
	}
	return list
}

// --- embeddings ---

func (s *Store) InsertAnalysisEmbedding(ctx context.Context, analysisID, incidentID, targetID int64, summary, model string, vector []float32) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.embeddings = append(s.embeddings, embedding{
		analysisID: analysisID,
		incidentID: incidentID,
		targetID:   targetID,
		summary:    summary,
		vector:     append([]float32(nil), vector...),
	})
	return int64(len(s.embeddings)), nil
}

// FindSimilarFindings - 저장 순서의 역순 (거리 계산 없음)
func (s *Store) FindSimilarFindings(ctx context.Context, targetID, excludeIncidentID int64, vector []float32, limit int) ([]model.SimilarFinding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.SimilarFinding
	for i := len(s.embeddings) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.embeddings[i]
		if e.targetID != targetID || e.incidentID == excludeIncidentID {
			continue
		}
		msg := ""
		if inc, ok := s.incidents[e.incidentID]; ok {
			msg = inc.ErrorMessage
		}
		out = append(out, model.SimilarFinding{IncidentID: e.incidentID, ErrorMessage: msg, RootCause: e.summary})
	}
	return out, nil
}

func copyIncident(in *model.Incident) model.Incident {
	cp := *in
	if in.Logs != nil {
		cp.Logs = append(json.RawMessage(nil), in.Logs...)
	}
	return cp
}

func copyAnalysis(in *model.Analysis) model.Analysis {
	cp := *in
	cp.FilesAnalyzed = append([]string(nil), in.FilesAnalyzed...)
	cp.CommitsAnalyzed = append([]string(nil), in.CommitsAnalyzed...)
	if in.FilesAnalyzed == nil {
		cp.FilesAnalyzed = nil
	}
	if in.CommitsAnalyzed == nil {
		cp.CommitsAnalyzed = nil
	}
	return cp
}
