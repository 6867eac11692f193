// Target 단위 순차 처리 큐 (단일 프로세스, in-memory)
//
// 동작:
//   - Enqueue: target FIFO에 추가, 실행 중인 worker가 없으면 goroutine 1개 시작
//   - Requeue: 처리 중인 incident는 현재 실행이 끝난 뒤 한 번 더 처리
//   - worker: mutex 안에서 pop, 비어 있으면 같은 mutex 안에서 entry 삭제 후 종료
//   - 서로 다른 target은 독립적으로 병렬 처리
//
// 재시작 시 대기 중인 item은 유실됨
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sanos-dev/backend/internal/metrics"
	"github.com/sanos-dev/backend/internal/model"
	"go.uber.org/zap"
)

// Item - 자동 수정 작업 1건
type Item struct {
	IncidentID   int64
	TargetID     int64
	Credential   string // 저장소 소유자의 GitHub 위임 토큰
	RepoOwner    string
	RepoName     string
	Type         model.IncidentType
	Source       string
	ErrorMessage string
	StackTrace   *string
	Logs         json.RawMessage
	// 웹훅 재전송으로 다시 들어온 item (open 상태일 때만 처리)
	Redelivery bool
}

// ProcessFunc - item 처리 함수 (에러는 내부에서 처리)
type ProcessFunc func(ctx context.Context, item Item)

type targetQueue struct {
	items   []Item
	current *Item
	// 처리 중인 incident의 재처리 예약 (현재 실행이 끝나면 items 끝으로 이동)
	followUp *Item
}

type Queue struct {
	mu      sync.Mutex
	targets map[int64]*targetQueue
	pending int

	process ProcessFunc
	logger  *zap.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(process ProcessFunc, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		targets: make(map[int64]*targetQueue),
		process: process,
		logger:  logger,
		metrics: metrics.New(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Enqueue - 처리를 기다리지 않고 바로 반환
// 같은 incident가 이미 대기 / 처리 중이거나 큐가 종료됐으면 추가하지 않고 false
func (q *Queue) Enqueue(item Item) bool {
	return q.add(item, false)
}

// Requeue - 처리 중인 incident도 받아서 현재 실행이 끝난 뒤 대기열 끝에 추가
// 이미 대기 중이거나 재처리가 예약돼 있으면 false
func (q *Queue) Requeue(item Item) bool {
	return q.add(item, true)
}

func (q *Queue) add(item Item, afterCurrent bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	log := q.logger.With(
		zap.Int64("incident_id", item.IncidentID),
		zap.Int64("target_id", item.TargetID),
	)

	if q.ctx.Err() != nil {
		log.Warn("Queue is shut down, item rejected")
		return false
	}

	tq, running := q.targets[item.TargetID]
	if running {
		inFlight := tq.current != nil && tq.current.IncidentID == item.IncidentID
		switch {
		case tq.queued(item.IncidentID):
			log.Debug("Incident already queued")
			return false
		case inFlight && (!afterCurrent || tq.followUp != nil):
			log.Debug("Incident is being processed")
			return false
		case inFlight:
			tq.followUp = &item
			q.pending++
			q.metrics.QueuePending.Inc()
			log.Info("Incident scheduled after current run")
			return true
		}
	}

	if !running {
		tq = &targetQueue{}
		q.targets[item.TargetID] = tq
	}
	tq.items = append(tq.items, item)
	q.pending++
	q.metrics.QueuePending.Inc()

	log.Info("Incident enqueued", zap.Int("queue_len", len(tq.items)))

	if !running {
		q.wg.Add(1)
		q.metrics.ActiveWorkers.Inc()
		go q.drain(item.TargetID, tq)
	}
	return true
}

// Contains - 대기 중이거나 처리 중인 incident인지 확인
func (q *Queue) Contains(targetID, incidentID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	tq, ok := q.targets[targetID]
	return ok && ((tq.current != nil && tq.current.IncidentID == incidentID) || tq.queued(incidentID))
}

// queued - 대기열 또는 재처리 예약에 있는지 (처리 중인 item 제외)
func (tq *targetQueue) queued(incidentID int64) bool {
	if tq.followUp != nil && tq.followUp.IncidentID == incidentID {
		return true
	}
	for _, it := range tq.items {
		if it.IncidentID == incidentID {
			return true
		}
	}
	return false
}

// Pending - 전체 대기 item 수 (처리 중인 item 제외)
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// ActiveTargets - worker가 실행 중인 target 수
func (q *Queue) ActiveTargets() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.targets)
}

// Wait - 모든 worker 종료까지 대기
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Shutdown - worker context 취소 후 ctx 만료 전까지 종료 대기
// 실행 중인 item은 취소된 context로 마무리되고 남은 item은 버려짐
func (q *Queue) Shutdown(ctx context.Context) error {
	q.cancel()

	q.mu.Lock()
	for _, tq := range q.targets {
		dropped := len(tq.items)
		if tq.followUp != nil {
			dropped++
		}
		q.pending -= dropped
		q.metrics.QueuePending.Sub(float64(dropped))
		tq.items = nil
		tq.followUp = nil
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) drain(targetID int64, tq *targetQueue) {
	defer q.wg.Done()
	defer q.metrics.ActiveWorkers.Dec()

	for {
		item, ok := q.next(targetID, tq)
		if !ok {
			return
		}
		q.run(item)
	}
}

// next - pop 또는 (비어 있으면) entry 삭제를 mutex 하나로 처리
func (q *Queue) next(targetID int64, tq *targetQueue) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if tq.followUp != nil {
		tq.items = append(tq.items, *tq.followUp)
		tq.followUp = nil
	}
	tq.current = nil
	if len(tq.items) == 0 {
		delete(q.targets, targetID)
		return Item{}, false
	}

	item := tq.items[0]
	tq.items[0] = Item{}
	tq.items = tq.items[1:]
	tq.current = &item
	q.pending--
	q.metrics.QueuePending.Dec()
	return item, true
}

func (q *Queue) run(item Item) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Queue item panicked",
				zap.Int64("incident_id", item.IncidentID),
				zap.Int64("target_id", item.TargetID),
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	if q.ctx.Err() != nil {
		return
	}
	q.process(q.ctx, item)
}
