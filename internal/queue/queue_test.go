package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	order map[int64][]int64
}

func newRecorder() *recorder {
	return &recorder{order: make(map[int64][]int64)}
}

func (r *recorder) add(item Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order[item.TargetID] = append(r.order[item.TargetID], item.IncidentID)
}

func (r *recorder) get(targetID int64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.order[targetID]...)
}

func TestQueueFIFOPerTarget(t *testing.T) {
	rec := newRecorder()
	q := New(func(ctx context.Context, item Item) {
		time.Sleep(time.Millisecond)
		rec.add(item)
	}, nil)

	for i := int64(1); i <= 20; i++ {
		q.Enqueue(Item{TargetID: 1, IncidentID: i})
	}
	q.Wait()

	expected := make([]int64, 0, 20)
	for i := int64(1); i <= 20; i++ {
		expected = append(expected, i)
	}
	assert.Equal(t, expected, rec.get(1))
	assert.Equal(t, 0, q.Pending())
	assert.Equal(t, 0, q.ActiveTargets())
}

func TestQueueSingleWorkerPerTarget(t *testing.T) {
	var active, maxActive int32
	q := New(func(ctx context.Context, item Item) {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&active, -1)
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for j := int64(0); j < 5; j++ {
				q.Enqueue(Item{TargetID: 7, IncidentID: base*10 + j})
			}
		}(int64(i))
	}
	wg.Wait()
	q.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

func TestQueueTargetsAreIndependent(t *testing.T) {
	release := make(chan struct{})
	done := make(chan int64, 2)

	q := New(func(ctx context.Context, item Item) {
		if item.TargetID == 1 {
			<-release
		}
		done <- item.TargetID
	}, nil)

	q.Enqueue(Item{TargetID: 1, IncidentID: 1})
	q.Enqueue(Item{TargetID: 2, IncidentID: 2})

	select {
	case id := <-done:
		assert.Equal(t, int64(2), id)
	case <-time.After(2 * time.Second):
		t.Fatal("target 2 was blocked by target 1")
	}

	close(release)
	q.Wait()
	assert.Equal(t, int64(1), <-done)
}

func TestQueueRecoversPanic(t *testing.T) {
	rec := newRecorder()
	q := New(func(ctx context.Context, item Item) {
		if item.IncidentID == 1 {
			panic("boom")
		}
		rec.add(item)
	}, nil)

	q.Enqueue(Item{TargetID: 3, IncidentID: 1})
	q.Enqueue(Item{TargetID: 3, IncidentID: 2})
	q.Wait()

	assert.Equal(t, []int64{2}, rec.get(3))
}

func TestQueueContains(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	q := New(func(ctx context.Context, item Item) {
		if item.IncidentID == 10 {
			close(started)
			<-release
		}
	}, nil)

	q.Enqueue(Item{TargetID: 5, IncidentID: 10})
	q.Enqueue(Item{TargetID: 5, IncidentID: 11})
	<-started

	assert.True(t, q.Contains(5, 10), "in-flight item")
	assert.True(t, q.Contains(5, 11), "queued item")
	assert.False(t, q.Contains(5, 12))
	assert.False(t, q.Contains(6, 10))
	assert.Equal(t, 1, q.Pending())

	close(release)
	q.Wait()
	assert.False(t, q.Contains(5, 10))
	assert.False(t, q.Contains(5, 11))
}

func TestQueueSkipsDuplicateIncident(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var processed int32
	q := New(func(ctx context.Context, item Item) {
		atomic.AddInt32(&processed, 1)
		if item.IncidentID == 1 {
			close(started)
			<-release
		}
	}, nil)

	require.True(t, q.Enqueue(Item{TargetID: 8, IncidentID: 1}))
	<-started
	assert.False(t, q.Enqueue(Item{TargetID: 8, IncidentID: 1}), "in-flight")
	assert.True(t, q.Enqueue(Item{TargetID: 8, IncidentID: 2}))
	assert.False(t, q.Enqueue(Item{TargetID: 8, IncidentID: 2}), "queued")

	close(release)
	q.Wait()
	assert.Equal(t, int32(2), atomic.LoadInt32(&processed))
	assert.True(t, q.Enqueue(Item{TargetID: 8, IncidentID: 1}), "finished items can be queued again")
	q.Wait()
}

func TestQueueRestartsAfterIdle(t *testing.T) {
	rec := newRecorder()
	q := New(func(ctx context.Context, item Item) {
		rec.add(item)
	}, nil)

	q.Enqueue(Item{TargetID: 9, IncidentID: 1})
	q.Wait()
	require.Equal(t, 0, q.ActiveTargets())

	q.Enqueue(Item{TargetID: 9, IncidentID: 2})
	q.Wait()

	assert.Equal(t, []int64{1, 2}, rec.get(9))
}

func TestQueueShutdownDropsPending(t *testing.T) {
	started := make(chan struct{})
	var processed int32
	q := New(func(ctx context.Context, item Item) {
		atomic.AddInt32(&processed, 1)
		if item.IncidentID == 1 {
			close(started)
			<-ctx.Done()
		}
	}, nil)

	q.Enqueue(Item{TargetID: 4, IncidentID: 1})
	q.Enqueue(Item{TargetID: 4, IncidentID: 2})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Shutdown(ctx))

	assert.Equal(t, int32(1), atomic.LoadInt32(&processed))
	assert.Equal(t, 0, q.Pending())
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	var processed int32
	q := New(func(ctx context.Context, item Item) {
		atomic.AddInt32(&processed, 1)
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Shutdown(ctx))

	assert.False(t, q.Enqueue(Item{TargetID: 1, IncidentID: 1}))
	assert.False(t, q.Requeue(Item{TargetID: 1, IncidentID: 2}))
	q.Wait()

	assert.Equal(t, int32(0), atomic.LoadInt32(&processed))
	assert.Equal(t, 0, q.Pending())
	assert.Equal(t, 0, q.ActiveTargets())
}

func TestQueueRequeueRunsAfterCurrent(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	rec := newRecorder()
	var runs int32
	q := New(func(ctx context.Context, item Item) {
		if item.IncidentID == 1 && atomic.AddInt32(&runs, 1) == 1 {
			close(started)
			<-release
		}
		rec.add(item)
	}, nil)

	require.True(t, q.Enqueue(Item{TargetID: 3, IncidentID: 1}))
	<-started
	require.True(t, q.Enqueue(Item{TargetID: 3, IncidentID: 2}))

	assert.False(t, q.Enqueue(Item{TargetID: 3, IncidentID: 1}), "in-flight")
	assert.True(t, q.Requeue(Item{TargetID: 3, IncidentID: 1, Redelivery: true}), "scheduled after current run")
	assert.False(t, q.Requeue(Item{TargetID: 3, IncidentID: 1}), "already scheduled")
	assert.False(t, q.Requeue(Item{TargetID: 3, IncidentID: 2}), "already queued")
	assert.True(t, q.Contains(3, 1))
	assert.Equal(t, 2, q.Pending())

	close(release)
	q.Wait()

	assert.Equal(t, []int64{1, 2, 1}, rec.get(3))
	assert.Equal(t, 0, q.Pending())
}

func TestQueueShutdownDropsFollowUp(t *testing.T) {
	started := make(chan struct{})
	var processed int32
	q := New(func(ctx context.Context, item Item) {
		atomic.AddInt32(&processed, 1)
		close(started)
		<-ctx.Done()
	}, nil)

	q.Enqueue(Item{TargetID: 4, IncidentID: 1})
	<-started
	require.True(t, q.Requeue(Item{TargetID: 4, IncidentID: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Shutdown(ctx))

	assert.Equal(t, int32(1), atomic.LoadInt32(&processed))
	assert.Equal(t, 0, q.Pending())
}
