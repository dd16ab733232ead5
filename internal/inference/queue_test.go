package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
)

// scriptedExecutor returns canned outcomes and records calls.
type scriptedExecutor struct {
	mu      sync.Mutex
	err     error
	data    json.RawMessage
	calls   int
	block   chan struct{} // when set, Execute waits for it to close
	started chan struct{} // closed once Execute has been entered
}

func (e *scriptedExecutor) Execute(ctx context.Context, queryType QueryType, payload json.RawMessage) (json.RawMessage, error) {
	e.mu.Lock()
	e.calls++
	block := e.block
	started := e.started
	data, err := e.data, e.err
	e.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	return data, err
}

func (e *scriptedExecutor) set(data json.RawMessage, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data = data
	e.err = err
}

func TestBackoffDelaySchedule(t *testing.T) {
	want := []time.Duration{
		30 * time.Second,
		60 * time.Second,
		2 * time.Minute,
		5 * time.Minute,
		5 * time.Minute,
		5 * time.Minute,
	}
	for attempt, wantDelay := range want {
		if got := BackoffDelay(attempt); got != wantDelay {
			t.Errorf("BackoffDelay(%d) = %v, want %v", attempt, got, wantDelay)
		}
	}
}

func TestQueueBoundDropOldest(t *testing.T) {
	exec := &scriptedExecutor{}
	exec.set(nil, domain.ErrTransient)

	session := NewSession(uuid.New(), exec)
	defer session.Close()

	for i := 0; i < MaxQueueSize+10; i++ {
		_, err := session.Query(context.Background(), QueryFTP, map[string]int{"n": i})
		if !errors.Is(err, domain.ErrUnavailable) {
			t.Fatalf("Query() error = %v, want ErrUnavailable", err)
		}
		if got := session.QueueLen(); got > MaxQueueSize {
			t.Fatalf("queue length %d exceeds bound %d", got, MaxQueueSize)
		}
	}

	if got := session.QueueLen(); got != MaxQueueSize {
		t.Fatalf("queue length = %d, want %d", got, MaxQueueSize)
	}

	// The first ten enqueued requests must have been evicted.
	pending := session.Pending()
	if pending[0].ID != 11 {
		t.Errorf("oldest pending ID = %d, want 11", pending[0].ID)
	}
	for _, req := range pending {
		if req.AttemptCount != 0 {
			t.Errorf("fresh request has attempt_count %d", req.AttemptCount)
		}
		if req.NextRetryAt.Before(req.EnqueuedAt.Add(BackoffDelay(0))) {
			t.Errorf("request %d scheduled before the first backoff delay", req.ID)
		}
	}
}

func TestLiveResponseOverwritesCache(t *testing.T) {
	exec := &scriptedExecutor{}
	session := NewSession(uuid.New(), exec)
	defer session.Close()

	exec.set(json.RawMessage(`{"ftp":250}`), nil)
	result, err := session.Query(context.Background(), QueryFTP, map[string]string{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.Source != SourceLive {
		t.Fatalf("Source = %s, want live", result.Source)
	}

	// Degraded mode serves the cached answer, tagged as such.
	exec.set(nil, domain.ErrTransient)
	result, err = session.Query(context.Background(), QueryFTP, map[string]string{})
	if err != nil {
		t.Fatalf("Query() in degraded mode error = %v", err)
	}
	if result.Source != SourceCached {
		t.Fatalf("degraded Source = %s, want cached", result.Source)
	}
	if string(result.Payload) != `{"ftp":250}` {
		t.Fatalf("cached payload = %s", result.Payload)
	}

	// A fresh live response always supersedes the existing entry.
	exec.set(json.RawMessage(`{"ftp":255}`), nil)
	result, err = session.Query(context.Background(), QueryFTP, map[string]string{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.Source != SourceLive || string(result.Payload) != `{"ftp":255}` {
		t.Fatalf("live result = %s %s", result.Source, result.Payload)
	}

	cached, err := session.Get(QueryFTP)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(cached.Payload) != `{"ftp":255}` {
		t.Fatalf("cache payload = %s, want the latest live answer", cached.Payload)
	}
	if cached.Source != SourceCached {
		t.Fatalf("Get() Source = %s, want cached", cached.Source)
	}
}

func TestNoCacheReturnsUnavailable(t *testing.T) {
	exec := &scriptedExecutor{}
	exec.set(nil, domain.ErrTransient)
	session := NewSession(uuid.New(), exec)
	defer session.Close()

	if _, err := session.Get(QueryForecast); !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("Get() error = %v, want ErrUnavailable", err)
	}
	if _, err := session.Query(context.Background(), QueryForecast, struct{}{}); !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("Query() error = %v, want ErrUnavailable", err)
	}
}

func TestNonRetryableNotQueued(t *testing.T) {
	exec := &scriptedExecutor{}
	exec.set(nil, fmt.Errorf("%w: bad key", domain.ErrUnauthorized))
	session := NewSession(uuid.New(), exec)
	defer session.Close()

	_, err := session.Query(context.Background(), QueryFTP, struct{}{})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("Query() error = %v, want ErrUnauthorized", err)
	}
	if got := session.QueueLen(); got != 0 {
		t.Errorf("queue length = %d after non-retryable failure, want 0", got)
	}
}

func TestAbandonedQueryStillUpdatesCache(t *testing.T) {
	exec := &scriptedExecutor{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	exec.set(json.RawMessage(`{"severity":"moderate"}`), nil)

	session := NewSession(uuid.New(), exec)
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	queryDone := make(chan error, 1)
	go func() {
		_, err := session.Query(ctx, QueryFatigue, struct{}{})
		queryDone <- err
	}()

	<-exec.started
	cancel()
	if err := <-queryDone; !errors.Is(err, context.Canceled) {
		t.Fatalf("abandoned Query() error = %v, want context.Canceled", err)
	}

	// The in-flight call finishes and lands in the cache anyway.
	close(exec.block)
	deadline := time.Now().Add(2 * time.Second)
	for {
		if result, err := session.Get(QueryFatigue); err == nil {
			if string(result.Payload) != `{"severity":"moderate"}` {
				t.Fatalf("cached payload = %s", result.Payload)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("in-flight result never reached the cache")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestClosedSessionDropsQueue(t *testing.T) {
	exec := &scriptedExecutor{}
	exec.set(nil, domain.ErrTransient)
	session := NewSession(uuid.New(), exec)

	if _, err := session.Query(context.Background(), QueryFTP, struct{}{}); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("Query() error = %v", err)
	}
	if session.QueueLen() != 1 {
		t.Fatalf("queue length = %d, want 1", session.QueueLen())
	}

	session.Close()
	if session.QueueLen() != 0 {
		t.Errorf("queue length = %d after Close, want 0", session.QueueLen())
	}
	// Closing twice is harmless.
	session.Close()
}
