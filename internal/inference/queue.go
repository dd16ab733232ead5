package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
)

const (
	// MaxQueueSize bounds the offline retry queue. The bound is an
	// invariant under concurrent enqueues, not a best-effort check.
	MaxQueueSize = 50
)

// backoffSchedule doubles then caps: retries fire no sooner than these
// delays after the prior attempt.
var backoffSchedule = []time.Duration{
	30 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
}

// BackoffDelay returns the wait before the given attempt (0-based).
// Attempts past the schedule stay at the cap.
func BackoffDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(backoffSchedule) {
		return backoffSchedule[len(backoffSchedule)-1]
	}
	return backoffSchedule[attempt]
}

// Executor runs one remote query. *Gateway is the production
// implementation.
type Executor interface {
	Execute(ctx context.Context, queryType QueryType, payload json.RawMessage) (json.RawMessage, error)
}

// Session is the per-athlete offline queue and cache manager. All
// engine access goes through it so every answer is tagged live or
// cached; connectivity loss is a state, not an exception.
//
// Lifetime is scoped to the athlete session: Close tears it down and
// drops retries that have not completed.
type Session struct {
	athleteID uuid.UUID
	exec      Executor

	mu     sync.Mutex
	cache  map[QueryType]*CachedPrediction
	queue  []*QueuedRequest
	nextID uint64
	closed bool

	done chan struct{}
	now  func() time.Time
}

// NewSession creates a session for one athlete.
func NewSession(athleteID uuid.UUID, exec Executor) *Session {
	return &Session{
		athleteID: athleteID,
		exec:      exec,
		cache:     make(map[QueryType]*CachedPrediction),
		done:      make(chan struct{}),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Query executes a live call, falling back to the cached answer when
// the failure is retryable. The caller always learns which it got.
//
// If ctx is abandoned mid-flight the call is allowed to finish and
// update the cache, but nothing is delivered to the stale caller.
func (s *Session) Query(ctx context.Context, queryType QueryType, payload any) (*Result, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal payload: %v", domain.ErrInvalidInput, err)
	}

	type outcome struct {
		data json.RawMessage
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		data, execErr := s.exec.Execute(context.WithoutCancel(ctx), queryType, raw)
		if execErr == nil {
			s.applyLive(queryType, data)
		}
		ch <- outcome{data: data, err: execErr}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		if out.err == nil {
			return &Result{
				QueryType:  queryType,
				Source:     SourceLive,
				Payload:    out.data,
				ComputedAt: s.now(),
			}, nil
		}
		if !Retryable(out.err) {
			return nil, out.err
		}
		s.enqueue(queryType, raw)
		if cached, cacheErr := s.Get(queryType); cacheErr == nil {
			return cached, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, out.err)
	}
}

// Get returns the last known-good answer for a query type, tagged
// cached with its original computation time. Staleness is reported,
// never enforced as expiry.
func (s *Session) Get(queryType QueryType) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[queryType]
	if !ok {
		return nil, domain.ErrUnavailable
	}
	return &Result{
		QueryType:  queryType,
		Source:     SourceCached,
		Payload:    entry.Payload,
		ComputedAt: entry.ComputedAt,
	}, nil
}

// QueueLen reports the number of pending retries.
func (s *Session) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Pending snapshots the retry queue, oldest first.
func (s *Session) Pending() []QueuedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := make([]QueuedRequest, len(s.queue))
	for i, req := range s.queue {
		pending[i] = *req
	}
	return pending
}

// Close tears the session down: retry timers stop and pending entries
// are dropped. In-flight calls may still complete against the cache.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.queue = nil
	close(s.done)
}

// applyLive overwrites the cache entry for the query type. A live
// response always supersedes whatever is there, regardless of age.
func (s *Session) applyLive(queryType QueryType, data json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cache[queryType] = &CachedPrediction{
		QueryType:  queryType,
		Payload:    data,
		ComputedAt: s.now(),
		Source:     SourceLive,
	}
}

// enqueue adds a retry as a single atomic unit: append, evict the
// oldest on overflow, schedule. The size bound holds under any
// interleaving because everything happens under one lock.
func (s *Session) enqueue(queryType QueryType, payload json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.nextID++
	req := &QueuedRequest{
		ID:          s.nextID,
		QueryType:   queryType,
		Payload:     payload,
		EnqueuedAt:  s.now(),
		NextRetryAt: s.now().Add(BackoffDelay(0)),
	}
	s.queue = append(s.queue, req)
	if len(s.queue) > MaxQueueSize {
		dropped := s.queue[0]
		s.queue = s.queue[1:]
		log.Printf("[queue] athlete=%s dropped oldest request id=%d type=%s on overflow",
			s.athleteID, dropped.ID, dropped.QueryType)
	}

	go s.retryLoop(req.ID)
}

// retryLoop drives one queued request through the backoff schedule
// until it succeeds, fails permanently, is evicted, or the session
// closes. The queue itself is only touched under the session lock.
func (s *Session) retryLoop(id uint64) {
	for {
		s.mu.Lock()
		req := s.findLocked(id)
		if req == nil || s.closed {
			s.mu.Unlock()
			return
		}
		wait := time.Until(req.NextRetryAt)
		s.mu.Unlock()

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-s.done:
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		s.mu.Lock()
		req = s.findLocked(id)
		if req == nil || s.closed {
			s.mu.Unlock()
			return
		}
		queryType, payload, attempt := req.QueryType, req.Payload, req.AttemptCount
		s.mu.Unlock()

		data, err := s.exec.Execute(context.Background(), queryType, payload)
		switch {
		case err == nil:
			s.applyLive(queryType, data)
			s.remove(id)
			return
		case Retryable(err):
			s.mu.Lock()
			if req = s.findLocked(id); req != nil {
				req.AttemptCount = attempt + 1
				req.NextRetryAt = s.now().Add(BackoffDelay(req.AttemptCount))
			}
			s.mu.Unlock()
		default:
			log.Printf("[queue] athlete=%s request id=%d type=%s failed permanently: %v",
				s.athleteID, id, queryType, err)
			s.remove(id)
			return
		}
	}
}

func (s *Session) findLocked(id uint64) *QueuedRequest {
	for _, req := range s.queue {
		if req.ID == id {
			return req
		}
	}
	return nil
}

func (s *Session) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, req := range s.queue {
		if req.ID == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}
