// Package inference is the client side of the remote prediction API:
// an idempotent gateway with per-endpoint timeout budgets, and a
// per-athlete session that keeps answering from its last-known-good
// cache while the service is unreachable.
package inference

import (
	"encoding/json"
	"time"
)

// QueryType identifies one analyzer endpoint.
type QueryType string

const (
	QueryFTP             QueryType = "ftp"
	QueryFatigue         QueryType = "fatigue"
	QueryRecommendations QueryType = "recommendations"
	QueryForecast        QueryType = "forecast"
	QueryCadence         QueryType = "cadence"
)

// Source tags whether an answer is fresh or served from cache. Callers
// must be able to render staleness; the engine never serves stale data
// as fresh.
type Source string

const (
	SourceLive   Source = "live"
	SourceCached Source = "cached"
)

// Result is the tagged answer returned to callers in both normal and
// degraded mode.
type Result struct {
	QueryType  QueryType       `json:"query_type"`
	Source     Source          `json:"source"`
	Payload    json.RawMessage `json:"payload"`
	ComputedAt time.Time       `json:"computed_at"`
}

// CachedPrediction is the last-known-good answer for one query type.
// Overwritten on each successful live response, never by a fallback.
type CachedPrediction struct {
	QueryType  QueryType       `json:"query_type"`
	Payload    json.RawMessage `json:"payload"`
	ComputedAt time.Time       `json:"computed_at"`
	Source     Source          `json:"source"`
}

// QueuedRequest is one pending retry in the offline queue.
type QueuedRequest struct {
	ID           uint64          `json:"id"`
	QueryType    QueryType       `json:"query_type"`
	Payload      json.RawMessage `json:"payload"`
	EnqueuedAt   time.Time       `json:"enqueued_at"`
	AttemptCount int             `json:"attempt_count"`
	NextRetryAt  time.Time       `json:"next_retry_at"`
}
