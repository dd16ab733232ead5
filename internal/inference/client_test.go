package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/velolab/ride-coach/internal/domain"
)

func newTestGateway(url string, plan domain.Plan) *Gateway {
	return NewGateway(Config{BaseURL: url, APIKey: "test-key", Plan: plan})
}

func TestExecuteSuccess(t *testing.T) {
	var gotAuth, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("Idempotency-Key")
		env, _ := domain.NewEnvelope(map[string]float64{"predicted_ftp_watts": 255})
		json.NewEncoder(w).Encode(env)
	}))
	defer server.Close()

	gw := newTestGateway(server.URL, domain.PlanPro)
	payload := json.RawMessage(`{"lookback_days":90}`)
	data, err := gw.Execute(context.Background(), QueryFTP, payload)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotKey != IdempotencyKey(QueryFTP, payload) {
		t.Errorf("Idempotency-Key = %q, want deterministic hash", gotKey)
	}

	var out map[string]float64
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if out["predicted_ftp_watts"] != 255 {
		t.Errorf("data = %v", out)
	}
}

func TestIdempotencyKeyStable(t *testing.T) {
	payload := json.RawMessage(`{"a":1}`)
	if IdempotencyKey(QueryFTP, payload) != IdempotencyKey(QueryFTP, payload) {
		t.Error("same inputs produced different keys")
	}
	if IdempotencyKey(QueryFTP, payload) == IdempotencyKey(QueryFatigue, payload) {
		t.Error("different query types produced the same key")
	}
}

func TestExecuteErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		code      string
		want      error
		retryable bool
	}{
		{"server error", http.StatusInternalServerError, domain.CodeServerError, domain.ErrTransient, true},
		{"rate limited", http.StatusTooManyRequests, domain.CodeRateLimited, domain.ErrRateLimited, true},
		{"model unavailable", http.StatusServiceUnavailable, domain.CodeModelUnavailable, domain.ErrModelUnavailable, true},
		{"unauthorized", http.StatusUnauthorized, domain.CodeUnauthorized, domain.ErrUnauthorized, false},
		{"insufficient data", http.StatusUnprocessableEntity, domain.CodeInsufficientData, domain.ErrInsufficientData, false},
		{"invalid request", http.StatusBadRequest, domain.CodeInvalidRequest, domain.ErrInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(domain.NewErrorEnvelope(tt.code, tt.name))
			}))
			defer server.Close()

			gw := newTestGateway(server.URL, domain.PlanPro)
			_, err := gw.Execute(context.Background(), QueryFTP, json.RawMessage(`{}`))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.want)
			}
			if Retryable(err) != tt.retryable {
				t.Errorf("Retryable(%v) = %v, want %v", err, Retryable(err), tt.retryable)
			}
		})
	}
}

func TestExecuteNetworkFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	gw := newTestGateway(server.URL, domain.PlanPro)
	_, err := gw.Execute(context.Background(), QueryFTP, json.RawMessage(`{}`))
	if !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("Execute() error = %v, want ErrTransient", err)
	}
	if !Retryable(err) {
		t.Error("network failure should be retryable")
	}
}

func TestPreemptiveRateLimit(t *testing.T) {
	var serverCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverCalls++
		env, _ := domain.NewEnvelope(map[string]bool{"ok": true})
		json.NewEncoder(w).Encode(env)
	}))
	defer server.Close()

	// Free plan: burst of 10 per minute.
	gw := newTestGateway(server.URL, domain.PlanFree)
	for i := 0; i < 10; i++ {
		if _, err := gw.Execute(context.Background(), QueryFTP, json.RawMessage(`{}`)); err != nil {
			t.Fatalf("call %d error = %v", i, err)
		}
	}

	_, err := gw.Execute(context.Background(), QueryFTP, json.RawMessage(`{}`))
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("11th call error = %v, want ErrRateLimited", err)
	}
	if serverCalls != 10 {
		t.Errorf("server saw %d calls, want 10 (the 11th must be blocked locally)", serverCalls)
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	limiter := newRateLimiter(domain.PlanFree)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		if !limiter.allow(base) {
			t.Fatalf("call %d unexpectedly blocked", i)
		}
	}
	if limiter.allow(base) {
		t.Fatal("burst limit not enforced")
	}
	if !limiter.allow(base.Add(time.Minute)) {
		t.Fatal("minute window did not reset")
	}
}
