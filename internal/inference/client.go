package inference

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/velolab/ride-coach/internal/domain"
)

// endpoint describes one analyzer route with its timeout budget.
// Exceeding the budget is a transient failure, not its own error class.
type endpoint struct {
	path    string
	timeout time.Duration
}

var endpoints = map[QueryType]endpoint{
	QueryFTP:             {path: "/predictions/ftp", timeout: 5 * time.Second},
	QueryFatigue:         {path: "/predictions/fatigue", timeout: 2 * time.Second},
	QueryRecommendations: {path: "/recommendations/workouts", timeout: 3 * time.Second},
	QueryForecast:        {path: "/forecasts/ctl", timeout: 5 * time.Second},
	QueryCadence:         {path: "/analysis/cadence", timeout: 5 * time.Second},
}

// Config holds gateway configuration. The API key is provisioned by
// the account module; the gateway only attaches it.
type Config struct {
	BaseURL string
	APIKey  string
	Plan    domain.Plan
}

// Gateway executes analyzer queries as idempotent remote requests and
// classifies failures into the retry taxonomy.
type Gateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rateLimiter
}

// NewGateway creates a gateway for the given plan's rate limits.
func NewGateway(cfg Config) *Gateway {
	return &Gateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			// Per-request deadlines come from the endpoint budgets.
			Timeout: 0,
		},
		limiter: newRateLimiter(cfg.Plan),
	}
}

// Execute posts one query and returns the envelope's data payload.
// Requests are keyed by (query_type, payload hash) so the remote side
// can deduplicate retries.
func (g *Gateway) Execute(ctx context.Context, queryType QueryType, payload json.RawMessage) (json.RawMessage, error) {
	ep, ok := endpoints[queryType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown query type %q", domain.ErrInvalidInput, queryType)
	}

	if !g.limiter.allow(time.Now()) {
		// Pre-emptive local backoff; treated exactly like a remote 429.
		return nil, domain.ErrRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, ep.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+ep.path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Idempotency-Key", IdempotencyKey(queryType, payload))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// Timeouts and network failures share the transient class.
		return nil, fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransient, err)
	}

	var env domain.Envelope
	if unmarshalErr := json.Unmarshal(body, &env); unmarshalErr != nil && resp.StatusCode < 400 {
		return nil, fmt.Errorf("%w: malformed envelope: %v", domain.ErrTransient, unmarshalErr)
	}

	if resp.StatusCode >= 400 || !env.Success {
		return nil, classify(resp.StatusCode, env.Error)
	}
	return env.Data, nil
}

// Health checks the remote service.
func (g *Gateway) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", domain.ErrTransient, resp.StatusCode)
	}
	return nil
}

// IdempotencyKey hashes the query type and canonical payload.
func IdempotencyKey(queryType QueryType, payload json.RawMessage) string {
	h := sha256.New()
	h.Write([]byte(queryType))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// classify maps wire status and error codes onto the error taxonomy.
func classify(status int, apiErr *domain.APIError) error {
	code := ""
	message := ""
	if apiErr != nil {
		code = apiErr.Code
		message = apiErr.Message
	}

	wrap := func(sentinel error) error {
		if message == "" {
			return sentinel
		}
		return fmt.Errorf("%w: %s", sentinel, message)
	}

	switch {
	case status == http.StatusUnauthorized || code == domain.CodeUnauthorized:
		return wrap(domain.ErrUnauthorized)
	case status == http.StatusTooManyRequests || code == domain.CodeRateLimited:
		return wrap(domain.ErrRateLimited)
	case status == http.StatusUnprocessableEntity || code == domain.CodeInsufficientData:
		return wrap(domain.ErrInsufficientData)
	case status == http.StatusServiceUnavailable || code == domain.CodeModelUnavailable:
		return wrap(domain.ErrModelUnavailable)
	case status >= 500:
		return wrap(domain.ErrTransient)
	default:
		return wrap(domain.ErrInvalidInput)
	}
}

// Retryable reports whether a classified failure may be retried:
// transient failures, rate limits and model unavailability are;
// validation, auth and insufficient-data failures are not.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, domain.ErrTransient),
		errors.Is(err, domain.ErrRateLimited),
		errors.Is(err, domain.ErrModelUnavailable):
		return true
	default:
		return false
	}
}
