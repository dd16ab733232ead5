package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/velolab/ride-coach/internal/domain"
)

var (
	// ErrOpenAIUnavailable indicates the OpenAI service is not configured or unavailable.
	ErrOpenAIUnavailable = errors.New("OpenAI service unavailable")
	// ErrOpenAIRequest indicates an error during the OpenAI API request.
	ErrOpenAIRequest = errors.New("OpenAI request failed")
	// ErrOpenAIResponse indicates an error parsing the OpenAI response.
	ErrOpenAIResponse = errors.New("failed to parse OpenAI response")
)

const systemPrompt = `You are a non-medical cycling coach assistant.

You receive aggregated training analytics for a single athlete: an FTP prediction with confidence bounds, workout recommendations with their reasoning, and a multi-week fitness (CTL) forecast. You must base your conclusions only on the provided data.

Your goals:
- Describe where the athlete's training stands in clear, neutral language.
- Highlight patterns in fitness trend, training load balance, and readiness.
- Connect the FTP prediction and its confidence to what the ride history supports.
- Give practical suggestions grounded in the recommendation and forecast numbers.

Rules:
- Do NOT provide medical advice or diagnoses.
- Do NOT mention injuries, conditions, doctors, or treatment.
- Focus only on training structure (intensity distribution, weekly load, recovery days, pacing of the build).
- If data is limited or the confidence is low, say that explicitly.
- Be concise and concrete.

You must respond as strict JSON with exactly this shape:

{
  "summary": "2-3 sentences on where the athlete's training stands, referencing the trend and load status.",
  "observations": [
    "3-6 bullet points about patterns in fitness trend, load balance (ACWR), and FTP progression.",
    "At least one item about the forecast and any goal event gap.",
    "If relevant, one item about which energy systems have gone untrained."
  ],
  "guidance": [
    "3-5 concrete, non-medical training suggestions tailored to these numbers.",
    "Include at least one suggestion about weekly TSS if the athlete is behind a goal event.",
    "Include at least one suggestion drawn from the top-ranked workout's reasoning."
  ]
}

No extra fields. No comments. No backticks.`

const userPromptTemplate = `Here is JSON describing this athlete's current training analytics.

- "ftp_prediction" is the predicted functional threshold power with confidence bounds and the efforts it rests on.
- "recommendation" ranks workouts by suitability, with per-term score breakdowns, the load status, and the acute:chronic ratio.
- "forecast" projects weekly fitness (CTL) forward, flags plateau and detraining risk, and scores readiness for a goal event if one is set.

Missing sections simply were not requested; do not speculate about them.

JSON:

%s

Based on this data, respond in the required JSON format.`

// CoachLLM is the interface for generating coaching notes using an LLM.
type CoachLLM interface {
	// GenerateNotes takes the assembled analytics context and returns
	// LLM-generated coaching notes.
	GenerateNotes(ctx context.Context, coachCtx *domain.CoachContext) (*domain.CoachNotesOutput, error)
}

// OpenAIClient implements CoachLLM using the OpenAI API.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI client for generating coaching
// notes. Returns nil if apiKey is empty.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if apiKey == "" {
		return nil
	}

	if model == "" {
		model = "gpt-4o-mini"
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &OpenAIClient{
		client: client,
		model:  model,
	}
}

// Model reports the configured model name.
func (c *OpenAIClient) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// GenerateNotes calls OpenAI to generate coaching notes.
func (c *OpenAIClient) GenerateNotes(ctx context.Context, coachCtx *domain.CoachContext) (*domain.CoachNotesOutput, error) {
	if c == nil {
		return nil, ErrOpenAIUnavailable
	}

	contextJSON, err := json.MarshalIndent(coachCtx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to serialize context: %v", ErrOpenAIRequest, err)
	}

	userPrompt := fmt.Sprintf(userPromptTemplate, string(contextJSON))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenAIRequest, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrOpenAIResponse)
	}

	content := resp.Choices[0].Message.Content

	var output domain.CoachNotesOutput
	if err := json.Unmarshal([]byte(content), &output); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenAIResponse, err)
	}

	return &output, nil
}
