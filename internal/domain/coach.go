package domain

import "time"

// CoachContext aggregates the analytics judgments handed to the
// language model. Only what is present is serialized; the model is told
// to reason from this data alone.
type CoachContext struct {
	Athlete        *Athlete              `json:"athlete,omitempty"`
	FTP            *FTPPrediction        `json:"ftp_prediction,omitempty"`
	Recommendation *RecommendationResult `json:"recommendation,omitempty"`
	Forecast       *CTLForecast          `json:"forecast,omitempty"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// CoachNotesOutput is the structured answer expected from the LLM.
type CoachNotesOutput struct {
	// 2-3 sentences on where the athlete's training stands
	Summary string `json:"summary"`
	// Patterns in fitness, load, and readiness
	Observations []string `json:"observations"`
	// Concrete training suggestions tied to the numbers
	Guidance []string `json:"guidance"`
}

// CoachNotesResponse wraps the notes with generation metadata.
// @Description LLM-generated coaching notes over the current analytics.
type CoachNotesResponse struct {
	Notes       CoachNotesOutput `json:"notes"`
	Model       string           `json:"model"`
	GeneratedAt time.Time        `json:"generated_at"`
}
