package domain

import (
	"encoding/json"
	"time"
)

// Wire error codes surfaced by the inference API.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeRateLimited      = "RATE_LIMITED"
	CodeServerError      = "SERVER_ERROR"
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
)

// APIError is the error half of the wire envelope.
type APIError struct {
	Code    string `json:"code" example:"INSUFFICIENT_DATA"`
	Message string `json:"message" example:"fewer than 5 qualifying rides"`
}

// Envelope wraps every inference API response.
// @Description Standard response wrapper: {success, data, error, timestamp}.
type Envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     *APIError       `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEnvelope wraps a payload in a success envelope.
func NewEnvelope(payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{Success: true, Data: data, Timestamp: time.Now().UTC()}, nil
}

// NewErrorEnvelope wraps an error code and message.
func NewErrorEnvelope(code, message string) *Envelope {
	return &Envelope{
		Success:   false,
		Error:     &APIError{Code: code, Message: message},
		Timestamp: time.Now().UTC(),
	}
}
