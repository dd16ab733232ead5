package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/velolab/ride-coach/internal/domain"
)

// writeEnvelope wraps a payload in the standard success envelope.
func writeEnvelope(w http.ResponseWriter, status int, payload any) {
	env, err := domain.NewEnvelope(payload)
	if err != nil {
		writeEnvelopeError(w, domain.ErrTransient, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

// writeEnvelopeError maps a service error onto the wire error taxonomy.
func writeEnvelopeError(w http.ResponseWriter, err error, detail string) {
	status := http.StatusInternalServerError
	code := domain.CodeServerError

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = http.StatusBadRequest, domain.CodeInvalidRequest
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, domain.CodeInvalidRequest
	case errors.Is(err, domain.ErrInsufficientData):
		status, code = http.StatusUnprocessableEntity, domain.CodeInsufficientData
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, domain.CodeUnauthorized
	case errors.Is(err, domain.ErrRateLimited):
		status, code = http.StatusTooManyRequests, domain.CodeRateLimited
	case errors.Is(err, domain.ErrModelUnavailable), errors.Is(err, domain.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, domain.CodeModelUnavailable
	}

	if detail == "" {
		detail = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.NewErrorEnvelope(code, detail))
}

// validationEnvelope reports field-level validation failures in the
// envelope format used by the analysis endpoints.
func validationEnvelope(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(domain.NewErrorEnvelope(domain.CodeInvalidRequest, message))
}
