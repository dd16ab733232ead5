package domain

import "errors"

var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInsufficientData = errors.New("not enough qualifying history")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrRateLimited      = errors.New("rate limited")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrTransient        = errors.New("transient failure")
	ErrUnavailable      = errors.New("no live or cached answer available")
)
