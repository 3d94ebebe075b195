package services

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrGameNotFound    = errors.New("game file not found")
	ErrScoreNotFound   = errors.New("score not found")

	// ErrInvalidInput wraps a validation message so handlers can map it to a
	// client error.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGenerationIncomplete is returned when the extraction pipeline
	// exhausts every strategy without producing a complete HTML document.
	ErrGenerationIncomplete = errors.New("generation incomplete")
)
