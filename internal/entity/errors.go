package entity

import "errors"

// Domain errors
var (
	// Workflow errors
	ErrValidationRejected  = errors.New("job description rejected")
	ErrGenerationEmpty     = errors.New("no questions generated")
	ErrStreamUnavailable   = errors.New("answer stream unavailable")
	ErrGenerationExhausted = errors.New("all answer generation strategies failed")
	ErrEvaluationFailed    = errors.New("answer evaluation failed")
	ErrLogFetchFailed      = errors.New("log fetch failed")

	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrWrongStep        = errors.New("operation not allowed in current step")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)
