package crdt

import (
	"errors"
	"fmt"
)

// MisuseError represents an invalid call at the API boundary.
//
// Merges over well-formed inputs are total functions and never fail; the
// only errors this package produces are caller mistakes, which are signaled
// explicitly rather than silently clamped.
type MisuseError struct {
	// Code identifies the misuse category.
	Code MisuseCode

	// Message is a human-readable description.
	Message string

	// Agent identifies the agent slot involved, when applicable.
	Agent string
}

// MisuseCode categorizes API misuse errors.
type MisuseCode string

const (
	// ErrCodeNegativeIncrement indicates a negative amount passed to a
	// grow-only counter.
	ErrCodeNegativeIncrement MisuseCode = "NEGATIVE_INCREMENT"

	// ErrCodeEmptyAgent indicates an empty agent identifier.
	ErrCodeEmptyAgent MisuseCode = "EMPTY_AGENT"
)

// Error implements the error interface.
func (e *MisuseError) Error() string {
	if e.Agent != "" {
		return fmt.Sprintf("%s: %s (agent=%s)", e.Code, e.Message, e.Agent)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsMisuse reports whether err is a MisuseError. Uses errors.As to handle
// wrapped errors.
func IsMisuse(err error) bool {
	var me *MisuseError
	return errors.As(err, &me)
}

// NewNegativeIncrementError creates a MisuseError for a negative counter
// increment.
func NewNegativeIncrementError(agent string, amount int64) *MisuseError {
	return &MisuseError{
		Code:    ErrCodeNegativeIncrement,
		Message: fmt.Sprintf("grow-only counter increment must be non-negative, got %d", amount),
		Agent:   agent,
	}
}

// NewEmptyAgentError creates a MisuseError for a missing agent identifier.
func NewEmptyAgentError() *MisuseError {
	return &MisuseError{
		Code:    ErrCodeEmptyAgent,
		Message: "agent identifier must not be empty",
	}
}
