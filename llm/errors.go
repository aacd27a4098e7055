package llm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCategory defines standardized error categories recorded against
// failed generation requests.
type ErrorCategory string

const (
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategoryRateLimit  ErrorCategory = "rate_limit"
	ErrorCategoryTimeout    ErrorCategory = "timeout"
	ErrorCategoryNetwork    ErrorCategory = "network"
	ErrorCategoryModel      ErrorCategory = "model"
	ErrorCategorySystem     ErrorCategory = "system"
)

// ErrUnavailable marks connection-level failures of the generation
// capability. Callers distinguish it from generic failures via
// errors.Is; they decide retry policy.
var ErrUnavailable = errors.New("generation capability unavailable")

// GenerationError wraps errors from the generation boundary with a
// category and request id for the audit trail.
type GenerationError struct {
	Category  ErrorCategory
	RequestID string
	Timestamp time.Time
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("[%s] %s (request: %s)", e.Category, e.Err.Error(), e.RequestID)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is reports network-category errors as ErrUnavailable so callers can
// branch on connection failure without inspecting categories.
func (e *GenerationError) Is(target error) bool {
	return target == ErrUnavailable && e.Category == ErrorCategoryNetwork
}

func newGenerationError(category ErrorCategory, err error, requestID string) *GenerationError {
	return &GenerationError{
		Category:  category,
		RequestID: requestID,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// categorizeError maps an opaque transport error onto a category based
// on its message.
func categorizeError(err error) ErrorCategory {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return ErrorCategoryTimeout
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "broken pipe") || strings.Contains(errStr, "refused") ||
		strings.Contains(errStr, "unavailable"):
		return ErrorCategoryNetwork
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "too many requests"):
		return ErrorCategoryRateLimit
	case strings.Contains(errStr, "invalid") || strings.Contains(errStr, "validation"):
		return ErrorCategoryValidation
	}
	return ErrorCategorySystem
}
