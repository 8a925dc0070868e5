package helpers

import (
	"fmt"
	"strings"
	"time"

	"market-confluence/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ConfluenceError struct {
	Message string
	Cause   error
}

func (e *ConfluenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ConfluenceError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As at the service boundary.
type ConfigurationError struct{ ConfluenceError }
type DatabaseError struct{ ConfluenceError }
type ValidationError struct{ ConfluenceError }

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{ConfluenceError{Message: message, Cause: cause}}
}

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{ConfluenceError{Message: message, Cause: cause}}
}

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{ConfluenceError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

type ErrorHandler struct {
	Logger                 *logger.Logger
	ErrorCount             int
	MaxErrorsBeforeRestart int
	// BaseDelay doubles after every failed attempt.
	BaseDelay time.Duration
	sleep     func(time.Duration)
}

func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		Logger:                 logger.NewLogger(nil, "ErrorHandler"),
		ErrorCount:             0,
		MaxErrorsBeforeRestart: 10,
		BaseDelay:              time.Second,
		sleep:                  time.Sleep,
	}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.ErrorCount = 0
}

// ShouldRestart reports whether consecutive failures crossed the limit.
func (e *ErrorHandler) ShouldRestart() bool {
	return e.ErrorCount >= e.MaxErrorsBeforeRestart
}

// -----------------------------------------------------------------------------

// ExecuteWithRetry runs fn up to maxRetries times with exponential backoff and
// wraps the final failure into a typed error chosen from the operation name.
func (e *ErrorHandler) ExecuteWithRetry(operation string, fn func() (interface{}, error), maxRetries int) (interface{}, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn()
		if err == nil {
			if e.ErrorCount > 0 {
				e.ErrorCount--
			}
			return res, nil
		}

		if attempt == maxRetries-1 {
			e.ErrorCount++
			e.Logger.Error("%s failed (attempt %d/%d): %v", operation, attempt+1, maxRetries, err)

			msg := fmt.Sprintf("%s failed", operation)
			lowerOp := strings.ToLower(operation)
			switch {
			case strings.Contains(lowerOp, "database"), strings.Contains(lowerOp, "save"), strings.Contains(lowerOp, "store"):
				return nil, NewDatabaseError(msg, err)
			case strings.Contains(lowerOp, "config"):
				return nil, NewConfigurationError(msg, err)
			}
			return nil, &ConfluenceError{Message: msg, Cause: err}
		}

		e.Logger.Warning("%s failed (attempt %d/%d): %v", operation, attempt+1, maxRetries, err)
		e.sleep(e.BaseDelay * time.Duration(1<<attempt))
	}

	return nil, &ConfluenceError{Message: fmt.Sprintf("%s failed after %d attempts", operation, maxRetries)}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) Handle(err error, context string) {
	if err != nil {
		e.Logger.Error("Error in %s: %v", context, err)
	}
}
