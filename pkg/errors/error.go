// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, periods, thresholds
//   - Series errors (200-299): Malformed market series construction failures
//   - Agent errors (300-399): Lifecycle and strategy agent errors
//   - Ensemble errors (400-499): Signal aggregation errors
//   - Backtest errors (500-599): Backtesting engine and store errors
//   - Market data errors (600-699): Market data fetching and parsing errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidParameter, "invalid parameter value")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeUnknownAgentType, "unknown agent type %s", agentType)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeStoreFailed, "failed to persist trades", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeInvalidState) { ... }
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError represents an error when there is not enough data
// for a calculation (e.g., a strategy lookback longer than the series).
// Agents catch this internally and degrade to a HOLD signal; it never
// crosses the agent boundary.
type InsufficientDataError struct {
	Required int    // Minimum data points required
	Actual   int    // Actual data points available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
// It uses errors.As to check the error chain.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}

// InvalidStateError is returned when an agent operation is invoked from a
// lifecycle state that does not permit it (e.g., Analyze before Start).
type InvalidStateError struct {
	AgentID   string
	State     string // current lifecycle state
	Operation string // operation that was attempted
}

// NewInvalidStateError creates a new InvalidStateError.
func NewInvalidStateError(agentID, state, operation string) *InvalidStateError {
	return &InvalidStateError{
		AgentID:   agentID,
		State:     state,
		Operation: operation,
	}
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("agent %s: cannot %s while in state %s", e.AgentID, e.Operation, e.State)
}

// IsInvalidStateError checks if an error is an InvalidStateError.
func IsInvalidStateError(err error) bool {
	var stateErr *InvalidStateError

	return errors.As(err, &stateErr)
}

// MalformedSeriesError is returned at series construction time when
// timestamps are non-monotonic or an OHLCV invariant is violated. It carries
// enough context to diagnose the offending bar without re-running.
type MalformedSeriesError struct {
	Symbol    string
	Index     int       // index of the offending bar
	Timestamp time.Time // timestamp of the offending bar
	Detail    string
}

// NewMalformedSeriesError creates a new MalformedSeriesError.
func NewMalformedSeriesError(symbol string, index int, timestamp time.Time, detail string) *MalformedSeriesError {
	return &MalformedSeriesError{
		Symbol:    symbol,
		Index:     index,
		Timestamp: timestamp,
		Detail:    detail,
	}
}

// NewMalformedSeriesErrorf creates a new MalformedSeriesError with a formatted detail message.
func NewMalformedSeriesErrorf(symbol string, index int, timestamp time.Time, format string, args ...any) *MalformedSeriesError {
	return &MalformedSeriesError{
		Symbol:    symbol,
		Index:     index,
		Timestamp: timestamp,
		Detail:    fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *MalformedSeriesError) Error() string {
	return fmt.Sprintf("malformed series %s at bar %d (%s): %s", e.Symbol, e.Index, e.Timestamp.Format(time.RFC3339), e.Detail)
}

// IsMalformedSeriesError checks if an error is a MalformedSeriesError.
func IsMalformedSeriesError(err error) bool {
	var seriesErr *MalformedSeriesError

	return errors.As(err, &seriesErr)
}
