package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Round state errors
	ErrInvalidState    ErrorCode = "INVALID_STATE"
	ErrRoundNotFound   ErrorCode = "ROUND_NOT_FOUND"
	ErrInvalidAction   ErrorCode = "INVALID_ACTION"
	ErrInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// Ledger errors
	ErrInsufficientCredits ErrorCode = "INSUFFICIENT_CREDITS"
	ErrBankLocked          ErrorCode = "BANK_LOCKED"

	// Wiring errors
	ErrConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// Persistence errors
	ErrTransactionActive ErrorCode = "TRANSACTION_ACTIVE"
	ErrTransactionFailed ErrorCode = "TRANSACTION_FAILED"
	ErrDatabaseError     ErrorCode = "DATABASE_ERROR"

	// System errors
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
	ErrNetworkError  ErrorCode = "NETWORK_ERROR"
)

// GameError represents a coordinator error carrying a stable code
type GameError struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GameError) Unwrap() error {
	return e.Err
}

// NewGameError creates a new GameError
func NewGameError(code ErrorCode, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error in a GameError
func WrapError(code ErrorCode, message string, err error) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsGameError checks if an error is a GameError and has a specific code
func IsGameError(err error, code ErrorCode) bool {
	var gameErr *GameError
	if err == nil {
		return false
	}
	if ok := As(err, &gameErr); !ok {
		return false
	}
	return gameErr.Code == code
}

// As finds the first GameError in err's chain
func As(err error, target **GameError) bool {
	if target == nil || err == nil {
		return false
	}
	return errors.As(err, target)
}
