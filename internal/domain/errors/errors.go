// Package errors provides domain-specific errors for the claude-terminal-bot application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common domain error conditions.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionIDRequired  = errors.New("session ID required")
	ErrSessionIDExhausted = errors.New("session ID space exhausted")
	ErrNoActiveSession    = errors.New("no active session")
	ErrHandleNotFound     = errors.New("terminal handle not found")
	ErrDirectoryNotFound  = errors.New("directory not found")
	ErrCommandBlocked     = errors.New("command blocked by security policy")
	ErrAssistantNotFound  = errors.New("assistant executable not found")
	ErrAssistantInactive  = errors.New("assistant is not active")
	ErrContextFileMissing = errors.New("context file not found")
)

// ErrorCode categorizes errors for handling and reporting.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeTerminal      ErrorCode = "TERMINAL"
	CodeSecurity      ErrorCode = "SECURITY"
	CodePersistence   ErrorCode = "PERSISTENCE"
	CodeConfiguration ErrorCode = "CONFIG"
)

// BotError wraps errors with additional context for debugging and handling.
type BotError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns a formatted error string including the code, message, and cause if present.
func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for use with errors.Is and errors.As.
func (e *BotError) Unwrap() error {
	return e.Cause
}

// NewError creates a new BotError with the given code, message, and optional cause.
func NewError(code ErrorCode, message string, cause error) *BotError {
	return &BotError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error's context and returns the error.
// This allows for method chaining when adding multiple context values.
func WithContext(err *BotError, key string, value interface{}) *BotError {
	if err.Context == nil {
		err.Context = make(map[string]interface{})
	}
	err.Context[key] = value
	return err
}

// Is reports whether err matches target using errors.Is semantics.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target and sets target to that error value.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
