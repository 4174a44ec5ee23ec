package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidLoanParameters = errors.New("invalid loan parameters")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrValidation            = errors.New("validation failed")
	ErrReconciliation        = errors.New("reconciliation failed")
	ErrPersistence           = errors.New("persistence operation failed")
	ErrApplicationNotFound   = errors.New("loan application not found")
	ErrLockHeld              = errors.New("collection lock held by another run")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeInvalidLoanParameters = "INVALID_LOAN_PARAMETERS"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeReconciliation        = "RECONCILIATION_ERROR"
	ErrCodePersistence           = "PERSISTENCE_ERROR"
	ErrCodeApplicationNotFound   = "APPLICATION_NOT_FOUND"
	ErrCodeLockHeld              = "COLLECTION_LOCK_HELD"
)

// Wrap common errors with business context
func WrapInvalidLoanParameters(detail string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanParameters,
		detail,
		ErrInvalidLoanParameters,
	)
}

func WrapInvalidTransition(from, action string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("action %q is not allowed from status %q", action, from),
		ErrInvalidTransition,
	)
}

func WrapValidation(detail string) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		detail,
		ErrValidation,
	)
}

func WrapReconciliation(detail string) *BusinessError {
	return NewBusinessError(
		ErrCodeReconciliation,
		detail,
		ErrReconciliation,
	)
}

func WrapPersistence(err error) *BusinessError {
	return NewBusinessError(
		ErrCodePersistence,
		"storage operation failed",
		err,
	)
}

func WrapApplicationNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeApplicationNotFound,
		fmt.Sprintf("loan application %s not found", id),
		ErrApplicationNotFound,
	)
}

func WrapLockHeld(centerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLockHeld,
		fmt.Sprintf("a collection for center %s is already being reconciled", centerID),
		ErrLockHeld,
	)
}
