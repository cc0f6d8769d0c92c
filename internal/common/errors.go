package common

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-pos/internal/invariant"
	"github.com/noah-isme/backend-pos/internal/refund"
)

// Error codes surfaced to consuming services.
const (
	CodeRefundValidation = "REFUND_VALIDATION"
	CodeSumMismatch      = "SUM_MISMATCH"
	CodeInternal         = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status for
// the consuming REST services.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// FromEngine classifies engine errors for callers. Refund validation
// failures are recoverable and carry the offending line as details; a sum
// mismatch is a programming-invariant violation and maps to a server
// fault.
func FromEngine(err error) *AppError {
	if err == nil {
		return nil
	}
	var validation *refund.ValidationError
	if errors.As(err, &validation) {
		return &AppError{
			Code:       CodeRefundValidation,
			Message:    "refund request rejected",
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        err,
			Details: map[string]any{
				"lineId":    validation.LineID.String(),
				"requested": validation.Requested,
				"available": validation.Available,
			},
		}
	}
	var mismatch *invariant.SumMismatchError
	if errors.As(err, &mismatch) {
		return &AppError{
			Code:       CodeSumMismatch,
			Message:    "money components do not sum to their total",
			HTTPStatus: http.StatusInternalServerError,
			Err:        err,
		}
	}
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
