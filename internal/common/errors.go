package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Failure taxonomy for the extraction pipeline. Terminal errors are never
// retried: the input is structurally wrong, not transiently unavailable.
var (
	ErrMalformedKey        = errors.New("malformed storage key")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrMetadataMissing     = errors.New("metadata sidecar missing")
	ErrMetadataInvalid     = errors.New("metadata validation failed")
	ErrNoIndicatorMatch    = errors.New("no indicator match above threshold")
	ErrOCRJobFailed        = errors.New("ocr job did not succeed")
	ErrExternalService     = errors.New("external service error")
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// External marks err as a transient external-service failure eligible for
// bounded retry and queue redelivery.
func External(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", message, ErrExternalService, err)
}

// IsTerminal reports whether err must not be retried. Anything outside the
// terminal taxonomy is treated as transient and left to the retry policy and
// the caller's queue redelivery.
func IsTerminal(err error) bool {
	switch {
	case errors.Is(err, ErrMalformedKey),
		errors.Is(err, ErrUnsupportedDocument),
		errors.Is(err, ErrMetadataMissing),
		errors.Is(err, ErrMetadataInvalid),
		errors.Is(err, ErrNoIndicatorMatch),
		errors.Is(err, ErrOCRJobFailed):
		return true
	}
	return false
}
