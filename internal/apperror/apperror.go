// Package apperror defines the domain error taxonomy shared by the
// intake pipeline. Handlers map these onto HTTP status codes; the
// pipeline itself never renders user-facing text.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrUnclassifiableInput marks input matching none of the known
	// recording shapes (audio, text, photo). Never retried.
	ErrUnclassifiableInput = errors.New("unclassifiable input")
	// ErrInvalidInput marks a type-specific validation failure. Never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPayloadTooLarge marks a blob above the hard size ceiling.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrSubmissionFailed marks a webhook delivery that exhausted its retries.
	ErrSubmissionFailed = errors.New("submission failed")
	// ErrNotFound marks a missing stored resource.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks a caller without admin access.
	ErrForbidden = errors.New("forbidden")
)

type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Unclassifiable(message string) *AppError {
	return &AppError{
		Err:     ErrUnclassifiableInput,
		Message: message,
	}
}

func InvalidInput(field, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidInput,
		Message: message,
		Field:   field,
	}
}

func PayloadTooLarge(sizeBytes, limitBytes int64) *AppError {
	return &AppError{
		Err:     ErrPayloadTooLarge,
		Message: fmt.Sprintf("payload of %d bytes exceeds the %d byte limit", sizeBytes, limitBytes),
	}
}

// SubmissionFailed wraps the last transport error after every retry
// has been used. attempts is the total number of network attempts made.
func SubmissionFailed(attempts int, last error) *AppError {
	return &AppError{
		Err:     ErrSubmissionFailed,
		Message: fmt.Sprintf("failed after %d attempts: %v", attempts, last),
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}
