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

// Extraction error taxonomy.
//
// The first two are fatal for a whole run; the next two are recovered at the
// image/analysis level and surface only as failure entries in the result;
// the last is local to persistence and never invalidates a computed result.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentOpen     = errors.New("document cannot be opened")
	ErrDecode           = errors.New("image cannot be decoded")
	ErrModelUnavailable = errors.New("model backend unavailable")
	ErrPersist          = errors.New("persist failed")
	ErrInvalidInput     = errors.New("invalid input")
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

// ErrorKind returns the stable taxonomy name for err, for failure manifests.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return "DOCUMENT_NOT_FOUND"
	case errors.Is(err, ErrDocumentOpen):
		return "DOCUMENT_OPEN"
	case errors.Is(err, ErrDecode):
		return "DECODE"
	case errors.Is(err, ErrModelUnavailable):
		return "MODEL_UNAVAILABLE"
	case errors.Is(err, ErrPersist):
		return "PERSIST"
	default:
		return "INTERNAL"
	}
}
