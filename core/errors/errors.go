package errors

import (
	stderrors "errors"
	"fmt"
)

type ErrorCode string

const (
	ErrInternalServer     ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData ErrorCode = "INVALID_REQUEST_DATA"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrGetFailed          ErrorCode = "GET_FAILED"

	// Availability engine codes
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrDependency ErrorCode = "DEPENDENCY_ERROR"
	ErrTimeout    ErrorCode = "TIMEOUT_ERROR"
)

// AppError is the error type returned by services.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so sentinel values such as
// Validation can be used with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

var (
	Validation = &AppError{Code: ErrValidation}
	Dependency = &AppError{Code: ErrDependency}
	Timeout    = &AppError{Code: ErrTimeout}
)

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var ae *AppError
	if stderrors.As(err, &ae) && ae != nil {
		return ae.Code, true
	}
	return "", false
}

func New(message string) error {
	return stderrors.New(message)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}
