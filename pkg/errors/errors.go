package errors

import "errors"

// Error codes shared by the domain services and the HTTP layer.
const (
	CodeInvalidInput   = "invalid_input"
	CodeNotFound       = "not_found"
	CodeConflict       = "conflict"
	CodeStorage        = "storage_error"
	CodeLLM            = "llm_error"
	CodeLLMUnavailable = "llm_unavailable"
	CodeGeneration     = "generation_failed"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the outermost AppError in the chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// MessageOf returns the client facing message of an AppError, or "".
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
