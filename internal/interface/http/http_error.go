package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/flowdash/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

var statusByCode = map[string]int{
	apperrors.CodeInvalidInput:   http.StatusBadRequest,
	apperrors.CodeNotFound:       http.StatusNotFound,
	apperrors.CodeConflict:       http.StatusConflict,
	apperrors.CodeLLM:            http.StatusBadGateway,
	apperrors.CodeLLMUnavailable: http.StatusServiceUnavailable,
	apperrors.CodeGeneration:     http.StatusInternalServerError,
	apperrors.CodeStorage:        http.StatusInternalServerError,
}

// fromDomainError maps an AppError code to its HTTP status and keeps the client message.
func fromDomainError(err error) *HTTPError {
	code := apperrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		return asHTTPError(err)
	}
	message := apperrors.MessageOf(err)
	if message == "" {
		message = errMessage(err)
	}
	return NewHTTPError(status, code, message, err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequest(c *gin.Context, err error) {
	abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
}
