package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned to API callers. Every business-rule rejection maps to
// exactly one of these; none of them is retried internally.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeState        = "STATE_ERROR"
	CodeEligibility  = "NOT_ELIGIBLE"
	CodeCapacityFull = "CAPACITY_FULL"
	CodeConflict     = "CONFLICT"
	CodeTimeConflict = "TIME_CONFLICT"
	CodeContention   = "CONTENTION"
)

// AppError is the error type surfaced by all services. Details carries
// structured context for the caller, e.g. the list of conflicting events.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Newf(code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches structured context and returns the same error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func Validation(message string) *AppError   { return New(CodeValidation, message) }
func NotFound(message string) *AppError     { return New(CodeNotFound, message) }
func State(message string) *AppError        { return New(CodeState, message) }
func Eligibility(message string) *AppError  { return New(CodeEligibility, message) }
func CapacityFull(message string) *AppError { return New(CodeCapacityFull, message) }
func Conflict(message string) *AppError     { return New(CodeConflict, message) }
func TimeConflict(message string) *AppError { return New(CodeTimeConflict, message) }
func Contention(message string) *AppError   { return New(CodeContention, message) }

// As unwraps err into an *AppError if it is one.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// HTTPStatus maps an error code to the response status used by handlers.
func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeState, CodeEligibility:
		return http.StatusBadRequest
	case CodeCapacityFull, CodeConflict, CodeTimeConflict:
		return http.StatusConflict
	case CodeContention:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
