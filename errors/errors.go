package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another *AppError by code, so sentinel values work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// --- Pipeline constructors ---

// InvalidConnection creates an AppError for a connection the validator rejected.
// The reason is surfaced verbatim to the user.
func InvalidConnection(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConnection, Message: reason,
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
	}
}

// InvalidPipeline creates an AppError for a pipeline graph that failed validation.
func InvalidPipeline(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidPipeline, Message: reason,
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
	}
}

// ExecutionInProgress creates an AppError for an overlapping execution request.
func ExecutionInProgress() *AppError {
	return &AppError{
		Code: ErrCodeExecutionInProgress, Message: "A pipeline execution is already in progress.",
		HTTPStatus: http.StatusConflict, Retryable: true,
	}
}

// PipelineLocked creates an AppError for an edit attempted during execution.
func PipelineLocked(operation string) *AppError {
	return &AppError{
		Code: ErrCodePipelineLocked, Message: "The pipeline cannot be edited while it is executing.",
		HTTPStatus: http.StatusConflict, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// StageFailed creates an AppError for a stage that failed during a run.
func StageFailed(nodeID string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStageFailed, Message: fmt.Sprintf("Stage %s failed.", nodeID),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"node_id": nodeID}, Cause: cause,
	}
}

// --- Common constructors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for struct validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// CatalogUnavailable creates a new AppError for a catalog that could not be reached.
func CatalogUnavailable(url string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCatalogUnavailable, Message: "The stage catalog is temporarily unavailable. Please try again.",
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"url": url}, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service, message string, status int) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: message,
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service, "status": status},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
