package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline structure errors
const (
	// ErrCodeInvalidConnection indicates a rejected connection attempt.
	ErrCodeInvalidConnection ErrorCode = "INVALID_CONNECTION"
	// ErrCodeInvalidPipeline indicates the pipeline graph failed validation.
	ErrCodeInvalidPipeline ErrorCode = "INVALID_PIPELINE"
)

// Execution errors
const (
	// ErrCodeExecutionInProgress indicates a run is already in flight.
	ErrCodeExecutionInProgress ErrorCode = "EXECUTION_IN_PROGRESS"
	// ErrCodePipelineLocked indicates an edit was attempted while a run is in flight.
	ErrCodePipelineLocked ErrorCode = "PIPELINE_LOCKED"
	// ErrCodeStageFailed indicates a stage failed during execution.
	ErrCodeStageFailed ErrorCode = "STAGE_FAILED"
)

// Resource and input errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Dependency errors (retryable)
const (
	// ErrCodeCatalogUnavailable indicates the stage catalog could not be reached.
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"
	// ErrCodeExternalService indicates an error response from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// ErrCodeInternal indicates an unexpected internal failure.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
