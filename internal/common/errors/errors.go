// Package errors provides standardized error handling for letter generation and
// BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"

	ErrCodeVendorNotFound     ErrorCode = "VENDOR_NOT_FOUND"
	ErrCodeVendorAmbiguous    ErrorCode = "VENDOR_AMBIGUOUS"
	ErrCodeDatasetUnavailable ErrorCode = "DATASET_UNAVAILABLE"

	ErrCodeMalformedDuration ErrorCode = "MALFORMED_DURATION"
	ErrCodeMissingField      ErrorCode = "MISSING_FIELD"

	ErrCodePersistenceError        ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeRecordValidationFailed  ErrorCode = "RECORD_VALIDATION_FAILED"
	ErrCodeDocumentWriteFailed     ErrorCode = "DOCUMENT_WRITE_FAILED"
	ErrCodeNotificationSendFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInputParsingFailed      ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrCodeDatabaseConnectionFails ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeWorkflowEngine          ErrorCode = "WORKFLOW_ENGINE_ERROR"
	ErrCodeInternal                ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.Cause
}

// Is matches any *StandardError carrying the same code, so callers can test
// against a bare &StandardError{Code: ...}.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewTemplateNotFoundError reports a template missing from the template directory.
func NewTemplateNotFoundError(path string, available []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Template not found",
		Details:   fmt.Sprintf("path: %s", path),
		Retryable: false,
		Metadata: map[string]interface{}{
			"path":      path,
			"available": available,
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewVendorNotFoundError(vendorType, query string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVendorNotFound,
		Message:   "No vendor matched the lookup",
		Details:   fmt.Sprintf("type: %s, query: %s", vendorType, query),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewVendorAmbiguousError(vendorType, query string, matches int) *StandardError {
	return &StandardError{
		Code:      ErrCodeVendorAmbiguous,
		Message:   "Vendor lookup matched more than one row",
		Details:   fmt.Sprintf("type: %s, query: %s, matches: %d", vendorType, query, matches),
		Retryable: false,
		Metadata:  map[string]interface{}{"matches": matches},
		Timestamp: time.Now().UTC(),
	}
}

// NewDatasetUnavailableError creates a retryable error for a missing or unreadable vendor dataset.
func NewDatasetUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetUnavailable,
		Message:   "Vendor dataset unavailable",
		Details:   fmt.Sprintf("source: %s, error: %v", source, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewMalformedDurationError(text string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedDuration,
		Message:   "Delivery timeline could not be parsed",
		Details:   fmt.Sprintf("timeline: %q", text),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewMissingFieldError(fields []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingField,
		Message:   "Record is missing fields",
		Details:   strings.Join(fields, ", "),
		Retryable: false,
		Metadata:  map[string]interface{}{"fields": fields},
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceError reports a malformed or unreadable persisted record.
func NewPersistenceError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceError,
		Message:   "Persisted record could not be read",
		Details:   fmt.Sprintf("path: %s, error: %v", path, err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewRecordValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordValidationFailed,
		Message:   "Record failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDocumentWriteFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentWriteFailed,
		Message:   "Generated document could not be written",
		Details:   fmt.Sprintf("path: %s, error: %v", path, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewInputParsingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParsingFailed,
		Message:   "Failed to parse job variables",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewValidationFailedError(messages []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   fmt.Sprintf("Validation errors: %v", messages),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowEngineError reports a failed Zeebe gateway call.
func NewWorkflowEngineError(operation string, err error, retryable bool) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowEngine,
		Message:   "Workflow engine request failed",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeTemplateNotFound:        "TEMPLATE_NOT_FOUND",
	ErrCodeVendorNotFound:          "VENDOR_NOT_FOUND",
	ErrCodeVendorAmbiguous:         "VENDOR_AMBIGUOUS",
	ErrCodeDatasetUnavailable:      "DATASET_UNAVAILABLE",
	ErrCodeMalformedDuration:       "MALFORMED_DURATION",
	ErrCodeMissingField:            "MISSING_FIELD",
	ErrCodePersistenceError:        "PERSISTENCE_ERROR",
	ErrCodeRecordValidationFailed:  "RECORD_VALIDATION_FAILED",
	ErrCodeDocumentWriteFailed:     "DOCUMENT_WRITE_FAILED",
	ErrCodeNotificationSendFailed:  "NOTIFICATION_SEND_FAILED",
	ErrCodeInputParsingFailed:      "INPUT_PARSING_FAILED",
	ErrCodeValidationFailed:        "VALIDATION_FAILED",
	ErrCodeDatabaseConnectionFails: "DATABASE_CONNECTION_FAILED",
	ErrCodeWorkflowEngine:          "WORKFLOW_ENGINE_ERROR",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatasetUnavailable,
		ErrCodeDatabaseConnectionFails,
		ErrCodeNotificationSendFailed,
		ErrCodeWorkflowEngine:
		return 3

	case ErrCodeDocumentWriteFailed:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// AsStandardError returns err as a *StandardError, wrapping it as an internal
// error when it is not one already.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TEMPLATE"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "VENDOR") || strings.Contains(codeStr, "DATASET"):
		return "VENDOR"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "PERSISTENCE") || strings.Contains(codeStr, "DOCUMENT"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "DURATION") || strings.Contains(codeStr, "FIELD") ||
		strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") ||
		strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
