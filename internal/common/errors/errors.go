// Package errors provides standardized error handling for BPMN workflow integration
// and the HTTP surface.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

type ErrorCode string

const (
	ErrCodeInputParseFailed      ErrorCode = "INPUT_PARSE_FAILED"
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"

	ErrCodeVisionUnavailable ErrorCode = "VISION_SERVICE_UNAVAILABLE"
	ErrCodeVisionTimeout     ErrorCode = "VISION_TIMEOUT"
	ErrCodeVisionBadResponse ErrorCode = "VISION_BAD_RESPONSE"
	ErrCodeNothingToClassify ErrorCode = "NOTHING_TO_CLASSIFY"

	ErrCodeBookingInvalid  ErrorCode = "BOOKING_VALIDATION_FAILED"
	ErrCodeBookingNotFound ErrorCode = "BOOKING_NOT_FOUND"

	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeWorkflowEngineUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeWorkflowEngineRejected    ErrorCode = "WORKFLOW_ENGINE_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns e after setting key on its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError unwraps err to a StandardError, wrapping unknown errors as
// non-retryable internal errors.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
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

func NewInputParseError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParseFailed,
		Message:   "Job variables could not be parsed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputValidationFailed,
		Message:   "Input failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewVisionUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeVisionUnavailable,
		Message:   "Classification service unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewVisionTimeoutError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeVisionTimeout,
		Message:   "Classification service timeout",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewVisionBadResponseError covers 4xx answers and undecodable bodies.
func NewVisionBadResponseError(status int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVisionBadResponse,
		Message:   "Classification service rejected the request",
		Details:   fmt.Sprintf("status: %d, %s", status, details),
		Retryable: false,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

func NewNothingToClassifyError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNothingToClassify,
		Message:   "Nothing to classify",
		Details:   "either predictions or imageUrl must be provided",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBookingValidationError lists every rejected field in the "fields" metadata.
func NewBookingValidationError(fields map[string]string) *StandardError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return &StandardError{
		Code:      ErrCodeBookingInvalid,
		Message:   "Pickup booking is invalid",
		Details:   "invalid fields: " + strings.Join(names, ", "),
		Retryable: false,
		Metadata:  map[string]interface{}{"fields": fields},
		Timestamp: time.Now().UTC(),
	}
}

func NewBookingNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBookingNotFound,
		Message:   "Pickup booking not found",
		Details:   fmt.Sprintf("bookingId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSessionNotFoundError(sessionID, key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "No session data found",
		Details:   fmt.Sprintf("sessionId: %s, key: %s", sessionID, key),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSessionStoreFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   "Session store operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowEngineError wraps a failed Zeebe gateway call.
func NewWorkflowEngineError(operation string, err error, retryable bool) *StandardError {
	code := ErrCodeWorkflowEngineRejected
	if retryable {
		code = ErrCodeWorkflowEngineUnavailable
	}
	return &StandardError{
		Code:      code,
		Message:   fmt.Sprintf("Zeebe operation '%s' failed", operation),
		Details:   err.Error(),
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Policy Tables
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputParseFailed:         "INVALID_INPUT",
	ErrCodeInputValidationFailed:    "INVALID_INPUT",
	ErrCodeVisionUnavailable:        "CLASSIFICATION_UNAVAILABLE",
	ErrCodeVisionTimeout:            "CLASSIFICATION_UNAVAILABLE",
	ErrCodeVisionBadResponse:        "CLASSIFICATION_REJECTED",
	ErrCodeNothingToClassify:        "INVALID_INPUT",
	ErrCodeBookingInvalid:           "INVALID_BOOKING",
	ErrCodeBookingNotFound:          "BOOKING_NOT_FOUND",
	ErrCodeSessionNotFound:          "SESSION_NOT_FOUND",
	ErrCodeSessionStoreFailed:       "SESSION_UNAVAILABLE",
	ErrCodeDatabaseConnectionFailed: "DATABASE_UNAVAILABLE",
	ErrCodeQueryExecutionFailed:     "DATABASE_UNAVAILABLE",
	ErrCodeQueryTimeout:             "DATABASE_UNAVAILABLE",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeVisionUnavailable,
		ErrCodeSessionStoreFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeWorkflowEngineUnavailable:
		return 3

	case ErrCodeVisionTimeout,
		ErrCodeQueryTimeout:
		return 2

	default:
		return 0
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

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

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INPUT") || code == ErrCodeNothingToClassify || code == ErrCodeBookingInvalid:
		return "VALIDATION"
	case strings.Contains(codeStr, "VISION"):
		return "CLASSIFICATION"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.HasPrefix(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status the API answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInputParseFailed, ErrCodeInputValidationFailed, ErrCodeNothingToClassify:
		return http.StatusBadRequest
	case ErrCodeBookingInvalid:
		return http.StatusUnprocessableEntity
	case ErrCodeSessionNotFound, ErrCodeBookingNotFound:
		return http.StatusNotFound
	case ErrCodeVisionBadResponse:
		return http.StatusBadGateway
	case ErrCodeVisionTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeVisionUnavailable, ErrCodeSessionStoreFailed,
		ErrCodeDatabaseConnectionFailed, ErrCodeQueryExecutionFailed, ErrCodeQueryTimeout,
		ErrCodeWorkflowEngineUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
