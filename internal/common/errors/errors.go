// Package errors provides the error codes and structured error type shared by
// the form service, the webhook client and the JSON API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode is a stable, machine-readable error identifier.
type ErrorCode string

const (
	// Webhook delivery
	ErrCodeWebhookRejected    ErrorCode = "WEBHOOK_REJECTED"
	ErrCodeWebhookUnreachable ErrorCode = "WEBHOOK_UNREACHABLE"
	ErrCodePayloadEncode      ErrorCode = "PAYLOAD_ENCODE_FAILED"

	// Form state
	ErrCodeStateStoreFailed   ErrorCode = "STATE_STORE_FAILED"
	ErrCodeUnknownField       ErrorCode = "UNKNOWN_FIELD"
	ErrCodeSubmissionInFlight ErrorCode = "SUBMISSION_IN_FLIGHT"

	// Input
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidBody      ErrorCode = "INVALID_BODY"

	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the structured error returned by the JSON API.
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

// ErrorCode lets StandardError take part in CodeOf.
func (e *StandardError) ErrorCode() ErrorCode {
	return e.Code
}

// Coded is implemented by errors that carry their own code.
type Coded interface {
	ErrorCode() ErrorCode
}

// CodeOf returns the code of the first Coded error in err's chain, or
// ErrCodeInternal. A nil error has no code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var coded Coded
	if stderrors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return ErrCodeInternal
}

// ==========================
// 2. Error Constructors
// ==========================

func New(code ErrorCode, message, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError reports a rejected JSON API request body.
func NewValidationFailedError(messages []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   strings.Join(messages, "; "),
		Retryable: false,
		Metadata:  map[string]interface{}{"errors": messages},
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidBodyError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidBody,
		Message:   "Request body is not valid JSON",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnknownFieldError(field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownField,
		Message:   "Unknown form field",
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewStateStoreError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStateStoreFailed,
		Message:   "Form state store error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSubmissionInFlightError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionInFlight,
		Message:   "A submission is already in progress",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Mapping
// ==========================

// HTTPStatus maps an error code to the status used by the JSON API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidBody, ErrCodeUnknownField:
		return http.StatusBadRequest
	case ErrCodeSubmissionInFlight:
		return http.StatusConflict
	case ErrCodeWebhookRejected, ErrCodeWebhookUnreachable:
		return http.StatusBadGateway
	case ErrCodeStateStoreFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ToStandardError normalises any error into a StandardError.
func ToStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      CodeOf(err),
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "WEBHOOK") || strings.HasPrefix(codeStr, "PAYLOAD"):
		return "DELIVERY"
	case strings.Contains(codeStr, "STATE") || strings.Contains(codeStr, "SUBMISSION"):
		return "STATE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "UNKNOWN"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
