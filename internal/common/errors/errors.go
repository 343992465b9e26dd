// Package errors provides standardized error handling shared by the HTTP
// trigger and the workflow job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeQueryExecutionFailed       ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeRecipientLookupFailed      ErrorCode = "RECIPIENT_LOOKUP_FAILED"
	ErrCodeNotificationSendFailed     ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeMissingRecipient           ErrorCode = "MISSING_RECIPIENT"
	ErrCodeInvalidNotificationRequest ErrorCode = "INVALID_NOTIFICATION_REQUEST"
	ErrCodeGatewayUnavailable         ErrorCode = "GATEWAY_UNAVAILABLE"
	ErrCodeTokenCleanupFailed         ErrorCode = "TOKEN_CLEANUP_FAILED"
	ErrCodeInternal                   ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// BPMNError is the shape thrown back to the workflow engine.
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

// ToErrorVariables returns a map suitable for job fail variables.
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

// NewQueryExecutionFailedError wraps a document store failure. Fatal to a scan.
func NewQueryExecutionFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Document store query failed",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewRecipientLookupFailedError(userID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecipientLookupFailed,
		Message:   "Recipient lookup failed",
		Details:   fmt.Sprintf("userId: %s, error: %s", userID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewNotificationSendFailedError(eventType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", eventType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInvalidNotificationRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidNotificationRequest,
		Message:   "Invalid notification request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewGatewayUnavailableError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayUnavailable,
		Message:   fmt.Sprintf("Push gateway '%s' unavailable", provider),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewTokenCleanupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTokenCleanupFailed,
		Message:   "Invalid token cleanup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// AsStandard normalizes any error into a StandardError.
func AsStandard(err error) *StandardError {
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
		cause:     err,
	}
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeQueryExecutionFailed,
		ErrCodeRecipientLookupFailed,
		ErrCodeGatewayUnavailable,
		ErrCodeTokenCleanupFailed:
		return 3
	case ErrCodeNotificationSendFailed:
		return 1
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
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
	case strings.Contains(codeStr, "QUERY"):
		return "STORE"
	case strings.Contains(codeStr, "RECIPIENT"):
		return "RECIPIENT"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "GATEWAY"):
		return "DELIVERY"
	case strings.Contains(codeStr, "TOKEN"):
		return "MAINTENANCE"
	default:
		return "OTHER"
	}
}
