package utils

import (
	"encoding/json"
	"net/http"
)

const (
	// Request Error Codes
	ErrRequestInvalid           = "request/invalid_parameters"
	ErrRequestNotFound          = "request/not_found"
	ErrRequestRateLimitExceeded = "request/rate_limit_exceeded"

	ErrRequestBodyTooLarge     = "request/body_too_large"
	ErrRequestUnSupportedMedia = "request/invalid_media"

	// Auth Error Codes
	ErrAuthRequired        = "auth/authentication_required"
	ErrAuthInvalid         = "auth/invalid_credentials"
	ErrAuthRateLimitExceed = "auth/rate_limit_exceeded"
	ErrAuthUserExists      = "auth/user_exists"

	// Server Error Codes
	ErrServerInternal = "server/internal_error"

	// Validation & Resource Error Codes
	ErrValidationInvalidFormat = "validation/invalid_format"
	ErrResourceNotFound        = "resource/not_found"

	// Image pipeline
	ErrImageDecodeFailed     = "image/decode_failed"
	ErrImageProcessingFailed = "image/processing_failed"
	ErrImageNoSource         = "image/no_source"

	ErrBackupConcurrencyLimit = "backup/concurrency_limit"
)

// Notification severities, mirrored by the front end's snackbar.
const (
	SeveritySuccess = "success"
	SeverityError   = "error"
)

type APIError struct {
	Code     string `json:"code"`    // e.g., "request/invalid_parameters"
	Message  string `json:"message"` // User-friendly message
	Status   int    `json:"status"`  // HTTP Status Code
	Severity string `json:"severity"`
}

// Notification is the body of every successful mutating call.
type Notification struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Severity string      `json:"severity"`
	Data     interface{} `json:"data,omitempty"`
}

// WriteError sends a JSON formatted error response
func WriteError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIError{
		Code:     code,
		Message:  message,
		Status:   status,
		Severity: SeverityError,
	})
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteNotice answers with a success notification carrying optional data.
func WriteNotice(w http.ResponseWriter, status int, message string, data interface{}) {
	WriteJSON(w, status, Notification{
		Status:   "success",
		Message:  message,
		Severity: SeveritySuccess,
		Data:     data,
	})
}
