package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTimeout       = "SCRAPE_TIMEOUT"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash  = "BROWSER_CRASH"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeConfiguration = "CONFIGURATION"
	ErrCodeInternal      = "INTERNAL_ERROR"

	// Extraction API error codes.
	ErrCodeExtractFailure     = "EXTRACT_API_FAILURE"
	ErrCodeExtractAuthFailure = "EXTRACT_API_AUTH_FAILURE"
	ErrCodeExtractRateLimited = "EXTRACT_API_RATE_LIMITED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another navigation attempt may succeed.
func (e *ScrapeError) Retryable() bool {
	switch e.Code {
	case ErrCodeNavigation, ErrCodeTimeout:
		return true
	default:
		return false
	}
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// AsScrapeError unwraps err into a *ScrapeError, wrapping unknown errors
// as INTERNAL_ERROR.
func AsScrapeError(err error) *ScrapeError {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return NewScrapeError(ErrCodeInternal, err.Error(), err)
}
