package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates that a provider rate limited the request
	// after Retry-After-aware retries were exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderFailure indicates a non-retryable provider error or
	// exhausted transient retries.
	ErrProviderFailure = errors.New("provider failure")

	// ErrDownloadFailed indicates that the PDF acquisition pipeline
	// exhausted its recovery ladder without producing a valid file.
	ErrDownloadFailed = errors.New("download failed")

	// ErrFileOperation indicates a filesystem failure (directory
	// creation, write, or cleanup of a corrupt artifact).
	ErrFileOperation = errors.New("file operation failed")

	// ErrConfig indicates an invalid enumerated option or malformed
	// configuration value.
	ErrConfig = errors.New("invalid configuration")

	// ErrCancelled indicates caller-initiated cancellation, as opposed
	// to a request timeout.
	ErrCancelled = errors.New("cancelled")
)

// FailureKind classifies a terminal download failure.
type FailureKind string

// Download failure kinds.
const (
	FailureHTMLResponse    FailureKind = "html_response"
	FailureHTMLNoPDFLink   FailureKind = "html_no_pdf_link"
	FailureContentMismatch FailureKind = "content_mismatch"
	FailureAccessDenied    FailureKind = "access_denied"
	FailureNotFound        FailureKind = "not_found"
	FailureRateLimited     FailureKind = "rate_limited"
	FailureServerError     FailureKind = "server_error"
	FailureTimeout         FailureKind = "timeout"
	FailureNetworkError    FailureKind = "network_error"
	FailureRedirectLoop    FailureKind = "redirect_loop"
	FailureEmptyFile       FailureKind = "empty_file"
	FailureInvalidResponse FailureKind = "invalid_response"
	FailureFileError       FailureKind = "file_error"
	FailureUnknown         FailureKind = "unknown"
)

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// RateLimitError provides details about a rate limit error.
type RateLimitError struct {
	Source     SourceType
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s: retry after %s", e.Source, e.RetryAfter)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// ExternalAPIError provides details about a provider API error.
type ExternalAPIError struct {
	Source     SourceType
	StatusCode int
	Attempts   int
	Message    string
	Cause      error
}

func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d, %d attempts): %s",
		e.Source, e.StatusCode, e.Attempts, e.Message)
}

// Unwrap returns ErrProviderFailure so callers can classify with errors.Is,
// or the wrapped cause when one is set.
func (e *ExternalAPIError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrProviderFailure
}

// DownloadError is the terminal error of a failed acquisition. It carries
// enough context for a human to diagnose the failure: every URL that was
// attempted, the failure kind of the last attempt, and the intended
// output path.
type DownloadError struct {
	Kind          FailureKind
	AttemptedURLs []string
	OutputPath    string
	TotalAttempts int
	LastErr       error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed (%s) after %d attempts across %d urls: %v",
		e.Kind, e.TotalAttempts, len(e.AttemptedURLs), e.LastErr)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *DownloadError) Unwrap() error { return ErrDownloadFailed }

// Summary renders a compact human-readable account of the attempts,
// e.g. "403 on primary, html_no_pdf_link on 2 urls".
func (e *DownloadError) Summary() string {
	return fmt.Sprintf("%s; tried: %s", e.Kind, strings.Join(e.AttemptedURLs, ", "))
}

// ConfigError reports an invalid configuration option.
type ConfigError struct {
	Option  string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config option %s: %s", e.Option, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ConfigError) Unwrap() error { return ErrConfig }

// NewDownloadError creates a new DownloadError.
func NewDownloadError(kind FailureKind, attemptedURLs []string, outputPath string, totalAttempts int, lastErr error) *DownloadError {
	return &DownloadError{
		Kind:          kind,
		AttemptedURLs: attemptedURLs,
		OutputPath:    outputPath,
		TotalAttempts: totalAttempts,
		LastErr:       lastErr,
	}
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// NewRateLimitError creates a new RateLimitError.
func NewRateLimitError(source SourceType, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Source: source, RetryAfter: retryAfter}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source SourceType, statusCode, attempts int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Attempts:   attempts,
		Message:    message,
		Cause:      cause,
	}
}
