// Package apperrors provides the classified error taxonomy for catalog loading
// and search. Per-record problems are never errors; only the codes below are.
package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSourceUnavailable        ErrorCode = "SOURCE_UNAVAILABLE"
	ErrCodeMalformedTopLevel        ErrorCode = "MALFORMED_TOP_LEVEL"
	ErrCodeCacheCorrupt             ErrorCode = "CACHE_CORRUPT"
	ErrCodeCacheStoreFailed         ErrorCode = "CACHE_STORE_FAILED"
	ErrCodeExtractionServiceFailure ErrorCode = "EXTRACTION_SERVICE_FAILURE"
	ErrCodeConfigMissing            ErrorCode = "CONFIG_MISSING"
)

// ExtractionKind classifies a structured-extraction failure.
type ExtractionKind string

const (
	KindNetwork           ExtractionKind = "network"
	KindMalformedResponse ExtractionKind = "malformed_response"
	KindParse             ExtractionKind = "parse"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Kind      ExtractionKind `json:"kind,omitempty"`
	Timestamp time.Time      `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any *StandardError with the same code, so callers can write
// errors.Is(err, apperrors.SourceUnavailable).
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Kind == "" || t.Kind == e.Kind)
}

// Sentinels for errors.Is comparisons.
var (
	SourceUnavailable        = &StandardError{Code: ErrCodeSourceUnavailable}
	MalformedTopLevel        = &StandardError{Code: ErrCodeMalformedTopLevel}
	CacheCorrupt             = &StandardError{Code: ErrCodeCacheCorrupt}
	CacheStoreFailed         = &StandardError{Code: ErrCodeCacheStoreFailed}
	ExtractionServiceFailure = &StandardError{Code: ErrCodeExtractionServiceFailure}
	ConfigMissing            = &StandardError{Code: ErrCodeConfigMissing}
)

// NewSourceUnavailableError reports that the source blob could not be read.
func NewSourceUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceUnavailable,
		Message:   "Source data could not be read",
		Details:   fmt.Sprintf("source: %s, error: %v", source, err),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewMalformedTopLevelError reports a payload that is not a list of records.
func NewMalformedTopLevelError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedTopLevel,
		Message:   "Source data is not a sequence of records",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheCorruptError reports a stored catalog that cannot be used.
func NewCacheCorruptError(details string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheCorrupt,
		Message:   "Cached catalog is unusable",
		Details:   details,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCacheStoreFailedError reports a failed cache write.
func NewCacheStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheStoreFailed,
		Message:   "Catalog cache write failed",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewExtractionError reports a structured-extraction service failure.
func NewExtractionError(kind ExtractionKind, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionServiceFailure,
		Message:   "Could not understand the search query",
		Details:   err.Error(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewConfigMissingError reports a required configuration key with no value.
func NewConfigMissingError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigMissing,
		Message:   "Required configuration is missing",
		Details:   fmt.Sprintf("key: %s", key),
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf returns the code of the first StandardError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// KindOf returns the extraction kind of err, or "" if err is not an
// extraction failure.
func KindOf(err error) ExtractionKind {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
