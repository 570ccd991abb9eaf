// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"time"
)

// InvalidReason says why a file was rejected as a conversion input.
type InvalidReason string

const (
	ReasonNotAPDF    InvalidReason = "not_a_pdf"
	ReasonEncrypted  InvalidReason = "encrypted"
	ReasonCorrupted  InvalidReason = "corrupted"
	ReasonEmpty      InvalidReason = "empty"
	ReasonUnreadable InvalidReason = "unreadable"
)

// InvalidDocumentError is returned by the validator for inputs that cannot
// be converted.
type InvalidDocumentError struct {
	Path   string
	Reason InvalidReason
	Detail string
	Err    error
}

func (e *InvalidDocumentError) Error() string {
	msg := fmt.Sprintf("invalid document %s: %s", e.Path, e.Reason)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidDocumentError) Unwrap() error { return e.Err }

// InvalidConfigurationError names the offending field of a quality
// configuration or request.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// UnsupportedFormatError is returned for output kinds outside the closed set.
type UnsupportedFormatError struct {
	Kind string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported output format %q (supported: text, word, html, markdown, image)", e.Kind)
}

// MissingDependencyError reports an external tool the selected strategy
// needs but the environment does not provide. Other formats stay usable.
type MissingDependencyError struct {
	Tool   string
	Detail string
	Err    error
}

func (e *MissingDependencyError) Error() string {
	msg := fmt.Sprintf("missing dependency %s", e.Tool)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingDependencyError) Unwrap() error { return e.Err }

// DelegationError reports a failure inside the external document converter
// after it was found and started.
type DelegationError struct {
	Tool string
	Err  error
}

func (e *DelegationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *DelegationError) Unwrap() error { return e.Err }

// ErrNoTextLayer marks pages (or whole documents) without extractable text,
// typically scanned images.
var ErrNoTextLayer = errors.New("no extractable text layer")

// ExtractionError reports a failure to extract text from or rasterize a
// page. Page is 1-based; 0 means the failure concerns the whole document.
type ExtractionError struct {
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("extraction failed: %v", e.Err)
	}
	return fmt.Sprintf("extraction failed on page %d: %v", e.Page, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// WriteError reports a failure to persist an artifact.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// TimeoutError reports an operation that exceeded its time bound.
type TimeoutError struct {
	Operation string
	After     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Operation, e.After)
}

// ErrCancelled is returned when the caller cancels a conversion.
var ErrCancelled = errors.New("conversion cancelled")

// ErrorKind returns a stable label for err suitable for reports and the
// history log. It returns "" for nil and "internal" for unclassified errors.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var (
		invDoc  *InvalidDocumentError
		invCfg  *InvalidConfigurationError
		unsup   *UnsupportedFormatError
		missing *MissingDependencyError
		extract *ExtractionError
		write   *WriteError
		timeout *TimeoutError
		deleg   *DelegationError
	)
	switch {
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.As(err, &invDoc):
		return "invalid_document"
	case errors.As(err, &invCfg):
		return "invalid_configuration"
	case errors.As(err, &unsup):
		return "unsupported_format"
	case errors.As(err, &missing):
		return "missing_dependency"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &write):
		return "write_error"
	case errors.As(err, &extract):
		return "extraction_error"
	case errors.As(err, &deleg):
		return "delegation_error"
	}
	return "internal"
}
