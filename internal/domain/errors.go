package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures for display and HTTP mapping
type ErrorKind string

const (
	KindDocumentRead       ErrorKind = "DocumentReadError"
	KindProcessingTimeout  ErrorKind = "DocumentProcessingTimeout"
	KindExtractionCall     ErrorKind = "ExtractionCallError"
	KindExtractionParse    ErrorKind = "ExtractionParseError"
	KindSchemaViolation    ErrorKind = "SchemaViolation"
	KindIndexOutOfRange    ErrorKind = "IndexOutOfRange"
	KindVersionConflict    ErrorKind = "VersionConflict"
	KindInvalidReviewInput ErrorKind = "InvalidReviewInput"
)

// ErrBusy is returned when an extraction is already running for the session
var ErrBusy = errors.New("an extraction is already in progress")

// Error is a classified pipeline error
type Error struct {
	Kind    ErrorKind
	Message string
	Raw     string // undecoded model output, set for parse and schema errors
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a classified error
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first classified error in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// RawOf returns the diagnostic payload attached to err, if any
func RawOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Raw
	}
	return ""
}

// SchemaViolation describes one finding element that broke the data contract
type SchemaViolation struct {
	Index int    `json:"index"`
	Field string `json:"field"`
	Value string `json:"value,omitempty"`
	Cause string `json:"cause"`
}

func (v SchemaViolation) String() string {
	if v.Value != "" {
		return fmt.Sprintf("element %d: %s %q: %s", v.Index, v.Field, v.Value, v.Cause)
	}
	return fmt.Sprintf("element %d: %s: %s", v.Index, v.Field, v.Cause)
}

// ViolationError wraps a SchemaViolation as a classified error
func ViolationError(v SchemaViolation, raw string) *Error {
	return &Error{Kind: KindSchemaViolation, Message: v.String(), Raw: raw}
}
