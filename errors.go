package formrig

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for validation failures.
const (
	ErrCodeRequired         = "required"
	ErrCodeFormatInvalid    = "format_invalid"
	ErrCodeRangeViolation   = "range_violation"
	ErrCodeRefinementFailed = "refinement_failed"
	ErrCodeNoFileSelected   = "no_file_selected"
	ErrCodeUnknownKey       = "unknown_key"
)

var (
	// ErrNilSchema is returned when an operation receives a nil schema.
	ErrNilSchema = errors.New("formrig: schema is nil")

	// ErrUnknownField is returned when a field name is not part of the schema.
	ErrUnknownField = errors.New("formrig: unknown field")

	// ErrNotList is returned when a list operation targets a non-list field.
	ErrNotList = errors.New("formrig: field is not a list")

	// ErrIndexOutOfRange is returned when a list record index does not exist.
	ErrIndexOutOfRange = errors.New("formrig: record index out of range")
)

// ValidationError aggregates field-level validation failures.
type ValidationError struct {
	FieldErrors []FieldError
}

// Error formats validation errors as a multi-line message.
func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return "form validation failed: no errors"
	}

	var b strings.Builder
	if len(e.FieldErrors) == 1 {
		b.WriteString("form validation failed: 1 error\n")
	} else {
		fmt.Fprintf(&b, "form validation failed: %d errors\n", len(e.FieldErrors))
	}

	for _, fe := range e.FieldErrors {
		fmt.Fprintf(&b, "  - %s: %s (%s)\n", fe.FieldPath, fe.Code, fe.Message)
	}

	return strings.TrimRight(b.String(), "\n")
}

// ByPath returns the message of each failing field path.
func (e *ValidationError) ByPath() map[string]string {
	out := make(map[string]string, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		out[fe.FieldPath] = fe.Message
	}
	return out
}

// Has reports whether the field path failed validation.
func (e *ValidationError) Has(path string) bool {
	_, ok := e.Lookup(path)
	return ok
}

// Lookup returns the failure recorded for a field path.
func (e *ValidationError) Lookup(path string) (FieldError, bool) {
	for _, fe := range e.FieldErrors {
		if fe.FieldPath == path {
			return fe, true
		}
	}
	return FieldError{}, false
}

// FieldError represents a single field validation failure.
type FieldError struct {
	FieldPath string `json:"path"`    // Dot notation (e.g., "techs.0.title")
	Code      string `json:"code"`    // Error code (e.g., "required", "range_violation")
	Message   string `json:"message"` // Human-readable description
}

// SchemaError reports a misconfigured schema. It is raised when the schema is built,
// never while validating input.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 1 {
		return "formrig: invalid schema: " + e.Problems[0]
	}
	return fmt.Sprintf("formrig: invalid schema: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}
