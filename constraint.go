package formrig

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Op tags the variant of a Constraint.
type Op int

const (
	OpRequired Op = iota + 1
	OpMinLength
	OpMaxLength
	OpMin
	OpMax
	OpEmail
	OpPattern
	OpEmailDomain
	OpMaxFileSize
	OpFileType
	OpMinItems
	OpMaxItems
	OpRefine
)

var opNames = map[Op]string{
	OpRequired:    "required",
	OpMinLength:   "min_len",
	OpMaxLength:   "max_len",
	OpMin:         "min",
	OpMax:         "max",
	OpEmail:       "email",
	OpPattern:     "pattern",
	OpEmailDomain: "domain",
	OpMaxFileSize: "max_size",
	OpFileType:    "type",
	OpMinItems:    "min_items",
	OpMaxItems:    "max_items",
	OpRefine:      "refine",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

// Constraint is one declarative check. Which fields are meaningful depends on Op:
// N holds length, range, size and count bounds; Text holds the domain, pattern source or
// accepted content types; Pred holds the predicate of a refinement.
type Constraint struct {
	Op      Op
	N       float64
	Text    string
	Types   []string
	Pred    func(v any) bool
	Message string

	re  *regexp.Regexp
	err error // deferred construction error, reported by NewSchema
}

// WithMessage returns a copy of the constraint reporting msg on failure.
func (c Constraint) WithMessage(msg string) Constraint {
	c.Message = msg
	return c
}

// Required rejects empty strings, nil values, empty lists and empty file lists.
func Required() Constraint { return Constraint{Op: OpRequired} }

// MinLength bounds string length from below (in runes).
func MinLength(n int) Constraint { return Constraint{Op: OpMinLength, N: float64(n)} }

// MaxLength bounds string length from above (in runes).
func MaxLength(n int) Constraint { return Constraint{Op: OpMaxLength, N: float64(n)} }

// Min bounds a number from below (inclusive).
func Min(x float64) Constraint { return Constraint{Op: OpMin, N: x} }

// Max bounds a number from above (inclusive).
func Max(x float64) Constraint { return Constraint{Op: OpMax, N: x} }

// Email checks the email address shape.
func Email() Constraint { return Constraint{Op: OpEmail} }

// Pattern requires the string to match a regular expression.
func Pattern(expr string) Constraint {
	re, err := regexp.Compile(expr)
	return Constraint{Op: OpPattern, Text: expr, re: re, err: err}
}

// EmailDomain requires the email's domain to equal domain (case-insensitive).
func EmailDomain(domain string) Constraint {
	return Constraint{Op: OpEmailDomain, Text: strings.TrimPrefix(domain, "@")}
}

// MaxFileSize bounds the selected file's size in bytes.
func MaxFileSize(bytes int64) Constraint { return Constraint{Op: OpMaxFileSize, N: float64(bytes)} }

// FileType requires the file content type to start with one of the given prefixes
// (e.g., "image/" or "application/pdf").
func FileType(prefixes ...string) Constraint {
	return Constraint{Op: OpFileType, Types: prefixes}
}

// MinItems bounds the number of list records from below.
func MinItems(n int) Constraint { return Constraint{Op: OpMinItems, N: float64(n)} }

// MaxItems bounds the number of list records from above.
func MaxItems(n int) Constraint { return Constraint{Op: OpMaxItems, N: float64(n)} }

// Refine applies a custom predicate to the coerced value.
func Refine(pred func(v any) bool, msg string) Constraint {
	return Constraint{Op: OpRefine, Pred: pred, Message: msg}
}

// appliesTo reports whether the constraint makes sense for a field kind.
func (c Constraint) appliesTo(k Kind) bool {
	switch c.Op {
	case OpRequired, OpRefine:
		return true
	case OpMinLength, OpMaxLength, OpPattern:
		return k.isString()
	case OpEmail, OpEmailDomain:
		return k == KindText || k == KindEmail
	case OpMin, OpMax:
		return k == KindNumber
	case OpMaxFileSize, OpFileType:
		return k == KindFile
	case OpMinItems, OpMaxItems:
		return k == KindList
	default:
		return false
	}
}

// code returns the error code reported when the constraint fails.
func (c Constraint) code() string {
	switch c.Op {
	case OpRequired:
		return ErrCodeRequired
	case OpEmail, OpPattern:
		return ErrCodeFormatInvalid
	case OpMinLength, OpMaxLength, OpMin, OpMax, OpMinItems, OpMaxItems:
		return ErrCodeRangeViolation
	default:
		return ErrCodeRefinementFailed
	}
}

// message returns the configured or default failure message.
func (c Constraint) message() string {
	if c.Message != "" {
		return c.Message
	}

	switch c.Op {
	case OpRequired:
		return "field is required"
	case OpMinLength:
		return fmt.Sprintf("must be at least %s characters", formatNumber(c.N))
	case OpMaxLength:
		return fmt.Sprintf("must be at most %s characters", formatNumber(c.N))
	case OpMin:
		return fmt.Sprintf("must be at least %s", formatNumber(c.N))
	case OpMax:
		return fmt.Sprintf("must be at most %s", formatNumber(c.N))
	case OpEmail:
		return "invalid email format"
	case OpPattern:
		return fmt.Sprintf("must match pattern %q", c.Text)
	case OpEmailDomain:
		return fmt.Sprintf("email must be a %s address", c.Text)
	case OpMaxFileSize:
		return fmt.Sprintf("file must be at most %s bytes", formatNumber(c.N))
	case OpFileType:
		return fmt.Sprintf("file type must be one of: %s", strings.Join(c.Types, ", "))
	case OpMinItems:
		return fmt.Sprintf("must contain at least %s entries", formatNumber(c.N))
	case OpMaxItems:
		return fmt.Sprintf("must contain at most %s entries", formatNumber(c.N))
	default:
		return "value is invalid"
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
