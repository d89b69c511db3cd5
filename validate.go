package formrig

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/Azhovan/formrig/internal/normalize"
)

// emailValidator is safe for concurrent use; it only runs the "email" tag.
var emailValidator = validator.New()

// Result is the outcome of one validation pass. Exactly one of Values and Err is set.
type Result struct {
	Values Values
	Err    *ValidationError
}

// OK reports whether every field passed.
func (r Result) OK() bool {
	return r.Err == nil
}

// Error returns Err as an error, or nil when validation passed.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

// Validate applies the schema to raw input and returns either normalized values or one
// message per failing field path. It has no side effects and never panics on bad input;
// a nil schema is a programming error and panics with ErrNilSchema.
func Validate(schema *Schema, input Input) Result {
	if schema == nil {
		panic(ErrNilSchema)
	}

	values, fieldErrors := schema.validateRecord(input, "")
	if len(fieldErrors) > 0 {
		return Result{Err: &ValidationError{FieldErrors: fieldErrors}}
	}
	return Result{Values: Values(values)}
}

// Validate is shorthand for Validate(s, input).
func (s *Schema) Validate(input Input) Result {
	return Validate(s, input)
}

// validateRecord validates every field of the schema in declaration order.
// A failing field never stops the remaining fields from being checked.
func (s *Schema) validateRecord(raw map[string]any, prefix string) (map[string]any, []FieldError) {
	out := make(map[string]any, len(s.fields))
	var fieldErrors []FieldError

	for _, f := range s.fields {
		path := normalize.ApplyPrefix(prefix, f.Name)

		var (
			value any
			errs  []FieldError
		)
		if f.Kind == KindList {
			value, errs = s.validateList(f, raw[f.Name], path)
		} else {
			value, errs = validateField(f, raw[f.Name], path)
		}

		if len(errs) > 0 {
			fieldErrors = append(fieldErrors, errs...)
			continue
		}
		out[f.Name] = value
	}

	return out, fieldErrors
}

// validateField runs the required check, coercion, constraints and transforms of a
// single non-list field. It reports at most one error.
func validateField(f FieldSpec, raw any, path string) (any, []FieldError) {
	// Required check first; failure skips everything else for this field
	if req, ok := requiredConstraint(f); ok && isEmpty(raw) {
		return nil, []FieldError{failure(req, path)}
	}

	value, fe := coerce(f.Kind, raw, path)
	if fe != nil {
		return nil, []FieldError{*fe}
	}

	for _, c := range f.Constraints {
		if c.Op == OpRequired {
			continue
		}
		if !check(c, value) {
			return nil, []FieldError{failure(c, path)}
		}
	}

	// Transforms only ever see values that passed every check
	if s, ok := value.(string); ok {
		for _, t := range f.Transforms {
			s = t.Apply(s)
		}
		value = s
	}

	return value, nil
}

// validateList validates each record independently, then the list-level constraints.
// A list-level failure is reported in addition to record failures.
func (s *Schema) validateList(f FieldSpec, raw any, path string) (any, []FieldError) {
	records, ok := listRecords(raw)
	if !ok {
		return nil, []FieldError{{
			FieldPath: path,
			Code:      ErrCodeFormatInvalid,
			Message:   "expected a list of records",
		}}
	}

	if req, ok := requiredConstraint(f); ok && len(records) == 0 {
		return nil, []FieldError{failure(req, path)}
	}

	nested := s.nested[f.Name]
	out := make([]Record, 0, len(records))
	var fieldErrors []FieldError

	for i, rec := range records {
		recordPath := normalize.IndexPath(path, i)
		if rec == nil {
			fieldErrors = append(fieldErrors, FieldError{
				FieldPath: recordPath,
				Code:      ErrCodeFormatInvalid,
				Message:   "expected a record",
			})
			continue
		}

		values, errs := nested.validateRecord(rec, recordPath)
		if len(errs) > 0 {
			fieldErrors = append(fieldErrors, errs...)
			continue
		}
		out = append(out, Record(values))
	}

	for _, c := range f.Constraints {
		if c.Op == OpRequired {
			continue
		}
		if !checkList(c, records) {
			fieldErrors = append(fieldErrors, failure(c, path))
			break
		}
	}

	if len(fieldErrors) > 0 {
		return nil, fieldErrors
	}
	return out, nil
}

func requiredConstraint(f FieldSpec) (Constraint, bool) {
	for _, c := range f.Constraints {
		if c.Op == OpRequired {
			return c, true
		}
	}
	return Constraint{}, false
}

func failure(c Constraint, path string) FieldError {
	return FieldError{
		FieldPath: path,
		Code:      c.code(),
		Message:   c.message(),
	}
}

// isEmpty reports whether a raw value counts as missing for the required check.
func isEmpty(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case FileList:
		return len(v) == 0
	case []FileRef:
		return len(v) == 0
	case FileRef:
		return v == FileRef{}
	case *FileRef:
		return v == nil
	case []Record:
		return len(v) == 0
	case []map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

// coerce converts a raw value into the typed representation of the kind.
func coerce(kind Kind, raw any, path string) (any, *FieldError) {
	switch kind {
	case KindNumber:
		return coerceNumber(raw, path)
	case KindFile:
		return coerceFile(raw, path)
	default:
		return coerceString(raw, path)
	}
}

func coerceString(raw any, path string) (any, *FieldError) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		s, err := cast.ToStringE(v)
		if err == nil {
			return s, nil
		}
	}
	return nil, &FieldError{FieldPath: path, Code: ErrCodeFormatInvalid, Message: "expected text"}
}

func coerceNumber(raw any, path string) (any, *FieldError) {
	invalid := &FieldError{FieldPath: path, Code: ErrCodeFormatInvalid, Message: "expected a number"}

	switch v := raw.(type) {
	case nil, bool:
		return nil, invalid
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			// Blank numeric inputs coerce to 0 and are left to the range checks
			return float64(0), nil
		}
		raw = trimmed
	}

	n, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, invalid
	}
	return n, nil
}

func coerceFile(raw any, path string) (any, *FieldError) {
	none := &FieldError{FieldPath: path, Code: ErrCodeNoFileSelected, Message: "no file selected"}

	switch v := raw.(type) {
	case nil:
		return nil, none
	case FileList:
		if len(v) == 0 {
			return nil, none
		}
		return v[0], nil
	case []FileRef:
		if len(v) == 0 {
			return nil, none
		}
		return v[0], nil
	case FileRef:
		if v == (FileRef{}) {
			return nil, none
		}
		return v, nil
	case *FileRef:
		if v == nil {
			return nil, none
		}
		return *v, nil
	}
	return nil, &FieldError{FieldPath: path, Code: ErrCodeFormatInvalid, Message: "expected a file"}
}

// check evaluates one constraint against a coerced value.
func check(c Constraint, value any) bool {
	switch c.Op {
	case OpMinLength:
		return float64(utf8.RuneCountInString(value.(string))) >= c.N
	case OpMaxLength:
		return float64(utf8.RuneCountInString(value.(string))) <= c.N
	case OpMin:
		return value.(float64) >= c.N
	case OpMax:
		return value.(float64) <= c.N
	case OpEmail:
		return emailValidator.Var(value.(string), "email") == nil
	case OpPattern:
		return c.re.MatchString(value.(string))
	case OpEmailDomain:
		s := value.(string)
		at := strings.LastIndex(s, "@")
		return at >= 0 && strings.EqualFold(s[at+1:], c.Text)
	case OpMaxFileSize:
		return float64(value.(FileRef).Size) <= c.N
	case OpFileType:
		contentType := strings.ToLower(value.(FileRef).ContentType)
		for _, prefix := range c.Types {
			if strings.HasPrefix(contentType, strings.ToLower(prefix)) {
				return true
			}
		}
		return false
	case OpRefine:
		return c.Pred(value)
	default:
		panic(fmt.Sprintf("formrig: constraint %s reached the value interpreter", c.Op))
	}
}

// checkList evaluates a list-level constraint against the raw records.
func checkList(c Constraint, records []Record) bool {
	switch c.Op {
	case OpMinItems:
		return float64(len(records)) >= c.N
	case OpMaxItems:
		return float64(len(records)) <= c.N
	case OpRefine:
		return c.Pred(records)
	default:
		panic(fmt.Sprintf("formrig: constraint %s reached the list interpreter", c.Op))
	}
}

// listRecords normalizes the accepted raw list shapes. Entries that are not records
// come back as nil so they can be reported at their own path.
func listRecords(raw any) ([]Record, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, true
	case []Record:
		return v, true
	case []map[string]any:
		out := make([]Record, len(v))
		for i, m := range v {
			out[i] = Record(m)
		}
		return out, true
	case []any:
		out := make([]Record, len(v))
		for i, item := range v {
			switch m := item.(type) {
			case Record:
				out[i] = m
			case map[string]any:
				out[i] = Record(m)
			}
		}
		return out, true
	default:
		return nil, false
	}
}
