package formrig

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"

	"github.com/Azhovan/formrig/internal/normalize"
)

// FieldSpec describes one logical input of a form.
type FieldSpec struct {
	Name        string
	Kind        Kind
	Constraints []Constraint // Evaluated in order; the first failure wins
	Transforms  []Transform  // Applied in order after every constraint passed
	Default     any          // Initial value of appended list records
	Secret      bool         // Redacted in dumps and receipts
	Label       string       // Human-readable prompt text
	Fields      []FieldSpec  // Record schema of a list field
}

// Field creates a FieldSpec with the given constraints.
func Field(name string, kind Kind, constraints ...Constraint) FieldSpec {
	return FieldSpec{Name: name, Kind: kind, Constraints: constraints}
}

// List creates a list FieldSpec whose records are described by fields.
func List(name string, fields []FieldSpec, constraints ...Constraint) FieldSpec {
	return FieldSpec{Name: name, Kind: KindList, Constraints: constraints, Fields: fields}
}

// WithTransforms returns a copy of the field applying transforms after validation.
func (f FieldSpec) WithTransforms(transforms ...Transform) FieldSpec {
	f.Transforms = append(append([]Transform(nil), f.Transforms...), transforms...)
	return f
}

// WithDefault returns a copy of the field with a default record value.
func (f FieldSpec) WithDefault(v any) FieldSpec {
	f.Default = v
	return f
}

// WithLabel returns a copy of the field with a prompt label.
func (f FieldSpec) WithLabel(label string) FieldSpec {
	f.Label = label
	return f
}

// AsSecret returns a copy of the field marked as secret.
func (f FieldSpec) AsSecret() FieldSpec {
	f.Secret = true
	return f
}

// DisplayLabel returns the label, falling back to the field name.
func (f FieldSpec) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// zero returns the value a fresh list record starts with for this field.
func (f FieldSpec) zero() any {
	if f.Default != nil {
		return f.Default
	}
	switch f.Kind {
	case KindNumber:
		return float64(0)
	case KindList:
		return []Record{}
	case KindFile:
		return FileList{}
	default:
		return ""
	}
}

// Schema is an ordered, immutable set of field specifications.
// Build it once with NewSchema or MustSchema and share it freely.
type Schema struct {
	fields []FieldSpec
	index  map[string]int
	nested map[string]*Schema
}

// NewSchema validates field definitions and builds a Schema.
// Every misconfiguration is reported together in a *SchemaError.
func NewSchema(fields ...FieldSpec) (*Schema, error) {
	var problems []string
	s := buildSchema(fields, "", &problems)
	if len(problems) > 0 {
		return nil, &SchemaError{Problems: problems}
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on misconfiguration.
// Intended for package-level schema definitions.
func MustSchema(fields ...FieldSpec) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// buildSchema checks fields recursively, recording problems with their path.
func buildSchema(fields []FieldSpec, prefix string, problems *[]string) *Schema {
	s := &Schema{
		fields: make([]FieldSpec, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
		nested: make(map[string]*Schema),
	}

	if len(fields) == 0 {
		*problems = append(*problems, fmt.Sprintf("%sschema has no fields", pathPrefix(prefix)))
	}

	for _, f := range fields {
		path := normalize.ApplyPrefix(prefix, f.Name)

		if f.Name == "" {
			*problems = append(*problems, fmt.Sprintf("%sfield name is empty", pathPrefix(prefix)))
			continue
		}
		if strings.ContainsAny(f.Name, ". ") {
			*problems = append(*problems, fmt.Sprintf("%s: field name must not contain dots or spaces", path))
			continue
		}
		if f.Name != strings.ToLower(f.Name) || normalize.IsIndex(f.Name) {
			*problems = append(*problems, fmt.Sprintf("%s: field name must be lower case and not numeric", path))
			continue
		}
		if _, dup := s.index[f.Name]; dup {
			*problems = append(*problems, fmt.Sprintf("%s: duplicate field name", path))
			continue
		}
		if _, ok := kindNames[f.Kind]; !ok {
			*problems = append(*problems, fmt.Sprintf("%s: unknown kind %d", path, int(f.Kind)))
			continue
		}

		f.Constraints = checkConstraints(f, path, problems)
		checkTransforms(f, path, problems)
		checkDefault(f, path, problems)

		if f.Kind == KindList {
			s.nested[f.Name] = buildSchema(f.Fields, path+".*", problems)
		} else if len(f.Fields) > 0 {
			*problems = append(*problems, fmt.Sprintf("%s: only list fields may declare record fields", path))
		}

		// Copy slices so later caller mutations cannot reach the schema
		f.Transforms = append([]Transform(nil), f.Transforms...)
		f.Fields = append([]FieldSpec(nil), f.Fields...)

		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}

	return s
}

// checkConstraints reports misconfigured constraints and returns a copy of them with
// every pattern compiled.
func checkConstraints(f FieldSpec, path string, problems *[]string) []Constraint {
	out := append([]Constraint(nil), f.Constraints...)
	bounds := map[Op]float64{}

	for i, c := range out {
		if c.err != nil {
			*problems = append(*problems, fmt.Sprintf("%s: %s: %v", path, c.Op, c.err))
			continue
		}
		if !c.appliesTo(f.Kind) {
			*problems = append(*problems, fmt.Sprintf("%s: %s does not apply to %s fields", path, c.Op, f.Kind))
			continue
		}

		switch c.Op {
		case OpRefine:
			if c.Pred == nil {
				*problems = append(*problems, fmt.Sprintf("%s: refine has no predicate", path))
			}
		case OpMinLength, OpMaxLength, OpMinItems, OpMaxItems, OpMaxFileSize:
			if c.N < 0 {
				*problems = append(*problems, fmt.Sprintf("%s: %s must not be negative", path, c.Op))
			}
		case OpEmailDomain:
			if strings.TrimSpace(c.Text) == "" {
				*problems = append(*problems, fmt.Sprintf("%s: domain is empty", path))
			}
		case OpFileType:
			if len(c.Types) == 0 {
				*problems = append(*problems, fmt.Sprintf("%s: type lists no content types", path))
			}
		case OpPattern:
			if c.re == nil {
				re, err := regexp.Compile(c.Text)
				if err != nil {
					*problems = append(*problems, fmt.Sprintf("%s: %s: %v", path, c.Op, err))
					continue
				}
				out[i].re = re
			}
		}

		bounds[c.Op] = c.N
	}

	pairs := [][2]Op{{OpMinLength, OpMaxLength}, {OpMin, OpMax}, {OpMinItems, OpMaxItems}}
	for _, p := range pairs {
		lo, hasLo := bounds[p[0]]
		hi, hasHi := bounds[p[1]]
		if hasLo && hasHi && lo > hi {
			*problems = append(*problems, fmt.Sprintf("%s: %s %s exceeds %s %s", path, p[0], formatNumber(lo), p[1], formatNumber(hi)))
		}
	}
	return out
}

func checkTransforms(f FieldSpec, path string, problems *[]string) {
	if len(f.Transforms) == 0 {
		return
	}
	if !f.Kind.isString() {
		*problems = append(*problems, fmt.Sprintf("%s: transforms only apply to text fields", path))
		return
	}
	for _, t := range f.Transforms {
		if t.Apply == nil {
			*problems = append(*problems, fmt.Sprintf("%s: transform %q has no function", path, t.Name))
		}
	}
}

func checkDefault(f FieldSpec, path string, problems *[]string) {
	if f.Default == nil {
		return
	}
	switch {
	case f.Kind == KindNumber:
		if _, err := cast.ToFloat64E(f.Default); err != nil {
			*problems = append(*problems, fmt.Sprintf("%s: default %v is not a number", path, f.Default))
		}
	case f.Kind.isString():
		if _, ok := f.Default.(string); !ok {
			*problems = append(*problems, fmt.Sprintf("%s: default %v is not a string", path, f.Default))
		}
	default:
		*problems = append(*problems, fmt.Sprintf("%s: %s fields do not take defaults", path, f.Kind))
	}
}

func pathPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return prefix + ": "
}

// Fields returns the top-level field specifications in declaration order.
func (s *Schema) Fields() []FieldSpec {
	return append([]FieldSpec(nil), s.fields...)
}

// Lookup returns the specification of a top-level field.
func (s *Schema) Lookup(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// Records returns the record schema of a list field.
func (s *Schema) Records(name string) (*Schema, bool) {
	nested, ok := s.nested[name]
	return nested, ok
}

// Paths returns every field path template of the schema, with "*" standing in for
// list record indexes (e.g., "techs", "techs.*.title").
func (s *Schema) Paths() []string {
	var paths []string
	s.collectPaths("", &paths)
	return paths
}

func (s *Schema) collectPaths(prefix string, paths *[]string) {
	for _, f := range s.fields {
		path := normalize.ApplyPrefix(prefix, f.Name)
		*paths = append(*paths, path)
		if nested, ok := s.nested[f.Name]; ok {
			nested.collectPaths(path+".*", paths)
		}
	}
}

// Secret reports whether the field at a concrete path (e.g., "techs.0.title") is secret.
func (s *Schema) Secret(path string) bool {
	f, ok := s.resolve(strings.Split(path, "."))
	return ok && f.Secret
}

// resolve walks path segments, skipping record indexes, to a field spec.
func (s *Schema) resolve(segments []string) (FieldSpec, bool) {
	if len(segments) == 0 {
		return FieldSpec{}, false
	}
	f, ok := s.Lookup(segments[0])
	if !ok {
		return FieldSpec{}, false
	}
	if len(segments) == 1 {
		return f, true
	}
	nested, ok := s.nested[f.Name]
	if !ok || len(segments) < 3 {
		return FieldSpec{}, false
	}
	return nested.resolve(segments[2:])
}
