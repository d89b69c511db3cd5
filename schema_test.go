package formrig

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchema_Misconfiguration(t *testing.T) {
	tests := []struct {
		name    string
		fields  []FieldSpec
		problem string
	}{
		{
			name:    "no fields",
			fields:  nil,
			problem: "schema has no fields",
		},
		{
			name:    "empty name",
			fields:  []FieldSpec{Field("", KindText)},
			problem: "field name is empty",
		},
		{
			name:    "dotted name",
			fields:  []FieldSpec{Field("user.name", KindText)},
			problem: "must not contain dots or spaces",
		},
		{
			name:    "upper case name",
			fields:  []FieldSpec{Field("Name", KindText)},
			problem: "must be lower case",
		},
		{
			name:    "numeric name",
			fields:  []FieldSpec{Field("0", KindText)},
			problem: "must be lower case and not numeric",
		},
		{
			name:    "duplicate name",
			fields:  []FieldSpec{Field("name", KindText), Field("name", KindEmail)},
			problem: "name: duplicate field name",
		},
		{
			name:    "unknown kind",
			fields:  []FieldSpec{Field("name", Kind(99))},
			problem: "unknown kind 99",
		},
		{
			name:    "constraint on wrong kind",
			fields:  []FieldSpec{Field("age", KindNumber, MinLength(2))},
			problem: "age: min_len does not apply to number fields",
		},
		{
			name:    "invalid pattern",
			fields:  []FieldSpec{Field("code", KindText, Pattern("[a-"))},
			problem: "code: pattern:",
		},
		{
			name:    "invalid literal pattern",
			fields:  []FieldSpec{Field("code", KindText, Constraint{Op: OpPattern, Text: "[a-"})},
			problem: "code: pattern: error parsing regexp",
		},
		{
			name:    "min above max",
			fields:  []FieldSpec{Field("age", KindNumber, Min(10), Max(1))},
			problem: "age: min 10 exceeds max 1",
		},
		{
			name:    "negative length",
			fields:  []FieldSpec{Field("name", KindText, MinLength(-1))},
			problem: "min_len must not be negative",
		},
		{
			name:    "empty domain",
			fields:  []FieldSpec{Field("email", KindEmail, EmailDomain(" "))},
			problem: "domain is empty",
		},
		{
			name:    "refine without predicate",
			fields:  []FieldSpec{Field("name", KindText, Constraint{Op: OpRefine})},
			problem: "refine has no predicate",
		},
		{
			name:    "transform on number",
			fields:  []FieldSpec{Field("age", KindNumber).WithTransforms(Trim)},
			problem: "transforms only apply to text fields",
		},
		{
			name:    "bad default",
			fields:  []FieldSpec{Field("age", KindNumber).WithDefault("many")},
			problem: "default many is not a number",
		},
		{
			name:    "record fields on scalar",
			fields:  []FieldSpec{{Name: "name", Kind: KindText, Fields: []FieldSpec{Field("x", KindText)}}},
			problem: "only list fields may declare record fields",
		},
		{
			name:    "list without record fields",
			fields:  []FieldSpec{List("techs", nil)},
			problem: "techs.*: schema has no fields",
		},
		{
			name:    "nested problem carries path",
			fields:  []FieldSpec{List("techs", []FieldSpec{Field("level", KindNumber, Email())})},
			problem: "techs.*.level: email does not apply to number fields",
		},
		{
			name:    "items bounds reversed",
			fields:  []FieldSpec{List("techs", []FieldSpec{Field("title", KindText)}, MinItems(3), MaxItems(1))},
			problem: "techs: min_items 3 exceeds max_items 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSchema(tt.fields...)
			assert.Nil(t, s)

			var serr *SchemaError
			require.True(t, errors.As(err, &serr), "expected *SchemaError, got %v", err)
			assert.True(t, containsProblem(serr.Problems, tt.problem),
				"problems %q do not mention %q", serr.Problems, tt.problem)
		})
	}
}

func containsProblem(problems []string, want string) bool {
	for _, p := range problems {
		if strings.Contains(p, want) {
			return true
		}
	}
	return false
}

func TestNewSchema_ReportsAllProblems(t *testing.T) {
	_, err := NewSchema(
		Field("", KindText),
		Field("age", KindNumber, MinLength(1)),
	)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Len(t, serr.Problems, 2)
	assert.Contains(t, err.Error(), "2 problems")
}

func TestMustSchema_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustSchema(Field("age", KindNumber, Email()))
	})
}

func TestSchema_Accessors(t *testing.T) {
	s := testSchema(t)

	names := make([]string, 0)
	for _, f := range s.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"avatar", "name", "email", "password", "techs"}, names)

	assert.Equal(t, []string{
		"avatar", "name", "email", "password", "techs", "techs.*.title", "techs.*.knowledge",
	}, s.Paths())

	f, ok := s.Lookup("email")
	require.True(t, ok)
	assert.Equal(t, KindEmail, f.Kind)

	_, ok = s.Lookup("missing")
	assert.False(t, ok)

	nested, ok := s.Records("techs")
	require.True(t, ok)
	_, ok = nested.Lookup("knowledge")
	assert.True(t, ok)

	assert.True(t, s.Secret("password"))
	assert.False(t, s.Secret("name"))
	assert.False(t, s.Secret("techs.0.title"))
	assert.False(t, s.Secret("techs.title"))
}

func TestSchema_IsImmutable(t *testing.T) {
	constraints := []Constraint{Required()}
	s := MustSchema(Field("name", KindText, constraints...))

	constraints[0] = MinLength(100)

	res := s.Validate(Input{"name": "x"})
	assert.True(t, res.OK(), "caller mutation leaked into the schema")
}

func TestSchema_CompilesLiteralPattern(t *testing.T) {
	s, err := NewSchema(Field("code", KindText, Constraint{Op: OpPattern, Text: "^[a-z]+$", Message: "letters only"}))
	require.NoError(t, err)

	res := s.Validate(Input{"code": "abc"})
	assert.True(t, res.OK())

	res = s.Validate(Input{"code": "ABC1"})
	require.False(t, res.OK())
	require.Len(t, res.Err.FieldErrors, 1)
	assert.Equal(t, "code", res.Err.FieldErrors[0].FieldPath)
	assert.Equal(t, "letters only", res.Err.FieldErrors[0].Message)
}

func TestFieldSpec_Builders(t *testing.T) {
	base := Field("name", KindText, Required())
	labeled := base.WithLabel("Full name").WithTransforms(Trim).AsSecret()

	assert.Equal(t, "name", base.DisplayLabel())
	assert.Empty(t, base.Transforms)
	assert.False(t, base.Secret)

	assert.Equal(t, "Full name", labeled.DisplayLabel())
	assert.Len(t, labeled.Transforms, 1)
	assert.True(t, labeled.Secret)
}

func TestKind(t *testing.T) {
	for _, name := range []string{"text", "email", "password", "number", "file", "list"} {
		k, ok := ParseKind(name)
		require.True(t, ok, name)
		assert.Equal(t, name, k.String())
	}

	_, ok := ParseKind("date")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Kind(42).String())
}
