package formrig

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validValues(t *testing.T) (*Schema, Values) {
	t.Helper()
	s := testSchema(t)
	res := s.Validate(validInput())
	require.True(t, res.OK(), "unexpected errors: %v", res.Err)
	return s, res.Values
}

func TestDump_TextFormat(t *testing.T) {
	s, values := validValues(t)

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, s, values))

	want := strings.Join([]string{
		`avatar: "me.png"`,
		`name: "John Doe"`,
		`email: "john@rocketseat.com.br"`,
		`password: ***redacted***`,
		`techs.0.title: "Go"`,
		`techs.0.knowledge: 80`,
		`techs.1.title: "React"`,
		`techs.1.knowledge: 40`,
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestDump_WithSources(t *testing.T) {
	s, values := validValues(t)
	prov := newProvenance(map[string]string{
		"name":          "env:FORM_",
		"techs.1.title": "file:input.yaml",
	})

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, s, values, WithSources(prov)))

	out := buf.String()
	assert.Contains(t, out, `name: "John Doe" (source: env:FORM_)`)
	assert.Contains(t, out, `techs.1.title: "React" (source: file:input.yaml)`)
	assert.Contains(t, out, "email: \"john@rocketseat.com.br\"\n")
}

func TestDump_JSON(t *testing.T) {
	s, values := validValues(t)

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, s, values, AsJSON()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "***redacted***", got["password"])
	assert.Equal(t, "John Doe", got["name"])
	assert.Equal(t, map[string]any{"name": "me.png", "size": float64(2048), "type": "image/png"}, got["avatar"])
	assert.Equal(t, []any{
		map[string]any{"title": "Go", "knowledge": float64(80)},
		map[string]any{"title": "React", "knowledge": float64(40)},
	}, got["techs"])
	assert.NotContains(t, buf.String(), "secret1")
}

func TestDump_JSONIndent(t *testing.T) {
	s := MustSchema(Field("name", KindText))
	values := Values{"name": "x"}

	var compact bytes.Buffer
	require.NoError(t, Dump(&compact, s, values, AsJSON(), WithIndent("")))
	assert.Equal(t, "{\"name\":\"x\"}\n", compact.String())

	var tabbed bytes.Buffer
	require.NoError(t, Dump(&tabbed, s, values, AsJSON(), WithIndent("\t")))
	assert.Equal(t, "{\n\t\"name\": \"x\"\n}\n", tabbed.String())
}

func TestDump_SecretInRecords(t *testing.T) {
	s := MustSchema(List("accounts", []FieldSpec{
		Field("user", KindText),
		Field("token", KindPassword).AsSecret(),
	}))
	values := Values{"accounts": []Record{{"user": "ada", "token": "t0k3n"}}}

	var text bytes.Buffer
	require.NoError(t, Dump(&text, s, values))
	assert.Equal(t, "accounts.0.user: \"ada\"\naccounts.0.token: ***redacted***\n", text.String())

	var js bytes.Buffer
	require.NoError(t, Dump(&js, s, values, AsJSON()))
	assert.NotContains(t, js.String(), "t0k3n")
}

func TestDump_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Dump(&buf, nil, Values{}), ErrNilSchema)
	assert.Error(t, Dump(&buf, testSchema(t), nil))

	s, values := validValues(t)
	assert.Error(t, Dump(failingWriter{}, s, values))
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestDumpErrors(t *testing.T) {
	verr := &ValidationError{FieldErrors: []FieldError{
		{FieldPath: "name", Code: ErrCodeRequired, Message: "name is required"},
		{FieldPath: "techs", Code: ErrCodeRangeViolation, Message: "at least 2 technologies"},
	}}

	var text bytes.Buffer
	require.NoError(t, DumpErrors(&text, verr))
	assert.Equal(t, "name: name is required\ntechs: at least 2 technologies\n", text.String())

	var js bytes.Buffer
	require.NoError(t, DumpErrors(&js, verr, AsJSON()))
	var got []FieldError
	require.NoError(t, json.Unmarshal(js.Bytes(), &got))
	assert.Equal(t, verr.FieldErrors, got)

	var empty bytes.Buffer
	require.NoError(t, DumpErrors(&empty, nil))
	assert.Empty(t, empty.String())
}
