package schemafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azhovan/formrig"
)

const signupYAML = `
fields:
  - name: avatar
    kind: file
    rules: max_size:5MB
    messages:
      max_size: file must be at most 5MB
  - name: name
    kind: text
    rules: required
    messages:
      required: name is required
    transforms: [trim, titlecase]
  - name: email
    kind: email
    rules: required,email,domain:rocketseat.com.br
    transforms: [lower]
  - name: password
    kind: password
    rules: min_len:6
    secret: true
  - name: techs
    kind: list
    rules: min_items:2
    messages:
      min_items: at least 2 technologies
    fields:
      - name: title
        kind: text
        rules: required
      - name: knowledge
        kind: number
        rules: min:1,max:100
        default: 1
`

func TestParse_YAML(t *testing.T) {
	schema, err := Parse([]byte(signupYAML), "yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"avatar", "name", "email", "password", "techs", "techs.*.title", "techs.*.knowledge",
	}, schema.Paths())
	assert.True(t, schema.Secret("password"))

	res := schema.Validate(formrig.Input{
		"avatar":   formrig.FileList{{Name: "me.png", Size: 10}},
		"name":     " ada lovelace ",
		"email":    "Ada@Rocketseat.com.br",
		"password": "hunter22",
		"techs":    []formrig.Record{{"title": "Go", "knowledge": "90"}, {"title": "Zig", "knowledge": 5}},
	})
	require.True(t, res.OK(), "unexpected errors: %v", res.Err)
	assert.Equal(t, "Ada Lovelace", res.Values["name"])
	assert.Equal(t, "ada@rocketseat.com.br", res.Values["email"])
}

func TestParse_CustomMessages(t *testing.T) {
	schema, err := Parse([]byte(signupYAML), "yaml")
	require.NoError(t, err)

	res := schema.Validate(formrig.Input{
		"avatar":   formrig.FileList{{Name: "big.png", Size: 6 << 20}},
		"email":    "ada@rocketseat.com.br",
		"password": "hunter22",
		"techs":    []formrig.Record{{"title": "Go", "knowledge": 1}},
	})
	require.False(t, res.OK())
	assert.Equal(t, map[string]string{
		"avatar": "file must be at most 5MB",
		"name":   "name is required",
		"techs":  "at least 2 technologies",
	}, res.Err.ByPath())
}

func TestParse_DefaultsFeedFieldArray(t *testing.T) {
	schema, err := Parse([]byte(signupYAML), "yaml")
	require.NoError(t, err)

	arr, err := schema.FieldArray("techs")
	require.NoError(t, err)
	i := arr.Append()

	v, ok := arr.Get(i, "knowledge")
	require.True(t, ok)
	assert.EqualValues(t, 1, v)
}

func TestParse_JSONAndTOML(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   string
	}{
		{
			name:   "json",
			format: "json",
			data:   `{"fields":[{"name":"code","kind":"text","rules":"required,pattern:^[A-Z]{2,3}$"}]}`,
		},
		{
			name:   "toml",
			format: "toml",
			data: `
[[fields]]
name = "code"
kind = "text"
rules = "required,pattern:^[A-Z]{2,3}$"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)

			assert.True(t, schema.Validate(formrig.Input{"code": "GO"}).OK())
			res := schema.Validate(formrig.Input{"code": "golang"})
			require.False(t, res.OK())
			assert.Equal(t, formrig.ErrCodeFormatInvalid, res.Err.FieldErrors[0].Code)
		})
	}
}

func TestParse_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "no fields", data: `fields: []`},
		{name: "missing fields key", data: `title: signup`},
		{name: "unknown kind", data: "fields:\n  - name: age\n    kind: integer"},
		{name: "unknown property", data: "fields:\n  - name: age\n    kind: number\n    required: true"},
		{name: "upper case name", data: "fields:\n  - name: Age\n    kind: number"},
		{name: "unknown transform", data: "fields:\n  - name: age\n    kind: text\n    transforms: [reverse]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "yaml")
			var serr *formrig.SchemaError
			require.ErrorAs(t, err, &serr)
			assert.NotEmpty(t, serr.Problems)
		})
	}
}

func TestParse_BuildErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "bad rule", data: "fields:\n  - name: age\n    kind: number\n    rules: between:1"},
		{name: "message without rule", data: "fields:\n  - name: age\n    kind: number\n    messages:\n      required: x"},
		{name: "fields on scalar", data: "fields:\n  - name: age\n    kind: number\n    fields:\n      - name: x\n        kind: text"},
		{name: "rule not applicable", data: "fields:\n  - name: age\n    kind: number\n    rules: email"},
		{name: "min above max", data: "fields:\n  - name: age\n    kind: number\n    rules: min:10,max:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "yaml")
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(signupYAML), 0644))

	schema, err := Load(path)
	require.NoError(t, err)
	_, ok := schema.Lookup("techs")
	assert.True(t, ok)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	txt := filepath.Join(dir, "schema.txt")
	require.NoError(t, os.WriteFile(txt, []byte(signupYAML), 0644))
	_, err = Load(txt)
	assert.Error(t, err)
}
