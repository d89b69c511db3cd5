// Package schemafile builds form schemas from YAML, JSON or TOML documents.
//
// A document lists fields in order:
//
//	fields:
//	  - name: email
//	    kind: email
//	    rules: required,email,domain:example.com
//	    messages:
//	      domain: email must be an example.com address
//	    transforms: [trim, lower]
//	  - name: techs
//	    kind: list
//	    rules: min_items:2
//	    fields:
//	      - name: title
//	        kind: text
//	        rules: required
//
// Documents are checked against an embedded JSON Schema before decoding, so shape
// problems are reported with their document location.
package schemafile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Azhovan/formrig"
	"github.com/Azhovan/formrig/sourcefile"
)

//go:embed meta.json
var metaSchema []byte

const metaSchemaURL = "https://formrig.dev/schemafile.json"

// Document is the decoded form of a schema file.
type Document struct {
	Fields []FieldDef `mapstructure:"fields"`
}

// FieldDef describes one field of a schema file.
type FieldDef struct {
	Name       string            `mapstructure:"name"`
	Kind       string            `mapstructure:"kind"`
	Rules      string            `mapstructure:"rules"`
	Messages   map[string]string `mapstructure:"messages"`
	Transforms []string          `mapstructure:"transforms"`
	Label      string            `mapstructure:"label"`
	Secret     bool              `mapstructure:"secret"`
	Default    any               `mapstructure:"default"`
	Fields     []FieldDef        `mapstructure:"fields"`
}

var compileMeta = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(metaSchema))
	if err != nil {
		return nil, fmt.Errorf("parse meta schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(metaSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add meta schema: %w", err)
	}
	return compiler.Compile(metaSchemaURL)
})

// Load reads a schema file, inferring its format from the extension.
func Load(path string) (*formrig.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	format := sourcefile.InferFormat(path)
	if format == "" {
		return nil, fmt.Errorf("schema file %s: unknown format (use .yaml, .json or .toml)", path)
	}

	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}
	return s, nil
}

// Parse builds a schema from a document in the given format ("yaml", "json", "toml").
func Parse(data []byte, format string) (*formrig.Schema, error) {
	raw, err := sourcefile.Decode(data, format)
	if err != nil {
		return nil, err
	}

	if err := checkShape(raw); err != nil {
		return nil, err
	}

	var doc Document
	if err := mapstructure.Decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode schema document: %w", err)
	}

	return doc.Schema()
}

// Schema converts the document into a *formrig.Schema.
func (d Document) Schema() (*formrig.Schema, error) {
	specs, err := buildFields(d.Fields, "")
	if err != nil {
		return nil, err
	}
	return formrig.NewSchema(specs...)
}

func buildFields(defs []FieldDef, prefix string) ([]formrig.FieldSpec, error) {
	specs := make([]formrig.FieldSpec, 0, len(defs))
	for _, def := range defs {
		path := def.Name
		if prefix != "" {
			path = prefix + ".*." + def.Name
		}

		spec, err := buildField(def, path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func buildField(def FieldDef, path string) (formrig.FieldSpec, error) {
	kind, ok := formrig.ParseKind(def.Kind)
	if !ok {
		return formrig.FieldSpec{}, fmt.Errorf("%s: unknown kind %q", path, def.Kind)
	}

	constraints, err := formrig.ParseRules(def.Rules)
	if err != nil {
		return formrig.FieldSpec{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := applyMessages(constraints, def.Messages); err != nil {
		return formrig.FieldSpec{}, fmt.Errorf("%s: %w", path, err)
	}

	var spec formrig.FieldSpec
	if kind == formrig.KindList {
		nested, err := buildFields(def.Fields, path)
		if err != nil {
			return formrig.FieldSpec{}, err
		}
		spec = formrig.List(def.Name, nested, constraints...)
	} else {
		if len(def.Fields) > 0 {
			return formrig.FieldSpec{}, fmt.Errorf("%s: only list fields may declare fields", path)
		}
		spec = formrig.Field(def.Name, kind, constraints...)
	}

	for _, name := range def.Transforms {
		t, ok := formrig.TransformByName(name)
		if !ok {
			return formrig.FieldSpec{}, fmt.Errorf("%s: unknown transform %q", path, name)
		}
		spec = spec.WithTransforms(t)
	}

	if def.Label != "" {
		spec = spec.WithLabel(def.Label)
	}
	if def.Secret {
		spec = spec.AsSecret()
	}
	if def.Default != nil {
		spec = spec.WithDefault(def.Default)
	}

	return spec, nil
}

// applyMessages sets custom failure messages keyed by rule name (e.g., "min_len").
func applyMessages(constraints []formrig.Constraint, messages map[string]string) error {
	for rule, msg := range messages {
		found := false
		for i := range constraints {
			if constraints[i].Op.String() == rule {
				constraints[i] = constraints[i].WithMessage(msg)
				found = true
			}
		}
		if !found {
			return fmt.Errorf("message for %q has no matching rule", rule)
		}
	}
	return nil
}

var printer = message.NewPrinter(language.English)

// checkShape validates the raw document against the embedded JSON Schema.
func checkShape(raw map[string]any) error {
	meta, err := compileMeta()
	if err != nil {
		return err
	}

	// Round-trip through JSON so YAML and TOML values use JSON types
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode schema document: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("encode schema document: %w", err)
	}

	err = meta.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}

	seen := make(map[string]bool)
	collectProblems(verr, seen)
	if len(seen) == 0 {
		return fmt.Errorf("invalid schema document: %w", err)
	}
	problems := make([]string, 0, len(seen))
	for p := range seen {
		problems = append(problems, p)
	}
	sort.Strings(problems)
	return &formrig.SchemaError{Problems: problems}
}

// collectProblems gathers leaf errors as "location: message" strings.
func collectProblems(err *jsonschema.ValidationError, seen map[string]bool) {
	if err.ErrorKind != nil && len(err.Causes) == 0 {
		msg := err.ErrorKind.LocalizedString(printer)
		if !strings.HasPrefix(msg, "$ref ") && !strings.HasPrefix(msg, "doesn't validate with") {
			location := "/" + strings.Join(err.InstanceLocation, "/")
			seen[location+": "+msg] = true
		}
	}
	for _, cause := range err.Causes {
		collectProblems(cause, seen)
	}
}
