package formrig

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Azhovan/formrig/internal/normalize"
)

const redacted = "***redacted***"

// DumpOption configures dump behavior using the functional options pattern.
type DumpOption func(*dumpConfig)

// dumpConfig holds options for Dump and DumpErrors.
type dumpConfig struct {
	provenance *Provenance // Source attribution for each field
	asJSON     bool        // Output as JSON instead of text format
	indent     string      // Indentation for JSON output (default: "  ")
}

// WithSources includes source attribution from a Collector's provenance in text output.
func WithSources(p *Provenance) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.provenance = p
	}
}

// AsJSON outputs as JSON instead of text format.
func AsJSON() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.asJSON = true
	}
}

// WithIndent sets the indentation for JSON output.
// Default is two spaces ("  ").
func WithIndent(indent string) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.indent = indent
	}
}

func newDumpConfig(opts []DumpOption) dumpConfig {
	config := dumpConfig{
		indent: "  ", // Default indent
	}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// Dump writes normalized values in schema order.
// Secret fields are automatically redacted as "***redacted***"; files print their name.
// Returns an error if writing to the writer fails.
func Dump(w io.Writer, schema *Schema, values Values, opts ...DumpOption) error {
	if schema == nil {
		return ErrNilSchema
	}
	if values == nil {
		return fmt.Errorf("values are nil")
	}

	config := newDumpConfig(opts)
	if config.asJSON {
		return writeJSON(w, buildJSONStructure(schema, values), config)
	}

	for _, field := range collectFields(schema, values, "") {
		line := fmt.Sprintf("%s: %s", field.path, field.displayValue)
		if source, ok := config.provenance.Lookup(field.path); ok {
			line += fmt.Sprintf(" (source: %s)", source)
		}
		line += "\n"

		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
	}

	return nil
}

// DumpErrors writes one "path: message" line per failing field path, or a JSON array
// of field errors with AsJSON.
func DumpErrors(w io.Writer, verr *ValidationError, opts ...DumpOption) error {
	if verr == nil {
		return nil
	}

	config := newDumpConfig(opts)
	if config.asJSON {
		return writeJSON(w, verr.FieldErrors, config)
	}

	for _, fe := range verr.FieldErrors {
		if _, err := fmt.Fprintf(w, "%s: %s\n", fe.FieldPath, fe.Message); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any, config dumpConfig) error {
	var data []byte
	var err error
	if config.indent != "" {
		data, err = json.MarshalIndent(v, "", config.indent)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	// Add newline for better formatting
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	return nil
}

// fieldData holds information about a single field for dumping.
type fieldData struct {
	path         string // Dot-separated field path (e.g., "techs.0.title")
	displayValue string // Value to display (redacted if secret)
}

// collectFields walks the schema and collects display data for present values.
func collectFields(schema *Schema, values map[string]any, prefix string) []fieldData {
	var fields []fieldData

	for _, f := range schema.fields {
		path := normalize.ApplyPrefix(prefix, f.Name)
		value, ok := values[f.Name]
		if !ok {
			continue
		}

		if f.Kind == KindList {
			records, _ := value.([]Record)
			nested := schema.nested[f.Name]
			for i, rec := range records {
				fields = append(fields, collectFields(nested, rec, normalize.IndexPath(path, i))...)
			}
			continue
		}

		fields = append(fields, fieldData{path: path, displayValue: formatValue(f, value)})
	}

	return fields
}

// formatValue formats a field value as a string for text output, redacting secrets.
func formatValue(f FieldSpec, v any) string {
	if f.Secret {
		return redacted
	}

	switch value := v.(type) {
	case string:
		return strconv.Quote(value)
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case FileRef:
		return strconv.Quote(value.Name)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%v", value)
	}
}

// buildJSONStructure builds a nested map for JSON output with secrets redacted.
func buildJSONStructure(schema *Schema, values map[string]any) map[string]any {
	result := make(map[string]any, len(values))

	for _, f := range schema.fields {
		value, ok := values[f.Name]
		if !ok {
			continue
		}

		switch {
		case f.Secret:
			result[f.Name] = redacted
		case f.Kind == KindList:
			records, _ := value.([]Record)
			nested := schema.nested[f.Name]
			list := make([]map[string]any, 0, len(records))
			for _, rec := range records {
				list = append(list, buildJSONStructure(nested, rec))
			}
			result[f.Name] = list
		default:
			result[f.Name] = value
		}
	}

	return result
}
