package sourcefile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Azhovan/formrig"
	"github.com/Azhovan/formrig/internal/normalize"
)

// Options configures file source behavior.
type Options struct {
	// Format: "yaml", "json", or "toml". Auto-detected from extension if empty.
	Format string

	// Required: if true, missing files cause an error. Default: false (returns empty map).
	Required bool
}

type fileSource struct {
	path string
	opts Options
}

// New creates a file-based input source.
func New(path string, opts Options) formrig.Source {
	return &fileSource{
		path: path,
		opts: opts,
	}
}

// Load reads and parses the file, returning flattened input.
func (f *fileSource) Load(ctx context.Context) (map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			if f.opts.Required {
				return nil, fmt.Errorf("required input file not found: %s: %w", f.path, err)
			}
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("read input file %s: %w", f.path, err)
	}

	format := f.opts.Format
	if format == "" {
		format = InferFormat(f.path)
	}

	raw, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}

	// Flatten nested structures to dot-separated keys
	flattened := make(map[string]any)
	flattenValue("", raw, flattened)

	return flattened, nil
}

// Name returns a human-readable identifier for this source.
func (f *fileSource) Name() string {
	return "file:" + filepath.Base(f.path)
}

// Decode parses a YAML, JSON or TOML document into a generic map.
func Decode(data []byte, format string) (map[string]any, error) {
	var raw map[string]any
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported file format: %q (supported: yaml, json, toml)", format)
	}

	if raw == nil {
		raw = make(map[string]any)
	}
	return raw, nil
}

// flattenValue recursively flattens nested maps and lists of maps to dot-separated keys.
// Lists of scalars are preserved as-is.
func flattenValue(prefix string, value any, result map[string]any) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			flattenValue(normalize.ApplyPrefix(prefix, key), val, result)
		}
	case map[any]any:
		for key, val := range v {
			keyStr, ok := key.(string)
			if !ok {
				continue
			}
			flattenValue(normalize.ApplyPrefix(prefix, keyStr), val, result)
		}
	case []map[string]any:
		for i, item := range v {
			flattenValue(normalize.IndexPath(prefix, i), item, result)
		}
	case []any:
		if prefix != "" && !allMaps(v) {
			result[prefix] = value
			return
		}
		for i, item := range v {
			flattenValue(normalize.IndexPath(prefix, i), item, result)
		}
	default:
		if prefix != "" {
			result[prefix] = value
		}
	}
}

func allMaps(items []any) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		switch item.(type) {
		case map[string]any, map[any]any:
		default:
			return false
		}
	}
	return true
}

// InferFormat maps a file extension to a format name, or "" when unknown.
func InferFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return ""
	}
}
