package formrig

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Azhovan/formrig/internal/normalize"
)

// FileResolver turns a file path found in raw input into a FileRef.
type FileResolver func(path string) (FileRef, error)

// Collector gathers raw form input from multiple sources.
// Sources are processed in order (later override earlier).
// Not safe for concurrent configuration changes.
type Collector struct {
	schema   *Schema
	sources  []Source
	resolver FileResolver
	strict   bool // Fail on unknown keys (default: true)
}

// NewCollector creates a Collector for schema with no sources and strict mode enabled.
// File paths are resolved with LocalFile unless WithFileResolver says otherwise.
func NewCollector(schema *Schema) *Collector {
	return &Collector{
		schema:   schema,
		sources:  make([]Source, 0),
		resolver: LocalFile,
		strict:   true, // Default to strict mode
	}
}

// WithSource adds a source. Sources are processed in order (later override earlier).
func (c *Collector) WithSource(src Source) *Collector {
	c.sources = append(c.sources, src)
	return c
}

// WithFileResolver sets how string paths given for file fields become FileRefs.
func (c *Collector) WithFileResolver(r FileResolver) *Collector {
	c.resolver = r
	return c
}

// Strict controls whether unknown keys cause errors. Default: true.
func (c *Collector) Strict(strict bool) *Collector {
	c.strict = strict
	return c
}

// Collect loads and merges all sources into raw Input for the schema.
// Returns the input with per-path provenance, or a ValidationError listing unknown keys
// in strict mode. Collect never validates values; pass the result to Validate.
func (c *Collector) Collect(ctx context.Context) (Input, *Provenance, error) {
	if c.schema == nil {
		return nil, nil, ErrNilSchema
	}

	// Step 1: Load from all sources and merge
	merged := make(map[string]any)
	origins := make(map[string]string)

	for _, source := range c.sources {
		data, err := source.Load(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load source %s: %w", source.Name(), err)
		}

		// Only keys from earlier sources can be shadowed; conflicts within
		// one source are left for Expand to report.
		earlier := make(map[string]bool, len(merged))
		for key := range merged {
			earlier[key] = true
		}

		keys := make([]string, 0, len(data))
		for key := range data {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			normalizedKey := strings.ToLower(key)

			// A later source replacing a list wholesale drops earlier record keys
			dropShadowed(merged, origins, earlier, normalizedKey)

			merged[normalizedKey] = data[key]
			origins[normalizedKey] = source.Name()
			delete(earlier, normalizedKey)
		}
	}

	// Step 2: In strict mode, detect unknown keys
	if c.strict {
		valid := make(map[string]bool)
		for _, p := range c.schema.Paths() {
			valid[p] = true
		}

		var unknownKeyErrors []FieldError
		for key := range merged {
			if !valid[normalize.Template(key)] {
				unknownKeyErrors = append(unknownKeyErrors, FieldError{
					FieldPath: key,
					Code:      ErrCodeUnknownKey,
					Message:   "unknown form field (strict mode)",
				})
			}
		}

		if len(unknownKeyErrors) > 0 {
			sort.Slice(unknownKeyErrors, func(i, j int) bool {
				return unknownKeyErrors[i].FieldPath < unknownKeyErrors[j].FieldPath
			})
			return nil, nil, &ValidationError{FieldErrors: unknownKeyErrors}
		}
	}

	// Step 3: Expand flat paths into records
	expanded, err := normalize.Expand(merged)
	if err != nil {
		return nil, nil, fmt.Errorf("expand input: %w", err)
	}

	// Step 4: Resolve file paths for file fields
	for _, f := range c.schema.fields {
		if f.Kind != KindFile {
			continue
		}
		files, err := c.resolveFiles(expanded[f.Name])
		if err != nil {
			return nil, nil, fmt.Errorf("resolve %s: %w", f.Name, err)
		}
		if files != nil {
			expanded[f.Name] = files
		}
	}

	return Input(expanded), newProvenance(origins), nil
}

// resolveFiles converts path strings into a FileList. Other values are left alone.
func (c *Collector) resolveFiles(raw any) (FileList, error) {
	var paths []string
	switch v := raw.(type) {
	case string:
		if v != "" {
			paths = []string{v}
		} else {
			return FileList{}, nil
		}
	case []string:
		paths = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, nil
			}
			paths = append(paths, s)
		}
	default:
		return nil, nil
	}

	files := make(FileList, 0, len(paths))
	for _, p := range paths {
		f, err := c.resolver(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// dropShadowed removes merged entries that conflict with a new key: nested keys below
// it, and the ancestors it would nest under.
func dropShadowed(merged map[string]any, origins map[string]string, earlier map[string]bool, key string) {
	for existing := range earlier {
		if strings.HasPrefix(existing, key+".") || strings.HasPrefix(key, existing+".") {
			delete(merged, existing)
			delete(origins, existing)
			delete(earlier, existing)
		}
	}
}
