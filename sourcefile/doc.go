// Package sourcefile loads raw form input from YAML, JSON, or TOML files.
//
// Format is auto-detected from extension (.yaml, .json, .toml). Nested maps and lists
// of records are flattened to field paths such as "techs.0.title".
//
// Example:
//
//	source := sourcefile.New("input.yaml", sourcefile.Options{Required: true})
//	input, _, err := formrig.NewCollector(schema).WithSource(source).Collect(ctx)
package sourcefile
