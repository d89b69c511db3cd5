package sourceenv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Azhovan/formrig"
	"github.com/Azhovan/formrig/internal/normalize"
)

// ErrInvalidName is returned when a variable under the prefix does not spell a
// field path.
var ErrInvalidName = errors.New("invalid variable name")

// maxIndexDigits matches the record index limit of the collector.
const maxIndexDigits = 4

// Options configures environment variable source behavior.
type Options struct {
	// Prefix selects the variables that belong to the form and is stripped
	// before the name is turned into a field path. Empty selects every
	// variable, which only makes sense with a non-strict Collector.
	Prefix string

	// CaseSensitive makes the prefix match exactly. By default FORM_ also
	// matches form_ and Form_. Field paths are always lower case.
	CaseSensitive bool
}

type envSource struct {
	opts Options
}

// New creates an environment variable source.
func New(opts Options) formrig.Source {
	return &envSource{opts: opts}
}

// Load returns one entry per variable under the prefix, keyed by field path
// (FORM_TECHS__0__TITLE → techs.0.title). With a prefix set, a name with an
// empty level or a malformed record index fails the load, as do two variables
// that differ only in case. Without a prefix such variables are skipped.
func (e *envSource) Load(ctx context.Context) (map[string]any, error) {
	result := make(map[string]any)
	names := make(map[string]string)

	for _, kv := range os.Environ() {
		name, value, _ := strings.Cut(kv, "=")
		rest, ok := e.trimPrefix(name)
		if !ok || rest == "" {
			continue
		}

		path, err := fieldPath(rest)
		if err == nil {
			if other, dup := names[path]; dup {
				pair := []string{other, name}
				sort.Strings(pair)
				err = fmt.Errorf("%s also sets %s: %w", pair[1], path, ErrInvalidName)
				name = pair[0]
			}
		}
		if err != nil {
			if e.opts.Prefix == "" {
				continue
			}
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		names[path] = name
		result[path] = value
	}

	return result, nil
}

func (e *envSource) trimPrefix(name string) (string, bool) {
	prefix := e.opts.Prefix
	if len(name) < len(prefix) {
		return "", false
	}
	head := name[:len(prefix)]
	if e.opts.CaseSensitive {
		if head != prefix {
			return "", false
		}
	} else if !strings.EqualFold(head, prefix) {
		return "", false
	}
	return name[len(prefix):], true
}

// fieldPath turns the part of a variable name after the prefix into a field
// path. Double underscores separate levels; a numeric level is a record index
// and must be written without leading zeros.
func fieldPath(name string) (string, error) {
	path := normalize.ToLowerDotPath(name)
	segments := strings.Split(path, ".")

	for i, seg := range segments {
		switch {
		case seg == "":
			return "", fmt.Errorf("empty level in %q: %w", path, ErrInvalidName)
		case !normalize.IsIndex(seg):
			continue
		case i == 0:
			return "", fmt.Errorf("%q starts with a record index: %w", path, ErrInvalidName)
		case len(seg) > maxIndexDigits:
			return "", fmt.Errorf("record index %s in %q is too large: %w", seg, path, ErrInvalidName)
		case len(seg) > 1 && seg[0] == '0':
			return "", fmt.Errorf("record index %s in %q has leading zeros: %w", seg, path, ErrInvalidName)
		}
	}

	return path, nil
}

// Name returns a human-readable identifier for this source.
func (e *envSource) Name() string {
	if e.opts.Prefix == "" {
		return "env"
	}
	return "env:" + e.opts.Prefix
}
