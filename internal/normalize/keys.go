package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ToLowerDotPath normalizes an input key to a lowercase dot-separated path.
// Double underscores (__) are treated as level separators and converted to dots.
// Single underscores within a level are preserved.
// Examples:
//   - "TECHS__0__TITLE" → "techs.0.title"
//   - "FIRST_NAME" → "first_name"
func ToLowerDotPath(key string) string {
	normalized := strings.ReplaceAll(key, "__", ".")
	return strings.ToLower(normalized)
}

// ApplyPrefix combines a prefix with a key to create a nested field path.
// If prefix is empty, returns the key unchanged.
// Examples:
//   - ApplyPrefix("techs.0", "title") → "techs.0.title"
//   - ApplyPrefix("", "name") → "name"
func ApplyPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}

// IndexPath appends a record index to a list path ("techs", 2 → "techs.2").
func IndexPath(path string, i int) string {
	return ApplyPrefix(path, strconv.Itoa(i))
}

// IsIndex reports whether a path segment is a record index.
func IsIndex(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Template replaces record indexes with "*" ("techs.3.title" → "techs.*.title").
func Template(path string) string {
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		if IsIndex(seg) {
			segments[i] = "*"
		}
	}
	return strings.Join(segments, ".")
}

// Expand turns flat dot-separated keys into nested values. Maps whose keys are all
// record indexes become ordered []any slices; index gaps are filled with empty maps.
// Examples:
//   - {"techs.0.title": "Go", "name": "x"} → {"techs": []any{{"title": "Go"}}, "name": "x"}
//
// Record indexes are limited to four digits and may not start a key.
func Expand(flat map[string]any) (map[string]any, error) {
	root := make(map[string]any)

	// Sorted keys make conflicts deterministic
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		segments := strings.Split(key, ".")
		node := root
		for i, seg := range segments {
			if seg == "" {
				return nil, fmt.Errorf("invalid key %q: empty segment", key)
			}
			if IsIndex(seg) && (len(seg) > 4 || i == 0) {
				return nil, fmt.Errorf("invalid key %q: record index %s out of range", key, seg)
			}
			if i == len(segments)-1 {
				if existing, ok := node[seg].(map[string]any); ok && len(existing) > 0 {
					return nil, fmt.Errorf("key %q conflicts with nested keys", key)
				}
				node[seg] = flat[key]
				break
			}

			child, ok := node[seg].(map[string]any)
			if !ok {
				if _, taken := node[seg]; taken {
					return nil, fmt.Errorf("key %q conflicts with value at %q", key, strings.Join(segments[:i+1], "."))
				}
				child = make(map[string]any)
				node[seg] = child
			}
			node = child
		}
	}

	for k, child := range root {
		root[k] = toLists(child)
	}
	return root, nil
}

// toLists converts index-keyed maps into slices, recursively.
func toLists(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}

	for k, child := range m {
		m[k] = toLists(child)
	}

	if len(m) == 0 {
		return m
	}

	maxIndex := -1
	for k := range m {
		if !IsIndex(k) {
			return m
		}
		idx, err := strconv.Atoi(k)
		if err != nil {
			return m
		}
		if idx > maxIndex {
			maxIndex = idx
		}
	}

	list := make([]any, maxIndex+1)
	for i := range list {
		list[i] = map[string]any{}
	}
	for k, child := range m {
		idx, _ := strconv.Atoi(k)
		list[idx] = child
	}
	return list
}
