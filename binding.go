package formrig

import (
	"fmt"
	"strconv"
	"strings"
)

// listDirectives take values that may themselves contain commas.
var listDirectives = []string{"pattern:", "type:"}

// ParseRules parses a rule string into constraints.
// Rule format: "directive1:value1,directive2,..." (e.g., "required,min_len:6,max_len:50").
// The values of pattern: and type: run until the next known directive, so they may
// contain commas. Sizes for max_size accept KB, MB and GB suffixes (powers of 1024).
func ParseRules(rules string) ([]Constraint, error) {
	var constraints []Constraint

	for _, directive := range splitDirectives(rules) {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}

		// Split by colon to separate directive name from value
		parts := strings.SplitN(directive, ":", 2)
		name := strings.TrimSpace(parts[0])
		var value string
		if len(parts) > 1 {
			value = parts[1] // Don't trim value - patterns may rely on spaces
		}

		c, err := parseDirective(name, value)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", directive, err)
		}
		constraints = append(constraints, c)
	}

	return constraints, nil
}

func parseDirective(name, value string) (Constraint, error) {
	switch name {
	case "required":
		return Required(), nil
	case "email":
		return Email(), nil
	case "domain":
		return EmailDomain(strings.TrimSpace(value)), nil
	case "pattern":
		c := Pattern(value)
		return c, c.err
	case "type":
		var types []string
		for _, t := range strings.Split(value, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
		return FileType(types...), nil
	case "min_len", "max_len", "min_items", "max_items":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return Constraint{}, fmt.Errorf("expected an integer: %w", err)
		}
		switch name {
		case "min_len":
			return MinLength(n), nil
		case "max_len":
			return MaxLength(n), nil
		case "min_items":
			return MinItems(n), nil
		default:
			return MaxItems(n), nil
		}
	case "min", "max":
		x, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return Constraint{}, fmt.Errorf("expected a number: %w", err)
		}
		if name == "min" {
			return Min(x), nil
		}
		return Max(x), nil
	case "max_size":
		n, err := parseSize(value)
		if err != nil {
			return Constraint{}, err
		}
		return MaxFileSize(n), nil
	default:
		return Constraint{}, fmt.Errorf("unknown directive %q", name)
	}
}

// parseSize parses byte sizes such as "512", "64KB" or "5MB".
func parseSize(value string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(value))
	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		factor int64
	}{{"GB", 1 << 30}, {"MB", 1 << 20}, {"KB", 1 << 10}, {"B", 1}} {
		if strings.HasSuffix(s, unit.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			multiplier = unit.factor
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", value)
	}
	return n * multiplier, nil
}

// splitDirectives splits a rule string into individual directives,
// handling directives whose values contain commas.
func splitDirectives(rules string) []string {
	var directives []string
	var current strings.Builder
	inList := false

	for i := 0; i < len(rules); i++ {
		ch := rules[i]

		// Check if we're entering a list-valued directive at a directive boundary
		if !inList && current.Len() == 0 {
			if d := listDirectiveAt(rules[i:]); d != "" {
				inList = true
				current.WriteString(d)
				i += len(d) - 1
				continue
			}
		}

		if ch == ',' {
			if inList {
				// This comma ends the value only if a known directive follows
				if startsWithDirective(rules[i+1:]) {
					inList = false
					directives = append(directives, current.String())
					current.Reset()
				} else {
					current.WriteByte(ch)
				}
			} else {
				// Regular comma separator between directives
				directives = append(directives, current.String())
				current.Reset()
			}
		} else {
			if !inList && current.Len() == 0 && ch == ' ' {
				continue
			}
			current.WriteByte(ch)
		}
	}

	// Add the last directive
	if current.Len() > 0 {
		directives = append(directives, current.String())
	}

	return directives
}

func listDirectiveAt(s string) string {
	for _, d := range listDirectives {
		if strings.HasPrefix(s, d) {
			return d
		}
	}
	return ""
}

// startsWithDirective checks if a string starts with a known directive name.
func startsWithDirective(s string) bool {
	s = strings.TrimSpace(s)
	directives := []string{
		"required", "email", "domain:", "pattern:", "type:", "min_len:", "max_len:",
		"min_items:", "max_items:", "min:", "max:", "max_size:",
	}
	for _, d := range directives {
		if strings.HasPrefix(s, d) {
			return true
		}
	}
	return false
}
