package formrig

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Transform is a named, pure string normalization applied after validation.
type Transform struct {
	Name  string
	Apply func(string) string
}

var (
	// Trim removes leading and trailing white space.
	Trim = Transform{Name: "trim", Apply: strings.TrimSpace}

	// Lower maps the value to lower case.
	Lower = Transform{Name: "lower", Apply: func(s string) string {
		return cases.Lower(language.Und).String(s)
	}}

	// Upper maps the value to upper case.
	Upper = Transform{Name: "upper", Apply: func(s string) string {
		return cases.Upper(language.Und).String(s)
	}}

	// TitleCase splits on single spaces, upper-cases the first rune of each token and
	// rejoins with single spaces. The rest of each token is left as is ("mary-jane"
	// becomes "Mary-jane"); empty tokens produced by consecutive spaces stay empty.
	TitleCase = Transform{Name: "titlecase", Apply: titleCase}
)

var builtinTransforms = map[string]Transform{
	Trim.Name:      Trim,
	Lower.Name:     Lower,
	Upper.Name:     Upper,
	TitleCase.Name: TitleCase,
}

// TransformByName returns a built-in transform ("trim", "lower", "upper", "titlecase").
func TransformByName(name string) (Transform, bool) {
	t, ok := builtinTransforms[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

func titleCase(s string) string {
	tokens := strings.Split(s, " ")
	for i, tok := range tokens {
		if tok == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(tok)
		tokens[i] = string(unicode.ToTitle(r)) + tok[size:]
	}
	return strings.Join(tokens, " ")
}
