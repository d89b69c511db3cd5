package formrig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransforms(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		in   string
		want string
	}{
		{"trim", Trim, "  john \t", "john"},
		{"lower", Lower, "John@RocketSeat.com.BR", "john@rocketseat.com.br"},
		{"upper", Upper, "go", "GO"},
		{"title simple", TitleCase, "john doe", "John Doe"},
		{"title keeps rest of token", TitleCase, "john mcDONALD", "John McDONALD"},
		{"title keeps empty tokens", TitleCase, "john  doe", "John  Doe"},
		{"title leading space", TitleCase, " john", " John"},
		{"title empty", TitleCase, "", ""},
		{"title ignores hyphen", TitleCase, "mary-jane", "Mary-jane"},
		{"title leading digit", TitleCase, "1st place", "1st Place"},
		{"title ignores apostrophe", TitleCase, "o'neil", "O'neil"},
		{"title accented first rune", TitleCase, "élodie dupont", "Élodie Dupont"},
		{"title keeps ligature", TitleCase, "\ufb01ne", "\ufb01ne"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tr.Apply(tt.in))
		})
	}
}

func TestTransformByName(t *testing.T) {
	for _, name := range []string{"trim", "lower", "upper", "titlecase", " TitleCase "} {
		tr, ok := TransformByName(name)
		require.True(t, ok, name)
		assert.NotNil(t, tr.Apply)
	}

	_, ok := TransformByName("reverse")
	assert.False(t, ok)
}
