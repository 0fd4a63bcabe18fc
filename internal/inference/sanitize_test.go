package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrompt(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                 "",
		"   ":              "",
		"\u3000海外\u3000":   "海外",
		"\ufeff春\u200b风\n": "春风",
		"春 风":              "春 风",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePrompt(in), "input %q", in)
	}
}
