package inference

import "strings"

// NormalizePrompt trims surrounding whitespace (including the full-width
// space) and drops invisible format characters pasted in with the prompt.
func NormalizePrompt(text string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(s)
}
