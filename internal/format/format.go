// Package format lays a finished character stream out as the lines of a
// poetic form.
package format

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samcharles93/poet/internal/genre"
)

var ErrLength = errors.New("text length does not match genre")

// Lines slices text into g.Rows chunks of g.Cols+1 characters. The last
// character of every chunk is the line's punctuation slot; its content is not
// checked.
func Lines(text string, g genre.Genre) ([]string, error) {
	runes := []rune(text)
	if len(runes) != g.Length() {
		return nil, fmt.Errorf("%w: %s wants %d characters, got %d", ErrLength, g.Key, g.Length(), len(runes))
	}
	width := g.LineWidth()
	lines := make([]string, 0, g.Rows)
	for i := 0; i < len(runes); i += width {
		lines = append(lines, string(runes[i:i+width]))
	}
	return lines, nil
}

// Format joins the lines of text with single "\n" separators.
func Format(text string, g genre.Genre) (string, error) {
	lines, err := Lines(text, g)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// Fit truncates or pads text with pad so that it has exactly g.Length()
// characters.
func Fit(text string, g genre.Genre, pad rune) string {
	n := utf8.RuneCountInString(text)
	want := g.Length()
	switch {
	case n == want:
		return text
	case n > want:
		return string([]rune(text)[:want])
	default:
		return text + strings.Repeat(string(pad), want-n)
	}
}
