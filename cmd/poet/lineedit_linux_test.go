//go:build linux

package main

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(t *testing.T, e *lineEditor, chunks ...string) (string, error) {
	t.Helper()
	for i, c := range chunks {
		line, done, err := e.feed([]byte(c))
		if done {
			require.Equal(t, len(chunks)-1, i, "finished early")
			return line, err
		}
	}
	t.Fatal("line never finished")
	return "", nil
}

func TestLineEditorMultiByte(t *testing.T) {
	t.Parallel()

	e := &lineEditor{out: io.Discard}
	// 春 split across two reads, then backspace removes the whole rune.
	chun := []byte("春")
	line, err := feedAll(t, e, string(chun[:1]), string(chun[1:])+"风", "\x7f", "花\r")
	require.NoError(t, err)
	assert.Equal(t, "春花", line)
}

func TestLineEditorCursorMovement(t *testing.T) {
	t.Parallel()

	e := &lineEditor{out: io.Discard}
	// type 海春, move left, insert 外 before 春, then Home and delete forward.
	line, err := feedAll(t, e, "海春", "\x1b[D", "外", "\x1b[H", "\x1b[3~", "\r")
	require.NoError(t, err)
	assert.Equal(t, "外春", line)
}

func TestLineEditorHistory(t *testing.T) {
	t.Parallel()

	e := &lineEditor{out: io.Discard, history: []string{"海外", "春风"}}
	line, err := feedAll(t, e, "草", "\x1b[A", "\x1b[A", "\x1b[B", "\x1b[B", "\n")
	require.NoError(t, err)
	assert.Equal(t, "草", line)

	e = &lineEditor{out: io.Discard, history: []string{"海外", "春风"}}
	line, err = feedAll(t, e, "\x1b[A\x1b[A\r")
	require.NoError(t, err)
	assert.Equal(t, "海外", line)
}

func TestLineEditorControlKeys(t *testing.T) {
	t.Parallel()

	_, err := feedAll(t, &lineEditor{out: io.Discard}, "春", "\x03")
	assert.ErrorIs(t, err, io.EOF)

	_, err = feedAll(t, &lineEditor{out: io.Discard}, "\x04")
	assert.ErrorIs(t, err, io.EOF)

	line, err := feedAll(t, &lineEditor{out: io.Discard}, "海外 春风", "\x17", "\r")
	require.NoError(t, err)
	assert.Equal(t, "海外 ", line)

	line, err = feedAll(t, &lineEditor{out: io.Discard}, "海外", "\x1b[D", "\x15", "\r")
	require.NoError(t, err)
	assert.Equal(t, "外", line)
}

func TestLineEditorRedrawKeepsPrompt(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	e := &lineEditor{prompt: "> ", out: &out}
	_, err := feedAll(t, e, "春\r")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\r> 春\x1b[K")
}
