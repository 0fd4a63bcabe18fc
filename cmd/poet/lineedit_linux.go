//go:build linux

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sys/unix"
)

var promptHistory []string

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	_, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	return err == nil
}

// readInteractiveLine reads one prompt. On a terminal it switches to raw
// mode and edits the line as runes so CJK input can be moved over and
// deleted one character at a time.
func readInteractiveLine(prompt string) (string, error) {
	if !stdinIsTTY() {
		return readPlainLine()
	}

	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return "", err
	}
	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO | unix.ISIG
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &newState); err != nil {
		return "", err
	}
	defer func() {
		_ = unix.IoctlSetTermios(fd, unix.TCSETS, oldState)
	}()

	fmt.Print(prompt)
	ed := &lineEditor{prompt: prompt, out: os.Stdout, history: promptHistory}
	var buf [64]byte
	for {
		n, err := os.Stdin.Read(buf[:])
		if err != nil {
			return "", err
		}
		line, done, err := ed.feed(buf[:n])
		if done {
			if err == nil && strings.TrimSpace(line) != "" {
				promptHistory = append(promptHistory, line)
			}
			return line, err
		}
	}
}

// lineEditor holds the state of one raw-mode line. feed consumes input
// bytes and reports when the line is finished.
type lineEditor struct {
	prompt  string
	out     io.Writer
	line    []rune
	cursor  int
	pending []byte
	esc     int
	csi     strings.Builder

	history  []string
	histPos  int
	browsing bool
	draft    string
}

func (e *lineEditor) feed(input []byte) (string, bool, error) {
	for _, b := range input {
		if e.esc != 0 {
			e.escape(b)
			continue
		}
		if len(e.pending) > 0 || b >= utf8.RuneSelf {
			e.pending = append(e.pending, b)
			if !utf8.FullRune(e.pending) {
				continue
			}
			r, _ := utf8.DecodeRune(e.pending)
			e.pending = e.pending[:0]
			if r != utf8.RuneError {
				e.insert(r)
			}
			continue
		}

		switch b {
		case 27: // ESC
			e.esc = 1
		case '\r', '\n':
			_, _ = io.WriteString(e.out, "\r\n")
			return string(e.line), true, nil
		case 3: // Ctrl+C
			_, _ = io.WriteString(e.out, "^C\r\n")
			return "", true, io.EOF
		case 4: // Ctrl+D
			if len(e.line) == 0 {
				_, _ = io.WriteString(e.out, "\r\n")
				return "", true, io.EOF
			}
			e.deleteAt(e.cursor)
		case 127, 8: // backspace
			if e.cursor > 0 {
				e.cursor--
				e.deleteAt(e.cursor)
			}
		case 1: // Ctrl+A
			e.move(0)
		case 5: // Ctrl+E
			e.move(len(e.line))
		case 21: // Ctrl+U
			e.line = append(e.line[:0], e.line[e.cursor:]...)
			e.cursor = 0
			e.redraw()
		case 23: // Ctrl+W
			e.deleteWordBack()
		default:
			if b >= 32 {
				e.insert(rune(b))
			}
		}
	}
	return "", false, nil
}

func (e *lineEditor) escape(b byte) {
	switch e.esc {
	case 1:
		e.esc = 0
		switch b {
		case '[':
			e.esc = 2
			e.csi.Reset()
		case 127:
			e.deleteWordBack() // Alt+Backspace
		}
	case 2:
		e.csi.WriteByte(b)
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			e.esc = 0
			e.handleCSI(e.csi.String())
		}
	}
}

func (e *lineEditor) handleCSI(seq string) {
	switch seq {
	case "A": // up
		if len(e.history) == 0 {
			return
		}
		if !e.browsing {
			e.draft = string(e.line)
			e.browsing = true
			e.histPos = len(e.history)
		}
		if e.histPos > 0 {
			e.histPos--
			e.replace(e.history[e.histPos])
		}
	case "B": // down
		if !e.browsing {
			return
		}
		if e.histPos < len(e.history)-1 {
			e.histPos++
			e.replace(e.history[e.histPos])
			return
		}
		e.browsing = false
		e.replace(e.draft)
	case "D":
		if e.cursor > 0 {
			e.move(e.cursor - 1)
		}
	case "C":
		if e.cursor < len(e.line) {
			e.move(e.cursor + 1)
		}
	case "H", "1~":
		e.move(0)
	case "F", "4~":
		e.move(len(e.line))
	case "3~":
		e.deleteAt(e.cursor)
	}
}

func (e *lineEditor) insert(r rune) {
	e.line = append(e.line, 0)
	copy(e.line[e.cursor+1:], e.line[e.cursor:])
	e.line[e.cursor] = r
	e.cursor++
	e.redraw()
}

func (e *lineEditor) deleteAt(i int) {
	if i < 0 || i >= len(e.line) {
		return
	}
	e.line = append(e.line[:i], e.line[i+1:]...)
	e.redraw()
}

func (e *lineEditor) deleteWordBack() {
	start := e.cursor
	for start > 0 && unicode.IsSpace(e.line[start-1]) {
		start--
	}
	for start > 0 && !unicode.IsSpace(e.line[start-1]) {
		start--
	}
	if start == e.cursor {
		return
	}
	e.line = append(e.line[:start], e.line[e.cursor:]...)
	e.cursor = start
	e.redraw()
}

func (e *lineEditor) replace(s string) {
	e.line = append(e.line[:0], []rune(s)...)
	e.cursor = len(e.line)
	e.redraw()
}

func (e *lineEditor) move(pos int) {
	e.cursor = pos
	e.redraw()
}

// redraw repaints the line and leaves the terminal cursor after
// line[:cursor]. Reprinting the prefix lets the terminal account for
// double-width characters.
func (e *lineEditor) redraw() {
	_, _ = fmt.Fprintf(e.out, "\r%s%s\x1b[K", e.prompt, string(e.line))
	if e.cursor < len(e.line) {
		_, _ = fmt.Fprintf(e.out, "\r%s%s", e.prompt, string(e.line[:e.cursor]))
	}
}
