package main

import (
	"bufio"
	"io"
	"os"
)

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = func() bool { return isTerminal(os.Stdin) }

func stderrIsTTY() bool { return isTerminal(os.Stderr) }

var stdinReader = bufio.NewReader(os.Stdin)

// readPlainLine reads a line from piped stdin. io.EOF is returned only when
// no text precedes it.
func readPlainLine() (string, error) {
	s, err := stdinReader.ReadString('\n')
	if err == io.EOF && s != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return trimTrailingNewline(s), nil
}

func trimTrailingNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}
