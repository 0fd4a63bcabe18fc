//go:build !linux

package main

import "os"

func isTerminal(f *os.File) bool {
	st, err := f.Stat()
	if err != nil {
		return false
	}
	return st.Mode()&os.ModeCharDevice != 0
}

func readInteractiveLine(prompt string) (string, error) {
	if stdinIsTTY() {
		_, _ = os.Stdout.WriteString(prompt)
	}
	return readPlainLine()
}
