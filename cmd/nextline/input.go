package main

import (
	"bufio"
	"io"
	"os"
	"strings"
)

var stdinReader = bufio.NewReader(os.Stdin)

// readBufferedLine reads a line from stdin without its line ending. EOF is
// returned only when no text was read.
func readBufferedLine() (string, error) {
	s, err := stdinReader.ReadString('\n')
	if err == io.EOF && s != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}
