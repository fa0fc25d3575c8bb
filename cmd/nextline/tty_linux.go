//go:build linux

package main

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/sys/unix"
)

var lineHistory []string

func stdinIsTTY() bool {
	_, err := unix.IoctlGetTermios(int(os.Stdin.Fd()), unix.TCGETS)
	return err == nil
}

// readInteractiveLine reads one line in raw mode with backspace, Ctrl-U and
// up/down history. It falls back to buffered reads when stdin is not a
// terminal.
func readInteractiveLine(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	saved, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		fmt.Print(prompt)
		return readBufferedLine()
	}
	raw := *saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return "", err
	}
	defer func() { _ = unix.IoctlSetTermios(fd, unix.TCSETS, saved) }()

	e := &lineEditor{prompt: prompt, hist: len(lineHistory)}
	fmt.Print(prompt)
	var buf [32]byte
	for {
		n, err := os.Stdin.Read(buf[:])
		if err != nil {
			return "", err
		}
		for _, b := range buf[:n] {
			line, done, err := e.feed(b)
			if err != nil {
				return "", err
			}
			if done {
				if line != "" {
					lineHistory = append(lineHistory, line)
				}
				return line, nil
			}
		}
	}
}

// lineEditor holds the state of a raw-mode line being typed. Only appending
// at the end is supported; arrow keys left and right are ignored.
type lineEditor struct {
	prompt string
	line   []byte
	hist   int
	esc    int
}

func (e *lineEditor) redraw() {
	fmt.Printf("\r\x1b[K%s%s", e.prompt, e.line)
}

func (e *lineEditor) recall(delta int) {
	i := e.hist + delta
	if i < 0 || i > len(lineHistory) {
		return
	}
	e.hist = i
	if i == len(lineHistory) {
		e.line = e.line[:0]
	} else {
		e.line = append(e.line[:0], lineHistory[i]...)
	}
	e.redraw()
}

func (e *lineEditor) feed(b byte) (string, bool, error) {
	switch e.esc {
	case 1:
		e.esc = 0
		if b == '[' {
			e.esc = 2
		}
		return "", false, nil
	case 2:
		if b >= '0' && b <= '9' || b == ';' {
			return "", false, nil
		}
		e.esc = 0
		switch b {
		case 'A':
			e.recall(-1)
		case 'B':
			e.recall(1)
		}
		return "", false, nil
	}

	switch b {
	case '\r', '\n':
		fmt.Print("\r\n")
		return string(e.line), true, nil
	case 3, 4: // Ctrl-C, Ctrl-D
		if b == 4 && len(e.line) > 0 {
			return "", false, nil
		}
		fmt.Print("\r\n")
		return "", false, io.EOF
	case 21: // Ctrl-U
		e.line = e.line[:0]
		e.redraw()
	case 27:
		e.esc = 1
	case 127, 8:
		if len(e.line) > 0 {
			_, size := utf8.DecodeLastRune(e.line)
			e.line = e.line[:len(e.line)-size]
			e.redraw()
		}
	default:
		if b >= 32 {
			e.line = append(e.line, b)
			if b < utf8.RuneSelf || utf8.FullRune(lastRuneStart(e.line)) {
				e.redraw()
			}
		}
	}
	return "", false, nil
}

func lastRuneStart(p []byte) []byte {
	i := len(p) - 1
	for i > 0 && !utf8.RuneStart(p[i]) {
		i--
	}
	return p[i:]
}
