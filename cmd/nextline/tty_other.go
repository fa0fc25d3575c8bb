//go:build !linux

package main

import (
	"fmt"
	"os"
)

func stdinIsTTY() bool {
	st, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}

func readInteractiveLine(prompt string) (string, error) {
	fmt.Print(prompt)
	return readBufferedLine()
}
