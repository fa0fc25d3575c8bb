//go:build linux

package main

import (
	"errors"
	"io"
	"testing"
)

func feedAll(t *testing.T, e *lineEditor, input string) (string, bool, error) {
	t.Helper()
	for i := 0; i < len(input); i++ {
		line, done, err := e.feed(input[i])
		if done || err != nil {
			return line, done, err
		}
	}
	return "", false, nil
}

func TestLineEditorEditing(t *testing.T) {
	e := &lineEditor{}
	line, done, err := feedAll(t, e, "the caz\x7ft\r")
	if err != nil || !done || line != "the cat" {
		t.Fatalf("got %q done=%v err=%v", line, done, err)
	}

	e = &lineEditor{}
	line, _, _ = feedAll(t, e, "wrong\x15right\n")
	if line != "right" {
		t.Fatalf("Ctrl-U did not clear the line: %q", line)
	}

	e = &lineEditor{}
	line, _, _ = feedAll(t, e, "café\x7fe\r")
	if line != "cafe" {
		t.Fatalf("backspace should remove whole runes: %q", line)
	}
}

func TestLineEditorEOF(t *testing.T) {
	e := &lineEditor{}
	if _, _, err := feedAll(t, e, "\x04"); !errors.Is(err, io.EOF) {
		t.Fatalf("Ctrl-D on an empty line should be EOF, got %v", err)
	}
	e = &lineEditor{}
	if _, _, err := feedAll(t, e, "abc\x04"); err != nil {
		t.Fatalf("Ctrl-D with text should be ignored, got %v", err)
	}
}

func TestLineEditorHistory(t *testing.T) {
	saved := lineHistory
	t.Cleanup(func() { lineHistory = saved })
	lineHistory = []string{"first fragment", "second fragment"}

	e := &lineEditor{hist: len(lineHistory)}
	line, _, _ := feedAll(t, e, "\x1b[A\x1b[A\r")
	if line != "first fragment" {
		t.Fatalf("two ups should recall the oldest entry, got %q", line)
	}

	e = &lineEditor{hist: len(lineHistory)}
	line, _, _ = feedAll(t, e, "\x1b[A\x1b[B\r")
	if line != "" {
		t.Fatalf("down past the newest entry should clear the line, got %q", line)
	}
}
