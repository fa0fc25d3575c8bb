// Package export renders prediction sets for the terminal and for files.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samcharles93/nextline/internal/predict"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text", "txt" and "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or json)", s)
	}
}

// FormatFromPath picks JSON for .json files and text otherwise.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatText
}

// WriteText writes one prediction per line, without ranks or the prompt.
func WriteText(w io.Writer, set predict.PredictionSet) error {
	for _, p := range set.Predictions {
		if _, err := io.WriteString(w, p.Text+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the set as an indented JSON document.
func WriteJSON(w io.Writer, set predict.PredictionSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(set)
}

func Write(w io.Writer, set predict.PredictionSet, format Format) error {
	if format == FormatJSON {
		return WriteJSON(w, set)
	}
	return WriteText(w, set)
}

// WriteFile writes set to path, creating parent directories as needed.
func WriteFile(path string, set predict.PredictionSet, format Format) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := Write(f, set, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("write export file: %w", err)
	}
	return f.Close()
}

// Render formats set for a terminal: the prompt, then each prediction
// appended to it under its rank.
func Render(w io.Writer, set predict.PredictionSet) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Prompt: %s\n\n", set.Prompt)
	for _, p := range set.Predictions {
		fmt.Fprintf(&b, "%d. %s %s\n", p.Rank, set.Prompt, p.Text)
	}
	if set.Partial {
		b.WriteString("\n(some generations failed; showing what succeeded)\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
