package predict

import (
	"strings"
	"unicode/utf8"
)

// Accepted source text length in characters, after trimming.
const (
	MinInputChars = 3
	MaxInputChars = 200
)

// ValidateInput trims raw and checks its length. The trimmed text is returned
// unchanged otherwise.
func ValidateInput(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(text)
	switch {
	case n < MinInputChars:
		return "", &InputError{Reason: ReasonTooShort, Length: n}
	case n > MaxInputChars:
		return "", &InputError{Reason: ReasonTooLong, Length: n}
	}
	return text, nil
}
