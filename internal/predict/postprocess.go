package predict

import (
	"strings"

	"github.com/samcharles93/nextline/internal/tokenizer"
)

// Prediction is a cleaned, ranked continuation.
type Prediction struct {
	Rank int    `json:"rank"`
	Text string `json:"text"`
}

// PredictionSet is the pipeline's result. Callers must treat it as read-only.
type PredictionSet struct {
	Prompt      string       `json:"prompt"`
	Predictions []Prediction `json:"predictions"`
	// Partial is set when some generator calls failed.
	Partial bool `json:"partial,omitempty"`
}

func (s PredictionSet) Len() int { return len(s.Predictions) }

// Texts returns the prediction texts in rank order.
func (s PredictionSet) Texts() []string {
	out := make([]string, len(s.Predictions))
	for i, p := range s.Predictions {
		out[i] = p.Text
	}
	return out
}

// Splitter breaks text into tokens whose concatenation is the text.
type Splitter interface {
	Split(text string) []string
}

type ProcessOptions struct {
	// Count caps the number of predictions.
	Count int
	// MaxTokens truncates each prediction; zero disables truncation.
	MaxTokens int
	// FirstSentence keeps only the first sentence of each candidate.
	FirstSentence bool
	// MinWords drops predictions with fewer words; zero disables the filter.
	MinWords int
	// Tokenizer counts tokens for MaxTokens. Nil uses tokenizer.Default.
	Tokenizer Splitter
}

// Process cleans raw candidates into a ranked set. Ranks follow the order in
// which candidates appear; the first candidate with a given text keeps the
// slot.
func Process(cands []RawCandidate, prompt string, opts ProcessOptions) PredictionSet {
	set := PredictionSet{Prompt: prompt, Predictions: []Prediction{}}
	if opts.Count <= 0 {
		return set
	}
	split := opts.Tokenizer
	if split == nil && opts.MaxTokens > 0 {
		split = tokenizer.Default()
	}

	seen := make(map[string]struct{}, len(cands))
	for _, c := range cands {
		text := strings.TrimPrefix(c.Text, prompt)
		if opts.FirstSentence {
			text = firstSentence(text)
		}
		text = collapseSpace(text)
		if opts.MaxTokens > 0 {
			text = truncateTokens(split, text, opts.MaxTokens)
		}
		if text == "" {
			continue
		}
		if opts.MinWords > 0 && len(strings.Fields(text)) < opts.MinWords {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		set.Predictions = append(set.Predictions, Prediction{Rank: len(set.Predictions) + 1, Text: text})
		if len(set.Predictions) == opts.Count {
			break
		}
	}
	return set
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstSentence cuts s after the first run of sentence terminators.
func firstSentence(s string) string {
	i := strings.IndexAny(s, ".!?")
	if i < 0 {
		return s
	}
	end := i + 1
	for end < len(s) && strings.IndexByte(".!?", s[end]) >= 0 {
		end++
	}
	return s[:end]
}

func truncateTokens(split Splitter, s string, n int) string {
	pieces := split.Split(s)
	if len(pieces) <= n {
		return s
	}
	return strings.TrimSpace(strings.Join(pieces[:n], ""))
}
