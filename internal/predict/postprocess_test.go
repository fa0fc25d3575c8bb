package predict

import (
	"reflect"
	"strings"
	"testing"
)

func cands(texts ...string) []RawCandidate {
	out := make([]RawCandidate, len(texts))
	for i, t := range texts {
		out[i] = RawCandidate{Text: t, Index: i}
	}
	return out
}

func TestProcessDedupAndDropEmpty(t *testing.T) {
	t.Parallel()
	raw := cands("feed the ducks", "", "feed the ducks", "  \t ", "read a book", "feed the ducks ", "fly a kite")
	set := Process(raw, "I went to the park to", ProcessOptions{Count: 3})

	want := []Prediction{
		{Rank: 1, Text: "feed the ducks"},
		{Rank: 2, Text: "read a book"},
		{Rank: 3, Text: "fly a kite"},
	}
	if !reflect.DeepEqual(set.Predictions, want) {
		t.Fatalf("got %+v, want %+v", set.Predictions, want)
	}
}

func TestProcessNeverPads(t *testing.T) {
	t.Parallel()
	set := Process(cands("same", "same", "same"), "prompt", ProcessOptions{Count: 5})
	if set.Len() != 1 || set.Predictions[0].Rank != 1 {
		t.Fatalf("expected a single prediction, got %+v", set.Predictions)
	}
}

func TestProcessStripsEchoedPrompt(t *testing.T) {
	t.Parallel()
	prompt := "I went to the park to"
	raw := cands(
		"I went to the park to play football.",
		"i went to the park to swim.", // case differs, kept as is
		"  look at the trees.",
	)
	set := Process(raw, prompt, ProcessOptions{Count: 3})
	want := []string{"play football.", "i went to the park to swim.", "look at the trees."}
	if !reflect.DeepEqual(set.Texts(), want) {
		t.Fatalf("got %q, want %q", set.Texts(), want)
	}
	if set.Prompt != prompt {
		t.Fatalf("prompt not carried: %q", set.Prompt)
	}
}

func TestProcessCollapsesWhitespace(t *testing.T) {
	t.Parallel()
	set := Process(cands("walk\n\n the   dog\tslowly ", "walk the dog slowly"), "p", ProcessOptions{Count: 3})
	if !reflect.DeepEqual(set.Texts(), []string{"walk the dog slowly"}) {
		t.Fatalf("got %q", set.Texts())
	}
}

func TestProcessTruncatesToMaxTokens(t *testing.T) {
	t.Parallel()
	long := strings.Repeat(" word", 40)
	set := Process(cands(long), "p", ProcessOptions{Count: 1, MaxTokens: 20})
	if got := len(strings.Fields(set.Predictions[0].Text)); got != 20 {
		t.Fatalf("expected 20 words after truncation, got %d", got)
	}
}

func TestProcessTruncationMergesDuplicates(t *testing.T) {
	t.Parallel()
	a := "one two three four five six"
	b := "one two three four five seven"
	set := Process(cands(a, b), "p", ProcessOptions{Count: 2, MaxTokens: 5})
	if set.Len() != 1 {
		t.Fatalf("expected truncated duplicates to merge, got %q", set.Texts())
	}
}

func TestProcessFirstSentence(t *testing.T) {
	t.Parallel()
	set := Process(cands("play in the sun. Then we went home!", "wait?! what", "no terminator here"), "p",
		ProcessOptions{Count: 3, FirstSentence: true})
	want := []string{"play in the sun.", "wait?!", "no terminator here"}
	if !reflect.DeepEqual(set.Texts(), want) {
		t.Fatalf("got %q, want %q", set.Texts(), want)
	}
}

func TestProcessMinWords(t *testing.T) {
	t.Parallel()
	set := Process(cands("hi", "go home now", "ok then"), "p", ProcessOptions{Count: 3, MinWords: 3})
	if !reflect.DeepEqual(set.Texts(), []string{"go home now"}) {
		t.Fatalf("got %q", set.Texts())
	}
}

func TestProcessZeroCount(t *testing.T) {
	t.Parallel()
	if set := Process(cands("x"), "p", ProcessOptions{}); set.Len() != 0 || set.Predictions == nil {
		t.Fatalf("expected empty non-nil predictions, got %+v", set)
	}
}
