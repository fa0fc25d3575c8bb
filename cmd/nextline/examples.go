package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

var exampleSentences = []string{
	"I went to the park to",
	"The weather today is",
	"After finishing my homework I",
	"My favorite book is about",
	"When I wake up in the morning I usually",
	"Last weekend I decided to",
	"If I could travel anywhere I would",
	"The most interesting thing about my city is",
	"Yesterday I learned that",
	"My biggest dream is to",
	"The best advice I ever received was",
	"When I feel stressed I like to",
}

// exampleSentence returns the 1-based example n.
func exampleSentence(n int) (string, error) {
	if n < 1 || n > len(exampleSentences) {
		return "", fmt.Errorf("example %d out of range (1-%d)", n, len(exampleSentences))
	}
	return exampleSentences[n-1], nil
}

func examplesCmd() *cli.Command {
	return &cli.Command{
		Name:  "examples",
		Usage: "List example fragments for --example",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			for i, s := range exampleSentences {
				fmt.Printf("%2d. %s\n", i+1, s)
			}
			return nil
		},
	}
}
