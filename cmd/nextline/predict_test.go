package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/nextline/internal/export"
	"github.com/samcharles93/nextline/internal/predict"
)

func defaultOptions() predictOptions {
	return predictOptions{
		temperature: predict.DefaultTemperature,
		maxLength:   predict.DefaultMaxLength,
		topK:        predict.DefaultTopK,
		topP:        predict.DefaultTopP,
		count:       predict.DefaultCandidates,
		seed:        predict.NoSeed,
		backend:     "ngram",
	}
}

func TestFragmentFromArgs(t *testing.T) {
	t.Parallel()
	got, err := fragmentFromArgs([]string{"the", "cat", "sat"}, 0)
	if err != nil || got != "the cat sat" {
		t.Fatalf("fragmentFromArgs = %q, %v", got, err)
	}
	got, err = fragmentFromArgs(nil, 1)
	if err != nil || got != "I went to the park to" {
		t.Fatalf("example 1 = %q, %v", got, err)
	}
	if _, err := fragmentFromArgs(nil, 99); err == nil {
		t.Fatalf("expected out of range example to fail")
	}
	if _, err := fragmentFromArgs([]string{"x"}, 2); err == nil {
		t.Fatalf("expected --example with a fragment to fail")
	}
	if got, _ := fragmentFromArgs(nil, 0); got != "" {
		t.Fatalf("no args should defer to stdin, got %q", got)
	}
}

func TestNewGeneratorBackends(t *testing.T) {
	t.Parallel()
	o := defaultOptions()
	if _, err := newGenerator(&o); err != nil {
		t.Fatalf("ngram: %v", err)
	}

	o.backend = "remote"
	gen, err := newGenerator(&o)
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	// No endpoint configured: the failure surfaces on first use.
	if err := gen.Init(context.Background()); !errors.Is(err, predict.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable, got %v", err)
	}

	o.backend = "gpt9"
	if _, err := newGenerator(&o); err == nil {
		t.Fatalf("expected unknown backend to fail")
	}
}

func TestRunnerOnceWithNgram(t *testing.T) {
	t.Parallel()
	o := defaultOptions()
	o.seed = 7
	o.export = filepath.Join(t.TempDir(), "out.txt")
	gen, err := newGenerator(&o)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	r := &runner{
		pipeline: predict.NewPipeline(gen, predict.PipelineConfig{}),
		opts:     &o,
		format:   export.FormatText,
		out:      &out,
	}
	if err := r.once(context.Background(), "I went to the park to"); err != nil {
		t.Fatalf("once: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Prompt: I went to the park to\n") || !strings.Contains(out.String(), "1. I went to the park to ") {
		t.Fatalf("unexpected render:\n%s", out.String())
	}
	data, err := os.ReadFile(o.export)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		t.Fatalf("export file is empty")
	}
}

func TestRunnerOnceJSON(t *testing.T) {
	t.Parallel()
	o := defaultOptions()
	o.count = 1
	gen := predict.GeneratorFunc(func(_ context.Context, prompt string, _ predict.SamplingOptions) (string, error) {
		return prompt + " bark at the moon", nil
	})
	var out bytes.Buffer
	r := &runner{
		pipeline: predict.NewPipeline(gen, predict.PipelineConfig{}),
		opts:     &o,
		format:   export.FormatJSON,
		out:      &out,
	}
	if err := r.once(context.Background(), "the dogs"); err != nil {
		t.Fatalf("once: %v", err)
	}
	if !strings.Contains(out.String(), `"text": "bark at the moon"`) {
		t.Fatalf("unexpected json:\n%s", out.String())
	}
}

func TestUserMessageAndExitCode(t *testing.T) {
	t.Parallel()
	p := predict.NewPipeline(predict.GeneratorFunc(func(context.Context, string, predict.SamplingOptions) (string, error) {
		return "", predict.ErrModelUnavailable
	}), predict.PipelineConfig{})
	ctx := context.Background()
	defaults := defaultOptions()

	cases := []struct {
		name   string
		text   string
		params predict.Params
		msg    string
		code   int
	}{
		{"too short", "hi", defaults.params(), "Input text is too short (minimum 3 characters)", 2},
		{"too long", strings.Repeat("a", 201), defaults.params(), "Input text is too long (maximum 200 characters)", 2},
		{"bad temperature", "the cat", predict.Params{Temperature: ptrTo(-1.0)}, "Invalid temperature: -1 (out of range)", 2},
		{"model down", "the cat", defaults.params(), "Model unavailable", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := p.Run(ctx, tc.text, tc.params)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if msg := userMessage(err); !strings.HasPrefix(msg, tc.msg) {
				t.Fatalf("userMessage = %q, want prefix %q", msg, tc.msg)
			}
			if code := exitCode(err); code != tc.code {
				t.Fatalf("exitCode = %d, want %d", code, tc.code)
			}
		})
	}
}

func ptrTo[T any](v T) *T { return &v }
