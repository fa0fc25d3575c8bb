package predict

import (
	"context"
	"fmt"
	"sync"
)

// SamplingOptions are the knobs passed to a single generator call.
type SamplingOptions struct {
	Temperature  float64
	MaxNewTokens int
	TopK         int
	TopP         float64
	// Seed is NoSeed when the call should draw its own randomness.
	Seed int64
}

// Generator is a stochastic text-continuation capability. One call returns
// one continuation; the text may or may not start with the prompt.
// Implementations report an unreachable or unloadable model by wrapping
// ErrModelUnavailable and must be safe for concurrent calls.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts SamplingOptions) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, opts SamplingOptions) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts SamplingOptions) (string, error) {
	return f(ctx, prompt, opts)
}

// Lazy is a Generator whose underlying model is loaded on first use.
//
// The load function runs at most once for the lifetime of the Lazy value,
// and its outcome is kept: a loaded handle is reused by every later call and
// a failed load is never retried. The handle is treated as read-only after
// Init, so no lock is held around Generate.
type Lazy struct {
	load func(context.Context) (Generator, error)
	once sync.Once
	gen  Generator
	err  error
}

// NewLazy returns a Lazy that calls load on first use.
func NewLazy(load func(context.Context) (Generator, error)) *Lazy {
	return &Lazy{load: load}
}

// Init loads the model if that has not been attempted yet and reports the
// outcome of the single load attempt.
func (l *Lazy) Init(ctx context.Context) error {
	l.once.Do(func() {
		gen, err := l.load(ctx)
		switch {
		case err != nil:
			l.err = &GenerationError{Kind: KindModelUnavailable, Err: fmt.Errorf("load model: %w", err)}
		case gen == nil:
			l.err = &GenerationError{Kind: KindModelUnavailable, Err: fmt.Errorf("load model: no generator returned")}
		default:
			l.gen = gen
		}
	})
	return l.err
}

// Generate initializes the model if needed and delegates to it.
func (l *Lazy) Generate(ctx context.Context, prompt string, opts SamplingOptions) (string, error) {
	if err := l.Init(ctx); err != nil {
		return "", err
	}
	return l.gen.Generate(ctx, prompt, opts)
}
