package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/nextline/internal/logger"
)

const (
	DefaultCallTimeout = 10 * time.Second
	DefaultWorkers     = 4
)

// RawCandidate is one decoded output of a single generator call.
type RawCandidate struct {
	Text            string
	SourceRequestID uuid.UUID
	// Index is the call slot that produced the candidate.
	Index int
}

// Batch is the outcome of one Engine.Generate call.
type Batch struct {
	// Candidates are ordered by call index.
	Candidates []RawCandidate
	Failures   []error
	// Partial is set when some calls failed but at least one succeeded.
	Partial bool
}

type EngineConfig struct {
	// CallTimeout bounds each generator call. Zero means DefaultCallTimeout.
	CallTimeout time.Duration
	// Workers bounds concurrent calls. Zero means DefaultWorkers.
	Workers int
	Logger  logger.Logger
}

// Engine issues candidateCount independent calls to a Generator and
// collects what comes back.
type Engine struct {
	gen     Generator
	timeout time.Duration
	workers int
	log     logger.Logger
}

func NewEngine(gen Generator, cfg EngineConfig) *Engine {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Engine{
		gen:     gen,
		timeout: cfg.CallTimeout,
		workers: cfg.Workers,
		log:     cfg.Logger.With("component", "engine"),
	}
}

type callResult struct {
	text string
	err  error
	id   uuid.UUID
}

// Generate runs the batch. It fails only when no call produced a candidate;
// a partially failed batch is returned with Partial set.
func (e *Engine) Generate(ctx context.Context, prompt string, sp SafeParams) (Batch, error) {
	n := sp.CandidateCount()
	slots := make([]callResult, n)

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range n {
		g.Go(func() error {
			start := time.Now()
			text, err := e.call(ctx, prompt, samplingFor(sp, i))
			slots[i] = callResult{text: text, err: err, id: uuid.New()}
			if err != nil {
				e.log.Debug("call failed", "call", i, "elapsed", time.Since(start), "error", err)
			} else {
				e.log.Debug("call finished", "call", i, "elapsed", time.Since(start), "chars", len(text))
			}
			return nil
		})
	}
	_ = g.Wait()

	var b Batch
	for i, s := range slots {
		if s.err != nil {
			b.Failures = append(b.Failures, s.err)
			continue
		}
		b.Candidates = append(b.Candidates, RawCandidate{Text: s.text, SourceRequestID: s.id, Index: i})
	}

	if len(b.Candidates) == 0 {
		if err := ctx.Err(); err != nil {
			return b, err
		}
		return b, aggregate(b.Failures)
	}
	if len(b.Failures) > 0 {
		b.Partial = true
		e.log.Warn("partial batch", "succeeded", len(b.Candidates), "failed", len(b.Failures), "error", errors.Join(b.Failures...))
	}
	return b, nil
}

// call runs a single generator call under the per-call budget. A generator
// that ignores its context is abandoned once the budget runs out; its result
// is discarded when it eventually arrives.
func (e *Engine) call(ctx context.Context, prompt string, opts SamplingOptions) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- callResult{err: fmt.Errorf("panic in Generate: %v", rec)}
			}
		}()
		text, err := e.gen.Generate(callCtx, prompt, opts)
		done <- callResult{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", classify(r.err)
		}
		return r.text, nil
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", &GenerationError{Kind: KindTimeout, Err: fmt.Errorf("no result within %s", e.timeout)}
	}
}

func samplingFor(sp SafeParams, call int) SamplingOptions {
	seed := sp.Seed()
	if seed != NoSeed {
		seed += int64(call)
	}
	return SamplingOptions{
		Temperature:  sp.Temperature(),
		MaxNewTokens: sp.MaxLength(),
		TopK:         sp.TopK(),
		TopP:         sp.TopP(),
		Seed:         seed,
	}
}

// aggregate reduces per-call failures to one batch error. An unavailable
// model outranks timeouts, which outrank rejections.
func aggregate(failures []error) error {
	if len(failures) == 0 {
		return &GenerationError{Kind: KindRejected, Err: errors.New("no calls issued")}
	}
	kind := KindRejected
	for _, err := range failures {
		ge := classify(err)
		switch {
		case ge.Kind == KindModelUnavailable:
			kind = KindModelUnavailable
		case ge.Kind == KindTimeout && kind == KindRejected:
			kind = KindTimeout
		}
	}
	return &GenerationError{
		Kind: kind,
		Err:  fmt.Errorf("all %d calls failed: %w", len(failures), errors.Join(failures...)),
	}
}

func isDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
