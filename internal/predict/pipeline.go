// Package predict turns a sentence fragment into ranked, cleaned
// continuations sampled from a Generator.
package predict

import (
	"context"
	"errors"
	"time"

	"github.com/samcharles93/nextline/internal/logger"
)

type PipelineConfig struct {
	Engine EngineConfig
	// Cleanup options applied after generation. Count and MaxTokens are
	// filled from the normalized parameters.
	FirstSentence bool
	MinWords      int
	Tokenizer     Splitter
	Logger        logger.Logger
}

// Pipeline composes validation, parameter policy, generation and cleanup.
type Pipeline struct {
	engine *Engine
	cfg    PipelineConfig
	log    logger.Logger
}

func NewPipeline(gen Generator, cfg PipelineConfig) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Engine.Logger == nil {
		cfg.Engine.Logger = cfg.Logger
	}
	return &Pipeline{
		engine: NewEngine(gen, cfg.Engine),
		cfg:    cfg,
		log:    cfg.Logger.With("component", "pipeline"),
	}
}

// Run returns a non-empty PredictionSet or a *PipelineError. Input and
// parameter problems are reported before the generator is touched.
func (p *Pipeline) Run(ctx context.Context, raw string, params Params) (PredictionSet, error) {
	text, err := ValidateInput(raw)
	if err != nil {
		return PredictionSet{}, &PipelineError{Kind: PipelineInvalidInput, Err: err}
	}
	sp, err := Normalize(params)
	if err != nil {
		return PredictionSet{}, &PipelineError{Kind: PipelineInvalidParameter, Err: err}
	}

	start := time.Now()
	batch, err := p.engine.Generate(ctx, text, sp)
	if err != nil {
		if ctx.Err() != nil {
			return PredictionSet{}, &PipelineError{Kind: PipelineCanceled, Err: err}
		}
		p.log.Error("generation failed", "error", err)
		return PredictionSet{}, &PipelineError{Kind: PipelineNoPredictions, Err: err}
	}

	set := Process(batch.Candidates, text, ProcessOptions{
		Count:         sp.CandidateCount(),
		MaxTokens:     sp.MaxLength(),
		FirstSentence: p.cfg.FirstSentence,
		MinWords:      p.cfg.MinWords,
		Tokenizer:     p.cfg.Tokenizer,
	})
	set.Partial = batch.Partial

	p.log.Info("predictions ready",
		"requested", sp.CandidateCount(),
		"candidates", len(batch.Candidates),
		"predictions", set.Len(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	if set.Len() == 0 {
		return PredictionSet{}, &PipelineError{Kind: PipelineNoPredictions, Err: errors.New("every candidate was empty or filtered")}
	}
	return set, nil
}
