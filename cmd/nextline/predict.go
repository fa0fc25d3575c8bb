package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/nextline/internal/backend/ngram"
	"github.com/samcharles93/nextline/internal/backend/remote"
	"github.com/samcharles93/nextline/internal/export"
	"github.com/samcharles93/nextline/internal/logger"
	"github.com/samcharles93/nextline/internal/predict"
)

// predictOptions collects the predict command's flag destinations.
type predictOptions struct {
	temperature float64
	maxLength   int64
	topK        int64
	topP        float64
	count       int64
	seed        int64

	backend  string
	corpus   string
	endpoint string
	model    string
	apiKey   string
	timeout  time.Duration
	workers  int64

	firstSentence bool
	minWords      int64

	format  string
	export  string
	example int64
}

func (o *predictOptions) params() predict.Params {
	maxLength := int(o.maxLength)
	topK := int(o.topK)
	count := int(o.count)
	return predict.Params{
		Temperature:    &o.temperature,
		MaxLength:      &maxLength,
		TopK:           &topK,
		TopP:           &o.topP,
		CandidateCount: &count,
		Seed:           &o.seed,
	}
}

func predictCmd() *cli.Command {
	var o predictOptions

	flags := []cli.Flag{
		&cli.Float64Flag{
			Name:        "temperature",
			Aliases:     []string{"temp", "t"},
			Usage:       "sampling temperature (0.1-2.0)",
			Value:       predict.DefaultTemperature,
			Destination: &o.temperature,
		},
		&cli.Int64Flag{
			Name:        "max-length",
			Aliases:     []string{"n"},
			Usage:       "maximum tokens per prediction (20-100)",
			Value:       predict.DefaultMaxLength,
			Destination: &o.maxLength,
		},
		&cli.Int64Flag{
			Name:        "top-k",
			Aliases:     []string{"top_k"},
			Usage:       "top-k sampling parameter",
			Value:       predict.DefaultTopK,
			Destination: &o.topK,
		},
		&cli.Float64Flag{
			Name:        "top-p",
			Aliases:     []string{"top_p"},
			Usage:       "top-p sampling parameter",
			Value:       predict.DefaultTopP,
			Destination: &o.topP,
		},
		&cli.Int64Flag{
			Name:        "count",
			Aliases:     []string{"c"},
			Usage:       "number of predictions (1-10)",
			Value:       predict.DefaultCandidates,
			Destination: &o.count,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "sampling RNG seed (default -1 = random)",
			Value:       predict.NoSeed,
			Destination: &o.seed,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "text generator (ngram, remote)",
			Value:       "ngram",
			Sources:     cli.EnvVars("NEXTLINE_BACKEND"),
			Destination: &o.backend,
		},
		&cli.StringFlag{
			Name:        "corpus",
			Usage:       "training text for the ngram backend (default: built-in stories)",
			Sources:     cli.EnvVars("NEXTLINE_CORPUS"),
			Destination: &o.corpus,
		},
		&cli.StringFlag{
			Name:        "endpoint",
			Usage:       "base URL of an OpenAI-compatible completions server",
			Sources:     cli.EnvVars("NEXTLINE_ENDPOINT"),
			Destination: &o.endpoint,
		},
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "model name sent to the remote backend",
			Destination: &o.model,
		},
		&cli.StringFlag{
			Name:        "api-key",
			Usage:       "bearer token for the remote backend",
			Sources:     cli.EnvVars("NEXTLINE_API_KEY"),
			Destination: &o.apiKey,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "time budget for each generation call",
			Value:       predict.DefaultCallTimeout,
			Destination: &o.timeout,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Usage:       "concurrent generation calls",
			Value:       predict.DefaultWorkers,
			Destination: &o.workers,
		},
		&cli.BoolFlag{
			Name:        "first-sentence",
			Usage:       "keep only the first sentence of each prediction",
			Destination: &o.firstSentence,
		},
		&cli.Int64Flag{
			Name:        "min-words",
			Usage:       "drop predictions shorter than this many words",
			Destination: &o.minWords,
		},
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "stdout format (text, json)",
			Value:       string(export.FormatText),
			Destination: &o.format,
		},
		&cli.StringFlag{
			Name:        "export",
			Aliases:     []string{"o"},
			Usage:       "also write predictions to this file (.json for JSON)",
			Destination: &o.export,
		},
		&cli.Int64Flag{
			Name:        "example",
			Usage:       "use example prompt N (see `nextline examples`)",
			Destination: &o.example,
		},
	}

	return &cli.Command{
		Name:      "predict",
		Usage:     "Predict continuations for a sentence fragment",
		ArgsUsage: "[fragment...]",
		Flags:     append(flags, loggingFlags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := LoadConfig()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			applyPredictConfig(c.IsSet, cfg, &o)
			log := setupLogger()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()
			ctx = logger.WithContext(ctx, log)

			format, err := export.ParseFormat(o.format)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 2)
			}

			gen, err := newGenerator(&o)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 2)
			}
			pipeline := predict.NewPipeline(gen, predict.PipelineConfig{
				Engine: predict.EngineConfig{
					CallTimeout: o.timeout,
					Workers:     int(o.workers),
				},
				FirstSentence: o.firstSentence,
				MinWords:      int(o.minWords),
				Logger:        log,
			})
			r := &runner{pipeline: pipeline, opts: &o, format: format, out: os.Stdout}

			text, err := fragmentFromArgs(c.Args().Slice(), o.example)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 2)
			}
			if text == "" {
				if stdinIsTTY() {
					return r.interactive(ctx)
				}
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: read stdin: %v", err), 1)
				}
				text = string(data)
			}
			if err := r.once(ctx, text); err != nil {
				return cli.Exit(userMessage(err), exitCode(err))
			}
			return nil
		},
	}
}

// newGenerator returns a lazily loaded generator for the selected backend.
// Nothing is loaded or contacted until the first prediction.
func newGenerator(o *predictOptions) (*predict.Lazy, error) {
	switch strings.ToLower(strings.TrimSpace(o.backend)) {
	case "", "ngram":
		corpus := o.corpus
		return predict.NewLazy(func(context.Context) (predict.Generator, error) {
			m, err := ngram.Load(corpus, ngram.Options{Echo: true})
			if err != nil {
				return nil, err
			}
			return m, nil
		}), nil
	case "remote":
		cfg := remote.Config{
			Endpoint: o.endpoint,
			Model:    o.model,
			APIKey:   o.apiKey,
			Timeout:  o.timeout,
		}
		return predict.NewLazy(func(context.Context) (predict.Generator, error) {
			c, err := remote.New(cfg)
			if err != nil {
				return nil, err
			}
			return c, nil
		}), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want ngram or remote)", o.backend)
	}
}

// fragmentFromArgs picks the fragment from --example or the positional
// arguments. An empty result means the fragment comes from stdin.
func fragmentFromArgs(args []string, example int64) (string, error) {
	if example != 0 {
		if len(args) > 0 {
			return "", errors.New("--example cannot be combined with a fragment")
		}
		return exampleSentence(int(example))
	}
	return strings.Join(args, " "), nil
}

type runner struct {
	pipeline *predict.Pipeline
	opts     *predictOptions
	format   export.Format
	out      io.Writer
}

func (r *runner) once(ctx context.Context, text string) error {
	set, err := r.pipeline.Run(ctx, text, r.opts.params())
	if err != nil {
		return err
	}
	return r.emit(set)
}

func (r *runner) emit(set predict.PredictionSet) error {
	if r.opts.export != "" {
		if err := export.WriteFile(r.opts.export, set, export.FormatFromPath(r.opts.export)); err != nil {
			return err
		}
	}
	if r.format == export.FormatJSON {
		return export.WriteJSON(r.out, set)
	}
	return export.Render(r.out, set)
}

// interactive prompts for fragments until EOF. A blank line generates a
// fresh set for the previous fragment.
func (r *runner) interactive(ctx context.Context) error {
	_, _ = fmt.Fprintln(r.out, "Type a sentence fragment. Empty line regenerates, Ctrl-D quits.")
	var last string
	for ctx.Err() == nil {
		line, err := readInteractiveLine("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return cli.Exit(fmt.Sprintf("error: read input: %v", err), 1)
		}
		switch strings.TrimSpace(line) {
		case "":
			if last == "" {
				continue
			}
			line = last
		case "exit", "quit":
			return nil
		}
		last = line

		if err := r.once(ctx, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			_, _ = fmt.Fprintln(os.Stderr, userMessage(err))
			continue
		}
		_, _ = fmt.Fprintln(r.out)
	}
	return nil
}

// userMessage turns a pipeline error into a line for the terminal.
func userMessage(err error) string {
	var ie *predict.InputError
	if errors.As(err, &ie) {
		switch ie.Reason {
		case predict.ReasonTooShort:
			return fmt.Sprintf("Input text is too short (minimum %d characters)", predict.MinInputChars)
		case predict.ReasonTooLong:
			return fmt.Sprintf("Input text is too long (maximum %d characters)", predict.MaxInputChars)
		}
	}
	var pe *predict.ParameterError
	if errors.As(err, &pe) {
		return fmt.Sprintf("Invalid %s: %v (%s)", pe.Field, pe.Value, strings.ReplaceAll(pe.Reason, "_", " "))
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "Canceled"
	case errors.Is(err, predict.ErrModelUnavailable):
		return fmt.Sprintf("Model unavailable: %v", err)
	case errors.Is(err, predict.ErrGenerationTimeout):
		return "Generation timed out; try a larger --timeout"
	case errors.Is(err, predict.ErrNoPredictions):
		return "Could not generate predictions; try again or raise the temperature"
	}
	return fmt.Sprintf("error: %v", err)
}

func exitCode(err error) int {
	var pe *predict.PipelineError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case predict.PipelineInvalidInput, predict.PipelineInvalidParameter:
			return 2
		case predict.PipelineCanceled:
			return 130
		}
	}
	return 1
}
