package predict

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every typed error below unwraps to one of them.
var (
	ErrInvalidInput      = errors.New("invalid_input")
	ErrInvalidParameter  = errors.New("invalid_parameter")
	ErrModelUnavailable  = errors.New("model_unavailable")
	ErrGenerationTimeout = errors.New("generation_timeout")
	ErrRejected          = errors.New("generation_rejected")
	ErrNoPredictions     = errors.New("no_predictions")
)

// Input rejection reasons.
const (
	ReasonTooShort = "too_short"
	ReasonTooLong  = "too_long"
)

// Parameter rejection reasons.
const (
	ReasonOutOfRange = "out_of_range"
	ReasonNonNumeric = "non_numeric"
)

// InputError reports source text outside the accepted length window.
type InputError struct {
	Reason string
	Length int
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s (%d characters, want %d-%d)", e.Reason, e.Length, MinInputChars, MaxInputChars)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// ParameterError reports a generation parameter that cannot be clamped.
type ParameterError struct {
	Field  string
	Reason string
	Value  float64
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s (%v)", e.Field, e.Reason, e.Value)
}

func (e *ParameterError) Unwrap() error { return ErrInvalidParameter }

// GenerationKind classifies why a generator call produced nothing.
type GenerationKind int

const (
	KindModelUnavailable GenerationKind = iota + 1
	KindTimeout
	KindRejected
)

func (k GenerationKind) String() string {
	switch k {
	case KindModelUnavailable:
		return "model_unavailable"
	case KindTimeout:
		return "generation_timeout"
	case KindRejected:
		return "generation_rejected"
	default:
		return "unknown"
	}
}

// GenerationError is a failed generator call, or a whole batch that yielded
// nothing.
type GenerationError struct {
	Kind GenerationKind
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *GenerationError) Unwrap() []error {
	var sentinel error
	switch e.Kind {
	case KindModelUnavailable:
		sentinel = ErrModelUnavailable
	case KindTimeout:
		sentinel = ErrGenerationTimeout
	default:
		sentinel = ErrRejected
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

// classify turns an arbitrary generator error into a GenerationError.
func classify(err error) *GenerationError {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge
	}
	switch {
	case errors.Is(err, ErrModelUnavailable):
		return &GenerationError{Kind: KindModelUnavailable, Err: err}
	case errors.Is(err, ErrGenerationTimeout), isDeadline(err):
		return &GenerationError{Kind: KindTimeout, Err: err}
	default:
		return &GenerationError{Kind: KindRejected, Err: err}
	}
}

// PipelineKind is the stage at which a pipeline run failed.
type PipelineKind string

const (
	PipelineInvalidInput     PipelineKind = "invalid_input"
	PipelineInvalidParameter PipelineKind = "invalid_parameter"
	PipelineNoPredictions    PipelineKind = "no_predictions"
	PipelineCanceled         PipelineKind = "canceled"
)

// PipelineError is the only error type returned by Pipeline.Run.
type PipelineError struct {
	Kind PipelineKind
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *PipelineError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind == PipelineNoPredictions {
		errs = append(errs, ErrNoPredictions)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
