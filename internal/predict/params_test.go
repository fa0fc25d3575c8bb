package predict

import (
	"errors"
	"math"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()
	sp, err := Normalize(Params{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if sp.Temperature() != DefaultTemperature || sp.MaxLength() != DefaultMaxLength ||
		sp.TopK() != DefaultTopK || sp.TopP() != DefaultTopP ||
		sp.CandidateCount() != DefaultCandidates || sp.Seed() != NoSeed {
		t.Fatalf("unexpected defaults: %+v", sp)
	}
}

func TestNormalizeClamps(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   Params
		want SafeParams
	}{
		{
			name: "low values",
			in:   Params{Temperature: ptr(0.01), MaxLength: ptr(5), CandidateCount: ptr(0)},
			want: SafeParams{temperature: 0.1, maxLength: 20, topK: 50, topP: 0.95, candidateCount: 1, seed: NoSeed},
		},
		{
			name: "high values",
			in:   Params{Temperature: ptr(9.0), MaxLength: ptr(500), CandidateCount: ptr(50)},
			want: SafeParams{temperature: 2.0, maxLength: 100, topK: 50, topP: 0.95, candidateCount: 10, seed: NoSeed},
		},
		{
			name: "in range passes through",
			in:   Params{Temperature: ptr(0.8), MaxLength: ptr(50), CandidateCount: ptr(3), TopK: ptr(7), TopP: ptr(0.5), Seed: ptr(int64(9))},
			want: SafeParams{temperature: 0.8, maxLength: 50, topK: 7, topP: 0.5, candidateCount: 3, seed: 9},
		},
		{
			name: "bad sampling knobs reset",
			in:   Params{TopK: ptr(-3), TopP: ptr(1.5)},
			want: SafeParams{temperature: 0.8, maxLength: 50, topK: 50, topP: 0.95, candidateCount: 3, seed: NoSeed},
		},
		{
			name: "nan top-p resets",
			in:   Params{TopP: ptr(math.NaN()), TopK: ptr(0)},
			want: SafeParams{temperature: 0.8, maxLength: 50, topK: 50, topP: 0.95, candidateCount: 3, seed: NoSeed},
		},
		{
			name: "top-p of one kept",
			in:   Params{TopP: ptr(1.0)},
			want: SafeParams{temperature: 0.8, maxLength: 50, topK: 50, topP: 1.0, candidateCount: 3, seed: NoSeed},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Normalize(tc.in)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestNormalizeRejectsTemperature(t *testing.T) {
	t.Parallel()
	cases := []struct {
		temp   float64
		reason string
	}{
		{0, ReasonOutOfRange},
		{-1, ReasonOutOfRange},
		{math.NaN(), ReasonNonNumeric},
		{math.Inf(1), ReasonNonNumeric},
		{math.Inf(-1), ReasonNonNumeric},
	}
	for _, tc := range cases {
		_, err := Normalize(Params{Temperature: ptr(tc.temp)})
		var pe *ParameterError
		if !errors.As(err, &pe) {
			t.Fatalf("temperature %v: expected ParameterError, got %v", tc.temp, err)
		}
		if pe.Reason != tc.reason || pe.Field != "temperature" {
			t.Fatalf("temperature %v: got %+v", tc.temp, pe)
		}
		if !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("expected errors.Is(ErrInvalidParameter)")
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()
	inputs := []Params{
		{},
		{Temperature: ptr(5.0), MaxLength: ptr(1), CandidateCount: ptr(99), TopK: ptr(-1), TopP: ptr(0.0)},
		{Temperature: ptr(0.3), MaxLength: ptr(77), CandidateCount: ptr(4), TopK: ptr(12), TopP: ptr(0.7), Seed: ptr(int64(5))},
	}
	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		twice, err := Normalize(once.Params())
		if err != nil {
			t.Fatalf("Normalize(normalized): %v", err)
		}
		if once != twice {
			t.Fatalf("not idempotent: %+v then %+v", once, twice)
		}
	}
}

func TestNormalizeDoesNotMutate(t *testing.T) {
	t.Parallel()
	temp, count := 9.0, 50
	p := Params{Temperature: &temp, CandidateCount: &count}
	if _, err := Normalize(p); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if temp != 9.0 || count != 50 {
		t.Fatalf("input mutated: temp=%v count=%v", temp, count)
	}
}
