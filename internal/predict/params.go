package predict

import "math"

// Parameter bounds and defaults.
const (
	MinTemperature     = 0.1
	MaxTemperature     = 2.0
	DefaultTemperature = 0.8

	MinMaxLength     = 20
	MaxMaxLength     = 100
	DefaultMaxLength = 50

	MinCandidates     = 1
	MaxCandidates     = 10
	DefaultCandidates = 3

	DefaultTopK = 50
	DefaultTopP = 0.95

	// NoSeed lets every generator call draw its own randomness.
	NoSeed int64 = -1
)

// Params is a caller-supplied parameter bundle. A nil field means
// "unspecified" and picks the default.
type Params struct {
	Temperature    *float64
	MaxLength      *int
	TopK           *int
	TopP           *float64
	CandidateCount *int
	Seed           *int64
}

// SafeParams is a normalized, immutable parameter set.
type SafeParams struct {
	temperature    float64
	maxLength      int
	topK           int
	topP           float64
	candidateCount int
	seed           int64
}

func (s SafeParams) Temperature() float64 { return s.temperature }
func (s SafeParams) MaxLength() int        { return s.maxLength }
func (s SafeParams) TopK() int             { return s.topK }
func (s SafeParams) TopP() float64         { return s.topP }
func (s SafeParams) CandidateCount() int   { return s.candidateCount }
func (s SafeParams) Seed() int64           { return s.seed }

// Params converts s back into a fully specified Params. Normalizing the
// result yields s again.
func (s SafeParams) Params() Params {
	temp, maxLen, topK, topP, count, seed := s.temperature, s.maxLength, s.topK, s.topP, s.candidateCount, s.seed
	return Params{
		Temperature:    &temp,
		MaxLength:      &maxLen,
		TopK:           &topK,
		TopP:           &topP,
		CandidateCount: &count,
		Seed:           &seed,
	}
}

// Normalize validates p and clamps it into safe ranges. Only a temperature
// that is non-numeric or not positive is an error; everything else degrades
// to a bound or a default.
func Normalize(p Params) (SafeParams, error) {
	sp := SafeParams{
		temperature:    DefaultTemperature,
		maxLength:      DefaultMaxLength,
		topK:           DefaultTopK,
		topP:           DefaultTopP,
		candidateCount: DefaultCandidates,
		seed:           NoSeed,
	}

	if p.Temperature != nil {
		t := *p.Temperature
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return SafeParams{}, &ParameterError{Field: "temperature", Reason: ReasonNonNumeric, Value: t}
		}
		if t <= 0 {
			return SafeParams{}, &ParameterError{Field: "temperature", Reason: ReasonOutOfRange, Value: t}
		}
		sp.temperature = min(max(t, MinTemperature), MaxTemperature)
	}
	if p.MaxLength != nil {
		sp.maxLength = min(max(*p.MaxLength, MinMaxLength), MaxMaxLength)
	}
	if p.CandidateCount != nil {
		sp.candidateCount = min(max(*p.CandidateCount, MinCandidates), MaxCandidates)
	}
	if p.TopK != nil && *p.TopK > 0 {
		sp.topK = *p.TopK
	}
	if p.TopP != nil && *p.TopP > 0 && *p.TopP <= 1 {
		sp.topP = *p.TopP
	}
	if p.Seed != nil && *p.Seed >= 0 {
		sp.seed = *p.Seed
	}
	return sp, nil
}
