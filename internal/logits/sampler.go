// Package logits draws token ids from logit vectors.
package logits

import (
	"math"
	"math/rand/v2"
	"time"
)

// SamplerConfig configures a Sampler. Zero values pick defaults.
type SamplerConfig struct {
	// Seed fixes the draw sequence. Negative seeds use the clock.
	Seed          int64
	Temperature   float64
	TopK          int
	TopP          float64
	RepeatPenalty float64
	RepeatLastN   int
}

// Sampler applies repetition penalty, temperature, top-k and top-p to a
// logits vector and draws one index. A Sampler is not safe for concurrent
// use; create one per generation.
type Sampler struct {
	rng *rand.Rand
	cfg SamplerConfig

	idx  []int
	val  []float64
	prob []float64
	seen map[int]struct{}
}

func NewSampler(cfg SamplerConfig) *Sampler {
	if cfg.Temperature <= 0 {
		cfg.Temperature = 1
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 40
	}
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		cfg.TopP = 1
	}
	if cfg.RepeatPenalty <= 0 {
		cfg.RepeatPenalty = 1
	}
	if cfg.RepeatLastN <= 0 {
		cfg.RepeatLastN = 64
	}
	seed := uint64(cfg.Seed)
	if cfg.Seed < 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Sampler{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		cfg:  cfg,
		seen: make(map[int]struct{}),
	}
}

// Sample returns an index into logits. recent holds previously emitted ids
// for the repetition penalty. logits is modified in place when a penalty
// applies.
//
// The steps are:
//
//  1. divide (or multiply, for negative values) the logits of ids among the
//     last RepeatLastN recent ids by RepeatPenalty;
//  2. with TopK == 1 return the argmax;
//  3. scale by 1/Temperature and keep the TopK largest;
//  4. softmax over the shortlist;
//  5. cut the shortlist once its cumulative probability reaches TopP;
//  6. draw from what is left.
func (s *Sampler) Sample(logits []float32, recent []int) int {
	if len(logits) == 0 {
		return 0
	}
	if s.cfg.RepeatPenalty > 1 && len(recent) > 0 {
		s.penalize(logits, recent)
	}
	if s.cfg.TopK == 1 {
		return argmax(logits)
	}

	idx, val := s.topK(logits, min(s.cfg.TopK, len(logits)), 1/s.cfg.Temperature)

	if cap(s.prob) < len(val) {
		s.prob = make([]float64, len(val))
	}
	prob := s.prob[:len(val)]
	var sum float64
	for i, v := range val {
		prob[i] = math.Exp(v - val[0])
		sum += prob[i]
	}
	if sum == 0 || math.IsNaN(sum) {
		return idx[0]
	}

	cut := len(prob)
	if s.cfg.TopP < 1 {
		var c float64
		for i := range prob {
			c += prob[i] / sum
			if c >= s.cfg.TopP {
				cut = i + 1
				break
			}
		}
	}

	var kept float64
	for _, p := range prob[:cut] {
		kept += p
	}
	r := s.rng.Float64() * kept
	var c float64
	for i := 0; i < cut; i++ {
		c += prob[i]
		if r < c {
			return idx[i]
		}
	}
	return idx[cut-1]
}

func (s *Sampler) penalize(logits []float32, recent []int) {
	clear(s.seen)
	start := max(len(recent)-s.cfg.RepeatLastN, 0)
	for _, id := range recent[start:] {
		if id < 0 || id >= len(logits) {
			continue
		}
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		if logits[id] > 0 {
			logits[id] /= float32(s.cfg.RepeatPenalty)
		} else {
			logits[id] *= float32(s.cfg.RepeatPenalty)
		}
	}
}

// topK returns the k largest logits scaled by invTemp, largest first.
// Insertion into a sorted shortlist is O(V*k), fine for small k.
func (s *Sampler) topK(logits []float32, k int, invTemp float64) ([]int, []float64) {
	idx := s.idx[:0]
	val := s.val[:0]
	for i, l := range logits {
		v := float64(l) * invTemp
		if len(val) == k && v <= val[k-1] {
			continue
		}
		pos := len(val)
		for pos > 0 && val[pos-1] < v {
			pos--
		}
		if len(val) < k {
			idx = append(idx, 0)
			val = append(val, 0)
		}
		copy(idx[pos+1:], idx[pos:len(idx)-1])
		copy(val[pos+1:], val[pos:len(val)-1])
		idx[pos] = i
		val[pos] = v
	}
	s.idx, s.val = idx, val
	return idx, val
}

func argmax(x []float32) int {
	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[best] {
			best = i
		}
	}
	return best
}
