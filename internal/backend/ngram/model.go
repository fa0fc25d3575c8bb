// Package ngram is an in-process bigram language model. Its "weights" are a
// plain-text corpus; generation samples one piece at a time with the logits
// sampler.
package ngram

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/samcharles93/nextline/internal/logits"
	"github.com/samcharles93/nextline/internal/predict"
	"github.com/samcharles93/nextline/internal/tokenizer"
)

//go:embed corpus/stories.txt
var defaultCorpus string

// floor is the logit of a piece that never followed the context.
const floor = -1e9

type Options struct {
	// Echo prefixes every continuation with the prompt, the way many
	// generation libraries return prompt+continuation.
	Echo bool
	// RepeatPenalty discourages recently emitted pieces. Zero means 1.1.
	RepeatPenalty float64
}

type edge struct {
	id    int
	logit float32
}

// Model is immutable after Train and safe for concurrent Generate calls.
type Model struct {
	vocab   *tokenizer.Vocab
	next    [][]edge
	unigram []float32
	stop    []bool
	opts    Options
	draws   atomic.Uint64
}

// Load trains a model from the corpus file at path. An empty path uses the
// embedded story corpus.
func Load(path string, opts Options) (*Model, error) {
	if strings.TrimSpace(path) == "" {
		return Train(defaultCorpus, opts)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read corpus %s: %w", predict.ErrModelUnavailable, path, err)
	}
	return Train(string(data), opts)
}

// Train builds bigram statistics over the pieces of corpus.
func Train(corpus string, opts Options) (*Model, error) {
	if strings.TrimSpace(corpus) == "" {
		return nil, fmt.Errorf("%w: empty corpus", predict.ErrModelUnavailable)
	}
	if opts.RepeatPenalty <= 0 {
		opts.RepeatPenalty = 1.1
	}

	pre := tokenizer.Default()
	vocab := tokenizer.BuildVocab(pre, corpus)
	ids, err := vocab.Encode(corpus)
	if err != nil {
		return nil, fmt.Errorf("encode corpus: %w", err)
	}

	v := vocab.Size()
	counts := make([]map[int]int, v)
	uni := make([]int, v)
	for i, id := range ids {
		uni[id]++
		if i == 0 {
			continue
		}
		prev := ids[i-1]
		if counts[prev] == nil {
			counts[prev] = make(map[int]int)
		}
		counts[prev][id]++
	}

	m := &Model{
		vocab:   vocab,
		next:    make([][]edge, v),
		unigram: make([]float32, v),
		stop:    make([]bool, v),
		opts:    opts,
	}
	for id := range v {
		m.stop[id] = strings.Contains(vocab.TokenString(id), "\n")
		m.unigram[id] = floor
		if uni[id] > 0 && !m.stop[id] {
			m.unigram[id] = float32(math.Log(float64(uni[id])))
		}
		for succ, n := range counts[id] {
			m.next[id] = append(m.next[id], edge{id: succ, logit: float32(math.Log(float64(n)))})
		}
	}
	m.unigram[0] = floor
	return m, nil
}

// VocabSize reports the number of distinct pieces, including <unk>.
func (m *Model) VocabSize() int { return m.vocab.Size() }

// Generate samples up to opts.MaxNewTokens pieces following prompt. It stops
// early at a paragraph break.
func (m *Model) Generate(ctx context.Context, prompt string, opts predict.SamplingOptions) (string, error) {
	ids, err := m.vocab.Encode(prompt)
	if err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}

	seed := opts.Seed
	if seed < 0 {
		seed = (time.Now().UnixNano() ^ int64(m.draws.Add(1)*0x9e3779b9)) & math.MaxInt64
	}
	sampler := logits.NewSampler(logits.SamplerConfig{
		Seed:          seed,
		Temperature:   opts.Temperature,
		TopK:          opts.TopK,
		TopP:          opts.TopP,
		RepeatPenalty: m.opts.RepeatPenalty,
	})

	last := -1
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] != m.vocab.UnknownID() {
			last = ids[i]
			break
		}
	}

	vec := make([]float32, m.vocab.Size())
	recent := append([]int(nil), ids...)
	out := make([]int, 0, opts.MaxNewTokens)
	for range opts.MaxNewTokens {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		m.fill(vec, last)
		id := sampler.Sample(vec, recent)
		if id == m.vocab.UnknownID() || m.stop[id] {
			break
		}
		out = append(out, id)
		recent = append(recent, id)
		last = id
	}

	text, err := m.vocab.Decode(out)
	if err != nil {
		return "", fmt.Errorf("decode continuation: %w", err)
	}
	if m.opts.Echo {
		return prompt + text, nil
	}
	return text, nil
}

// fill writes the next-piece logits given the previous piece, backing off to
// unigram frequencies when the previous piece has no recorded successors.
func (m *Model) fill(vec []float32, prev int) {
	if prev < 0 || len(m.next[prev]) == 0 {
		copy(vec, m.unigram)
		return
	}
	for i := range vec {
		vec[i] = floor
	}
	for _, e := range m.next[prev] {
		vec[e.id] = e.logit
	}
}
