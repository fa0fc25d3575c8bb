package predict

import (
	"context"
	"sync/atomic"
)

// reply is what a scripted generator returns for one call.
type reply struct {
	text string
	err  error
	// block makes the call wait for ctx to end, ignoring it when deaf is set.
	block bool
	deaf  chan struct{}
}

// scripted answers call i with replies[i]. Calls are identified by their
// seed, so params must carry seed 0.
type scripted struct {
	replies []reply
	calls   atomic.Int32
	prompts chan string
}

func newScripted(replies ...reply) *scripted {
	return &scripted{replies: replies, prompts: make(chan string, 32)}
}

func (s *scripted) Generate(ctx context.Context, prompt string, opts SamplingOptions) (string, error) {
	s.calls.Add(1)
	select {
	case s.prompts <- prompt:
	default:
	}
	i := int(opts.Seed)
	if i < 0 || i >= len(s.replies) {
		return "", &GenerationError{Kind: KindRejected}
	}
	r := s.replies[i]
	switch {
	case r.deaf != nil:
		<-r.deaf
	case r.block:
		<-ctx.Done()
		return "", ctx.Err()
	}
	return r.text, r.err
}

func ptr[T any](v T) *T { return &v }

// seeded returns params for n candidates with seed 0 so scripted can index
// replies by call.
func seeded(n int) Params {
	return Params{CandidateCount: ptr(n), Seed: ptr(int64(0))}
}
