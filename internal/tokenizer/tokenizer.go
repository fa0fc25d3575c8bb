// Package tokenizer splits text into GPT-2 style pre-tokens and maps them to
// integer ids.
package tokenizer

import (
	"regexp"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Tokenizer maps text to token ids and back.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
}

// gpt2Pattern is the GPT-2 pre-tokenizer with the trailing-whitespace
// lookahead collapsed into \s+, since Go regexp has no lookahead. Every rune
// of the input falls into exactly one piece.
var gpt2Pattern = regexp.MustCompile(`'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+`)

const (
	defaultCacheTTL      = 10 * time.Minute
	defaultCacheCapacity = 4096
)

// Pretokenizer splits text into pieces. Leading spaces stay attached to the
// word that follows them, so joining the pieces restores the text exactly.
// Results are cached; callers must not modify returned slices.
type Pretokenizer struct {
	pattern *regexp.Regexp
	cache   *ttlcache.Cache[string, []string]
}

// NewPretokenizer returns a Pretokenizer whose cache keeps entries for ttl.
func NewPretokenizer(ttl time.Duration) *Pretokenizer {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Pretokenizer{
		pattern: gpt2Pattern,
		cache: ttlcache.New[string, []string](
			ttlcache.WithTTL[string, []string](ttl),
			ttlcache.WithCapacity[string, []string](defaultCacheCapacity),
			ttlcache.WithDisableTouchOnHit[string, []string](),
		),
	}
}

// Default is the process-wide Pretokenizer.
var Default = sync.OnceValue(func() *Pretokenizer {
	return NewPretokenizer(defaultCacheTTL)
})

// Split returns the pieces of text.
func (p *Pretokenizer) Split(text string) []string {
	if text == "" {
		return nil
	}
	if item := p.cache.Get(text); item != nil {
		return item.Value()
	}
	pieces := p.pattern.FindAllString(text, -1)
	p.cache.Set(text, pieces, ttlcache.DefaultTTL)
	return pieces
}

// Count returns the number of pieces in text.
func (p *Pretokenizer) Count(text string) int {
	return len(p.Split(text))
}
