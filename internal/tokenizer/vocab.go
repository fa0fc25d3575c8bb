package tokenizer

import (
	"fmt"
	"strings"
)

// UnknownToken is always id 0 in a Vocab.
const UnknownToken = "<unk>"

// Vocab is a piece-level vocabulary built from training text. Pieces not
// seen during building encode to the unknown id.
type Vocab struct {
	pre     *Pretokenizer
	encoder map[string]int
	decoder []string
}

// BuildVocab collects every distinct piece of texts, in first-seen order.
func BuildVocab(pre *Pretokenizer, texts ...string) *Vocab {
	if pre == nil {
		pre = Default()
	}
	v := &Vocab{
		pre:     pre,
		encoder: map[string]int{UnknownToken: 0},
		decoder: []string{UnknownToken},
	}
	for _, text := range texts {
		for _, piece := range pre.Split(text) {
			if _, ok := v.encoder[piece]; ok {
				continue
			}
			v.encoder[piece] = len(v.decoder)
			v.decoder = append(v.decoder, piece)
		}
	}
	return v
}

func (v *Vocab) Size() int { return len(v.decoder) }

func (v *Vocab) UnknownID() int { return 0 }

// ID returns the id of piece and whether it is in the vocabulary.
func (v *Vocab) ID(piece string) (int, bool) {
	id, ok := v.encoder[piece]
	return id, ok
}

func (v *Vocab) TokenString(id int) string {
	if id < 0 || id >= len(v.decoder) {
		return ""
	}
	return v.decoder[id]
}

func (v *Vocab) Encode(text string) ([]int, error) {
	pieces := v.pre.Split(text)
	ids := make([]int, len(pieces))
	for i, piece := range pieces {
		ids[i] = v.encoder[piece]
	}
	return ids, nil
}

// Decode joins the pieces of ids. The unknown id decodes to nothing.
func (v *Vocab) Decode(ids []int) (string, error) {
	var b strings.Builder
	for _, id := range ids {
		if id < 0 || id >= len(v.decoder) {
			return "", fmt.Errorf("token id out of range: %d", id)
		}
		if id == 0 {
			continue
		}
		b.WriteString(v.decoder[id])
	}
	return b.String(), nil
}
