package tokenizer

import (
	"errors"
	"unicode/utf8"

	"github.com/example/go-qa-prep/internal/text"
	"github.com/example/go-qa-prep/internal/vocab"
)

// ErrNilVocabulary is returned when New is called without a vocabulary.
var ErrNilVocabulary = errors.New("tokenizer requires a vocabulary")

// Tokenizer segments text into WordPiece subword tokens. It holds only the
// shared immutable vocabulary, so a single instance is safe for concurrent
// use.
type Tokenizer struct {
	vocab *vocab.Vocabulary
	opts  text.Options
}

// New builds a Tokenizer around v. The normalization flags travel with the
// vocabulary, so a tokenizer always matches the casing convention its
// vocabulary was trained with.
func New(v *vocab.Vocabulary) (*Tokenizer, error) {
	if v == nil {
		return nil, ErrNilVocabulary
	}
	return &Tokenizer{
		vocab: v,
		opts:  text.Options{Lowercase: v.Lowercase(), StripAccents: v.StripAccents()},
	}, nil
}

// Vocab returns the shared vocabulary.
func (t *Tokenizer) Vocab() *vocab.Vocabulary { return t.vocab }

// Encode normalizes input and segments it into subword tokens. Words with no
// vocabulary match collapse to a single unknown token; encoding never fails.
func (t *Tokenizer) Encode(input string) []Token {
	return t.encodeNormalized(text.Normalize(input, t.opts))
}

func (t *Tokenizer) encodeNormalized(n text.Normalized) []Token {
	s := n.Text
	tokens := make([]Token, 0, len(s)/4+1)

	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case text.IsWhitespace(r):
			i += size
		case text.IsPunctuation(r):
			tokens = t.wordPiece(n, i, i+size, tokens)
			i += size
		default:
			j := i + size
			for j < len(s) {
				nr, nsize := utf8.DecodeRuneInString(s[j:])
				if text.IsWhitespace(nr) || text.IsPunctuation(nr) {
					break
				}
				j += nsize
			}
			tokens = t.wordPiece(n, i, j, tokens)
			i = j
		}
	}
	return tokens
}

// PairEncoding holds the tokenized halves of a (question, context) pair plus
// the segment-type sequence for the packed layout
// [CLS] question [SEP] context [SEP]: 0 through the first separator, 1 after.
type PairEncoding struct {
	Question []Token
	Context  []Token
	TypeIDs  []int64
}

// EncodePair tokenizes a question and its context.
func (t *Tokenizer) EncodePair(question, context string) PairEncoding {
	return NewPairEncoding(t.Encode(question), t.Encode(context))
}

// NewPairEncoding assembles a PairEncoding from already-tokenized halves.
func NewPairEncoding(question, context []Token) PairEncoding {
	ids := make([]int64, len(question)+len(context)+3)
	for i := len(question) + 2; i < len(ids); i++ {
		ids[i] = 1
	}
	return PairEncoding{Question: question, Context: context, TypeIDs: ids}
}
