package tokenizer

import (
	"unicode/utf8"

	"github.com/example/go-qa-prep/internal/text"
)

// wordPiece segments the word at normalized byte range [wordStart, wordEnd)
// by greedy longest match and appends the pieces to out. Non-initial pieces
// are looked up with the continuation marker prefixed. When no entry matches
// at some position, the whole word collapses to one unknown token.
func (t *Tokenizer) wordPiece(n text.Normalized, wordStart, wordEnd int, out []Token) []Token {
	v := t.vocab
	word := n.Text[wordStart:wordEnd]
	if len(word) > v.MaxWordBytes() {
		return append(out, t.unknownToken(n, wordStart, wordEnd))
	}

	base := len(out)
	cont := v.ContinuationPrefix()
	maxLen := v.MaxTokenLen()

	start := 0
	for start < len(word) {
		end := len(word)
		if m := start + maxLen; m < end {
			// Snap the search window back to a rune boundary.
			end = m
			for end > start && !utf8.RuneStart(word[end]) {
				end--
			}
		}

		matched := false
		for end > start {
			lookup := word[start:end]
			if start > 0 {
				lookup = cont + lookup
			}
			if id, ok := v.ID(lookup); ok {
				ns, ne := wordStart+start, wordStart+end
				ss, se := n.SourceRange(ns, ne)
				out = append(out, Token{
					ID:           id,
					Start:        ss,
					End:          se,
					NormStart:    ns,
					NormEnd:      ne,
					Continuation: start > 0,
				})
				start = end
				matched = true
				break
			}
			_, size := utf8.DecodeLastRuneInString(word[start:end])
			end -= size
		}
		if !matched {
			return append(out[:base], t.unknownToken(n, wordStart, wordEnd))
		}
	}
	return out
}

func (t *Tokenizer) unknownToken(n text.Normalized, wordStart, wordEnd int) Token {
	ss, se := n.SourceRange(wordStart, wordEnd)
	return Token{
		ID:        t.vocab.UnknownID(),
		Start:     ss,
		End:       se,
		NormStart: wordStart,
		NormEnd:   wordEnd,
	}
}
