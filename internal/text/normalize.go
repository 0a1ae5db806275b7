// Package text implements the Unicode normalization stage of the encoding
// pipeline: control-character cleanup, canonical decomposition with accent
// stripping, and lowercasing, with byte-offset bookkeeping that maps the
// normalized string back to its source.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Options selects the optional normalization stages.
type Options struct {
	Lowercase    bool
	StripAccents bool
}

// Normalized holds the transformed text plus a monotonic map from its byte
// offsets back to source byte offsets.
type Normalized struct {
	Text string

	// srcAt[i] is the source byte offset of the rune that produced
	// normalized byte i; srcAt[len(Text)] is len(source).
	srcAt []int32
}

// Normalize cleans, decomposes and folds s in one pass over its runes.
//
// Cleaning drops NUL, U+FFFD and control/format characters and maps every
// whitespace rune to a single space. With StripAccents each remaining rune
// is canonically decomposed (NFD) and combining marks are removed; with
// Lowercase runes are lowered using the simple Unicode mapping. Dropped
// characters attribute to the preceding kept rune, so source ranges
// recovered through the offset map stay contiguous.
func Normalize(s string, opts Options) Normalized {
	var b strings.Builder
	b.Grow(len(s))
	srcAt := make([]int32, 0, len(s)+1)

	emit := func(r rune, src int) {
		if opts.Lowercase {
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
		for n := utf8.RuneLen(r); n > 0; n-- {
			srcAt = append(srcAt, int32(src))
		}
	}

	for i, r := range s {
		switch {
		case r == 0 || r == '�' || IsControl(r):
			continue
		case IsWhitespace(r):
			b.WriteByte(' ')
			srcAt = append(srcAt, int32(i))
		case r < utf8.RuneSelf || !opts.StripAccents:
			// ASCII never decomposes; without accent stripping the
			// text is kept composed as-is.
			emit(r, i)
		default:
			for _, dr := range norm.NFD.String(string(r)) {
				if unicode.Is(unicode.Mn, dr) {
					continue
				}
				emit(dr, i)
			}
		}
	}
	srcAt = append(srcAt, int32(len(s)))

	return Normalized{Text: b.String(), srcAt: srcAt}
}

// SourceOffset maps a normalized byte offset in [0, len(Text)] to the
// corresponding source byte offset. Out-of-range offsets clamp.
func (n Normalized) SourceOffset(i int) int {
	if i < 0 {
		i = 0
	}
	if i >= len(n.srcAt) {
		i = len(n.srcAt) - 1
	}
	if i < 0 {
		return 0
	}
	return int(n.srcAt[i])
}

// SourceRange maps a normalized byte range onto the source byte range
// covering the same runes, including any characters dropped between them.
func (n Normalized) SourceRange(start, end int) (int, int) {
	return n.SourceOffset(start), n.SourceOffset(end)
}
