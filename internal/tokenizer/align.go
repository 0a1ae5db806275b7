package tokenizer

import "sort"

// AlignSpan maps a half-open byte range [start, end) in the source context
// onto the inclusive token index range covering it. Token source offsets are
// sorted, so both endpoints resolve by binary search. A position falling in
// an inter-token gap attributes to the following token. The second return is
// false when no token range overlaps the answer: the span is reversed, out
// of range, lies wholly in a gap, or sits past the last token.
func AlignSpan(tokens []Token, start, end int) (Span, bool) {
	if len(tokens) == 0 || start < 0 || end < start {
		return Span{}, false
	}

	if start == end {
		// Zero-length spans resolve to the token containing the
		// position, or the next one when it sits in a gap.
		i := sort.Search(len(tokens), func(i int) bool { return tokens[i].End > start })
		if i == len(tokens) {
			return Span{}, false
		}
		return Span{Start: i, End: i}, true
	}

	s := sort.Search(len(tokens), func(i int) bool { return tokens[i].End > start })
	if s == len(tokens) {
		return Span{}, false
	}
	e := sort.Search(len(tokens), func(i int) bool { return tokens[i].Start >= end }) - 1
	if e < s {
		// The whole answer lies between two tokens.
		return Span{}, false
	}
	return Span{Start: s, End: e}, true
}
