// Package tokenizer implements WordPiece subword tokenization with byte
// offset tracking, pair encoding for extractive question answering, and
// alignment of character answer spans onto token indices.
package tokenizer

// Token is a single subword. Offsets are byte ranges: NormStart/NormEnd in
// the normalized text the token was cut from, Start/End translated back to
// the source string through the normalization offset map.
type Token struct {
	ID           int32
	Start        int
	End          int
	NormStart    int
	NormEnd      int
	Continuation bool
}

// Span is an inclusive range of token indices.
type Span struct {
	Start int
	End   int
}
