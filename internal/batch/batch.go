// Package batch packs tokenized question/context examples into fixed-shape
// batches: padded token-id, attention-mask and segment-type matrices plus
// answer-position labels, the layout extractive-QA training loops consume.
package batch

import (
	"github.com/example/go-qa-prep/internal/tokenizer"
)

// NoAnswerIndex is the packed position answer labels fall back to when an
// example has no answer or loses it to truncation. Position 0 is the [CLS]
// token in every row.
const NoAnswerIndex = 0

// Example is one tokenized document ready for packing. Answer holds
// inclusive token indices into Context and is meaningful only when HasAnswer
// is set; Index is the document's position in the input order.
type Example struct {
	DocID     string
	Index     int
	Question  []tokenizer.Token
	Context   []tokenizer.Token
	Answer    tokenizer.Span
	HasAnswer bool
}

// Batch is a fixed-shape slice of packed examples. The id, mask and
// segment-type matrices are row-major flat slices of Rows×SeqLength entries;
// the position vectors, truncation flags and document ids have one entry per
// row.
type Batch struct {
	Rows      int
	SeqLength int

	InputIDs       []int64
	AttentionMask  []int64
	TypeIDs        []int64
	StartPositions []int64
	EndPositions   []int64
	Truncated      []bool
	DocIDs         []string
}

func newBatch(rows, seqLength int) *Batch {
	return &Batch{
		Rows:           rows,
		SeqLength:      seqLength,
		InputIDs:       make([]int64, rows*seqLength),
		AttentionMask:  make([]int64, rows*seqLength),
		TypeIDs:        make([]int64, rows*seqLength),
		StartPositions: make([]int64, rows),
		EndPositions:   make([]int64, rows),
		Truncated:      make([]bool, rows),
		DocIDs:         make([]string, rows),
	}
}

// InputRow returns row r of the input-id matrix. The slice aliases the
// batch's backing array.
func (b *Batch) InputRow(r int) []int64 {
	return b.InputIDs[r*b.SeqLength : (r+1)*b.SeqLength]
}

// MaskRow returns row r of the attention-mask matrix.
func (b *Batch) MaskRow(r int) []int64 {
	return b.AttentionMask[r*b.SeqLength : (r+1)*b.SeqLength]
}

// TypeRow returns row r of the segment-type matrix.
func (b *Batch) TypeRow(r int) []int64 {
	return b.TypeIDs[r*b.SeqLength : (r+1)*b.SeqLength]
}
