package batch

import (
	"errors"
	"fmt"

	"github.com/example/go-qa-prep/internal/vocab"
)

var (
	// ErrBatchSize rejects a non-positive batch size at construction.
	ErrBatchSize = errors.New("batch size must be at least 1")
	// ErrSeqLength rejects a non-positive sequence length at construction.
	ErrSeqLength = errors.New("sequence length must be at least 1")
	// ErrNilVocabulary is returned when a batcher is built without a
	// vocabulary.
	ErrNilVocabulary = errors.New("batcher requires a vocabulary")
)

// Options fixes the shape of every batch in a pass.
type Options struct {
	BatchSize int
	SeqLength int
	// DropLast discards a final batch smaller than BatchSize.
	DropLast bool
	// Strict turns the first oversized example into a pass-level failure
	// instead of a skip.
	Strict bool
}

func (o Options) validate() error {
	if o.BatchSize < 1 {
		return ErrBatchSize
	}
	if o.SeqLength < 1 {
		return ErrSeqLength
	}
	return nil
}

// TruncationError reports an example whose question plus the three special
// tokens cannot fit the configured sequence length. Context truncation
// cannot shrink such an example, so it is unpackable.
type TruncationError struct {
	DocID       string
	QuestionLen int
	SeqLength   int
}

func (e *TruncationError) Error() string {
	return fmt.Sprintf("document %s: question of %d tokens plus special tokens exceeds sequence length %d",
		e.DocID, e.QuestionLen, e.SeqLength)
}

// fits reports whether the example's fixed prefix [CLS] question [SEP] plus
// the final [SEP] leaves room inside seqLength.
func fits(ex *Example, seqLength int) bool {
	return len(ex.Question)+3 <= seqLength
}

func packBatch(examples []Example, seqLength int, v *vocab.Vocabulary) *Batch {
	b := newBatch(len(examples), seqLength)
	for r := range examples {
		packRow(b, r, &examples[r], v)
	}
	return b
}

// packRow lays out [CLS] question [SEP] context [SEP] followed by padding.
// Segment-type ids are 0 through the first [SEP] and 1 afterwards, padding
// included. Context tokens beyond the remaining room are dropped; an answer
// whose endpoints are not both retained downgrades to NoAnswerIndex.
func packRow(b *Batch, r int, ex *Example, v *vocab.Vocabulary) {
	ids := b.InputRow(r)
	mask := b.MaskRow(r)
	types := b.TypeRow(r)

	kept := min(len(ex.Context), b.SeqLength-len(ex.Question)-3)

	p := 0
	ids[p] = int64(v.ClassifierID())
	mask[p] = 1
	p++
	for _, t := range ex.Question {
		ids[p] = int64(t.ID)
		mask[p] = 1
		p++
	}
	ids[p] = int64(v.SeparatorID())
	mask[p] = 1
	p++

	second := p
	for _, t := range ex.Context[:kept] {
		ids[p] = int64(t.ID)
		mask[p] = 1
		p++
	}
	ids[p] = int64(v.SeparatorID())
	mask[p] = 1
	p++

	pad := int64(v.PadID())
	for i := p; i < b.SeqLength; i++ {
		ids[i] = pad
	}
	for i := second; i < b.SeqLength; i++ {
		types[i] = 1
	}

	b.DocIDs[r] = ex.DocID
	b.Truncated[r] = kept < len(ex.Context)

	start, end := int64(NoAnswerIndex), int64(NoAnswerIndex)
	if ex.HasAnswer {
		if ex.Answer.End < kept {
			off := len(ex.Question) + 2
			start = int64(ex.Answer.Start + off)
			end = int64(ex.Answer.End + off)
		} else {
			b.Truncated[r] = true
		}
	}
	b.StartPositions[r] = start
	b.EndPositions[r] = end
}
