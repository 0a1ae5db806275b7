package batch

import (
	"github.com/example/go-qa-prep/internal/vocab"
)

// StaticBatcher slices a fixed example sequence into batches. It is a
// finite, restartable view: batches are packed on demand, so a pass can be
// replayed any number of times without re-tokenizing. Unpackable examples
// are filtered out at construction and reported through Skipped.
type StaticBatcher struct {
	examples []Example
	skipped  []*TruncationError
	opts     Options
	vocab    *vocab.Vocabulary
}

// New validates the options and partitions examples into packable and
// skipped. With Strict set, the first unpackable example aborts construction
// with its *TruncationError.
func New(examples []Example, opts Options, v *vocab.Vocabulary) (*StaticBatcher, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNilVocabulary
	}

	kept := make([]Example, 0, len(examples))
	var skipped []*TruncationError
	for i := range examples {
		ex := &examples[i]
		if !fits(ex, opts.SeqLength) {
			terr := &TruncationError{
				DocID:       ex.DocID,
				QuestionLen: len(ex.Question),
				SeqLength:   opts.SeqLength,
			}
			if opts.Strict {
				return nil, terr
			}
			skipped = append(skipped, terr)
			continue
		}
		kept = append(kept, *ex)
	}

	return &StaticBatcher{examples: kept, skipped: skipped, opts: opts, vocab: v}, nil
}

// Len reports how many batches one pass yields: full batches only when
// DropLast, otherwise a final remainder batch is counted too.
func (b *StaticBatcher) Len() int {
	if b.opts.DropLast {
		return len(b.examples) / b.opts.BatchSize
	}
	return (len(b.examples) + b.opts.BatchSize - 1) / b.opts.BatchSize
}

// Examples reports how many packable examples the batcher holds.
func (b *StaticBatcher) Examples() int { return len(b.examples) }

// Skipped returns the construction-time truncation errors, in input order.
func (b *StaticBatcher) Skipped() []*TruncationError { return b.skipped }

// Batch packs batch i. Like a slice index, i must be in [0, Len()).
func (b *StaticBatcher) Batch(i int) *Batch {
	lo := i * b.opts.BatchSize
	hi := min(lo+b.opts.BatchSize, len(b.examples))
	return packBatch(b.examples[lo:hi], b.opts.SeqLength, b.vocab)
}

// Iter starts a fresh pass over all batches.
func (b *StaticBatcher) Iter() *Iterator { return &Iterator{b: b} }

// Iterator walks a pass batch by batch.
type Iterator struct {
	b    *StaticBatcher
	next int
}

// Next returns the next batch, or false when the pass is complete.
func (it *Iterator) Next() (*Batch, bool) {
	if it.next >= it.b.Len() {
		return nil, false
	}
	bt := it.b.Batch(it.next)
	it.next++
	return bt, true
}

// Reset rewinds the iterator to the start of the pass.
func (it *Iterator) Reset() { it.next = 0 }

// Builder accumulates streamed examples into batches, for single-pass use
// where holding every example in memory is not wanted.
type Builder struct {
	opts    Options
	vocab   *vocab.Vocabulary
	pending []Example
}

// NewBuilder validates the options; the builder applies them to every batch
// it emits.
func NewBuilder(opts Options, v *vocab.Vocabulary) (*Builder, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNilVocabulary
	}
	return &Builder{opts: opts, vocab: v, pending: make([]Example, 0, opts.BatchSize)}, nil
}

// Add appends one example. It returns a packed batch each time BatchSize
// examples have accumulated, otherwise (nil, nil). An unpackable example is
// rejected with a *TruncationError and not buffered; the caller chooses
// whether to skip or abort.
func (bd *Builder) Add(ex Example) (*Batch, error) {
	if !fits(&ex, bd.opts.SeqLength) {
		return nil, &TruncationError{
			DocID:       ex.DocID,
			QuestionLen: len(ex.Question),
			SeqLength:   bd.opts.SeqLength,
		}
	}
	bd.pending = append(bd.pending, ex)
	if len(bd.pending) < bd.opts.BatchSize {
		return nil, nil
	}
	b := packBatch(bd.pending, bd.opts.SeqLength, bd.vocab)
	bd.pending = bd.pending[:0]
	return b, nil
}

// Flush packs whatever remains. It returns nil when nothing is pending or
// when DropLast discards the remainder.
func (bd *Builder) Flush() *Batch {
	if len(bd.pending) == 0 || bd.opts.DropLast {
		bd.pending = bd.pending[:0]
		return nil
	}
	b := packBatch(bd.pending, bd.opts.SeqLength, bd.vocab)
	bd.pending = bd.pending[:0]
	return b
}
