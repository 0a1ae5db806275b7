package batch

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

// fixtureExamples builds n packable single-token examples with distinct ids.
func fixtureExamples(tb testing.TB, n int) []Example {
	tb.Helper()
	v := fixtureVocab(tb)
	tok := fixtureTokenizer(tb, v)

	examples := make([]Example, n)
	for i := 0; i < n; i++ {
		examples[i] = encodeExample(tb, tok, fmt.Sprintf("doc-%d", i), "what", "the quick fox", 4, 9)
		examples[i].Index = i
	}
	return examples
}

func TestNew_OptionValidation(t *testing.T) {
	v := fixtureVocab(t)

	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"zero batch size", Options{BatchSize: 0, SeqLength: 10}, ErrBatchSize},
		{"negative batch size", Options{BatchSize: -1, SeqLength: 10}, ErrBatchSize},
		{"zero seq length", Options{BatchSize: 2, SeqLength: 0}, ErrSeqLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(nil, tt.opts, v); !errors.Is(err, tt.want) {
				t.Errorf("New error = %v; want %v", err, tt.want)
			}
		})
	}

	if _, err := New(nil, Options{BatchSize: 2, SeqLength: 10}, nil); !errors.Is(err, ErrNilVocabulary) {
		t.Errorf("New(nil vocab) error = %v; want %v", err, ErrNilVocabulary)
	}
}

func TestStaticBatcher_LenAndShapes(t *testing.T) {
	v := fixtureVocab(t)
	examples := fixtureExamples(t, 7)

	tests := []struct {
		name      string
		dropLast  bool
		wantLen   int
		wantRows  []int
		wantTotal int
	}{
		{"keep remainder", false, 3, []int{3, 3, 1}, 7},
		{"drop last", true, 2, []int{3, 3}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(examples, Options{BatchSize: 3, SeqLength: 10, DropLast: tt.dropLast}, v)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if b.Len() != tt.wantLen {
				t.Fatalf("Len() = %d; want %d", b.Len(), tt.wantLen)
			}

			total := 0
			for i, n := 0, b.Len(); i < n; i++ {
				bt := b.Batch(i)
				if bt.Rows != tt.wantRows[i] {
					t.Errorf("Batch(%d).Rows = %d; want %d", i, bt.Rows, tt.wantRows[i])
				}
				if len(bt.InputIDs) != bt.Rows*bt.SeqLength {
					t.Errorf("Batch(%d) input ids length = %d; want %d",
						i, len(bt.InputIDs), bt.Rows*bt.SeqLength)
				}
				total += bt.Rows
			}
			if total != tt.wantTotal {
				t.Errorf("total rows = %d; want %d", total, tt.wantTotal)
			}
		})
	}
}

func TestStaticBatcher_RowOrderFollowsInput(t *testing.T) {
	v := fixtureVocab(t)
	b, err := New(fixtureExamples(t, 5), Options{BatchSize: 2, SeqLength: 10}, v)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var got []string
	for i, n := 0, b.Len(); i < n; i++ {
		got = append(got, b.Batch(i).DocIDs...)
	}
	for i, id := range got {
		if want := fmt.Sprintf("doc-%d", i); id != want {
			t.Fatalf("row %d doc id = %q; want %q", i, id, want)
		}
	}
}

func TestStaticBatcher_SkipsOversizedQuestion(t *testing.T) {
	v := fixtureVocab(t)
	tok := fixtureTokenizer(t, v)

	examples := fixtureExamples(t, 3)
	// Nine question tokens plus three specials exceed seq_length 10.
	big := Example{
		DocID:    "doc-big",
		Question: tok.Encode("the the the the the the the the the"),
		Context:  tok.Encode("fox"),
	}
	examples = slices.Insert(examples, 1, big)

	b, err := New(examples, Options{BatchSize: 2, SeqLength: 10}, v)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if b.Examples() != 3 {
		t.Fatalf("Examples() = %d; want 3 after skip", b.Examples())
	}
	skipped := b.Skipped()
	if len(skipped) != 1 {
		t.Fatalf("Skipped() = %d entries; want 1", len(skipped))
	}
	if skipped[0].DocID != "doc-big" || skipped[0].QuestionLen != 9 || skipped[0].SeqLength != 10 {
		t.Errorf("Skipped()[0] = %+v; want doc-big/9/10", skipped[0])
	}
}

func TestStaticBatcher_StrictAbortsOnOversized(t *testing.T) {
	v := fixtureVocab(t)
	tok := fixtureTokenizer(t, v)

	examples := []Example{{
		DocID:    "doc-big",
		Question: tok.Encode("the the the the the the the the the"),
		Context:  tok.Encode("fox"),
	}}

	_, err := New(examples, Options{BatchSize: 2, SeqLength: 10, Strict: true}, v)
	var terr *TruncationError
	if !errors.As(err, &terr) {
		t.Fatalf("New error = %v; want *TruncationError", err)
	}
	if terr.DocID != "doc-big" {
		t.Errorf("TruncationError.DocID = %q; want doc-big", terr.DocID)
	}
}

func TestIterator(t *testing.T) {
	v := fixtureVocab(t)
	b, err := New(fixtureExamples(t, 5), Options{BatchSize: 2, SeqLength: 10}, v)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	count := func(it *Iterator) int {
		n := 0
		for {
			if _, ok := it.Next(); !ok {
				return n
			}
			n++
		}
	}

	it := b.Iter()
	if got := count(it); got != 3 {
		t.Fatalf("first pass yielded %d batches; want 3", got)
	}
	if _, ok := it.Next(); ok {
		t.Fatal("Next() after exhaustion = true")
	}

	it.Reset()
	if got := count(it); got != 3 {
		t.Fatalf("pass after Reset yielded %d batches; want 3", got)
	}

	// A fresh iterator replays independently.
	if got := count(b.Iter()); got != 3 {
		t.Fatalf("fresh Iter() yielded %d batches; want 3", got)
	}
}

func TestBuilder(t *testing.T) {
	v := fixtureVocab(t)
	examples := fixtureExamples(t, 5)

	bd, err := NewBuilder(Options{BatchSize: 2, SeqLength: 10}, v)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	var batches []*Batch
	for _, ex := range examples {
		bt, err := bd.Add(ex)
		if err != nil {
			t.Fatalf("Add(%s): %v", ex.DocID, err)
		}
		if bt != nil {
			batches = append(batches, bt)
		}
	}
	if bt := bd.Flush(); bt != nil {
		batches = append(batches, bt)
	}

	if len(batches) != 3 {
		t.Fatalf("got %d batches; want 3", len(batches))
	}
	if batches[0].Rows != 2 || batches[1].Rows != 2 || batches[2].Rows != 1 {
		t.Errorf("rows = %d,%d,%d; want 2,2,1",
			batches[0].Rows, batches[1].Rows, batches[2].Rows)
	}
	if batches[2].DocIDs[0] != "doc-4" {
		t.Errorf("final row doc id = %q; want doc-4", batches[2].DocIDs[0])
	}
}

func TestBuilder_DropLastDiscardsRemainder(t *testing.T) {
	v := fixtureVocab(t)
	bd, err := NewBuilder(Options{BatchSize: 2, SeqLength: 10, DropLast: true}, v)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	if _, err := bd.Add(fixtureExamples(t, 1)[0]); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if bt := bd.Flush(); bt != nil {
		t.Fatalf("Flush() = %+v; want nil under DropLast", bt)
	}
}

func TestBuilder_RejectsOversized(t *testing.T) {
	v := fixtureVocab(t)
	tok := fixtureTokenizer(t, v)

	bd, err := NewBuilder(Options{BatchSize: 2, SeqLength: 10}, v)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	big := Example{
		DocID:    "doc-big",
		Question: tok.Encode("the the the the the the the the the"),
		Context:  tok.Encode("fox"),
	}
	_, err = bd.Add(big)
	var terr *TruncationError
	if !errors.As(err, &terr) {
		t.Fatalf("Add error = %v; want *TruncationError", err)
	}

	// The rejected example is not buffered.
	if bt := bd.Flush(); bt != nil {
		t.Fatalf("Flush() after rejected Add = %+v; want nil", bt)
	}
}

func TestAnswerSpanRoundTrip(t *testing.T) {
	v := fixtureVocab(t)
	tok := fixtureTokenizer(t, v)

	context := "the quick fox"
	ex := encodeExample(t, tok, "doc-1", "what", context, 4, 9)

	b := packBatch([]Example{ex}, 12, v)

	// Recover the context token the start label points at and check its
	// source range covers the answer start byte.
	start := int(b.StartPositions[0]) - len(ex.Question) - 2
	end := int(b.EndPositions[0]) - len(ex.Question) - 2
	if start < 0 || end >= len(ex.Context) {
		t.Fatalf("recovered spans %d,%d out of context range", start, end)
	}
	if tk := ex.Context[start]; !(tk.Start <= 4 && 4 < tk.End) {
		t.Errorf("start token range [%d,%d) does not contain byte 4", tk.Start, tk.End)
	}
	if tk := ex.Context[end]; !(tk.Start < 9 && 9 <= tk.End) {
		t.Errorf("end token range [%d,%d) does not contain byte 8", tk.Start, tk.End)
	}
}
