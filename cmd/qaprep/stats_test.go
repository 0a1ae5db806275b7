package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/example/go-qa-prep/internal/batch"
	"github.com/example/go-qa-prep/internal/testutil"
	"github.com/example/go-qa-prep/internal/tokenizer"
)

// fakeExample builds an example with the given question and context token
// counts; token contents are irrelevant to the length summary.
func fakeExample(qTokens, cTokens int, hasAnswer bool) batch.Example {
	return batch.Example{
		Question:  make([]tokenizer.Token, qTokens),
		Context:   make([]tokenizer.Token, cTokens),
		HasAnswer: hasAnswer,
	}
}

func TestSummarize(t *testing.T) {
	examples := []batch.Example{
		fakeExample(1, 4, true),  // packed length 8
		fakeExample(1, 2, false), // packed length 6
		fakeExample(2, 10, true), // packed length 15, over seq_length
	}

	s := summarize(examples, 10)

	if s.Documents != 3 {
		t.Errorf("Documents = %d, want 3", s.Documents)
	}
	if s.Answered != 2 {
		t.Errorf("Answered = %d, want 2", s.Answered)
	}
	if s.LenMin != 6 || s.LenMax != 15 {
		t.Errorf("LenMin/LenMax = %d/%d, want 6/15", s.LenMin, s.LenMax)
	}
	if want := (8.0 + 6.0 + 15.0) / 3.0; s.LenMean != want {
		t.Errorf("LenMean = %v, want %v", s.LenMean, want)
	}
	if s.Truncated != 1 {
		t.Errorf("Truncated = %d, want 1", s.Truncated)
	}
	if s.Unpackable != 0 {
		t.Errorf("Unpackable = %d, want 0", s.Unpackable)
	}
}

func TestSummarize_UnpackableQuestion(t *testing.T) {
	// A seven-token question leaves no context room at seq_length 10.
	s := summarize([]batch.Example{fakeExample(7, 1, false)}, 10)

	if s.Unpackable != 1 {
		t.Errorf("Unpackable = %d, want 1", s.Unpackable)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := summarize(nil, 384)

	if s.Documents != 0 || s.LenMin != 0 || s.LenMax != 0 {
		t.Errorf("unexpected summary for empty input: %+v", s)
	}
}

func TestQuantile(t *testing.T) {
	sorted := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		p    float64
		want int
	}{
		{0.0, 1},
		{0.5, 6},
		{0.9, 9},
		{1.0, 10},
	}

	for _, tt := range tests {
		if got := quantile(sorted, tt.p); got != tt.want {
			t.Errorf("quantile(%v) = %d, want %d", tt.p, got, tt.want)
		}
	}

	if got := quantile(nil, 0.5); got != 0 {
		t.Errorf("quantile(nil) = %d, want 0", got)
	}
}

func TestRunStats_JSON(t *testing.T) {
	dir := t.TempDir()
	cfg := fixtureConfig(t, dir)
	dataPath := testutil.WriteSQuADFile(t, dir)

	var out bytes.Buffer
	if err := runStats(context.Background(), cfg, dataPath, true, &out); err != nil {
		t.Fatalf("runStats: %v", err)
	}

	var report statsReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("stats output is not valid JSON: %v\n%s", err, out.String())
	}

	if report.Documents != 2 {
		t.Errorf("documents = %d, want 2", report.Documents)
	}
	if report.Answered != 1 {
		t.Errorf("answered = %d, want 1", report.Answered)
	}
	// Both rows pack "what" plus the four context tokens: 1 + 4 + 3 markers.
	if report.LenMin != 8 || report.LenMax != 8 {
		t.Errorf("LenMin/LenMax = %d/%d, want 8/8", report.LenMin, report.LenMax)
	}
	if report.Tokens != 10 {
		t.Errorf("tokens = %d, want 10", report.Tokens)
	}
}

func TestRunStats_Table(t *testing.T) {
	dir := t.TempDir()
	cfg := fixtureConfig(t, dir)
	dataPath := testutil.WriteSQuADFile(t, dir)

	var out bytes.Buffer
	if err := runStats(context.Background(), cfg, dataPath, false, &out); err != nil {
		t.Fatalf("runStats: %v", err)
	}

	for _, want := range []string{"documents", "tokens", "len_mean", "truncated"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("table output missing %q:\n%s", want, out.String())
		}
	}
}
