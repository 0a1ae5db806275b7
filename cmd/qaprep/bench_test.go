package main

import (
	"context"
	"testing"

	"github.com/example/go-qa-prep/internal/config"
	"github.com/example/go-qa-prep/internal/dataset"
	"github.com/example/go-qa-prep/internal/testutil"
)

func TestRunBenchPasses_MultipleRuns(t *testing.T) {
	dir := t.TempDir()
	cfg := fixtureConfig(t, dir)
	docs, err := dataset.LoadSQuAD(testutil.WriteSQuADFile(t, dir))
	if err != nil {
		t.Fatalf("LoadSQuAD: %v", err)
	}

	results, err := runBenchPasses(context.Background(), cfg, docs, 3, 0)
	if err != nil {
		t.Fatalf("runBenchPasses: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// Only the first run is cold when no warmup passes ran.
	for i, r := range results {
		if r.Cold != (i == 0) {
			t.Errorf("run %d: Cold=%v, want %v", i, r.Cold, i == 0)
		}
		if r.Index != i {
			t.Errorf("run %d: Index=%d", i, r.Index)
		}
		if r.Documents != len(docs) {
			t.Errorf("run %d: Documents=%d, want %d", i, r.Documents, len(docs))
		}
		if r.Duration <= 0 {
			t.Errorf("run %d: expected positive duration", i)
		}
	}
}

func TestRunBenchPasses_WarmupIsNeverCold(t *testing.T) {
	dir := t.TempDir()
	cfg := fixtureConfig(t, dir)
	docs, err := dataset.LoadSQuAD(testutil.WriteSQuADFile(t, dir))
	if err != nil {
		t.Fatalf("LoadSQuAD: %v", err)
	}

	results, err := runBenchPasses(context.Background(), cfg, docs, 2, 1)
	if err != nil {
		t.Fatalf("runBenchPasses: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Cold {
			t.Errorf("run %d marked cold despite warmup pass", i)
		}
	}
}

func TestLoadBenchDocuments_SQuAD(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteSQuADFile(t, dir)

	docs, err := loadBenchDocuments(config.FormatSQuAD, path)
	if err != nil {
		t.Fatalf("loadBenchDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("got %d documents, want 2", len(docs))
	}
}

func TestLoadBenchDocuments_Text(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteTextDataset(t, dir, "the quick fox", "what")

	docs, err := loadBenchDocuments(config.FormatText, path)
	if err != nil {
		t.Fatalf("loadBenchDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("got %d documents, want 2", len(docs))
	}
}

func TestLoadBenchDocuments_MissingFileExitCode(t *testing.T) {
	_, err := loadBenchDocuments(config.FormatSQuAD, "/nonexistent/dataset.json")
	if err == nil {
		t.Fatal("expected error for missing dataset")
	}
	if got := exitCode(err); got != exitDataset {
		t.Errorf("exitCode = %d, want %d", got, exitDataset)
	}
}

func TestLoadBenchDocuments_BadFormat(t *testing.T) {
	_, err := loadBenchDocuments("jsonl", "whatever")
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}
