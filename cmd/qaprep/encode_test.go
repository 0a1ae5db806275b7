package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-qa-prep/internal/config"
	"github.com/example/go-qa-prep/internal/testutil"
)

// fixtureConfig returns a config pointing at the scenario vocabulary, sized
// so the fixture dataset packs into a single two-row batch.
func fixtureConfig(t *testing.T, dir string) config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Vocab = testutil.WriteVocabFile(t, dir, testutil.ScenarioVocab())
	cfg.Out = filepath.Join(dir, "out")
	cfg.BatchSize = 2
	cfg.SeqLength = 10
	cfg.Workers = 1
	return cfg
}

func TestRunEncode_WritesBatches(t *testing.T) {
	dir := t.TempDir()
	cfg := fixtureConfig(t, dir)
	dataPath := testutil.WriteSQuADFile(t, dir)

	var out bytes.Buffer
	if err := runEncode(context.Background(), cfg, dataPath, &out); err != nil {
		t.Fatalf("runEncode: %v", err)
	}

	if !strings.Contains(out.String(), "wrote 1 batches (2 rows)") {
		t.Errorf("unexpected summary output: %q", out.String())
	}

	npzPath := filepath.Join(cfg.Out, "batch-00000.npz")
	testutil.AssertValidNPZ(t, npzPath, 2, 10)

	ids := testutil.ReadNPZInt64(t, npzPath, "input_ids")
	wantRow := []int64{1, 8, 2, 4, 5, 6, 7, 2, 3, 3}
	for i, want := range wantRow {
		if ids[i] != want {
			t.Fatalf("input_ids row 0 = %v, want %v", ids[:10], wantRow)
		}
	}

	// The answer "quick" covers context tokens 1..2; the context begins at
	// packed index 3, and the impossible question stays at the no-answer row.
	if starts := testutil.ReadNPZInt64(t, npzPath, "start_positions"); starts[0] != 4 || starts[1] != 0 {
		t.Errorf("start_positions = %v, want [4 0]", starts)
	}
	if ends := testutil.ReadNPZInt64(t, npzPath, "end_positions"); ends[0] != 5 || ends[1] != 0 {
		t.Errorf("end_positions = %v, want [5 0]", ends)
	}
}

func TestRunEncode_TextFormat(t *testing.T) {
	dir := t.TempDir()
	cfg := fixtureConfig(t, dir)
	cfg.Format = config.FormatText
	cfg.BatchSize = 1
	dataPath := testutil.WriteTextDataset(t, dir, "the quick fox", "what")

	var out bytes.Buffer
	if err := runEncode(context.Background(), cfg, dataPath, &out); err != nil {
		t.Fatalf("runEncode: %v", err)
	}

	entries, err := os.ReadDir(cfg.Out)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 batch archives, got %d", len(entries))
	}
	testutil.AssertValidNPZ(t, filepath.Join(cfg.Out, "batch-00001.npz"), 1, 10)
}

func TestRunEncode_MissingDatasetFlag(t *testing.T) {
	dir := t.TempDir()
	cfg := fixtureConfig(t, dir)

	err := runEncode(context.Background(), cfg, "", os.Stdout)
	if err == nil {
		t.Fatal("expected error without --dataset")
	}
	if got := exitCode(err); got != exitUsage {
		t.Errorf("exitCode = %d, want %d", got, exitUsage)
	}
}

func TestRunEncode_UnreadableDatasetExitCode(t *testing.T) {
	dir := t.TempDir()
	cfg := fixtureConfig(t, dir)

	err := runEncode(context.Background(), cfg, filepath.Join(dir, "missing.json"), os.Stdout)
	if err == nil {
		t.Fatal("expected error for missing dataset file")
	}
	if got := exitCode(err); got != exitDataset {
		t.Errorf("exitCode = %d, want %d", got, exitDataset)
	}
}

func TestRunEncode_StrictTruncationExitCode(t *testing.T) {
	dir := t.TempDir()
	cfg := fixtureConfig(t, dir)
	// seq_length 4 leaves zero context positions after [CLS] "what" [SEP] [SEP].
	cfg.SeqLength = 4
	cfg.Strict = true
	dataPath := testutil.WriteSQuADFile(t, dir)

	err := runEncode(context.Background(), cfg, dataPath, os.Stdout)
	if err == nil {
		t.Fatal("expected strict mode to abort on the unpackable document")
	}
	if got := exitCode(err); got != exitTruncation {
		t.Errorf("exitCode = %d, want %d", got, exitTruncation)
	}
}

func TestRunEncode_NonStrictSkipsUnpackable(t *testing.T) {
	dir := t.TempDir()
	cfg := fixtureConfig(t, dir)
	cfg.SeqLength = 4
	cfg.BatchSize = 1
	dataPath := testutil.WriteSQuADFile(t, dir)

	var out bytes.Buffer
	if err := runEncode(context.Background(), cfg, dataPath, &out); err != nil {
		t.Fatalf("runEncode: %v", err)
	}

	if !strings.Contains(out.String(), "wrote 0 batches (0 rows)") {
		t.Errorf("expected empty output summary, got %q", out.String())
	}
	if !strings.Contains(out.String(), "skipped q1") {
		t.Errorf("expected skip report for q1, got %q", out.String())
	}
}

func TestOpenDataset_UnknownFormat(t *testing.T) {
	_, _, err := openDataset("jsonl", "whatever.jsonl")
	if err == nil {
		t.Fatal("expected error for unknown dataset format")
	}
}

func TestEncodeCommand_EndToEnd(t *testing.T) {
	origCfg := activeCfg
	t.Cleanup(func() { activeCfg = origCfg })

	dir := t.TempDir()
	vocabPath := testutil.WriteVocabFile(t, dir, testutil.ScenarioVocab())
	dataPath := testutil.WriteSQuADFile(t, dir)
	outDir := filepath.Join(dir, "out")

	root := NewRootCmd()
	root.SetArgs([]string{
		"encode",
		"--vocab", vocabPath,
		"--dataset", dataPath,
		"--out", outDir,
		"--batch-size", "2",
		"--seq-length", "10",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute encode: %v", err)
	}

	testutil.AssertValidNPZ(t, filepath.Join(outDir, "batch-00000.npz"), 2, 10)
}
