// Package testutil provides shared fixtures and skip helpers for tests.
//
// The Write helpers drop small dataset and vocabulary fixtures into a test
// directory and return their paths; RequireNetwork skips tests that would
// reach the real vocabulary CDN.
//
// Typical usage:
//
//	func TestEncodeCommand(t *testing.T) {
//	    dir := t.TempDir()
//	    vocabPath := testutil.WriteVocabFile(t, dir, testutil.ScenarioVocab())
//	    dataPath := testutil.WriteSQuADFile(t, dir)
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ScenarioVocab returns a small WordPiece vocabulary covering the documents
// WriteSQuADFile and WriteTextDataset produce.
func ScenarioVocab() []string {
	return []string{
		"[UNK]",
		"[CLS]",
		"[SEP]",
		"[PAD]",
		"the",
		"qu",
		"##ick",
		"fox",
		"what",
	}
}

// WriteVocabFile writes tokens as a one-token-per-line vocabulary file and
// returns its path.
func WriteVocabFile(tb testing.TB, dir string, tokens []string) string {
	tb.Helper()

	path := filepath.Join(dir, "vocab.txt")
	content := strings.Join(tokens, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write vocab fixture: %v", err)
	}
	return path
}

// WriteSQuADFile writes a two-question SQuAD fixture over the context
// "the quick fox" (one answerable question, one impossible) and returns its
// path.
func WriteSQuADFile(tb testing.TB, dir string) string {
	tb.Helper()

	const content = `{
  "version": "v2.0",
  "data": [
    {
      "title": "fixture",
      "paragraphs": [
        {
          "context": "the quick fox",
          "qas": [
            {
              "id": "q1",
              "question": "what",
              "answers": [{"text": "quick", "answer_start": 4}]
            },
            {
              "id": "q2",
              "question": "what",
              "is_impossible": true,
              "answers": []
            }
          ]
        }
      ]
    }
  ]
}`

	path := filepath.Join(dir, "dataset.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write squad fixture: %v", err)
	}
	return path
}

// WriteTextDataset writes one context per line and returns the file path.
func WriteTextDataset(tb testing.TB, dir string, lines ...string) string {
	tb.Helper()

	path := filepath.Join(dir, "dataset.txt")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write text fixture: %v", err)
	}
	return path
}

// RequireNetwork skips the test unless QAPREP_NETWORK_TESTS is set. Tests
// that download real vocabularies stay opt-in so offline runs pass.
func RequireNetwork(tb testing.TB) {
	tb.Helper()

	if os.Getenv("QAPREP_NETWORK_TESTS") == "" {
		tb.Skip("network tests disabled; set QAPREP_NETWORK_TESTS=1 to enable")
	}
}
