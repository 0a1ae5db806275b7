package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

const squadFixture = `{
  "version": "v2.0",
  "data": [
    {
      "title": "Paris",
      "paragraphs": [
        {
          "context": "The café sits on Rivoli.",
          "qas": [
            {
              "id": "q1",
              "question": "Where does the café sit?",
              "answers": [{"text": "Rivoli", "answer_start": 17}]
            },
            {
              "id": "q2",
              "question": "Who owns it?",
              "answers": [],
              "is_impossible": true
            },
            {
              "id": "q3",
              "question": "What colour is it?",
              "answers": [{"text": "café", "answer_start": 4}],
              "is_impossible": true
            }
          ]
        }
      ]
    }
  ]
}`

func writeSQuAD(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadSQuAD(t *testing.T) {
	docs, err := LoadSQuAD(writeSQuAD(t, squadFixture))
	if err != nil {
		t.Fatalf("LoadSQuAD: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d documents; want 3", len(docs))
	}

	// "é" is a single character but two bytes, so the character offset 17
	// lands at byte 18.
	q1 := docs[0]
	if q1.ID != "q1" || q1.Answer == nil {
		t.Fatalf("q1 = %+v; want answered document", q1)
	}
	if q1.Answer.Text != "Rivoli" || q1.Answer.Start != 18 || q1.Answer.End != 24 {
		t.Errorf("q1 answer = %+v; want {Rivoli 18 24}", q1.Answer)
	}
	if got := q1.Context[q1.Answer.Start:q1.Answer.End]; got != "Rivoli" {
		t.Errorf("context slice = %q; want %q", got, "Rivoli")
	}

	if docs[1].Answer != nil {
		t.Errorf("q2 answer = %+v; want nil for unanswerable", docs[1].Answer)
	}
	// is_impossible wins over a populated answer list.
	if docs[2].Answer != nil {
		t.Errorf("q3 answer = %+v; want nil when is_impossible", docs[2].Answer)
	}
}

func TestLoadSQuAD_Errors(t *testing.T) {
	if _, err := LoadSQuAD(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadSQuAD(missing) = nil error")
	}
	if _, err := LoadSQuAD(writeSQuAD(t, "{not json")); err == nil {
		t.Error("LoadSQuAD(malformed) = nil error")
	}
}

func TestNewSQuADSource(t *testing.T) {
	src, err := NewSQuADSource(writeSQuAD(t, squadFixture))
	if err != nil {
		t.Fatalf("NewSQuADSource: %v", err)
	}
	docs, err := ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(docs) != 3 || docs[0].ID != "q1" {
		t.Fatalf("ReadAll = %d docs, first %q; want 3 docs starting at q1", len(docs), docs[0].ID)
	}
}

func TestByteOffset(t *testing.T) {
	tests := []struct {
		s     string
		chars int
		want  int
	}{
		{"abc", 0, 0},
		{"abc", 2, 2},
		{"abc", 3, 3},
		{"abc", 10, 3},
		{"abc", -1, 0},
		{"héllo", 1, 1},
		{"héllo", 2, 3},
		{"日本語", 2, 6},
	}
	for _, tt := range tests {
		if got := byteOffset(tt.s, tt.chars); got != tt.want {
			t.Errorf("byteOffset(%q, %d) = %d; want %d", tt.s, tt.chars, got, tt.want)
		}
	}
}
