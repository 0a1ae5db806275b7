package dataset

import (
	"encoding/json"
	"fmt"
	"os"
)

// SQuAD answer_start fields count characters, following the Python reference
// tooling. Everything downstream works in bytes, so loading converts.

type squadFile struct {
	Data []struct {
		Title      string `json:"title"`
		Paragraphs []struct {
			Context string    `json:"context"`
			QAs     []squadQA `json:"qas"`
		} `json:"paragraphs"`
	} `json:"data"`
}

type squadQA struct {
	ID           string        `json:"id"`
	Question     string        `json:"question"`
	Answers      []squadAnswer `json:"answers"`
	IsImpossible bool          `json:"is_impossible"`
}

type squadAnswer struct {
	Text        string `json:"text"`
	AnswerStart int    `json:"answer_start"`
}

// SQuADSource iterates the question/answer pairs of a SQuAD v1.1 or v2.0
// JSON file, one document per qa entry in file order.
type SQuADSource struct {
	SliceSource
}

// NewSQuADSource parses the file at path eagerly.
func NewSQuADSource(path string) (*SQuADSource, error) {
	docs, err := LoadSQuAD(path)
	if err != nil {
		return nil, err
	}
	return &SQuADSource{SliceSource{docs: docs}}, nil
}

// LoadSQuAD reads a SQuAD JSON file into documents. Unanswerable questions
// (is_impossible, or an empty answer list) yield a nil Answer; otherwise the
// first listed answer is kept, with its character offset converted to bytes.
func LoadSQuAD(path string) ([]*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read squad file: %w", err)
	}

	var file squadFile
	if err := json.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("decode squad file: %w", err)
	}

	var docs []*Document
	for _, article := range file.Data {
		for _, para := range article.Paragraphs {
			for _, qa := range para.QAs {
				doc := &Document{
					ID:       qa.ID,
					Question: qa.Question,
					Context:  para.Context,
				}
				if !qa.IsImpossible && len(qa.Answers) > 0 {
					a := qa.Answers[0]
					start := byteOffset(para.Context, a.AnswerStart)
					doc.Answer = &Answer{
						Text:  a.Text,
						Start: start,
						End:   start + len(a.Text),
					}
				}
				docs = append(docs, doc)
			}
		}
	}
	return docs, nil
}

// byteOffset converts a character offset into s to a byte offset, clamping
// past-the-end positions to len(s).
func byteOffset(s string, chars int) int {
	if chars <= 0 {
		return 0
	}
	seen := 0
	for i := range s {
		if seen == chars {
			return i
		}
		seen++
	}
	return len(s)
}
