// Package dataset defines the document model consumed by the preprocessing
// pipeline and sources for the supported corpus formats.
package dataset

import "io"

// Answer is a ground-truth answer span. Start and End are a half-open byte
// range into the owning document's Context.
type Answer struct {
	Text  string
	Start int
	End   int
}

// Document is one question/context unit. Answer is nil for documents without
// a labelled answer (unanswerable questions, plain-text corpora).
type Document struct {
	ID       string
	Question string
	Context  string
	Answer   *Answer
}

// Source yields documents one at a time. Next returns io.EOF after the last
// document; Reset rewinds so the source can be iterated again.
type Source interface {
	Next() (*Document, error)
	Reset() error
}

// SliceSource iterates an in-memory document slice.
type SliceSource struct {
	docs []*Document
	next int
}

// NewSliceSource wraps docs in a Source. The slice is not copied.
func NewSliceSource(docs ...*Document) *SliceSource {
	return &SliceSource{docs: docs}
}

func (s *SliceSource) Next() (*Document, error) {
	if s.next >= len(s.docs) {
		return nil, io.EOF
	}
	d := s.docs[s.next]
	s.next++
	return d, nil
}

func (s *SliceSource) Reset() error {
	s.next = 0
	return nil
}

// Len reports the total number of documents, independent of cursor position.
func (s *SliceSource) Len() int { return len(s.docs) }

// ReadAll drains src into a slice, resetting it first so the result is the
// full document sequence regardless of prior consumption.
func ReadAll(src Source) ([]*Document, error) {
	if err := src.Reset(); err != nil {
		return nil, err
	}
	var docs []*Document
	for {
		d, err := src.Next()
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
}
