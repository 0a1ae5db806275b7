package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// TextSource reads one context per line from a plain-text file. Documents
// carry a synthetic line-numbered id, an empty question and no answer. Blank
// lines are skipped but still counted for the id.
type TextSource struct {
	path string
	f    *os.File
	sc   *bufio.Scanner
	line int
}

const maxLineBytes = 1 << 20

// NewTextSource opens the file at path. Close releases the handle when the
// source is no longer needed.
func NewTextSource(path string) (*TextSource, error) {
	s := &TextSource{path: path}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TextSource) open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open text file: %w", err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	s.f, s.sc, s.line = f, sc, 0
	return nil
}

func (s *TextSource) Next() (*Document, error) {
	for s.sc.Scan() {
		s.line++
		line := strings.TrimRight(s.sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		return &Document{
			ID:      fmt.Sprintf("line-%d", s.line),
			Context: line,
		}, nil
	}
	if err := s.sc.Err(); err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	return nil, io.EOF
}

func (s *TextSource) Reset() error {
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("close text file: %w", err)
	}
	return s.open()
}

func (s *TextSource) Close() error {
	return s.f.Close()
}
