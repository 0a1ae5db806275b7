// Package vocab provides the immutable WordPiece vocabulary shared by every
// tokenizer instance in the process.
//
// A Vocabulary is constructed once from a vocab.txt file (one token per line,
// id = line index, the Hugging Face convention) and is safe for concurrent
// readers without synchronization.
package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrNoEntries is returned when the vocabulary source declares zero tokens.
	ErrNoEntries = errors.New("vocabulary has no entries")
	// ErrDuplicateToken is returned when the same token appears twice.
	ErrDuplicateToken = errors.New("duplicate token in vocabulary")
	// ErrMissingSpecial is returned when a required special token is absent.
	ErrMissingSpecial = errors.New("vocabulary missing required special token")
)

// Default special-token literals and flags, matching bert-base-uncased.
const (
	DefaultUnknownToken    = "[UNK]"
	DefaultPadToken        = "[PAD]"
	DefaultClassifierToken = "[CLS]"
	DefaultSeparatorToken  = "[SEP]"
	DefaultContinuation    = "##"
	DefaultMaxWordBytes    = 100
)

// Options configures vocabulary construction. Zero-value string fields fall
// back to the bert-base-uncased literals; boolean flags are taken as given,
// so callers should start from DefaultOptions.
type Options struct {
	UnknownToken    string
	PadToken        string
	ClassifierToken string
	SeparatorToken  string

	// ContinuationPrefix marks non-initial word pieces ("##").
	ContinuationPrefix string

	Lowercase    bool
	StripAccents bool

	// MaxWordBytes caps the byte length of a single word before it is
	// mapped straight to the unknown token.
	MaxWordBytes int
}

// DefaultOptions returns the bert-base-uncased configuration: lowercasing and
// accent stripping enabled, "##" continuation pieces.
func DefaultOptions() Options {
	return Options{
		UnknownToken:       DefaultUnknownToken,
		PadToken:           DefaultPadToken,
		ClassifierToken:    DefaultClassifierToken,
		SeparatorToken:     DefaultSeparatorToken,
		ContinuationPrefix: DefaultContinuation,
		Lowercase:          true,
		StripAccents:       true,
		MaxWordBytes:       DefaultMaxWordBytes,
	}
}

func (o Options) withDefaults() Options {
	if o.UnknownToken == "" {
		o.UnknownToken = DefaultUnknownToken
	}
	if o.PadToken == "" {
		o.PadToken = DefaultPadToken
	}
	if o.ClassifierToken == "" {
		o.ClassifierToken = DefaultClassifierToken
	}
	if o.SeparatorToken == "" {
		o.SeparatorToken = DefaultSeparatorToken
	}
	if o.ContinuationPrefix == "" {
		o.ContinuationPrefix = DefaultContinuation
	}
	if o.MaxWordBytes <= 0 {
		o.MaxWordBytes = DefaultMaxWordBytes
	}
	return o
}

// Vocabulary is an immutable token-string to token-id table plus the
// tokenizer configuration flags that travel with it.
type Vocabulary struct {
	ids    map[string]int32
	tokens []string

	unknownID    int32
	padID        int32
	classifierID int32
	separatorID  int32
	special      map[int32]struct{}

	continuation string
	lowercase    bool
	stripAccents bool
	maxTokenLen  int
	maxWordBytes int
}

// Load reads a vocab.txt file and builds the table. It fails when the file is
// missing, contains a blank or duplicate entry, declares zero tokens, or
// lacks any of the four required special tokens.
func Load(path string, opts Options) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary %s: %w", path, err)
	}
	defer f.Close()

	var tokens []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		tok := strings.TrimRight(sc.Text(), "\r")
		if tok == "" {
			return nil, fmt.Errorf("vocabulary %s line %d: blank entry", path, line)
		}
		tokens = append(tokens, tok)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}

	v, err := New(tokens, opts)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

// New builds a Vocabulary from an ordered token list. Token ids are the list
// positions.
func New(tokens []string, opts Options) (*Vocabulary, error) {
	if len(tokens) == 0 {
		return nil, ErrNoEntries
	}
	opts = opts.withDefaults()

	v := &Vocabulary{
		ids:          make(map[string]int32, len(tokens)),
		tokens:       make([]string, len(tokens)),
		special:      make(map[int32]struct{}, 4),
		continuation: opts.ContinuationPrefix,
		lowercase:    opts.Lowercase,
		stripAccents: opts.StripAccents,
		maxWordBytes: opts.MaxWordBytes,
	}
	copy(v.tokens, tokens)

	for i, tok := range tokens {
		if _, dup := v.ids[tok]; dup {
			return nil, fmt.Errorf("%w: %q at id %d", ErrDuplicateToken, tok, i)
		}
		v.ids[tok] = int32(i)

		// The search window cap counts match bytes, so continuation
		// entries contribute their length minus the marker.
		n := len(tok)
		if strings.HasPrefix(tok, opts.ContinuationPrefix) && n > len(opts.ContinuationPrefix) {
			n -= len(opts.ContinuationPrefix)
		}
		if n > v.maxTokenLen {
			v.maxTokenLen = n
		}
	}

	specials := []struct {
		literal string
		id      *int32
	}{
		{opts.UnknownToken, &v.unknownID},
		{opts.PadToken, &v.padID},
		{opts.ClassifierToken, &v.classifierID},
		{opts.SeparatorToken, &v.separatorID},
	}
	for _, s := range specials {
		id, ok := v.ids[s.literal]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingSpecial, s.literal)
		}
		*s.id = id
		v.special[id] = struct{}{}
	}

	return v, nil
}

// Len returns the number of entries.
func (v *Vocabulary) Len() int { return len(v.tokens) }

// ID returns the id for token and whether it is present.
func (v *Vocabulary) ID(token string) (int32, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// IDOrUnknown returns the id for token, falling back to the unknown id.
func (v *Vocabulary) IDOrUnknown(token string) int32 {
	if id, ok := v.ids[token]; ok {
		return id
	}
	return v.unknownID
}

// TokenOf is the reverse lookup.
func (v *Vocabulary) TokenOf(id int32) (string, bool) {
	if id < 0 || int(id) >= len(v.tokens) {
		return "", false
	}
	return v.tokens[id], true
}

// IsSpecial reports whether id is one of the reserved special tokens.
func (v *Vocabulary) IsSpecial(id int32) bool {
	_, ok := v.special[id]
	return ok
}

func (v *Vocabulary) UnknownID() int32    { return v.unknownID }
func (v *Vocabulary) PadID() int32        { return v.padID }
func (v *Vocabulary) ClassifierID() int32 { return v.classifierID }
func (v *Vocabulary) SeparatorID() int32  { return v.separatorID }

// ContinuationPrefix returns the marker prefixed to non-initial word pieces.
func (v *Vocabulary) ContinuationPrefix() string { return v.continuation }

func (v *Vocabulary) Lowercase() bool    { return v.lowercase }
func (v *Vocabulary) StripAccents() bool { return v.stripAccents }

// MaxTokenLen returns the byte length of the longest entry, not counting the
// continuation marker. It bounds the greedy longest-match window.
func (v *Vocabulary) MaxTokenLen() int { return v.maxTokenLen }

// MaxWordBytes returns the word-length cap beyond which a word is mapped
// straight to the unknown token.
func (v *Vocabulary) MaxWordBytes() int { return v.maxWordBytes }
