package text

import "unicode"

// IsWhitespace reports whether r separates words: space, tab, newline,
// carriage return, or a Unicode space separator.
func IsWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// IsControl reports whether r is a control or format character. Tab, newline
// and carriage return count as whitespace instead.
func IsControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.In(r, unicode.Cc, unicode.Cf, unicode.Co, unicode.Cs)
}

// IsPunctuation reports whether r splits as its own one-character word.
// The non-alphanumeric ASCII blocks count as punctuation alongside the
// Unicode P categories, so "$" or "^" split words the same way "." does.
func IsPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
