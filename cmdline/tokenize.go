// Package cmdline splits command-line strings into argument tokens.
//
// The grammar follows the Windows-friendly, non-POSIX flavour of shell
// splitting: whitespace separates tokens, a token that starts with a quote
// runs to the matching quote, and backslashes are never escapes, so paths
// like C:\work\file.tga stay literal.
package cmdline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnjoinable is returned by Join for a token that cannot be quoted.
var ErrUnjoinable = errors.New("token cannot be quoted")

// ParseError reports a quoted group without its closing quote.
type ParseError struct {
	// Input is the command line that failed to parse.
	Input string
	// Offset is the byte offset of the opening quote.
	Offset int
	// Quote is the unmatched quote character.
	Quote rune
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no closing quotation: %c opened at offset %d", e.Quote, e.Offset)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func isQuote(r rune) bool {
	return r == '"' || r == '\''
}

// Tokenize splits s into argument tokens.
//
// Empty input yields no tokens and no error. Tokens still wrapped in double
// quotes after splitting are unwrapped until they are not. On a *ParseError
// the returned slice is nil.
func Tokenize(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}

	var (
		tokens []string
		start  = -1
		quote  rune
	)
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				tokens = append(tokens, s[start:i+1])
				start, quote = -1, 0
			}
		case start >= 0:
			if isSpace(r) {
				tokens = append(tokens, s[start:i])
				start = -1
			}
		case isSpace(r):
		case isQuote(r):
			start, quote = i, r
		default:
			start = i
		}
	}
	if quote != 0 {
		return nil, &ParseError{Input: s, Offset: start, Quote: quote}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}

	for i, tok := range tokens {
		tokens[i] = StripQuotes(tok)
	}
	return tokens, nil
}

// StripQuotes removes matching outer double quotes until none remain.
func StripQuotes(s string) string {
	for len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}

// Join renders tokens as a command line that Tokenize splits back into the
// same tokens. Tokens that are empty, contain whitespace or start with a
// quote are wrapped in double quotes; such a token may not itself contain a
// double quote.
func Join(tokens []string) (string, error) {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		if !needsQuoting(tok) {
			b.WriteString(tok)
			continue
		}
		if strings.ContainsRune(tok, '"') {
			return "", fmt.Errorf("%w: %q", ErrUnjoinable, tok)
		}
		b.WriteByte('"')
		b.WriteString(tok)
		b.WriteByte('"')
	}
	return b.String(), nil
}

func needsQuoting(tok string) bool {
	if tok == "" || isQuote(rune(tok[0])) {
		return true
	}
	return strings.IndexFunc(tok, isSpace) >= 0
}
