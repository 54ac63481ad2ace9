package irtext

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// scanner produces tokens from IR text. It is deliberately simple: the
// grammar is line-oriented and every construct starts with an identifier.
type scanner struct {
	src  string
	pos  int
	line int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1}
}

func (s *scanner) errf(format string, args ...any) error {
	return &ParseError{Line: s.line, Message: fmt.Sprintf(format, args...)}
}

func (s *scanner) next() (token, error) {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return token{kind: tokEOF, line: s.line}, nil
	}
	c := s.src[s.pos]
	switch {
	case c == '"':
		return s.scanString()
	case isIdentStart(rune(c)):
		start := s.pos
		for s.pos < len(s.src) && isIdentPart(rune(s.src[s.pos])) {
			s.pos++
		}
		return token{kind: tokIdent, text: s.src[start:s.pos], line: s.line}, nil
	case unicode.IsDigit(rune(c)):
		start := s.pos
		for s.pos < len(s.src) && unicode.IsDigit(rune(s.src[s.pos])) {
			s.pos++
		}
		return token{kind: tokNumber, text: s.src[start:s.pos], line: s.line}, nil
	case strings.ContainsRune("(){}[]=,:.", rune(c)):
		s.pos++
		return token{kind: tokPunct, text: string(c), line: s.line}, nil
	default:
		return token{}, s.errf("unexpected character %q", c)
	}
}

// scanString handles both plain quoted strings and the triple-quoted form
// used for channel metadata.
func (s *scanner) scanString() (token, error) {
	line := s.line
	if strings.HasPrefix(s.src[s.pos:], `"""`) {
		s.pos += 3
		end := strings.Index(s.src[s.pos:], `"""`)
		if end < 0 {
			return token{}, s.errf("unterminated triple-quoted string")
		}
		text := s.src[s.pos : s.pos+end]
		s.line += strings.Count(text, "\n")
		s.pos += end + 3
		return token{kind: tokString, text: text, line: line}, nil
	}
	s.pos++ // opening quote
	start := s.pos
	for s.pos < len(s.src) && s.src[s.pos] != '"' {
		if s.src[s.pos] == '\n' {
			return token{}, s.errf("unterminated string")
		}
		s.pos++
	}
	if s.pos >= len(s.src) {
		return token{}, s.errf("unterminated string")
	}
	text := s.src[start:s.pos]
	s.pos++ // closing quote
	return token{kind: tokString, text: text, line: line}, nil
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\n':
			s.line++
			s.pos++
		case c == ' ' || c == '\t' || c == '\r':
			s.pos++
		case strings.HasPrefix(s.src[s.pos:], "//"):
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
		default:
			return
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
