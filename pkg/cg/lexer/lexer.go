// Package lexer tokenizes CG3/VISL grammar source text.
//
// The lexer is a hand-written scanner over raw bytes. It never fails: bytes
// it cannot attribute to a known lexeme become error tokens, and scanning
// always terminates with an EOF marker so the parser can make progress on
// arbitrary input, including text that is mid-edit.
package lexer

import (
	"unicode"
	"unicode/utf8"

	"vislcg/cg3kit/pkg/cg/token"
)

// Lexer produces tokens from a single source buffer. It is restartable:
// create a new Lexer to scan from the beginning again, or use At to start
// scanning from a given byte offset (the offset must be a position where the
// lexer is in its default state, e.g. a top-level item boundary).
type Lexer struct {
	src       []byte
	pos       int
	line      int
	lineStart int
	done      bool
}

// New returns a lexer positioned at the start of src.
func New(src []byte) *Lexer {
	return &Lexer{src: src, line: 1}
}

// At returns a lexer positioned at byte offset pos of src. Line and column
// bookkeeping is recomputed from the buffer so tokens carry correct
// positions.
func At(src []byte, pos int) *Lexer {
	l := &Lexer{src: src, pos: pos, line: 1}
	for i := 0; i < pos && i < len(src); i++ {
		if src[i] == '\n' {
			l.line++
			l.lineStart = i + 1
		}
	}
	return l
}

// Scan tokenizes the whole of src. The final token is always the EOF marker.
func Scan(src []byte) []token.Token {
	l := New(src)
	var toks []token.Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.IsEOF() {
			return toks
		}
	}
}

// Next returns the next token. After the EOF marker has been returned, every
// subsequent call returns the same EOF marker.
func (l *Lexer) Next() token.Token {
	l.skipSpace()
	if l.pos >= len(l.src) {
		l.done = true
		return l.emit(token.EOF, l.pos)
	}

	start := l.pos
	c := l.src[l.pos]
	switch {
	case c == '#':
		l.scanLine()
		return l.emit(token.Comment, start)

	case c == '"':
		ok := l.scanString()
		if !ok {
			return l.emit(token.Error, start)
		}
		return l.emit(token.String, start)

	case c == '(' || c == ')' || c == '[' || c == ']' || c == '{' || c == '}':
		l.pos++
		return l.emit(token.Bracket, start)

	case c == '<':
		if l.scanAngleTag() {
			return l.emit(token.Tag, start)
		}
		return l.emit(token.Error, start)

	case c == '@':
		l.pos++
		l.scanWord()
		return l.emit(token.Tag, start)

	case c >= '0' && c <= '9':
		l.scanPosition()
		return l.emit(token.Number, start)

	case c == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
		l.pos++
		l.scanPosition()
		return l.emit(token.Number, start)

	case isOperator(c):
		l.pos++
		if c == '*' && l.pos < len(l.src) && l.src[l.pos] == '*' {
			l.pos++
		}
		return l.emit(token.Operator, start)

	default:
		r, size := utf8.DecodeRune(l.src[l.pos:])
		if isWordStart(r) {
			l.scanWord()
			text := string(l.src[start:l.pos])
			if token.IsKeyword(text) {
				return l.emit(token.Keyword, start)
			}
			return l.emit(token.Identifier, start)
		}
		// Unrecognized byte sequence. Consume one rune and keep going.
		l.pos += size
		return l.emit(token.Error, start)
	}
}

func (l *Lexer) emit(kind token.Kind, start int) token.Token {
	col := utf8.RuneCount(l.src[l.lineStart:start]) + 1
	line := l.line
	if kind == token.EOF {
		l.done = true
	}
	return token.Token{
		Kind:   kind,
		Start:  start,
		End:    l.pos,
		Line:   line,
		Column: col,
		Text:   string(l.src[start:l.pos]),
	}
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\n' {
			l.line++
			l.pos++
			l.lineStart = l.pos
			continue
		}
		if c == ' ' || c == '\t' || c == '\r' {
			l.pos++
			continue
		}
		return
	}
}

// scanLine consumes up to, but not including, the next newline.
func (l *Lexer) scanLine() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
}

// scanString consumes a double-quoted string with backslash escapes. Strings
// do not span lines; reaching a newline or the end of input before the
// closing quote consumes the partial lexeme and reports failure.
func (l *Lexer) scanString() bool {
	l.pos++ // opening quote
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '\\':
			l.pos++
			if l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case '"':
			l.pos++
			// Optional regex/case flags directly after the closing quote,
			// e.g. "water"ri.
			for l.pos < len(l.src) && isFlag(l.src[l.pos]) {
				l.pos++
			}
			return true
		case '\n':
			return false
		default:
			l.pos++
		}
	}
	return false
}

// scanAngleTag consumes a <...> tag. Angle tags do not contain whitespace.
func (l *Lexer) scanAngleTag() bool {
	l.pos++ // '<'
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '>' {
			l.pos++
			return true
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			return false
		}
		l.pos++
	}
	return false
}

// scanWord consumes identifier characters: letters, digits, and a small set
// of punctuation CG names use. A '-' is only part of the word when followed
// by another word character, so set-difference operators stay separate.
func (l *Lexer) scanWord() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRune(l.src[l.pos:])
		if r == '-' {
			if l.pos+size < len(l.src) {
				next, _ := utf8.DecodeRune(l.src[l.pos+size:])
				if isWordPart(next) {
					l.pos += size
					continue
				}
			}
			return
		}
		if !isWordPart(r) {
			return
		}
		l.pos += size
	}
}

// scanPosition consumes the digits of a context position or plain number,
// plus any trailing position modifier letters (C, W, X, ...).
func (l *Lexer) scanPosition() {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	for l.pos < len(l.src) && isASCIILetter(l.src[l.pos]) {
		l.pos++
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isFlag(c byte) bool {
	switch c {
	case 'r', 'i', 'v', 'n', 'l':
		return true
	}
	return false
}

func isOperator(c byte) bool {
	switch c {
	case '=', ';', '|', '+', '-', '^', '\\', '*', ':', '%', ',':
		return true
	}
	return false
}

func isWordStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$' || r == '§' || r == '£' || r == '&'
}

func isWordPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '_' || r == '.' || r == '\'' || r == '$' || r == '§' || r == '£' || r == '&' || r == '/'
}
