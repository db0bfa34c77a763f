package lang

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/diag"
)

type lexer struct {
	filename string
	src      []byte
	pos      hcl.Pos
	tokens   []Token
}

// Lex splits src into tokens. The returned slice always ends with a
// TokenEOF. A malformed token yields a *diag.LexError.
func Lex(filename string, src []byte) ([]Token, error) {
	l := &lexer{
		filename: filename,
		src:      src,
		pos:      hcl.Pos{Line: 1, Column: 1, Byte: 0},
	}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *lexer) run() error {
	for {
		l.skipSpaceAndComments()
		if l.pos.Byte >= len(l.src) {
			l.emit(TokenEOF, l.pos, "")
			return nil
		}

		start := l.pos
		c := l.src[l.pos.Byte]
		switch {
		case isIdentStart(c):
			l.lexIdent(start)
		case isDigit(c):
			if err := l.lexNumber(start); err != nil {
				return err
			}
		case c == '-':
			l.advance()
			if l.peek() != '>' {
				return l.errorf(start, "unexpected character '-'; numbers are never negative and '->' needs '>'")
			}
			l.advance()
			l.emit(TokenArrow, start, "->")
		case c == ':':
			l.advance()
			if l.peek() == ':' {
				l.advance()
				l.emit(TokenPathSep, start, "::")
			} else {
				l.emit(TokenColon, start, ":")
			}
		default:
			tt, ok := punctuation[c]
			if !ok {
				r, _ := utf8.DecodeRune(l.src[l.pos.Byte:])
				return l.errorf(start, "unexpected character %q", r)
			}
			l.advance()
			l.emit(tt, start, string(c))
		}
	}
}

var punctuation = map[byte]TokenType{
	';': TokenSemicolon,
	',': TokenComma,
	'{': TokenLBrace,
	'}': TokenRBrace,
	'(': TokenLParen,
	')': TokenRParen,
	'*': TokenStar,
	'@': TokenAt,
	'/': TokenSlash,
	'=': TokenEquals,
}

func (l *lexer) lexIdent(start hcl.Pos) {
	for l.pos.Byte < len(l.src) && isIdentPart(l.src[l.pos.Byte]) {
		l.advance()
	}
	text := string(l.src[start.Byte:l.pos.Byte])
	if text == "_" {
		l.emit(TokenWildcard, start, text)
		return
	}
	l.emit(TokenIdent, start, text)
}

func (l *lexer) lexNumber(start hcl.Pos) error {
	for isDigit(l.peek()) {
		l.advance()
	}
	fractional := false
	if l.peek() == '.' {
		l.advance()
		if !isDigit(l.peek()) {
			return l.errorf(start, "malformed number %q: expected digits after '.'", string(l.src[start.Byte:l.pos.Byte]))
		}
		fractional = true
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	numEnd := l.pos.Byte

	for isLetter(l.peek()) {
		l.advance()
	}
	text := string(l.src[start.Byte:l.pos.Byte])
	suffix := string(l.src[numEnd:l.pos.Byte])

	value, err := strconv.ParseFloat(string(l.src[start.Byte:numEnd]), 64)
	if err != nil {
		return l.errorf(start, "malformed number %q: %v", text, err)
	}

	switch {
	case suffix == "x":
		if fractional || value < 1 {
			return l.errorf(start, "quantity %q must be a positive integer", text)
		}
		l.emitValue(TokenQuantity, start, text, value, "")
	case suffix == "":
		l.emitValue(TokenNumber, start, text, value, "")
	default:
		if _, ok := ast.LookupUnit(suffix); !ok {
			return l.errorf(start, "unknown unit suffix %q in %q", suffix, text)
		}
		l.emitValue(TokenNumber, start, text, value, suffix)
	}
	return nil
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos.Byte < len(l.src) {
		c := l.src[l.pos.Byte]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '#' || (c == '/' && l.peekAt(1) == '/'):
			for l.pos.Byte < len(l.src) && l.src[l.pos.Byte] != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// advance moves past one rune, keeping line and column in step.
func (l *lexer) advance() {
	if l.pos.Byte >= len(l.src) {
		return
	}
	r, size := utf8.DecodeRune(l.src[l.pos.Byte:])
	l.pos.Byte += size
	if r == '\n' {
		l.pos.Line++
		l.pos.Column = 1
	} else {
		l.pos.Column++
	}
}

func (l *lexer) peek() byte { return l.peekAt(0) }

func (l *lexer) peekAt(n int) byte {
	if l.pos.Byte+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos.Byte+n]
}

func (l *lexer) rangeFrom(start hcl.Pos) hcl.Range {
	return hcl.Range{Filename: l.filename, Start: start, End: l.pos}
}

func (l *lexer) emit(tt TokenType, start hcl.Pos, text string) {
	l.tokens = append(l.tokens, Token{Type: tt, Text: text, Range: l.rangeFrom(start)})
}

func (l *lexer) emitValue(tt TokenType, start hcl.Pos, text string, value float64, suffix string) {
	l.tokens = append(l.tokens, Token{Type: tt, Text: text, Value: value, Suffix: suffix, Range: l.rangeFrom(start)})
}

func (l *lexer) errorf(start hcl.Pos, format string, args ...any) error {
	end := start
	end.Byte++
	end.Column++
	return &diag.LexError{
		Subject: hcl.Range{Filename: l.filename, Start: start, End: end},
		Msg:     fmt.Sprintf(format, args...),
	}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isLetter(c byte) bool     { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentStart(c byte) bool { return isLetter(c) || c == '_' }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
