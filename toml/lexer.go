package toml

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Lexer splits TOML input into tokens
type Lexer struct {
	input []byte
	pos   int
	line  int
	col   int
}

// NewLexer creates a lexer positioned at the start of input
func NewLexer(input []byte) *Lexer {
	return &Lexer{input: input, line: 1}
}

// NextToken returns the next token; TokenEOF repeats at end of input
func (l *Lexer) NextToken() Token {
	l.skipBlanks()
	if l.pos >= len(l.input) {
		return l.token(TokenEOF, "")
	}

	line, col := l.line, l.col
	ch := l.peek()

	switch {
	case ch == '\n':
		l.advance()
		return Token{Type: TokenNewline, Literal: "\n", Line: line, Col: col}
	case ch == '#':
		return l.comment()
	case ch == '"':
		return l.basicString()
	case isDigit(ch) || ch == '+' || ch == '-' || isAlpha(ch) || ch == '_':
		return l.word()
	}

	if typ, ok := punctuation[ch]; ok {
		l.advance()
		return Token{Type: typ, Literal: string(ch), Line: line, Col: col}
	}

	l.advance()
	return Token{Type: TokenError, Literal: fmt.Sprintf("unexpected character %q", ch), Line: line, Col: col}
}

func (l *Lexer) token(typ TokenType, lit string) Token {
	return Token{Type: typ, Literal: lit, Line: l.line, Col: l.col}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRune(l.input[l.pos:])
	return r
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, w := utf8.DecodeRune(l.input[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) skipBlanks() {
	for l.pos < len(l.input) {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) comment() Token {
	line, col := l.line, l.col
	l.advance() // '#'
	start := l.pos
	for l.pos < len(l.input) && l.peek() != '\n' {
		l.advance()
	}
	return Token{Type: TokenComment, Literal: string(l.input[start:l.pos]), Line: line, Col: col}
}

func (l *Lexer) basicString() Token {
	line, col := l.line, l.col
	l.advance() // opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.advance()
		switch ch {
		case '\n':
			return Token{Type: TokenError, Literal: "newline in basic string", Line: line, Col: col}
		case '"':
			return Token{Type: TokenString, Literal: sb.String(), Line: line, Col: col}
		case '\\':
			esc := l.advance()
			switch esc {
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case 'b':
				sb.WriteRune('\b')
			case 'f':
				sb.WriteRune('\f')
			case 'u':
				r, ok := l.hexRune(4)
				if !ok {
					return Token{Type: TokenError, Literal: "invalid \\u escape", Line: line, Col: col}
				}
				sb.WriteRune(r)
			default:
				return Token{Type: TokenError, Literal: fmt.Sprintf("unknown escape \\%c", esc), Line: line, Col: col}
			}
		default:
			sb.WriteRune(ch)
		}
	}
	return Token{Type: TokenError, Literal: "unterminated string", Line: line, Col: col}
}

func (l *Lexer) hexRune(n int) (rune, bool) {
	if l.pos+n > len(l.input) {
		return 0, false
	}
	v, err := strconv.ParseUint(string(l.input[l.pos:l.pos+n]), 16, 32)
	if err != nil {
		return 0, false
	}
	for i := 0; i < n; i++ {
		l.advance()
	}
	return rune(v), true
}

// word reads a bare key, number or boolean; classification happens after reading
func (l *Lexer) word() Token {
	line, col := l.line, l.col
	start := l.pos
	first := l.peek()
	numeric := isDigit(first) || first == '+' || first == '-'

	for l.pos < len(l.input) {
		ch := l.peek()
		if isAlpha(ch) || isDigit(ch) || ch == '_' || ch == '-' || ch == '+' || (ch == '.' && numeric) {
			l.advance()
			continue
		}
		break
	}
	lit := string(l.input[start:l.pos])
	return Token{Type: classifyWord(lit), Literal: lit, Line: line, Col: col}
}

func classifyWord(lit string) TokenType {
	if lit == "true" || lit == "false" {
		return TokenBool
	}

	body := strings.TrimLeft(lit, "+-")
	if len(body) > 2 && body[0] == '0' && strings.ContainsRune("xXoObB", rune(body[1])) {
		return TokenInteger
	}
	if body == "" || !isDigit(rune(body[0])) {
		return TokenIdent
	}
	for _, r := range body {
		if isAlpha(r) && r != 'e' && r != 'E' {
			return TokenIdent
		}
	}
	if strings.ContainsAny(body, ".eE") {
		return TokenFloat
	}
	return TokenInteger
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isAlpha(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
