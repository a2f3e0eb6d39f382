// Package toml is a small dependency-free TOML subset codec.
// Supported: bare/quoted/dotted keys, basic strings, integers, floats,
// booleans, inline arrays, inline tables, [tables] and [[arrays of tables]].
// Dates, literal and multi-line strings are not supported.
package toml

import "fmt"

// TokenType classifies a lexical token
type TokenType int

const (
	TokenError TokenType = iota
	TokenEOF
	TokenComment
	TokenNewline

	TokenIdent   // bare key
	TokenString  // "quoted"
	TokenInteger // 123, 0x1F
	TokenFloat   // 1.5, 1e3
	TokenBool    // true, false

	TokenEqual    // =
	TokenDot      // .
	TokenComma    // ,
	TokenLBracket // [
	TokenRBracket // ]
	TokenLBrace   // {
	TokenRBrace   // }
)

// Token is one lexeme with its source position
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Col     int
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenNewline:
		return "newline"
	case TokenError:
		return fmt.Sprintf("error(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%q...", t.Literal[:20])
	}
	return fmt.Sprintf("%q", t.Literal)
}

var punctuation = map[rune]TokenType{
	'=': TokenEqual,
	'.': TokenDot,
	',': TokenComma,
	'[': TokenLBracket,
	']': TokenRBracket,
	'{': TokenLBrace,
	'}': TokenRBrace,
}
