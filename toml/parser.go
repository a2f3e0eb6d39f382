package toml

import (
	"fmt"
	"strconv"
)

// Parser builds a generic document tree from tokens
// Tables become map[string]any, arrays []any, arrays of tables []map[string]any,
// integers int64, floats float64
type Parser struct {
	lexer *Lexer
	cur   Token
	next  Token
	root  map[string]any
	scope map[string]any
}

// NewParser creates a parser over input
func NewParser(input []byte) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
		root:  make(map[string]any),
	}
	p.scope = p.root
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.next
	p.next = p.lexer.NextToken()
	for p.next.Type == TokenComment {
		p.next = p.lexer.NextToken()
	}
}

// Parse consumes the whole input
func (p *Parser) Parse() (map[string]any, error) {
	for p.cur.Type != TokenEOF {
		switch p.cur.Type {
		case TokenNewline:
			p.advance()
		case TokenLBracket:
			if err := p.tableHeader(); err != nil {
				return nil, err
			}
		case TokenIdent, TokenString:
			if err := p.keyValue(p.scope); err != nil {
				return nil, err
			}
			if p.cur.Type != TokenNewline && p.cur.Type != TokenEOF {
				return nil, fmt.Errorf("line %d: expected newline after value, got %s", p.cur.Line, p.cur)
			}
		case TokenError:
			return nil, fmt.Errorf("line %d: %s", p.cur.Line, p.cur.Literal)
		default:
			return nil, fmt.Errorf("line %d: unexpected %s", p.cur.Line, p.cur)
		}
	}
	return p.root, nil
}

// tableHeader handles [a.b] and [[a.b]]
func (p *Parser) tableHeader() error {
	line := p.cur.Line
	array := p.next.Type == TokenLBracket
	p.advance()
	if array {
		p.advance()
	}

	keys, err := p.keyPath()
	if err != nil {
		return err
	}

	closers := 1
	if array {
		closers = 2
	}
	for i := 0; i < closers; i++ {
		if p.cur.Type != TokenRBracket {
			return fmt.Errorf("line %d: unterminated table header", line)
		}
		p.advance()
	}

	// Headers always resolve from the root
	table := p.root
	for i, key := range keys {
		last := i == len(keys)-1
		existing, exists := table[key]

		if last && array {
			var list []map[string]any
			if exists {
				l, ok := existing.([]map[string]any)
				if !ok {
					return fmt.Errorf("line %d: key %q is not an array of tables", line, key)
				}
				list = l
			}
			entry := make(map[string]any)
			table[key] = append(list, entry)
			p.scope = entry
			return nil
		}

		switch v := existing.(type) {
		case nil:
			child := make(map[string]any)
			table[key] = child
			table = child
		case map[string]any:
			table = v
		case []map[string]any:
			// [a.b] under [[a]] addresses the latest element
			if last || len(v) == 0 {
				return fmt.Errorf("line %d: key %q is an array of tables", line, key)
			}
			table = v[len(v)-1]
		default:
			return fmt.Errorf("line %d: key %q is not a table", line, key)
		}
	}
	p.scope = table
	return nil
}

func (p *Parser) keyValue(scope map[string]any) error {
	keys, err := p.keyPath()
	if err != nil {
		return err
	}
	if p.cur.Type != TokenEqual {
		return fmt.Errorf("line %d: expected '=' after key, got %s", p.cur.Line, p.cur)
	}
	p.advance()

	val, err := p.value()
	if err != nil {
		return err
	}
	return p.assign(scope, keys, val)
}

func (p *Parser) assign(scope map[string]any, keys []string, val any) error {
	table := scope
	for _, key := range keys[:len(keys)-1] {
		switch v := table[key].(type) {
		case nil:
			child := make(map[string]any)
			table[key] = child
			table = child
		case map[string]any:
			table = v
		default:
			return fmt.Errorf("line %d: key %q is not a table", p.cur.Line, key)
		}
	}
	last := keys[len(keys)-1]
	if _, dup := table[last]; dup {
		return fmt.Errorf("line %d: duplicate key %q", p.cur.Line, last)
	}
	table[last] = val
	return nil
}

func (p *Parser) keyPath() ([]string, error) {
	var keys []string
	for {
		if p.cur.Type != TokenIdent && p.cur.Type != TokenString {
			return nil, fmt.Errorf("line %d: expected key, got %s", p.cur.Line, p.cur)
		}
		keys = append(keys, p.cur.Literal)
		p.advance()
		if p.cur.Type != TokenDot {
			return keys, nil
		}
		p.advance()
	}
}

func (p *Parser) value() (any, error) {
	tok := p.cur
	switch tok.Type {
	case TokenString:
		p.advance()
		return tok.Literal, nil
	case TokenInteger:
		p.advance()
		v, err := strconv.ParseInt(tok.Literal, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid integer %q", tok.Line, tok.Literal)
		}
		return v, nil
	case TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid float %q", tok.Line, tok.Literal)
		}
		return v, nil
	case TokenBool:
		p.advance()
		return tok.Literal == "true", nil
	case TokenLBracket:
		return p.array()
	case TokenLBrace:
		return p.inlineTable()
	case TokenError:
		return nil, fmt.Errorf("line %d: %s", tok.Line, tok.Literal)
	}
	return nil, fmt.Errorf("line %d: unexpected value %s", tok.Line, tok)
}

func (p *Parser) skipNewlines() {
	for p.cur.Type == TokenNewline {
		p.advance()
	}
}

func (p *Parser) array() ([]any, error) {
	line := p.cur.Line
	p.advance() // [
	items := make([]any, 0)
	for {
		p.skipNewlines()
		if p.cur.Type == TokenRBracket {
			p.advance()
			return items, nil
		}
		if p.cur.Type == TokenEOF {
			return nil, fmt.Errorf("line %d: unterminated array", line)
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipNewlines()
		switch p.cur.Type {
		case TokenComma:
			p.advance()
		case TokenRBracket:
		case TokenEOF:
			return nil, fmt.Errorf("line %d: unterminated array", line)
		default:
			return nil, fmt.Errorf("line %d: expected ',' or ']' in array, got %s", p.cur.Line, p.cur)
		}
	}
}

func (p *Parser) inlineTable() (map[string]any, error) {
	p.advance() // {
	table := make(map[string]any)
	for p.cur.Type != TokenRBrace {
		if err := p.keyValue(table); err != nil {
			return nil, err
		}
		switch p.cur.Type {
		case TokenComma:
			p.advance()
		case TokenRBrace:
		default:
			return nil, fmt.Errorf("line %d: expected ',' or '}' in inline table, got %s", p.cur.Line, p.cur)
		}
	}
	p.advance() // }
	return table, nil
}
