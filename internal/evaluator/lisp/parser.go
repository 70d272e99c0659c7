package lisp

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type TokenType int

const (
	TokLParen TokenType = iota
	TokRParen
	TokSymbol
	TokNumber
	TokString
	TokEOF
)

type Token struct {
	Type   TokenType
	Text   string
	Number float64
	Pos    int
}

// SyntaxError 描述解析失败的位置。
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Msg)
}

type Tokenizer struct {
	input []rune
	pos   int
}

func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{input: []rune(input)}
}

func (t *Tokenizer) peek() rune {
	if t.pos >= len(t.input) {
		return 0
	}
	return t.input[t.pos]
}

func (t *Tokenizer) advance() rune {
	if t.pos >= len(t.input) {
		return 0
	}
	r := t.input[t.pos]
	t.pos++
	return r
}

// skipWhitespace 跳过空白和 ; 注释。
func (t *Tokenizer) skipWhitespace() {
	for t.pos < len(t.input) {
		c := t.peek()
		if c == ';' {
			for t.pos < len(t.input) && t.peek() != '\n' {
				t.advance()
			}
		} else if unicode.IsSpace(c) {
			t.advance()
		} else {
			break
		}
	}
}

func (t *Tokenizer) Next() (Token, error) {
	t.skipWhitespace()
	start := t.pos
	if t.pos >= len(t.input) {
		return Token{Type: TokEOF, Pos: start}, nil
	}

	switch c := t.peek(); c {
	case '(':
		t.advance()
		return Token{Type: TokLParen, Pos: start}, nil
	case ')':
		t.advance()
		return Token{Type: TokRParen, Pos: start}, nil
	case '"':
		t.advance()
		var sb strings.Builder
		for {
			if t.pos >= len(t.input) {
				return Token{}, &SyntaxError{Pos: start, Msg: "unterminated string"}
			}
			r := t.advance()
			if r == '"' {
				break
			}
			if r != '\\' {
				sb.WriteRune(r)
				continue
			}
			switch esc := t.advance(); esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 0:
				return Token{}, &SyntaxError{Pos: start, Msg: "unterminated string"}
			default:
				sb.WriteRune(esc)
			}
		}
		return Token{Type: TokString, Text: sb.String(), Pos: start}, nil
	default:
		var sb strings.Builder
		for t.pos < len(t.input) {
			c := t.peek()
			if unicode.IsSpace(c) || c == '(' || c == ')' || c == '"' || c == ';' {
				break
			}
			sb.WriteRune(t.advance())
		}
		text := sb.String()
		if n, err := strconv.ParseFloat(text, 64); err == nil {
			return Token{Type: TokNumber, Number: n, Text: text, Pos: start}, nil
		}
		return Token{Type: TokSymbol, Text: text, Pos: start}, nil
	}
}

type Parser struct {
	tokenizer *Tokenizer
	current   Token
}

func NewParser(input string) (*Parser, error) {
	p := &Parser{tokenizer: NewTokenizer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	tok, err := p.tokenizer.Next()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

// Parse 解析全部顶层表达式。
func Parse(input string) ([]Value, error) {
	p, err := NewParser(input)
	if err != nil {
		return nil, err
	}
	var exprs []Value
	for p.current.Type != TokEOF {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

func (p *Parser) parseExpr() (Value, error) {
	tok := p.current
	switch tok.Type {
	case TokLParen:
		if err := p.advance(); err != nil {
			return Nil(), err
		}
		var items []Value
		for p.current.Type != TokRParen {
			if p.current.Type == TokEOF {
				return Nil(), &SyntaxError{Pos: tok.Pos, Msg: "missing ')'"}
			}
			item, err := p.parseExpr()
			if err != nil {
				return Nil(), err
			}
			items = append(items, item)
		}
		return Lst(items...), p.advance()
	case TokRParen:
		return Nil(), &SyntaxError{Pos: tok.Pos, Msg: "unexpected ')'"}
	case TokNumber:
		return Num(tok.Number), p.advance()
	case TokString:
		return Str(tok.Text), p.advance()
	case TokSymbol:
		var v Value
		switch tok.Text {
		case "true":
			v = Bool(true)
		case "false":
			v = Bool(false)
		case "nil":
			v = Nil()
		default:
			v = Sym(tok.Text)
		}
		return v, p.advance()
	default:
		return Nil(), &SyntaxError{Pos: tok.Pos, Msg: "unexpected end of input"}
	}
}
