package expr

import (
	"fmt"
	"strings"
	"unicode"
)

// lexer turns a condition expression string into a token stream.
type lexer struct {
	src    string
	offset int
	line   int
	column int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, column: 1}
}

// tokens scans the whole input. It returns a *ParseError on the first
// malformed token.
func (l *lexer) tokens() ([]Token, error) {
	var out []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == TokenEOF {
			return out, nil
		}
	}
}

func (l *lexer) next() (Token, error) {
	l.skipSpace()

	pos := Position{Line: l.line, Column: l.column}
	if l.offset >= len(l.src) {
		return Token{Kind: TokenEOF, Pos: pos}, nil
	}

	c := l.src[l.offset]
	switch {
	case isDigit(c):
		return l.scanNumber(pos)

	case c == '"' || c == '\'':
		return l.scanString(pos, c)

	case isIdentStart(c):
		return l.scanIdent(pos), nil
	}

	// Two-character operators take priority over their prefixes.
	if l.offset+1 < len(l.src) {
		two := l.src[l.offset : l.offset+2]
		switch two {
		case "==", "!=", "<=", ">=", "&&", "||":
			l.advance(2)
			return Token{Kind: TokenOperator, Text: two, Pos: pos}, nil
		}
	}

	switch c {
	case '<', '>', '!', '+', '-', '*', '/', '%':
		l.advance(1)
		return Token{Kind: TokenOperator, Text: string(c), Pos: pos}, nil
	case '(':
		l.advance(1)
		return Token{Kind: TokenLParen, Text: "(", Pos: pos}, nil
	case ')':
		l.advance(1)
		return Token{Kind: TokenRParen, Text: ")", Pos: pos}, nil
	case '[':
		l.advance(1)
		return Token{Kind: TokenLBracket, Text: "[", Pos: pos}, nil
	case ']':
		l.advance(1)
		return Token{Kind: TokenRBracket, Text: "]", Pos: pos}, nil
	case ',':
		l.advance(1)
		return Token{Kind: TokenComma, Text: ",", Pos: pos}, nil
	case '.':
		l.advance(1)
		return Token{Kind: TokenDot, Text: ".", Pos: pos}, nil
	case '=':
		return Token{}, &ParseError{
			Message:    "unexpected \"=\"",
			Pos:        pos,
			Suggestion: "use \"==\" for equality comparison",
		}
	}

	return Token{}, &ParseError{
		Message: fmt.Sprintf("unexpected character %q", c),
		Pos:     pos,
	}
}

// scanNumber scans an integer or decimal literal.
func (l *lexer) scanNumber(pos Position) (Token, error) {
	start := l.offset
	for l.offset < len(l.src) && isDigit(l.src[l.offset]) {
		l.advance(1)
	}
	if l.offset < len(l.src) && l.src[l.offset] == '.' {
		// A decimal point must be followed by digits; "1." is malformed and
		// "a.b" after a number never occurs since idents cannot start with digits.
		if l.offset+1 >= len(l.src) || !isDigit(l.src[l.offset+1]) {
			return Token{}, &ParseError{
				Message: fmt.Sprintf("malformed number %q", l.src[start:l.offset+1]),
				Pos:     pos,
			}
		}
		l.advance(1)
		for l.offset < len(l.src) && isDigit(l.src[l.offset]) {
			l.advance(1)
		}
	}
	return Token{Kind: TokenNumber, Text: l.src[start:l.offset], Pos: pos}, nil
}

// scanString scans a quoted string literal. Both single and double quotes are
// accepted so conditions nest cleanly inside either YAML quoting style.
func (l *lexer) scanString(pos Position, quote byte) (Token, error) {
	l.advance(1) // opening quote
	var sb strings.Builder
	for l.offset < len(l.src) {
		c := l.src[l.offset]
		switch c {
		case quote:
			l.advance(1)
			return Token{Kind: TokenString, Text: sb.String(), Pos: pos}, nil
		case '\\':
			if l.offset+1 >= len(l.src) {
				return Token{}, &ParseError{Message: "unterminated string literal", Pos: pos}
			}
			esc := l.src[l.offset+1]
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '"', '\'':
				sb.WriteByte(esc)
			default:
				return Token{}, &ParseError{
					Message: fmt.Sprintf("unknown escape sequence \\%c", esc),
					Pos:     Position{Line: l.line, Column: l.column},
				}
			}
			l.advance(2)
		case '\n':
			return Token{}, &ParseError{Message: "unterminated string literal", Pos: pos}
		default:
			sb.WriteByte(c)
			l.advance(1)
		}
	}
	return Token{}, &ParseError{Message: "unterminated string literal", Pos: pos}
}

func (l *lexer) scanIdent(pos Position) Token {
	start := l.offset
	for l.offset < len(l.src) && isIdentPart(l.src[l.offset]) {
		l.advance(1)
	}
	return Token{Kind: TokenIdent, Text: l.src[start:l.offset], Pos: pos}
}

func (l *lexer) skipSpace() {
	for l.offset < len(l.src) {
		c := l.src[l.offset]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			l.advance(1)
			continue
		}
		return
	}
}

// advance moves past n bytes, tracking line and column.
func (l *lexer) advance(n int) {
	for i := 0; i < n && l.offset < len(l.src); i++ {
		if l.src[l.offset] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.offset++
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
