package expr

import "fmt"

// TokenKind identifies the lexical class of a token.
type TokenKind string

const (
	TokenNumber   TokenKind = "number"   // 42, 0.05
	TokenString   TokenKind = "string"   // "approved"
	TokenIdent    TokenKind = "ident"    // amount, gmv, empty
	TokenOperator TokenKind = "operator" // == != < <= > >= && || ! + - * / %
	TokenLParen   TokenKind = "lparen"
	TokenRParen   TokenKind = "rparen"
	TokenLBracket TokenKind = "lbracket"
	TokenRBracket TokenKind = "rbracket"
	TokenComma    TokenKind = "comma"
	TokenDot      TokenKind = "dot"
	TokenEOF      TokenKind = "eof"
)

// Position is a location within a condition expression.
// Line and Column are 1-based; conditions embedded in YAML may span lines.
type Position struct {
	Line   int
	Column int
}

// String returns a human-readable "line:column" representation.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexical token with its source position.
type Token struct {
	Kind TokenKind
	Text string
	Pos  Position
}

// String returns a readable representation for error messages.
func (t Token) String() string {
	if t.Kind == TokenEOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q", t.Text)
}
