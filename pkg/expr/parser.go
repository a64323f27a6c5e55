package expr

import (
	"fmt"
	"regexp"
	"strconv"
)

// builtinArity maps each builtin function to its required argument count.
// An unknown function name is a compile-time error; an unknown attribute is
// deliberately not, since attribute resolution depends on the fact at hand.
var builtinArity = map[string]int{
	"empty":  1,
	"exists": 1,
	"len":    1,
	"abs":    1,
	"round":  1,
	"min":    2,
	"max":    2,
}

// Parse compiles a condition expression into its AST.
// It returns a *ParseError on malformed input. Parsing is pure: it touches no
// shared state and may run concurrently with evaluation of other expressions.
func Parse(src string) (*Node, error) {
	toks, err := newLexer(src).tokens()
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: toks}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.Kind != TokenEOF {
		return nil, &ParseError{
			Message: fmt.Sprintf("unexpected %s after expression", tok),
			Pos:     tok.Pos,
		}
	}
	return node, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

// expect consumes a token of the given kind or fails.
func (p *parser) expect(kind TokenKind, what string) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return Token{}, &ParseError{
			Message: fmt.Sprintf("expected %s, found %s", what, tok),
			Pos:     tok.Pos,
		}
	}
	return p.advance(), nil
}

func (p *parser) parseOr() (*Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if !p.isOperator(tok, "||") && !p.isKeyword(tok, "or") {
			return left, nil
		}
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NodeBinary, Op: OpOr, Left: left, Right: right, Pos: tok.Pos}
	}
}

func (p *parser) parseAnd() (*Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if !p.isOperator(tok, "&&") && !p.isKeyword(tok, "and") {
			return left, nil
		}
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NodeBinary, Op: OpAnd, Left: left, Right: right, Pos: tok.Pos}
	}
}

func (p *parser) parseNot() (*Node, error) {
	tok := p.peek()
	if p.isOperator(tok, "!") || p.isKeyword(tok, "not") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeUnary, Op: OpNot, Right: operand, Pos: tok.Pos}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (*Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	op, ok := comparisonOp(tok)
	if !ok {
		return left, nil
	}
	p.advance()

	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if op == OpMatches {
		if err := checkPattern(right); err != nil {
			return nil, err
		}
	}

	return &Node{Kind: NodeBinary, Op: op, Left: left, Right: right, Pos: tok.Pos}, nil
}

func comparisonOp(tok Token) (Operator, bool) {
	if tok.Kind == TokenOperator {
		switch tok.Text {
		case "==":
			return OpEqual, true
		case "!=":
			return OpNotEqual, true
		case "<":
			return OpLessThan, true
		case "<=":
			return OpLessEqual, true
		case ">":
			return OpGreaterThan, true
		case ">=":
			return OpGreaterEqual, true
		}
	}
	if tok.Kind == TokenIdent {
		switch tok.Text {
		case "contains":
			return OpContains, true
		case "matches":
			return OpMatches, true
		case "in":
			return OpIn, true
		}
	}
	return "", false
}

// checkPattern validates a literal regex operand of "matches" at compile time
// so broken patterns are rejected before publish rather than at execution.
func checkPattern(n *Node) error {
	if n.Kind != NodeLiteral {
		return nil
	}
	pattern, ok := n.Value.(string)
	if !ok {
		return &ParseError{
			Message: "matches requires a string pattern",
			Pos:     n.Pos,
		}
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return &ParseError{
			Message: fmt.Sprintf("invalid regular expression %q: %v", pattern, err),
			Pos:     n.Pos,
		}
	}
	return nil
}

func (p *parser) parseAdditive() (*Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		var op Operator
		switch {
		case p.isOperator(tok, "+"):
			op = OpAdd
		case p.isOperator(tok, "-"):
			op = OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NodeBinary, Op: op, Left: left, Right: right, Pos: tok.Pos}
	}
}

func (p *parser) parseMultiplicative() (*Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		var op Operator
		switch {
		case p.isOperator(tok, "*"):
			op = OpMul
		case p.isOperator(tok, "/"):
			op = OpDiv
		case p.isOperator(tok, "%"):
			op = OpMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NodeBinary, Op: op, Left: left, Right: right, Pos: tok.Pos}
	}
}

func (p *parser) parseUnary() (*Node, error) {
	tok := p.peek()
	if p.isOperator(tok, "-") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeUnary, Op: OpNegate, Right: operand, Pos: tok.Pos}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*Node, error) {
	tok := p.peek()

	switch tok.Kind {
	case TokenNumber:
		p.advance()
		val, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, &ParseError{
				Message: fmt.Sprintf("malformed number %q", tok.Text),
				Pos:     tok.Pos,
			}
		}
		return &Node{Kind: NodeLiteral, Value: val, Pos: tok.Pos}, nil

	case TokenString:
		p.advance()
		return &Node{Kind: NodeLiteral, Value: tok.Text, Pos: tok.Pos}, nil

	case TokenLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, `")"`); err != nil {
			return nil, err
		}
		return inner, nil

	case TokenLBracket:
		return p.parseList()

	case TokenIdent:
		return p.parseIdent()
	}

	return nil, &ParseError{
		Message: fmt.Sprintf("unexpected %s", tok),
		Pos:     tok.Pos,
	}
}

// parseList parses a list literal: [elem, elem, ...].
func (p *parser) parseList() (*Node, error) {
	open := p.advance() // consume "["
	node := &Node{Kind: NodeList, Pos: open.Pos}

	if p.peek().Kind == TokenRBracket {
		p.advance()
		return node, nil
	}

	for {
		elem, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		node.Args = append(node.Args, elem)

		tok := p.peek()
		switch tok.Kind {
		case TokenComma:
			p.advance()
		case TokenRBracket:
			p.advance()
			return node, nil
		default:
			return nil, &ParseError{
				Message: fmt.Sprintf(`expected "," or "]" in list, found %s`, tok),
				Pos:     tok.Pos,
			}
		}
	}
}

// parseIdent parses keyword literals, builtin calls, and attribute paths.
func (p *parser) parseIdent() (*Node, error) {
	tok := p.advance()

	switch tok.Text {
	case "true":
		return &Node{Kind: NodeLiteral, Value: true, Pos: tok.Pos}, nil
	case "false":
		return &Node{Kind: NodeLiteral, Value: false, Pos: tok.Pos}, nil
	case "null", "nil":
		return &Node{Kind: NodeLiteral, Value: nil, Pos: tok.Pos}, nil
	}

	// Function call.
	if p.peek().Kind == TokenLParen {
		return p.parseCall(tok)
	}

	// Attribute path: ident (. ident)*
	path := []string{tok.Text}
	for p.peek().Kind == TokenDot {
		p.advance()
		segment, err := p.expect(TokenIdent, "attribute name after \".\"")
		if err != nil {
			return nil, err
		}
		path = append(path, segment.Text)
	}
	return &Node{Kind: NodeAttribute, Path: path, Pos: tok.Pos}, nil
}

func (p *parser) parseCall(name Token) (*Node, error) {
	arity, ok := builtinArity[name.Text]
	if !ok {
		return nil, &ParseError{
			Message:    fmt.Sprintf("unknown function %q", name.Text),
			Pos:        name.Pos,
			Suggestion: "supported functions: abs, empty, exists, len, max, min, round",
		}
	}

	p.advance() // consume "("
	node := &Node{Kind: NodeCall, Func: name.Text, Pos: name.Pos}

	if p.peek().Kind != TokenRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			node.Args = append(node.Args, arg)

			tok := p.peek()
			if tok.Kind == TokenComma {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(TokenRParen, `")"`); err != nil {
		return nil, err
	}

	if len(node.Args) != arity {
		return nil, &ParseError{
			Message: fmt.Sprintf("%s expects %d argument(s), got %d", name.Text, arity, len(node.Args)),
			Pos:     name.Pos,
		}
	}

	// exists() inspects attribute presence, so its argument must be a path.
	if name.Text == "exists" && node.Args[0].Kind != NodeAttribute {
		return nil, &ParseError{
			Message: "exists requires an attribute reference argument",
			Pos:     node.Args[0].Pos,
		}
	}

	return node, nil
}

func (p *parser) isOperator(tok Token, text string) bool {
	return tok.Kind == TokenOperator && tok.Text == text
}

func (p *parser) isKeyword(tok Token, text string) bool {
	return tok.Kind == TokenIdent && tok.Text == text
}
