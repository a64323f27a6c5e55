package expr

// NodeKind identifies the variant of an AST node.
type NodeKind string

const (
	NodeLiteral   NodeKind = "literal"   // number, string, boolean, null
	NodeList      NodeKind = "list"      // [elem, elem, ...]
	NodeAttribute NodeKind = "attribute" // fact attribute path (a.b.c)
	NodeUnary     NodeKind = "unary"     // !x, -x
	NodeBinary    NodeKind = "binary"    // left op right
	NodeCall      NodeKind = "call"      // builtin function call
)

// Operator is a unary or binary operator in a condition expression.
type Operator string

const (
	OpOr  Operator = "||"
	OpAnd Operator = "&&"
	OpNot Operator = "!"

	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpLessThan     Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreaterThan  Operator = ">"
	OpGreaterEqual Operator = ">="
	OpContains     Operator = "contains"
	OpMatches      Operator = "matches"
	OpIn           Operator = "in"

	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"

	OpNegate Operator = "neg"
)

// Node is a node in the expression AST. It is a tagged variant: the Kind
// field selects which of the remaining fields are meaningful. Nodes are pure
// data and never mutated after parsing, so a parsed expression may be
// evaluated concurrently.
type Node struct {
	Kind NodeKind

	// Value holds the literal value for NodeLiteral:
	// float64, string, bool, or nil for null.
	Value any

	// Path holds the attribute path segments for NodeAttribute.
	Path []string

	// Op is the operator for NodeUnary and NodeBinary.
	Op Operator

	// Left and Right are the operands for NodeBinary; NodeUnary uses Right.
	Left  *Node
	Right *Node

	// Func and Args describe a builtin call for NodeCall.
	// NodeList reuses Args for its elements.
	Func string
	Args []*Node

	// Pos is the source position of the node, for error reporting.
	Pos Position
}

// IsComparison reports whether the operator yields a boolean from two values.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLessThan, OpLessEqual, OpGreaterThan,
		OpGreaterEqual, OpContains, OpMatches, OpIn:
		return true
	}
	return false
}

// IsArithmetic reports whether the operator is numeric.
func (op Operator) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return true
	}
	return false
}
