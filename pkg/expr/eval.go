package expr

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
)

// Evaluate runs a parsed expression against a fact attribute bag and returns
// the resulting value (float64, string, bool, nil, or []any for lists).
//
// References to attributes that are absent from the bag fail with *EvalError;
// a rule carrying such a reference compiles fine and only fails on the facts
// that lack the attribute.
func Evaluate(node *Node, attrs map[string]any) (any, error) {
	return eval(node, attrs)
}

// EvaluateBool evaluates an expression expected to yield a boolean, such as a
// rule condition. A non-boolean result is a type error.
func EvaluateBool(node *Node, attrs map[string]any) (bool, error) {
	val, err := eval(node, attrs)
	if err != nil {
		return false, err
	}
	b, ok := val.(bool)
	if !ok {
		return false, &EvalError{
			Message: fmt.Sprintf("condition must evaluate to a boolean, got %s", typeName(val)),
			Pos:     node.Pos,
		}
	}
	return b, nil
}

func eval(node *Node, attrs map[string]any) (any, error) {
	switch node.Kind {
	case NodeLiteral:
		return node.Value, nil

	case NodeList:
		elems := make([]any, 0, len(node.Args))
		for _, arg := range node.Args {
			v, err := eval(arg, attrs)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		return elems, nil

	case NodeAttribute:
		val, ok := lookup(node.Path, attrs)
		if !ok {
			return nil, &EvalError{
				Message: fmt.Sprintf("unknown fact attribute %q", strings.Join(node.Path, ".")),
				Pos:     node.Pos,
			}
		}
		return normalize(val), nil

	case NodeUnary:
		return evalUnary(node, attrs)

	case NodeBinary:
		return evalBinary(node, attrs)

	case NodeCall:
		return evalCall(node, attrs)
	}

	return nil, &EvalError{
		Message: fmt.Sprintf("unknown node kind %q", node.Kind),
		Pos:     node.Pos,
	}
}

func evalUnary(node *Node, attrs map[string]any) (any, error) {
	val, err := eval(node.Right, attrs)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case OpNot:
		b, ok := val.(bool)
		if !ok {
			return nil, &EvalError{
				Message: fmt.Sprintf("operator ! requires a boolean operand, got %s", typeName(val)),
				Pos:     node.Pos,
			}
		}
		return !b, nil

	case OpNegate:
		num, ok := toFloat64(val)
		if !ok {
			return nil, &EvalError{
				Message: fmt.Sprintf("unary - requires a numeric operand, got %s", typeName(val)),
				Pos:     node.Pos,
			}
		}
		return -num, nil
	}

	return nil, &EvalError{
		Message: fmt.Sprintf("unknown unary operator %q", node.Op),
		Pos:     node.Pos,
	}
}

func evalBinary(node *Node, attrs map[string]any) (any, error) {
	// Boolean operators short-circuit; the right operand is only evaluated
	// when it can change the outcome.
	switch node.Op {
	case OpAnd, OpOr:
		left, err := evalBoolOperand(node.Left, attrs, node.Op)
		if err != nil {
			return nil, err
		}
		if node.Op == OpAnd && !left {
			return false, nil
		}
		if node.Op == OpOr && left {
			return true, nil
		}
		return evalBoolOperand(node.Right, attrs, node.Op)
	}

	left, err := eval(node.Left, attrs)
	if err != nil {
		return nil, err
	}
	right, err := eval(node.Right, attrs)
	if err != nil {
		return nil, err
	}

	if node.Op.IsArithmetic() {
		return evalArithmetic(node, left, right)
	}
	if node.Op.IsComparison() {
		return evalComparison(node, left, right)
	}

	return nil, &EvalError{
		Message: fmt.Sprintf("unknown operator %q", node.Op),
		Pos:     node.Pos,
	}
}

func evalBoolOperand(node *Node, attrs map[string]any, op Operator) (bool, error) {
	val, err := eval(node, attrs)
	if err != nil {
		return false, err
	}
	b, ok := val.(bool)
	if !ok {
		return false, &EvalError{
			Message: fmt.Sprintf("operator %s requires boolean operands, got %s", op, typeName(val)),
			Pos:     node.Pos,
		}
	}
	return b, nil
}

func evalArithmetic(node *Node, left, right any) (any, error) {
	l, lok := toFloat64(left)
	r, rok := toFloat64(right)
	if !lok || !rok {
		return nil, &EvalError{
			Message: fmt.Sprintf("operator %s requires numeric operands, got %s and %s",
				node.Op, typeName(left), typeName(right)),
			Pos: node.Pos,
		}
	}

	switch node.Op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		if r == 0 {
			return nil, &EvalError{Message: "division by zero", Pos: node.Pos}
		}
		return l / r, nil
	case OpMod:
		if r == 0 {
			return nil, &EvalError{Message: "division by zero", Pos: node.Pos}
		}
		return math.Mod(l, r), nil
	}

	return nil, &EvalError{
		Message: fmt.Sprintf("unknown arithmetic operator %q", node.Op),
		Pos:     node.Pos,
	}
}

func evalComparison(node *Node, left, right any) (any, error) {
	switch node.Op {
	case OpEqual:
		return valuesEqual(left, right), nil

	case OpNotEqual:
		return !valuesEqual(left, right), nil

	case OpLessThan, OpLessEqual, OpGreaterThan, OpGreaterEqual:
		l, lok := toFloat64(left)
		r, rok := toFloat64(right)
		if !lok || !rok {
			return nil, &EvalError{
				Message: fmt.Sprintf("operator %s requires numeric operands, got %s and %s",
					node.Op, typeName(left), typeName(right)),
				Pos: node.Pos,
			}
		}
		switch node.Op {
		case OpLessThan:
			return l < r, nil
		case OpLessEqual:
			return l <= r, nil
		case OpGreaterThan:
			return l > r, nil
		default:
			return l >= r, nil
		}

	case OpContains:
		return evalContains(node, left, right)

	case OpMatches:
		return evalMatches(node, left, right)

	case OpIn:
		return evalIn(node, left, right)
	}

	return nil, &EvalError{
		Message: fmt.Sprintf("unknown comparison operator %q", node.Op),
		Pos:     node.Pos,
	}
}

func evalContains(node *Node, left, right any) (any, error) {
	switch haystack := left.(type) {
	case string:
		needle, ok := right.(string)
		if !ok {
			return nil, &EvalError{
				Message: fmt.Sprintf("contains on a string requires a string operand, got %s", typeName(right)),
				Pos:     node.Pos,
			}
		}
		return strings.Contains(haystack, needle), nil

	case []any:
		for _, elem := range haystack {
			if valuesEqual(elem, right) {
				return true, nil
			}
		}
		return false, nil
	}

	return nil, &EvalError{
		Message: fmt.Sprintf("contains requires a string or list, got %s", typeName(left)),
		Pos:     node.Pos,
	}
}

func evalMatches(node *Node, left, right any) (any, error) {
	subject, ok := left.(string)
	if !ok {
		return nil, &EvalError{
			Message: fmt.Sprintf("matches requires a string subject, got %s", typeName(left)),
			Pos:     node.Pos,
		}
	}
	pattern, ok := right.(string)
	if !ok {
		return nil, &EvalError{
			Message: fmt.Sprintf("matches requires a string pattern, got %s", typeName(right)),
			Pos:     node.Pos,
		}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &EvalError{
			Message: fmt.Sprintf("invalid regular expression %q", pattern),
			Pos:     node.Pos,
			Cause:   err,
		}
	}
	return re.MatchString(subject), nil
}

func evalIn(node *Node, left, right any) (any, error) {
	list, ok := right.([]any)
	if !ok {
		return nil, &EvalError{
			Message: fmt.Sprintf("in requires a list operand, got %s", typeName(right)),
			Pos:     node.Pos,
		}
	}
	for _, elem := range list {
		if valuesEqual(elem, left) {
			return true, nil
		}
	}
	return false, nil
}

func evalCall(node *Node, attrs map[string]any) (any, error) {
	// empty and exists probe attribute presence, so missing attributes must
	// not fail the argument evaluation.
	switch node.Func {
	case "empty":
		arg := node.Args[0]
		if arg.Kind == NodeAttribute {
			val, ok := lookup(arg.Path, attrs)
			if !ok {
				return true, nil
			}
			return isEmpty(normalize(val)), nil
		}
		val, err := eval(arg, attrs)
		if err != nil {
			return nil, err
		}
		return isEmpty(val), nil

	case "exists":
		_, ok := lookup(node.Args[0].Path, attrs)
		return ok, nil
	}

	args := make([]any, len(node.Args))
	for i, argNode := range node.Args {
		val, err := eval(argNode, attrs)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	switch node.Func {
	case "len":
		switch v := args[0].(type) {
		case string:
			return float64(len(v)), nil
		case []any:
			return float64(len(v)), nil
		case map[string]any:
			return float64(len(v)), nil
		}
		return nil, &EvalError{
			Message: fmt.Sprintf("len requires a string, list, or map, got %s", typeName(args[0])),
			Pos:     node.Pos,
		}

	case "abs":
		num, err := numericArg(node, "abs", args[0])
		if err != nil {
			return nil, err
		}
		return math.Abs(num), nil

	case "round":
		num, err := numericArg(node, "round", args[0])
		if err != nil {
			return nil, err
		}
		return math.Round(num), nil

	case "min", "max":
		a, err := numericArg(node, node.Func, args[0])
		if err != nil {
			return nil, err
		}
		b, err := numericArg(node, node.Func, args[1])
		if err != nil {
			return nil, err
		}
		if node.Func == "min" {
			return math.Min(a, b), nil
		}
		return math.Max(a, b), nil
	}

	return nil, &EvalError{
		Message: fmt.Sprintf("unknown function %q", node.Func),
		Pos:     node.Pos,
	}
}

func numericArg(node *Node, fn string, val any) (float64, error) {
	num, ok := toFloat64(val)
	if !ok {
		return 0, &EvalError{
			Message: fmt.Sprintf("%s requires a numeric argument, got %s", fn, typeName(val)),
			Pos:     node.Pos,
		}
	}
	return num, nil
}

// lookup resolves a dot path through nested map[string]any attribute bags.
// The boolean result distinguishes "absent" from "present but nil".
func lookup(path []string, attrs map[string]any) (any, bool) {
	var current any = attrs
	for _, segment := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// isEmpty reports whether a value counts as empty for the empty() builtin:
// nil, the empty string, or a zero-length list or map. Numbers and booleans
// are never empty.
func isEmpty(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

// valuesEqual compares two values with numeric coercion, so a YAML int and an
// expression float compare as expected.
func valuesEqual(left, right any) bool {
	if left == nil && right == nil {
		return true
	}
	if left == nil || right == nil {
		return false
	}

	lNum, lok := toFloat64(left)
	rNum, rok := toFloat64(right)
	if lok && rok {
		return lNum == rNum
	}

	return reflect.DeepEqual(left, right)
}

// normalize converts attribute values into the evaluator's canonical types:
// all numbers become float64, []any and map[string]any pass through.
func normalize(val any) any {
	if num, ok := toFloat64(val); ok {
		return num
	}
	return val
}

// toFloat64 coerces the numeric types facts commonly arrive with (YAML and
// JSON decoding produce int, int64, and float64) into float64.
func toFloat64(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

// typeName returns a friendly type name for error messages.
func typeName(val any) string {
	switch val.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	}
	return reflect.TypeOf(val).String()
}
