// Package operator holds the operator table consulted by the formula scanner:
// binary operators, unary pre-modifiers (applied to the operand before them, like
// factorial) and unary post-modifiers (applied to the operand after them, like
// negation).
package operator

import (
	"fmt"
	"strings"

	"github.com/shibukawa/tabformula/value"
)

// Category tells how an operator binds to its operands.
type Category int

const (
	Binary Category = iota + 1
	UnaryPreModifier
	UnaryPostModifier
)

func (c Category) String() string {
	switch c {
	case Binary:
		return "binary"
	case UnaryPreModifier:
		return "unaryPreModifier"
	case UnaryPostModifier:
		return "unaryPostModifier"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// ParseCategory maps the textual category names used in configuration files.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binary":
		return Binary, nil
	case "unarypremodifier", "premodifier":
		return UnaryPreModifier, nil
	case "unarypostmodifier", "postmodifier":
		return UnaryPostModifier, nil
	}

	return 0, fmt.Errorf("%w: unsupported operator type %q", ErrInvalidDefinition, s)
}

// ID identifies an operator independently of its token, so operator tokens never
// collide with plain text.
type ID int

// Built-in operators.
const (
	Invalid ID = iota
	Multiply
	Divide
	Modulo
	Add
	Subtract
	Less
	LessEqual
	Greater
	GreaterEqual
	Equal
	NotEqual
	StrictEqual
	StrictNotEqual
	BitAnd
	BitXor
	BitOr
	LogicalAnd
	LogicalOr
	Coalesce
	Factorial
	Negate
	Not
	BitNot

	firstCustomID
)

// BinaryFunc evaluates a binary operator.
type BinaryFunc func(a, b value.Value) (value.Value, error)

// UnaryFunc evaluates a unary operator.
type UnaryFunc func(a value.Value) (value.Value, error)

// Operator is one entry of a Table.
type Operator struct {
	ID         ID
	Name       string
	Category   Category
	Precedence int
	Binary     BinaryFunc
	Unary      UnaryFunc
	Custom     bool
}

// ApplyBinary evaluates a binary operator.
func (o *Operator) ApplyBinary(a, b value.Value) (value.Value, error) {
	if o.Binary == nil {
		return nil, fmt.Errorf("%w: %q is not a binary operator", ErrInvalidOperator, o.Name)
	}

	return o.Binary(a, b)
}

// ApplyUnary evaluates a pre- or post-modifier.
func (o *Operator) ApplyUnary(a value.Value) (value.Value, error) {
	if o.Unary == nil {
		return nil, fmt.Errorf("%w: %q is not a unary operator", ErrInvalidOperator, o.Name)
	}

	return o.Unary(a)
}

func builtins() []Operator {
	return []Operator{
		{ID: Multiply, Name: "*", Category: Binary, Precedence: 12, Binary: value.Mul},
		{ID: Divide, Name: "/", Category: Binary, Precedence: 12, Binary: value.Div},
		{ID: Modulo, Name: "%", Category: Binary, Precedence: 12, Binary: value.Mod},
		{ID: Add, Name: "+", Category: Binary, Precedence: 11, Binary: value.Add},
		{ID: Subtract, Name: "-", Category: Binary, Precedence: 11, Binary: value.Sub},
		{ID: Less, Name: "<", Category: Binary, Precedence: 9, Binary: value.Less},
		{ID: LessEqual, Name: "<=", Category: Binary, Precedence: 9, Binary: value.LessEqual},
		{ID: Greater, Name: ">", Category: Binary, Precedence: 9, Binary: value.Greater},
		{ID: GreaterEqual, Name: ">=", Category: Binary, Precedence: 9, Binary: value.GreaterEqual},
		{ID: Equal, Name: "==", Category: Binary, Precedence: 8, Binary: boolBinary(value.LooseEqual)},
		{ID: NotEqual, Name: "!=", Category: Binary, Precedence: 8, Binary: notBinary(value.LooseEqual)},
		{ID: StrictEqual, Name: "===", Category: Binary, Precedence: 8, Binary: boolBinary(value.StrictEqual)},
		{ID: StrictNotEqual, Name: "!==", Category: Binary, Precedence: 8, Binary: notBinary(value.StrictEqual)},
		{ID: BitAnd, Name: "&", Category: Binary, Precedence: 7, Binary: value.BitAnd},
		{ID: BitXor, Name: "^", Category: Binary, Precedence: 6, Binary: value.BitXor},
		{ID: BitOr, Name: "|", Category: Binary, Precedence: 5, Binary: value.BitOr},
		{ID: LogicalAnd, Name: "&&", Category: Binary, Precedence: 4, Binary: value.And},
		{ID: LogicalOr, Name: "||", Category: Binary, Precedence: 3, Binary: value.Or},
		{ID: Coalesce, Name: "??", Category: Binary, Precedence: 3, Binary: value.Coalesce},
		{ID: Factorial, Name: "!", Category: UnaryPreModifier, Precedence: 15, Unary: value.Factorial},
		{ID: Negate, Name: "-", Category: UnaryPostModifier, Precedence: 14, Unary: value.Negate},
		{ID: Not, Name: "!", Category: UnaryPostModifier, Precedence: 14, Unary: value.Not},
		{ID: BitNot, Name: "~", Category: UnaryPostModifier, Precedence: 14, Unary: value.BitNot},
	}
}

func boolBinary(eq func(a, b value.Value) bool) BinaryFunc {
	return func(a, b value.Value) (value.Value, error) {
		return eq(a, b), nil
	}
}

func notBinary(eq func(a, b value.Value) bool) BinaryFunc {
	return func(a, b value.Value) (value.Value, error) {
		return !eq(a, b), nil
	}
}
