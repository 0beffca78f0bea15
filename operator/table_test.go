package operator

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/tabformula/value"
)

func TestDefaultTable(t *testing.T) {
	table := Default()

	for _, token := range []string{"=", "==", "===", "!", "!=", "!==", "?", "??", "&", "&&", "<", "<="} {
		assert.True(t, table.IsCandidate(token), token)
	}

	for _, token := range []string{"", "=>", "!!", "a", "+-"} {
		assert.False(t, table.IsCandidate(token), token)
	}

	id, err := table.Lookup(Binary, "===")
	assert.NoError(t, err)
	assert.Equal(t, StrictEqual, id)

	id, err = table.Lookup(UnaryPreModifier, "!")
	assert.NoError(t, err)
	assert.Equal(t, Factorial, id)

	id, err = table.Lookup(UnaryPostModifier, "!")
	assert.NoError(t, err)
	assert.Equal(t, Not, id)

	_, err = table.Lookup(Binary, "=")
	assert.IsError(t, err, ErrInvalidOperator)

	_, err = table.Lookup(UnaryPostModifier, "*")
	assert.IsError(t, err, ErrInvalidOperator)

	assert.Equal(t, 12, table.Precedence(Multiply))
	assert.Equal(t, 11, table.Precedence(Add))
	assert.Equal(t, 15, table.Precedence(Factorial))
	assert.Equal(t, 0, table.Precedence(Invalid))
	assert.Equal(t, 0, table.Precedence(ID(999)))
}

func TestOperatorsSorted(t *testing.T) {
	ops := Default().Operators()
	assert.Equal(t, 23, len(ops))
	assert.Equal(t, "%", ops[0].Name)
	assert.Equal(t, Binary, ops[0].Category)
	assert.Equal(t, "~", ops[len(ops)-1].Name)
}

func TestNewTableCustom(t *testing.T) {
	power := func(a, b value.Value) (value.Value, error) { return value.Mul(a, b) }
	double := func(a value.Value) (value.Value, error) { return value.Mul(a, 2.0) }

	table, err := NewTable(
		Definition{Name: "**", Category: Binary, Binary: power},
		Definition{Name: "+", Precedence: 1, Category: Binary, Binary: power},
		Definition{Name: "@", Precedence: 20, Category: UnaryPostModifier, Unary: double},
	)
	assert.NoError(t, err)

	id, err := table.Lookup(Binary, "**")
	assert.NoError(t, err)
	assert.True(t, id >= firstCustomID)
	assert.Equal(t, DefaultPrecedence, table.Precedence(id))
	assert.True(t, table.IsCandidate("*"))

	plus, err := table.Lookup(Binary, "+")
	assert.NoError(t, err)
	assert.NotEqual(t, Add, plus)
	assert.Equal(t, 1, table.Precedence(plus))

	op, ok := table.Get(plus)
	assert.True(t, ok)
	assert.True(t, op.Custom)

	got, err := op.ApplyBinary(3.0, 4.0)
	assert.NoError(t, err)
	assert.Equal[value.Value](t, 12.0, got)

	_, err = op.ApplyUnary(3.0)
	assert.IsError(t, err, ErrInvalidOperator)

	at, err := table.Lookup(UnaryPostModifier, "@")
	assert.NoError(t, err)

	op, _ = table.Get(at)
	got, err = op.ApplyUnary(4.0)
	assert.NoError(t, err)
	assert.Equal[value.Value](t, 8.0, got)

	// the default table is not affected
	id, err = Default().Lookup(Binary, "+")
	assert.NoError(t, err)
	assert.Equal(t, Add, id)
}

func TestNewTableInvalid(t *testing.T) {
	unary := func(a value.Value) (value.Value, error) { return a, nil }
	binary := func(a, b value.Value) (value.Value, error) { return a, nil }

	tests := []struct {
		name string
		def  Definition
	}{
		{name: "empty name", def: Definition{Category: Binary, Binary: binary}},
		{name: "reserved rune", def: Definition{Name: "(+", Category: Binary, Binary: binary}},
		{name: "whitespace", def: Definition{Name: "a b", Category: Binary, Binary: binary}},
		{name: "letters", def: Definition{Name: "mod", Category: Binary, Binary: binary}},
		{name: "single letter", def: Definition{Name: "n", Category: UnaryPreModifier, Unary: unary}},
		{name: "digit", def: Definition{Name: "+1", Category: Binary, Binary: binary}},
		{name: "dot", def: Definition{Name: ".", Category: Binary, Binary: binary}},
		{name: "non-ascii letter", def: Definition{Name: "×x", Category: Binary, Binary: binary}},
		{name: "missing binary", def: Definition{Name: "<>", Category: Binary, Unary: unary}},
		{name: "missing unary", def: Definition{Name: "#", Category: UnaryPreModifier, Binary: binary}},
		{name: "unsupported category", def: Definition{Name: "#", Category: Category(9), Unary: unary}},
		{name: "zero category", def: Definition{Name: "#", Unary: unary}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.def)
			assert.IsError(t, err, ErrInvalidDefinition)
		})
	}

	assert.Panics(t, func() {
		MustNewTable(Definition{})
	})
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"binary", Binary},
		{"unaryPreModifier", UnaryPreModifier},
		{" premodifier ", UnaryPreModifier},
		{"UnaryPostModifier", UnaryPostModifier},
		{"postModifier", UnaryPostModifier},
	}

	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want, mustParse(t, got.String()))
	}

	_, err := ParseCategory("ternary")
	assert.IsError(t, err, ErrInvalidDefinition)
}

func mustParse(t *testing.T, s string) Category {
	t.Helper()

	c, err := ParseCategory(s)
	assert.NoError(t, err)

	return c
}
