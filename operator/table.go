package operator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

var (
	// ErrInvalidOperator is returned when a token is not a registered operator of
	// the requested category.
	ErrInvalidOperator = errors.New("not a valid operator")
	// ErrInvalidDefinition is returned by NewTable for malformed custom operators.
	ErrInvalidDefinition = errors.New("invalid operator definition")
)

// DefaultPrecedence is used for custom operators that leave Precedence at zero.
const DefaultPrecedence = 10

// reservedRunes cannot appear in operator tokens because the scanner gives them
// another meaning.
const reservedRunes = "()[]{},'\"\\ \t\r\n"

// Definition describes a custom operator passed to NewTable.
type Definition struct {
	Name       string
	Precedence int
	Category   Category
	Binary     BinaryFunc
	Unary      UnaryFunc
}

func (d Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidDefinition)
	}

	if strings.ContainsAny(d.Name, reservedRunes) {
		return fmt.Errorf("%w: name %q must not contain quotes, brackets, commas, backslashes or whitespace", ErrInvalidDefinition, d.Name)
	}

	// letters, digits, underscores and dots belong to names and numbers, so an
	// operator made of them would swallow the start of a function call or literal.
	if strings.IndexFunc(d.Name, isSymbolRune) >= 0 {
		return fmt.Errorf("%w: name %q must not contain letters, digits, underscores or dots", ErrInvalidDefinition, d.Name)
	}

	switch d.Category {
	case Binary:
		if d.Binary == nil {
			return fmt.Errorf("%w: binary operator %q needs a binary operation", ErrInvalidDefinition, d.Name)
		}
	case UnaryPreModifier, UnaryPostModifier:
		if d.Unary == nil {
			return fmt.Errorf("%w: %s operator %q needs a unary operation", ErrInvalidDefinition, d.Category, d.Name)
		}
	default:
		return fmt.Errorf("%w: operator %q has unsupported type %s", ErrInvalidDefinition, d.Name, d.Category)
	}

	return nil
}

func isSymbolRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

// Table is an immutable set of operators. It is safe for concurrent use.
type Table struct {
	operators  []*Operator
	byToken    map[Category]map[string]*Operator
	candidates map[string]struct{}
}

// NewTable builds a table holding the built-in operators plus the given custom
// definitions. A custom operator replaces a built-in with the same token and
// category.
func NewTable(defs ...Definition) (*Table, error) {
	t := &Table{
		byToken: map[Category]map[string]*Operator{
			Binary:            {},
			UnaryPreModifier:  {},
			UnaryPostModifier: {},
		},
		candidates: make(map[string]struct{}),
	}

	for _, op := range builtins() {
		t.add(&op)
	}

	next := firstCustomID

	for _, d := range defs {
		if err := d.validate(); err != nil {
			return nil, err
		}

		precedence := d.Precedence
		if precedence == 0 {
			precedence = DefaultPrecedence
		}

		t.add(&Operator{
			ID:         next,
			Name:       d.Name,
			Category:   d.Category,
			Precedence: precedence,
			Binary:     d.Binary,
			Unary:      d.Unary,
			Custom:     true,
		})
		next++
	}

	return t, nil
}

// MustNewTable is like NewTable but panics on invalid definitions.
func MustNewTable(defs ...Definition) *Table {
	t, err := NewTable(defs...)
	if err != nil {
		panic(err)
	}

	return t
}

var defaultTable = sync.OnceValue(func() *Table {
	return MustNewTable()
})

// Default returns the shared table of built-in operators.
func Default() *Table {
	return defaultTable()
}

func (t *Table) add(op *Operator) {
	for int(op.ID) >= len(t.operators) {
		t.operators = append(t.operators, nil)
	}

	t.operators[op.ID] = op
	t.byToken[op.Category][op.Name] = op

	for i := 1; i <= len(op.Name); i++ {
		t.candidates[op.Name[:i]] = struct{}{}
	}
}

// IsCandidate reports whether s is a registered operator token or a prefix of one.
func (t *Table) IsCandidate(s string) bool {
	_, ok := t.candidates[s]
	return ok
}

// Has reports whether token is registered in the category.
func (t *Table) Has(c Category, token string) bool {
	_, ok := t.byToken[c][token]
	return ok
}

// Lookup maps a token to the identity of the operator registered for it.
func (t *Table) Lookup(c Category, token string) (ID, error) {
	op, ok := t.byToken[c][token]
	if !ok {
		return Invalid, fmt.Errorf("%w: %q is not a %s operator", ErrInvalidOperator, token, c)
	}

	return op.ID, nil
}

// Get returns the operator with the given identity.
func (t *Table) Get(id ID) (*Operator, bool) {
	if id <= Invalid || int(id) >= len(t.operators) || t.operators[id] == nil {
		return nil, false
	}

	return t.operators[id], true
}

// Precedence returns the precedence of id, or 0 when it is unknown.
func (t *Table) Precedence(id ID) int {
	op, ok := t.Get(id)
	if !ok {
		return 0
	}

	return op.Precedence
}

// Operators lists the reachable operators ordered by category, descending
// precedence and token.
func (t *Table) Operators() []Operator {
	var result []Operator

	for _, byName := range t.byToken {
		for _, op := range byName {
			result = append(result, *op)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}

		if a.Precedence != b.Precedence {
			return a.Precedence > b.Precedence
		}

		return a.Name < b.Name
	})

	return result
}
