// Package tabformula evaluates spreadsheet-like formulas against records.
//
// The heavy lifting lives in the formula package; this package binds it to the
// standard function library and to the tabformula.yaml configuration.
package tabformula

import (
	"fmt"
	"slices"
	"sync"

	"github.com/shibukawa/tabformula/formula"
	"github.com/shibukawa/tabformula/funclib"
	"github.com/shibukawa/tabformula/operator"
	"github.com/shibukawa/tabformula/value"
)

var defaultParser = sync.OnceValue(func() *formula.Parser {
	return formula.MustNewParser(formula.Options{Functions: funclib.Standard()})
})

// Eval evaluates text with the standard function library and built-in operators.
func Eval(text string, record map[string]any, fieldNames ...string) (value.Value, error) {
	return defaultParser().Parse(text, record, fieldNames...)
}

// FunctionRegistry returns the registry described by the functions section: the
// standard library without disabled entries, plus aliases.
func (c *Config) FunctionRegistry() map[string]formula.Function {
	funcs := funclib.Standard()

	for name := range funcs {
		if slices.ContainsFunc(c.Functions.Disabled, func(d string) bool {
			return formula.CanonicalName(d) == name
		}) {
			delete(funcs, name)
		}
	}

	library := funclib.Standard()
	for alias, target := range c.Functions.Aliases {
		if fn, ok := funcs[formula.CanonicalName(target)]; ok {
			funcs[formula.CanonicalName(alias)] = fn
		} else if fn, ok := library[formula.CanonicalName(target)]; ok {
			// an alias keeps working when only the original name is disabled
			funcs[formula.CanonicalName(alias)] = fn
		}
	}

	return funcs
}

// OperatorTable builds the built-in operators plus the operators section.
// Binary operators call their function with both operands, modifiers with one.
func (c *Config) OperatorTable() (*operator.Table, error) {
	library := funclib.Standard()
	defs := make([]operator.Definition, 0, len(c.Operators))

	for _, op := range c.Operators {
		category, err := operator.ParseCategory(op.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: operator '%s': %w", ErrConfigValidation, op.Name, err)
		}

		fn, ok := library[formula.CanonicalName(op.Function)]
		if !ok {
			return nil, fmt.Errorf("%w: operator '%s': unknown function '%s'", ErrConfigValidation, op.Name, op.Function)
		}

		def := operator.Definition{Name: op.Name, Precedence: op.Precedence, Category: category}
		if category == operator.Binary {
			def.Binary = func(a, b value.Value) (value.Value, error) { return fn(a, b) }
		} else {
			def.Unary = func(a value.Value) (value.Value, error) { return fn(a) }
		}

		defs = append(defs, def)
	}

	table, err := operator.NewTable(defs...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}

	return table, nil
}

// NewParser builds a parser from the configuration. logger may be nil.
func (c *Config) NewParser(logger formula.LoggerFunc) (*formula.Parser, error) {
	table, err := c.OperatorTable()
	if err != nil {
		return nil, err
	}

	return formula.NewParser(formula.Options{
		Functions: c.FunctionRegistry(),
		Operators: table,
		Logger:    logger,
	})
}
