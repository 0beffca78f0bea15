package records

import (
	"fmt"
	"math/big"

	"github.com/google/cel-go/cel"

	"github.com/shibukawa/tabformula/value"
)

// Filter is a compiled CEL predicate over one record, exposed to the
// expression as the `record` variable, e.g. `record.qty > 2`.
type Filter struct {
	expr    string
	program cel.Program
}

// NewFilter compiles expr. The expression must produce a boolean.
func NewFilter(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}

	ast, issues := env.Compile(expr)
	if issues.Err() != nil {
		return nil, fmt.Errorf("%w: failed to compile %q: %w", ErrInvalidFilter, expr, issues.Err())
	}

	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %q returns %s, not bool", ErrInvalidFilter, expr, out)
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create program for %q: %w", ErrInvalidFilter, expr, err)
	}

	return &Filter{expr: expr, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Match evaluates the filter against a record.
func (f *Filter) Match(record map[string]any) (bool, error) {
	out, _, err := f.program.Eval(map[string]any{"record": celRecord(record)})
	if err != nil {
		return false, fmt.Errorf("%w: failed to evaluate %q: %w", ErrInvalidFilter, f.expr, err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %v, not bool", ErrInvalidFilter, f.expr, out.Value())
	}

	return matched, nil
}

// celRecord converts record values to types the CEL runtime understands.
func celRecord(record map[string]any) map[string]any {
	result := make(map[string]any, len(record))

	for k, v := range record {
		switch n := value.Normalize(v).(type) {
		case *big.Int:
			result[k] = n.String()
		case error:
			result[k] = n.Error()
		default:
			if value.KindOf(n) == value.KindUndefined {
				result[k] = nil
				continue
			}

			result[k] = n
		}
	}

	return result
}
