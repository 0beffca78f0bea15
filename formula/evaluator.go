package formula

import (
	"fmt"

	"github.com/shibukawa/tabformula/operator"
	"github.com/shibukawa/tabformula/value"
)

// evaluate reduces a finished expression to a single value. The infix member list
// is reordered to postfix by precedence and then run on a value stack.
func evaluate(table *operator.Table, e *exprFrame) (value.Value, error) {
	if len(e.pending) > 0 {
		op, _ := table.Get(e.pending[len(e.pending)-1])
		return nil, fmt.Errorf("%w: %q is not followed by a value", ErrMissingOperand, op.Name)
	}

	if len(e.members) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrMissingOperand)
	}

	if id, ok := e.lastOperator(); ok {
		op, _ := table.Get(id)
		return nil, fmt.Errorf("%w: %q has no right operand", ErrMissingOperand, op.Name)
	}

	if len(e.members) == 1 {
		return e.members[0].val, nil
	}

	return runPostfix(table, toPostfix(table, e.members))
}

func toPostfix(table *operator.Table, members []member) []member {
	output := make([]member, 0, len(members))
	held := make([]operator.ID, 0, len(members)/2)

	for _, m := range members {
		if !m.isOp {
			output = append(output, m)
			continue
		}

		precedence := table.Precedence(m.op)
		for len(held) > 0 && table.Precedence(held[len(held)-1]) >= precedence {
			output = append(output, member{isOp: true, op: held[len(held)-1]})
			held = held[:len(held)-1]
		}

		held = append(held, m.op)
	}

	for i := len(held) - 1; i >= 0; i-- {
		output = append(output, member{isOp: true, op: held[i]})
	}

	return output
}

func runPostfix(table *operator.Table, postfix []member) (value.Value, error) {
	stack := make([]value.Value, 0, len(postfix))

	for _, m := range postfix {
		if !m.isOp {
			stack = append(stack, m.val)
			continue
		}

		if len(stack) < 2 {
			return nil, fmt.Errorf("%w: operand stack underflow", ErrInternal)
		}

		op, ok := table.Get(m.op)
		if !ok {
			return nil, fmt.Errorf("%w: unknown operator identity %d", ErrInternal, m.op)
		}

		a, b := stack[len(stack)-2], stack[len(stack)-1]
		stack = stack[:len(stack)-2]

		result, err := op.ApplyBinary(a, b)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", op.Name, err)
		}

		stack = append(stack, result)
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: %d values left after evaluation", ErrInternal, len(stack))
	}

	return stack[0], nil
}
