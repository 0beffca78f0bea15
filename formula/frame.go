package formula

import (
	"fmt"

	"github.com/shibukawa/tabformula/operator"
	"github.com/shibukawa/tabformula/value"
)

// frame is one element of the parser call stack.
type frame interface {
	frameKind() string
}

// operandFrame holds a finished argument on its way into the enclosing call.
type operandFrame struct {
	value value.Value
}

// callFrame is a function call or a grouping parenthesis.
type callFrame struct {
	name     string
	fn       Function
	args     []value.Value
	maxArity int
	custom   bool
	comma    bool
}

// member is either an operand value or an operator identity.
type member struct {
	isOp bool
	op   operator.ID
	val  value.Value
}

// exprFrame collects an infix expression. Post-modifiers wait in pending until the
// next operand arrives; lastRaw and lastMods remember the last operand before its
// post-modifiers were applied so a following pre-modifier binds tighter.
type exprFrame struct {
	members  []member
	pending  []operator.ID
	lastRaw  value.Value
	lastMods []operator.ID
}

func (*operandFrame) frameKind() string { return "operand" }
func (*callFrame) frameKind() string    { return "call" }
func (*exprFrame) frameKind() string    { return "expression" }

func (c *callFrame) describe() string {
	if c.custom {
		return c.name + "()"
	}

	return "()"
}

func (c *callFrame) invoke() (value.Value, error) {
	if !c.custom {
		return identity(c.args...)
	}

	result, err := c.fn(c.args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFunctionFailed, c.name, err)
	}

	return value.Normalize(result), nil
}

// expectsOperator reports whether the last member is an operand, so the next
// token has to be a binary operator or a pre-modifier.
func (e *exprFrame) expectsOperator() bool {
	return len(e.members) > 0 && !e.members[len(e.members)-1].isOp
}

func (e *exprFrame) lastOperator() (operator.ID, bool) {
	if len(e.members) == 0 || !e.members[len(e.members)-1].isOp {
		return operator.Invalid, false
	}

	return e.members[len(e.members)-1].op, true
}

func applyModifiers(table *operator.Table, mods []operator.ID, v value.Value) (value.Value, error) {
	// innermost (closest to the operand) first
	for i := len(mods) - 1; i >= 0; i-- {
		op, ok := table.Get(mods[i])
		if !ok {
			return nil, fmt.Errorf("%w: unknown operator identity %d", ErrInternal, mods[i])
		}

		var err error

		v, err = op.ApplyUnary(v)
		if err != nil {
			return nil, err
		}
	}

	return v, nil
}

func (e *exprFrame) pushOperand(table *operator.Table, raw value.Value) error {
	mods := e.pending
	e.pending = nil

	v, err := applyModifiers(table, mods, raw)
	if err != nil {
		return err
	}

	e.lastRaw = raw
	e.lastMods = mods
	e.members = append(e.members, member{val: v})

	return nil
}

func (e *exprFrame) pushOperator(id operator.ID) {
	e.members = append(e.members, member{isOp: true, op: id})
	e.lastRaw = nil
	e.lastMods = nil
}

func (e *exprFrame) pushPostModifier(id operator.ID) {
	e.pending = append(e.pending, id)
}

// applyPreModifier transforms the last operand in place.
func (e *exprFrame) applyPreModifier(table *operator.Table, id operator.ID) error {
	if !e.expectsOperator() {
		return fmt.Errorf("%w: pre-modifier without operand", ErrInternal)
	}

	op, ok := table.Get(id)
	if !ok {
		return fmt.Errorf("%w: unknown operator identity %d", ErrInternal, id)
	}

	raw, err := op.ApplyUnary(e.lastRaw)
	if err != nil {
		return err
	}

	v, err := applyModifiers(table, e.lastMods, raw)
	if err != nil {
		return err
	}

	e.lastRaw = raw
	e.members[len(e.members)-1].val = v

	return nil
}
