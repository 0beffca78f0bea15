package formula

import (
	"fmt"
	"strings"

	"github.com/shibukawa/tabformula/operator"
	"github.com/shibukawa/tabformula/value"
)

type tagState int

const (
	tagNone tagState = iota
	tagOpening
	tagBody
	tagClosing
)

// state is the scratch memory of a single Parse call: scanner buffers plus the
// call stack. It is created per call and never shared.
type state struct {
	functions map[string]Function
	table     *operator.Table
	record    map[string]any
	fields    []string

	stack  []frame
	depth  int
	result value.Value
	done   bool

	symbol      strings.Builder
	symbolEnded bool
	str         strings.Builder
	op          strings.Builder
	quote       rune
	tag         tagState
	backslashes int

	consumed strings.Builder
	offset   int
}

// run scans text as if it were wrapped in one more pair of parentheses, so the
// whole formula is a grouped frame.
func (s *state) run(text string) (value.Value, error) {
	if err := s.openParen(); err != nil {
		return nil, s.fail(err)
	}

	for i, r := range text {
		s.offset = i
		s.consumed.WriteRune(r)

		if err := s.step(r); err != nil {
			return nil, s.fail(err)
		}
	}

	s.offset = len(text)

	if err := s.finish(); err != nil {
		return nil, s.fail(err)
	}

	return s.result, nil
}

func (s *state) fail(err error) error {
	return &ParseError{Err: err, Consumed: s.consumed.String(), Offset: s.offset}
}

func (s *state) finish() error {
	switch {
	case s.quote != 0:
		return fmt.Errorf("%w: missing closing %c", ErrUnterminatedString, s.quote)
	case s.tag != tagNone:
		return fmt.Errorf("%w: tag is not closed with `}}`", ErrMalformedTag)
	case s.depth > 1:
		return fmt.Errorf("%w: %d left open", ErrUnclosedParenthesis, s.depth-1)
	}

	if err := s.closeParen(true); err != nil {
		return err
	}

	if !s.done || len(s.stack) != 0 {
		return fmt.Errorf("%w: %d frames left on the stack", ErrInternal, len(s.stack))
	}

	return nil
}

func (s *state) step(r rune) error {
	if s.quote != 0 {
		return s.stringRune(r)
	}

	if s.tag != tagNone {
		return s.tagRune(r)
	}

	if r != '\\' {
		s.backslashes = 0
	}

	switch r {
	case '\'', '"':
		return s.openString(r)
	case '\\':
		return s.backslash()
	case '(':
		return s.openParen()
	case ')':
		return s.closeParen(false)
	case ',':
		return s.comma()
	case ' ', '\t', '\r', '\n':
		return s.whitespace()
	case '{':
		return s.openTag()
	case '}':
		return fmt.Errorf("%w: closing curly bracket without an opening one", ErrMalformedTag)
	}

	return s.other(r)
}

func (s *state) top() frame {
	if len(s.stack) == 0 {
		return nil
	}

	return s.stack[len(s.stack)-1]
}

func (s *state) push(f frame) {
	s.stack = append(s.stack, f)
}

func (s *state) pop() frame {
	f := s.top()
	if f != nil {
		s.stack = s.stack[:len(s.stack)-1]
	}

	return f
}

// currentExpr returns the expression frame on top of the stack, starting a new
// one when a call frame is waiting for its next argument.
func (s *state) currentExpr() (*exprFrame, error) {
	switch top := s.top().(type) {
	case *exprFrame:
		return top, nil
	case *callFrame:
		e := &exprFrame{}
		s.push(e)

		return e, nil
	case nil:
		return nil, fmt.Errorf("%w: empty call stack", ErrInternal)
	default:
		return nil, fmt.Errorf("%w: unexpected %s frame on top", ErrInternal, top.frameKind())
	}
}

func (s *state) operandPending() bool {
	e, ok := s.top().(*exprFrame)
	return ok && e.expectsOperator()
}

func (s *state) isPreModifier(e *exprFrame, token string) bool {
	return e.expectsOperator() && s.table.Has(operator.UnaryPreModifier, token)
}

func (s *state) isPostModifier(e *exprFrame, token string) bool {
	return !e.expectsOperator() && s.table.Has(operator.UnaryPostModifier, token)
}

func (s *state) pushOperand(v value.Value) error {
	e, err := s.currentExpr()
	if err != nil {
		return err
	}

	if e.expectsOperator() {
		return fmt.Errorf("%w: missing operator before %q", ErrUnexpectedToken, value.ToString(v))
	}

	return e.pushOperand(s.table, v)
}

func (s *state) flushOperator() error {
	if s.op.Len() == 0 {
		return nil
	}

	token := s.op.String()
	s.op.Reset()

	e, err := s.currentExpr()
	if err != nil {
		return err
	}

	switch {
	case s.isPreModifier(e, token):
		id, err := s.table.Lookup(operator.UnaryPreModifier, token)
		if err != nil {
			return err
		}

		return e.applyPreModifier(s.table, id)
	case e.expectsOperator():
		id, err := s.table.Lookup(operator.Binary, token)
		if err != nil {
			return err
		}

		e.pushOperator(id)

		return nil
	case s.isPostModifier(e, token):
		id, err := s.table.Lookup(operator.UnaryPostModifier, token)
		if err != nil {
			return err
		}

		e.pushPostModifier(id)

		return nil
	case s.table.Has(operator.Binary, token), s.table.Has(operator.UnaryPreModifier, token):
		return fmt.Errorf("%w: %q has no left operand", ErrMissingOperand, token)
	}

	_, err = s.table.Lookup(operator.UnaryPostModifier, token)

	return err
}

func (s *state) flushSymbol() error {
	s.symbolEnded = false

	if s.symbol.Len() == 0 {
		return nil
	}

	symbol := s.symbol.String()
	s.symbol.Reset()

	v, err := s.resolveSymbol(symbol)
	if err != nil {
		return err
	}

	return s.pushOperand(v)
}

func (s *state) flushAll() error {
	if err := s.flushOperator(); err != nil {
		return err
	}

	return s.flushSymbol()
}

func (s *state) appendSymbol(r rune) error {
	if err := s.flushOperator(); err != nil {
		return err
	}

	if s.symbolEnded {
		return fmt.Errorf("%w: missing operator between %q and %q", ErrUnexpectedToken, s.symbol.String(), r)
	}

	s.symbol.WriteRune(r)

	return nil
}

func (s *state) other(r rune) error {
	if s.table.IsCandidate(s.op.String() + string(r)) {
		if err := s.flushSymbol(); err != nil {
			return err
		}

		s.op.WriteRune(r)

		return nil
	}

	if s.op.Len() > 0 && s.table.IsCandidate(string(r)) {
		if err := s.flushOperator(); err != nil {
			return err
		}

		s.op.WriteRune(r)

		return nil
	}

	return s.appendSymbol(r)
}

func (s *state) whitespace() error {
	if err := s.flushOperator(); err != nil {
		return err
	}

	if s.symbol.Len() > 0 {
		s.symbolEnded = true
	}

	return nil
}

func (s *state) backslash() error {
	if s.backslashes > 0 {
		return ErrDoubleBackslash
	}

	s.backslashes = 1

	return s.appendSymbol('\\')
}

func (s *state) openString(quote rune) error {
	if err := s.flushOperator(); err != nil {
		return err
	}

	if s.symbol.Len() > 0 {
		return fmt.Errorf("%w: string literal directly after %q", ErrUnexpectedToken, s.symbol.String())
	}

	s.quote = quote

	return nil
}

// stringRune handles a rune inside an open string. A run of backslashes is
// halved; an odd run escapes the rune that follows it.
func (s *state) stringRune(r rune) error {
	if r == '\\' {
		s.backslashes++
		return nil
	}

	run := s.backslashes
	s.backslashes = 0

	s.str.WriteString(strings.Repeat(`\`, run/2))

	if run%2 == 1 {
		if r != '\'' && r != '"' {
			s.str.WriteRune('\\')
		}

		s.str.WriteRune(r)

		return nil
	}

	if r != s.quote {
		s.str.WriteRune(r)
		return nil
	}

	s.quote = 0
	text := s.str.String()
	s.str.Reset()

	return s.pushOperand(text)
}

func (s *state) openTag() error {
	if err := s.flushOperator(); err != nil {
		return err
	}

	if s.symbol.Len() > 0 {
		return fmt.Errorf("%w: tag directly after %q", ErrUnexpectedToken, s.symbol.String())
	}

	s.tag = tagOpening
	s.symbol.WriteRune('{')

	return nil
}

func (s *state) tagRune(r rune) error {
	switch s.tag {
	case tagOpening:
		if r != '{' {
			return fmt.Errorf("%w: an opened curly bracket must be immediately followed by another", ErrMalformedTag)
		}

		s.tag = tagBody
	case tagBody:
		switch r {
		case '{':
			return fmt.Errorf("%w: tags cannot be nested", ErrMalformedTag)
		case '}':
			s.tag = tagClosing
		}
	case tagClosing:
		if r != '}' {
			return fmt.Errorf("%w: a closing curly bracket must be immediately followed by another", ErrMalformedTag)
		}

		s.tag = tagNone
		s.symbol.WriteRune(r)

		return s.flushSymbol()
	}

	s.symbol.WriteRune(r)

	return nil
}

func (s *state) openParen() error {
	if err := s.flushOperator(); err != nil {
		return err
	}

	if s.operandPending() {
		return fmt.Errorf("%w: missing operator before `(`", ErrUnexpectedToken)
	}

	if s.symbol.Len() > 0 {
		name := CanonicalName(s.symbol.String())

		fn, ok := s.functions[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFunction, name)
		}

		s.symbol.Reset()
		s.symbolEnded = false
		s.push(&callFrame{name: name, fn: fn, custom: true})
	} else {
		s.push(&callFrame{fn: identity, maxArity: 1})
	}

	s.depth++

	return nil
}

// finishArgument reduces a pending expression and folds the resulting operand into
// the call frame below it. folded is false when there was no argument at all.
func (s *state) finishArgument() (call *callFrame, folded bool, err error) {
	if e, ok := s.top().(*exprFrame); ok {
		v, err := evaluate(s.table, e)
		if err != nil {
			return nil, false, err
		}

		s.stack[len(s.stack)-1] = &operandFrame{value: v}
	}

	if o, ok := s.top().(*operandFrame); ok {
		s.pop()

		call, ok := s.top().(*callFrame)
		if !ok {
			return nil, false, fmt.Errorf("%w: operand without enclosing call", ErrInternal)
		}

		call.args = append(call.args, o.value)

		return call, true, nil
	}

	call, ok := s.top().(*callFrame)
	if !ok {
		return nil, false, fmt.Errorf("%w: no call frame to close", ErrInternal)
	}

	return call, false, nil
}

func (s *state) comma() error {
	if err := s.flushAll(); err != nil {
		return err
	}

	call, folded, err := s.finishArgument()
	if err != nil {
		return err
	}

	if !folded {
		return fmt.Errorf("%w: nothing before `,` in %s", ErrEmptyArgument, call.describe())
	}

	if call.maxArity > 0 && len(call.args) >= call.maxArity {
		return ErrUnexpectedComma
	}

	call.comma = true

	return nil
}

func (s *state) closeParen(synthetic bool) error {
	if !synthetic && s.depth <= 1 {
		return ErrUnexpectedClosingParenthesis
	}

	if err := s.flushAll(); err != nil {
		return err
	}

	call, folded, err := s.finishArgument()
	if err != nil {
		return err
	}

	if !folded && call.comma {
		return fmt.Errorf("%w: nothing after `,` in %s", ErrEmptyArgument, call.describe())
	}

	s.pop()
	s.depth--

	v, err := call.invoke()
	if err != nil {
		return err
	}

	if len(s.stack) == 0 {
		s.result = v
		s.done = true

		return nil
	}

	return s.pushOperand(v)
}
