package formula

import (
	"errors"
	"fmt"
)

// Sentinel errors. A failed Parse returns a *ParseError wrapping one of these.
var (
	ErrEmptyFormula = errors.New("formula is empty")

	// Structure errors
	ErrUnexpectedClosingParenthesis = errors.New("unexpected closing parenthesis")
	ErrUnclosedParenthesis          = errors.New("unclosed parenthesis")
	ErrUnexpectedComma              = errors.New("expected `)` but found `,`")
	ErrEmptyArgument                = errors.New("empty argument")
	ErrUnexpectedToken              = errors.New("unexpected token")
	ErrMissingOperand               = errors.New("missing operand")

	// Lexical errors
	ErrMalformedTag       = errors.New("malformed tag")
	ErrDoubleBackslash    = errors.New("double backslashes are forbidden outside strings")
	ErrUnterminatedString = errors.New("unterminated string")

	// Resolution errors
	ErrUnknownFunction = errors.New("unknown function")
	ErrFieldNotFound   = errors.New("field not found")
	ErrFunctionFailed  = errors.New("function call failed")
	ErrInvalidFunction = errors.New("invalid function")

	// ErrInternal signals a broken invariant of the call stack. It never happens for
	// any input unless the parser itself is defective.
	ErrInternal = errors.New("internal parser error")
)

// ParseError describes a failed Parse. Consumed holds the part of the formula read
// before the failure and Offset the byte offset of the offending character.
type ParseError struct {
	Err      error
	Consumed string
	Offset   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("formula: %v (at offset %d, after %q)", e.Err, e.Offset, e.Consumed)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
