package value

import "errors"

var (
	// ErrObjectOperand is produced (as a value, not a failure) when an arithmetic
	// operator is applied to an array or object.
	ErrObjectOperand = errors.New("arrays and objects cannot be used as operands")
	// ErrMixedBigInt is returned when big integers and numbers are mixed in arithmetic.
	ErrMixedBigInt = errors.New("cannot mix big integers and other types, use explicit conversions")
	// ErrDivisionByZero is returned when a big integer is divided by zero.
	ErrDivisionByZero = errors.New("big integer division by zero")
	// ErrInvalidFactorial is returned for the factorial of a negative or oversized big integer.
	ErrInvalidFactorial = errors.New("factorial is only defined for big integers from 0 to 5000")
)
