package funclib

import "errors"

var (
	// ErrArity is returned when a function receives too few or too many arguments.
	ErrArity = errors.New("wrong number of arguments")
	// ErrArgument is returned when an argument cannot be used by the function.
	ErrArgument = errors.New("invalid argument")
)
