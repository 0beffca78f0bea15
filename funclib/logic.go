package funclib

import "github.com/shibukawa/tabformula/value"

// ifFunc returns the second argument when the first is truthy, otherwise the
// third (false when omitted).
func ifFunc(args ...value.Value) (value.Value, error) {
	if err := arity("IF", args, 2, 3); err != nil {
		return nil, err
	}

	if value.Truthy(args[0]) {
		return args[1], nil
	}

	if len(args) == 3 {
		return args[2], nil
	}

	return false, nil
}

func andFunc(args ...value.Value) (value.Value, error) {
	if err := arity("AND", args, 1, -1); err != nil {
		return nil, err
	}

	for _, v := range flatten(args) {
		if !value.Truthy(v) {
			return false, nil
		}
	}

	return true, nil
}

func orFunc(args ...value.Value) (value.Value, error) {
	if err := arity("OR", args, 1, -1); err != nil {
		return nil, err
	}

	for _, v := range flatten(args) {
		if value.Truthy(v) {
			return true, nil
		}
	}

	return false, nil
}

func notFunc(args ...value.Value) (value.Value, error) {
	if err := arity("NOT", args, 1, 1); err != nil {
		return nil, err
	}

	return !value.Truthy(args[0]), nil
}

func isNullFunc(args ...value.Value) (value.Value, error) {
	if err := arity("ISNULL", args, 1, 1); err != nil {
		return nil, err
	}

	return value.IsNullish(args[0]), nil
}
