package formula

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shibukawa/tabformula/value"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Function is a callable registered under an upper-case name and invoked as
// NAME(arg, ...). Arguments are already evaluated.
type Function func(args ...value.Value) (value.Value, error)

// CanonicalName upper-cases a function name the way registry lookups do.
func CanonicalName(name string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(name))
}

func newRegistry(funcs map[string]Function) (map[string]Function, error) {
	registry := make(map[string]Function, len(funcs))

	for name, fn := range funcs {
		key := CanonicalName(name)
		if key == "" {
			return nil, fmt.Errorf("%w: function name must not be empty", ErrInvalidFunction)
		}

		if fn == nil {
			return nil, fmt.Errorf("%w: %s is nil", ErrInvalidFunction, key)
		}

		if _, dup := registry[key]; dup {
			return nil, fmt.Errorf("%w: %s is registered twice", ErrInvalidFunction, key)
		}

		registry[key] = fn
	}

	return registry, nil
}

func sortedNames(registry map[string]Function) []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// identity backs grouping parentheses: it returns its single argument.
func identity(args ...value.Value) (value.Value, error) {
	switch len(args) {
	case 0:
		return value.Undefined, nil
	case 1:
		return args[0], nil
	default:
		return nil, fmt.Errorf("%w: grouping received %d values", ErrInternal, len(args))
	}
}
