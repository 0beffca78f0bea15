package funclib

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shibukawa/tabformula/value"
)

func concatFunc(args ...value.Value) (value.Value, error) {
	var b strings.Builder

	for _, v := range flatten(args) {
		if value.IsNullish(v) {
			continue
		}

		b.WriteString(value.ToString(v))
	}

	return b.String(), nil
}

func lenFunc(args ...value.Value) (value.Value, error) {
	if err := arity("LEN", args, 1, 1); err != nil {
		return nil, err
	}

	if value.IsNullish(args[0]) {
		return 0.0, nil
	}

	return float64(utf8.RuneCountInString(value.ToString(args[0]))), nil
}

func upper(s string) string  { return cases.Upper(language.Und).String(s) }
func lower(s string) string  { return cases.Lower(language.Und).String(s) }
func proper(s string) string { return cases.Title(language.Und).String(s) }

// trim removes leading and trailing spaces and collapses inner runs of spaces.
func trim(s string) string { return strings.Join(strings.Fields(s), " ") }

func caseFunc(name string, f func(string) string) func(args ...value.Value) (value.Value, error) {
	return func(args ...value.Value) (value.Value, error) {
		if err := arity(name, args, 1, 1); err != nil {
			return nil, err
		}

		if value.IsNullish(args[0]) {
			return "", nil
		}

		return f(value.ToString(args[0])), nil
	}
}

// countArg reads an optional character count that defaults to 1.
func countArg(name string, args []value.Value, idx int) (int, error) {
	if len(args) <= idx {
		return 1, nil
	}

	n, err := intArg(name, args[idx])
	if err != nil {
		return 0, err
	}

	if n < 0 {
		return 0, fmt.Errorf("%w: %s count must not be negative", ErrArgument, name)
	}

	return n, nil
}

func leftFunc(args ...value.Value) (value.Value, error) {
	if err := arity("LEFT", args, 1, 2); err != nil {
		return nil, err
	}

	n, err := countArg("LEFT", args, 1)
	if err != nil {
		return nil, err
	}

	runes := []rune(value.ToString(args[0]))

	return string(runes[:min(n, len(runes))]), nil
}

func rightFunc(args ...value.Value) (value.Value, error) {
	if err := arity("RIGHT", args, 1, 2); err != nil {
		return nil, err
	}

	n, err := countArg("RIGHT", args, 1)
	if err != nil {
		return nil, err
	}

	runes := []rune(value.ToString(args[0]))

	return string(runes[len(runes)-min(n, len(runes)):]), nil
}

// midFunc takes a 1-based start position.
func midFunc(args ...value.Value) (value.Value, error) {
	if err := arity("MID", args, 3, 3); err != nil {
		return nil, err
	}

	start, err := intArg("MID", args[1])
	if err != nil {
		return nil, err
	}

	if start < 1 {
		return nil, fmt.Errorf("%w: MID start must be 1 or greater", ErrArgument)
	}

	n, err := countArg("MID", args, 2)
	if err != nil {
		return nil, err
	}

	runes := []rune(value.ToString(args[0]))
	if start > len(runes) {
		return "", nil
	}

	end := min(start-1+n, len(runes))

	return string(runes[start-1 : end]), nil
}

// replaceFunc replaces every occurrence of the second argument.
func replaceFunc(args ...value.Value) (value.Value, error) {
	if err := arity("REPLACE", args, 3, 3); err != nil {
		return nil, err
	}

	return strings.ReplaceAll(value.ToString(args[0]), value.ToString(args[1]), value.ToString(args[2])), nil
}
