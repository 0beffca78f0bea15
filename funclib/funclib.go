// Package funclib is the standard function library for formulas: aggregates,
// rounding, logic, text and date helpers.
package funclib

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/shibukawa/tabformula/formula"
	"github.com/shibukawa/tabformula/value"
)

// Standard returns a fresh registry with every library function, using the wall
// clock for NOW and TODAY.
func Standard() map[string]formula.Function {
	return WithClock(time.Now)
}

// WithClock is like Standard with a custom clock.
func WithClock(now func() time.Time) map[string]formula.Function {
	return map[string]formula.Function{
		// aggregates
		"SUM":     sumFunc,
		"AVERAGE": averageFunc,
		"MIN":     minFunc,
		"MAX":     maxFunc,
		"COUNT":   countFunc,

		// math
		"ABS":       unaryMath("ABS", math.Abs),
		"FLOOR":     unaryMath("FLOOR", math.Floor),
		"CEIL":      unaryMath("CEIL", math.Ceil),
		"SQRT":      unaryMath("SQRT", math.Sqrt),
		"POW":       powFunc,
		"MOD":       modFunc,
		"ROUND":     roundFunc("ROUND", roundHalf),
		"ROUNDUP":   roundFunc("ROUNDUP", roundUp),
		"ROUNDDOWN": roundFunc("ROUNDDOWN", roundDown),

		// logic
		"IF":     ifFunc,
		"AND":    andFunc,
		"OR":     orFunc,
		"NOT":    notFunc,
		"ISNULL": isNullFunc,

		// text
		"CONCAT":  concatFunc,
		"LEN":     lenFunc,
		"UPPER":   caseFunc("UPPER", upper),
		"LOWER":   caseFunc("LOWER", lower),
		"PROPER":  caseFunc("PROPER", proper),
		"TRIM":    caseFunc("TRIM", trim),
		"LEFT":    leftFunc,
		"RIGHT":   rightFunc,
		"MID":     midFunc,
		"REPLACE": replaceFunc,

		// dates
		"NOW":   nowFunc(now),
		"TODAY": todayFunc(now),
		"YEAR":  datePart("YEAR", func(t time.Time) int { return t.Year() }),
		"MONTH": datePart("MONTH", func(t time.Time) int { return int(t.Month()) }),
		"DAY":   datePart("DAY", func(t time.Time) int { return t.Day() }),

		// misc
		"UUID": uuidFunc,
	}
}

// Names lists the library function names in sorted order.
func Names() []string {
	lib := Standard()

	names := make([]string, 0, len(lib))
	for name := range lib {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// arity checks the argument count. max < 0 means unbounded.
func arity(name string, args []value.Value, minArgs, maxArgs int) error {
	n := len(args)

	switch {
	case n < minArgs && maxArgs == minArgs:
		return fmt.Errorf("%w: %s takes %d, got %d", ErrArity, name, minArgs, n)
	case n < minArgs:
		return fmt.Errorf("%w: %s takes at least %d, got %d", ErrArity, name, minArgs, n)
	case maxArgs >= 0 && n > maxArgs:
		return fmt.Errorf("%w: %s takes at most %d, got %d", ErrArity, name, maxArgs, n)
	}

	return nil
}

// flatten expands slice arguments so aggregates accept both SUM(1, 2) and
// SUM({{list}}).
func flatten(args []value.Value) []value.Value {
	result := make([]value.Value, 0, len(args))

	for _, arg := range args {
		switch v := arg.(type) {
		case []any:
			result = append(result, flatten(v)...)
			continue
		case string, []byte:
			result = append(result, value.Normalize(v))
			continue
		}

		rv := reflect.ValueOf(arg)
		if arg != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
			items := make([]value.Value, rv.Len())
			for i := range rv.Len() {
				items[i] = rv.Index(i).Interface()
			}

			result = append(result, flatten(items)...)

			continue
		}

		result = append(result, value.Normalize(arg))
	}

	return result
}

// intArg converts an argument to a whole number.
func intArg(name string, v value.Value) (int, error) {
	f := value.ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s expects a number but got %q", ErrArgument, name, value.ToString(v))
	}

	f = math.Trunc(f)
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s argument %s is out of range", ErrArgument, name, value.ToString(v))
	}

	return int(f), nil
}
