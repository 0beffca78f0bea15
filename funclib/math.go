package funclib

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/shibukawa/tabformula/value"
)

// numbers flattens args and converts them to float64, skipping null and undefined.
func numbers(args []value.Value) []float64 {
	flat := flatten(args)
	result := make([]float64, 0, len(flat))

	for _, v := range flat {
		if value.IsNullish(v) {
			continue
		}

		result = append(result, value.ToNumber(v))
	}

	return result
}

func sumFunc(args ...value.Value) (value.Value, error) {
	total := 0.0
	for _, n := range numbers(args) {
		total += n
	}

	return total, nil
}

func averageFunc(args ...value.Value) (value.Value, error) {
	nums := numbers(args)
	if len(nums) == 0 {
		return math.NaN(), nil
	}

	total := 0.0
	for _, n := range nums {
		total += n
	}

	return total / float64(len(nums)), nil
}

func minFunc(args ...value.Value) (value.Value, error) {
	return extreme(args, math.Min, math.Inf(1))
}

func maxFunc(args ...value.Value) (value.Value, error) {
	return extreme(args, math.Max, math.Inf(-1))
}

func extreme(args []value.Value, pick func(a, b float64) float64, start float64) (value.Value, error) {
	nums := numbers(args)
	if len(nums) == 0 {
		return 0.0, nil
	}

	result := start
	for _, n := range nums {
		result = pick(result, n)
	}

	return result, nil
}

// countFunc counts the arguments that are numbers or numeric text.
func countFunc(args ...value.Value) (value.Value, error) {
	count := 0

	for _, v := range flatten(args) {
		switch v.(type) {
		case float64, string:
			if !math.IsNaN(value.ToNumber(v)) {
				count++
			}
		case bool:
			count++
		default:
			if value.KindOf(v) == value.KindBigInt {
				count++
			}
		}
	}

	return float64(count), nil
}

func unaryMath(name string, f func(float64) float64) func(args ...value.Value) (value.Value, error) {
	return func(args ...value.Value) (value.Value, error) {
		if err := arity(name, args, 1, 1); err != nil {
			return nil, err
		}

		return f(value.ToNumber(args[0])), nil
	}
}

func powFunc(args ...value.Value) (value.Value, error) {
	if err := arity("POW", args, 2, 2); err != nil {
		return nil, err
	}

	return math.Pow(value.ToNumber(args[0]), value.ToNumber(args[1])), nil
}

func modFunc(args ...value.Value) (value.Value, error) {
	if err := arity("MOD", args, 2, 2); err != nil {
		return nil, err
	}

	return value.Mod(args[0], args[1])
}

func roundHalf(d decimal.Decimal, places int32) decimal.Decimal { return d.Round(places) }
func roundUp(d decimal.Decimal, places int32) decimal.Decimal   { return d.RoundUp(places) }
func roundDown(d decimal.Decimal, places int32) decimal.Decimal { return d.RoundDown(places) }

// maxRoundPlaces is far beyond float64 precision in either direction.
const maxRoundPlaces = 400

// roundFunc rounds in decimal arithmetic so ROUND(2.675, 2) is 2.68 and not the
// 2.67 that float64 rounding gives.
func roundFunc(name string, round func(decimal.Decimal, int32) decimal.Decimal) func(args ...value.Value) (value.Value, error) {
	return func(args ...value.Value) (value.Value, error) {
		if err := arity(name, args, 1, 2); err != nil {
			return nil, err
		}

		places := 0

		if len(args) == 2 {
			p, err := intArg(name, args[1])
			if err != nil {
				return nil, err
			}

			if p < -maxRoundPlaces || p > maxRoundPlaces {
				return nil, fmt.Errorf("%w: %s places must be between %d and %d", ErrArgument, name, -maxRoundPlaces, maxRoundPlaces)
			}

			places = p
		}

		f := value.ToNumber(args[0])
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return f, nil
		}

		return round(decimal.NewFromFloat(f), int32(places)).InexactFloat64(), nil
	}
}
