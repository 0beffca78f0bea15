package value

import (
	"math"
	"math/big"
	"strings"
	"time"
)

// invalidOperand returns the value an arithmetic operator yields when one of its
// operands is already an error value or an object.
func invalidOperand(vals ...Value) (Value, bool) {
	for _, v := range vals {
		if KindOf(v) == KindError {
			return v, true
		}
	}

	for _, v := range vals {
		if KindOf(v) == KindObject {
			return ErrObjectOperand, true
		}
	}

	return nil, false
}

func arith(a, b Value, f func(x, y float64) float64, g func(x, y *big.Int) (Value, error)) (Value, error) {
	if v, ok := invalidOperand(a, b); ok {
		return v, nil
	}

	na, nb := toNumeric(a), toNumeric(b)
	xa, aBig := na.(*big.Int)
	xb, bBig := nb.(*big.Int)

	switch {
	case aBig && bBig:
		return g(xa, xb)
	case aBig || bBig:
		return nil, ErrMixedBigInt
	}

	return f(na.(float64), nb.(float64)), nil
}

// Add concatenates when either side is a string, otherwise adds numerically.
func Add(a, b Value) (Value, error) {
	if KindOf(a) == KindError {
		return a, nil
	}

	if KindOf(b) == KindError {
		return b, nil
	}

	_, aStr := a.(string)
	_, bStr := b.(string)

	if aStr || bStr {
		return ToString(a) + ToString(b), nil
	}

	return arith(a, b,
		func(x, y float64) float64 { return x + y },
		func(x, y *big.Int) (Value, error) { return new(big.Int).Add(x, y), nil })
}

// Sub subtracts b from a.
func Sub(a, b Value) (Value, error) {
	return arith(a, b,
		func(x, y float64) float64 { return x - y },
		func(x, y *big.Int) (Value, error) { return new(big.Int).Sub(x, y), nil })
}

// Mul multiplies a by b.
func Mul(a, b Value) (Value, error) {
	return arith(a, b,
		func(x, y float64) float64 { return x * y },
		func(x, y *big.Int) (Value, error) { return new(big.Int).Mul(x, y), nil })
}

// Div divides a by b. Big integer division truncates toward zero.
func Div(a, b Value) (Value, error) {
	return arith(a, b,
		func(x, y float64) float64 { return x / y },
		func(x, y *big.Int) (Value, error) {
			if y.Sign() == 0 {
				return nil, ErrDivisionByZero
			}

			return new(big.Int).Quo(x, y), nil
		})
}

// Mod returns the remainder of a divided by b, carrying the sign of a.
func Mod(a, b Value) (Value, error) {
	return arith(a, b,
		math.Mod,
		func(x, y *big.Int) (Value, error) {
			if y.Sign() == 0 {
				return nil, ErrDivisionByZero
			}

			return new(big.Int).Rem(x, y), nil
		})
}

func bitwise(a, b Value, f func(x, y int32) int32, g func(z, x, y *big.Int) *big.Int) (Value, error) {
	return arith(a, b,
		func(x, y float64) float64 { return float64(f(ToInt32(x), ToInt32(y))) },
		func(x, y *big.Int) (Value, error) { return g(new(big.Int), x, y), nil })
}

// BitAnd is the bitwise and of a and b.
func BitAnd(a, b Value) (Value, error) {
	return bitwise(a, b, func(x, y int32) int32 { return x & y }, (*big.Int).And)
}

// BitOr is the bitwise or of a and b.
func BitOr(a, b Value) (Value, error) {
	return bitwise(a, b, func(x, y int32) int32 { return x | y }, (*big.Int).Or)
}

// BitXor is the bitwise exclusive or of a and b.
func BitXor(a, b Value) (Value, error) {
	return bitwise(a, b, func(x, y int32) int32 { return x ^ y }, (*big.Int).Xor)
}

// Compare orders a and b. Two strings compare lexicographically, everything else
// numerically. ok is false when the values are unordered (NaN involved).
func Compare(a, b Value) (cmp int, ok bool) {
	if sa, isStr := a.(string); isStr {
		if sb, isStr := b.(string); isStr {
			return strings.Compare(sa, sb), true
		}
	}

	return compareNumeric(toNumeric(a), toNumeric(b))
}

func compareNumeric(a, b Value) (int, bool) {
	xa, aBig := a.(*big.Int)
	xb, bBig := b.(*big.Int)

	switch {
	case aBig && bBig:
		return xa.Cmp(xb), true
	case aBig:
		fb := b.(float64)
		if math.IsNaN(fb) {
			return 0, false
		}

		return compareBigFloat(xa, fb), true
	case bBig:
		fa := a.(float64)
		if math.IsNaN(fa) {
			return 0, false
		}

		return -compareBigFloat(xb, fa), true
	}

	fa, fb := a.(float64), b.(float64)
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return 0, false
	}

	switch {
	case fa < fb:
		return -1, true
	case fa > fb:
		return 1, true
	}

	return 0, true
}

func compareBigFloat(x *big.Int, f float64) int {
	switch {
	case math.IsInf(f, 1):
		return -1
	case math.IsInf(f, -1):
		return 1
	}

	return new(big.Float).SetInt(x).Cmp(big.NewFloat(f))
}

func relational(a, b Value, accept func(cmp int) bool) (Value, error) {
	if v, ok := invalidOperand(a, b); ok {
		return v, nil
	}

	cmp, ok := Compare(a, b)

	return ok && accept(cmp), nil
}

// Less reports a < b.
func Less(a, b Value) (Value, error) {
	return relational(a, b, func(cmp int) bool { return cmp < 0 })
}

// LessEqual reports a <= b.
func LessEqual(a, b Value) (Value, error) {
	return relational(a, b, func(cmp int) bool { return cmp <= 0 })
}

// Greater reports a > b.
func Greater(a, b Value) (Value, error) {
	return relational(a, b, func(cmp int) bool { return cmp > 0 })
}

// GreaterEqual reports a >= b.
func GreaterEqual(a, b Value) (Value, error) {
	return relational(a, b, func(cmp int) bool { return cmp >= 0 })
}

// StrictEqual reports whether a and b have the same kind and the same value.
// NaN is never equal to itself.
func StrictEqual(a, b Value) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}

	switch ka {
	case KindNull, KindUndefined:
		return true
	case KindBool:
		return a.(bool) == b.(bool)
	case KindNumber:
		return a.(float64) == b.(float64)
	case KindBigInt:
		return a.(*big.Int).Cmp(b.(*big.Int)) == 0
	case KindString:
		return a.(string) == b.(string)
	case KindTime:
		return a.(time.Time).Equal(b.(time.Time))
	case KindError:
		return comparableEqual(a, b)
	default:
		return sameObject(a, b)
	}
}

// LooseEqual reports a == b with type coercion: null equals undefined, booleans
// compare as numbers, numbers and text compare numerically, objects compare by
// their text form against primitives.
func LooseEqual(a, b Value) bool {
	ka, kb := KindOf(a), KindOf(b)

	if ka == kb {
		return StrictEqual(a, b)
	}

	nullishA := ka == KindNull || ka == KindUndefined
	nullishB := kb == KindNull || kb == KindUndefined

	switch {
	case nullishA || nullishB:
		return nullishA && nullishB
	case ka == KindBool:
		return LooseEqual(ToNumber(a), b)
	case kb == KindBool:
		return LooseEqual(a, ToNumber(b))
	case ka == KindObject || ka == KindError:
		if kb == KindObject || kb == KindError {
			return false
		}

		return LooseEqual(ToString(a), b)
	case kb == KindObject || kb == KindError:
		return LooseEqual(a, ToString(b))
	case ka == KindTime && kb == KindString, ka == KindString && kb == KindTime:
		return ToString(a) == ToString(b)
	}

	cmp, ok := compareNumeric(toNumeric(a), toNumeric(b))

	return ok && cmp == 0
}

// And returns a when it is falsy, otherwise b.
func And(a, b Value) (Value, error) {
	if !Truthy(a) {
		return a, nil
	}

	return b, nil
}

// Or returns a when it is truthy, otherwise b.
func Or(a, b Value) (Value, error) {
	if Truthy(a) {
		return a, nil
	}

	return b, nil
}

// Coalesce returns a unless it is null or undefined.
func Coalesce(a, b Value) (Value, error) {
	if IsNullish(a) {
		return b, nil
	}

	return a, nil
}

// Negate flips the sign of a.
func Negate(a Value) (Value, error) {
	if v, ok := invalidOperand(a); ok {
		return v, nil
	}

	switch n := toNumeric(a).(type) {
	case *big.Int:
		return new(big.Int).Neg(n), nil
	default:
		return -n.(float64), nil
	}
}

// Not is the boolean negation of a.
func Not(a Value) (Value, error) {
	return !Truthy(a), nil
}

// BitNot is the bitwise complement of a.
func BitNot(a Value) (Value, error) {
	if v, ok := invalidOperand(a); ok {
		return v, nil
	}

	switch n := toNumeric(a).(type) {
	case *big.Int:
		return new(big.Int).Not(n), nil
	default:
		return float64(^ToInt32(n.(float64))), nil
	}
}

const (
	maxFactorial       = 170
	maxBigIntFactorial = 5000
)

// Factorial computes a!. Negative or fractional numbers yield NaN and results
// that overflow float64 yield +Infinity.
func Factorial(a Value) (Value, error) {
	if v, ok := invalidOperand(a); ok {
		return v, nil
	}

	switch n := toNumeric(a).(type) {
	case *big.Int:
		if n.Sign() < 0 || !n.IsInt64() || n.Int64() > maxBigIntFactorial {
			return nil, ErrInvalidFactorial
		}

		return new(big.Int).MulRange(1, n.Int64()), nil
	default:
		f := n.(float64)
		if math.IsNaN(f) || f < 0 || f != math.Trunc(f) {
			return math.NaN(), nil
		}

		if f > maxFactorial {
			return math.Inf(1), nil
		}

		result := 1.0
		for i := 2.0; i <= f; i++ {
			result *= i
		}

		return result, nil
	}
}
