package value

import (
	"errors"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ToNumber converts v to a float64 the way the formula language does for arithmetic.
// Non-numeric text, undefined and objects become NaN.
func ToNumber(v Value) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case bool:
		if val {
			return 1
		}

		return 0
	case float64:
		return val
	case *big.Int:
		f, _ := new(big.Float).SetInt(val).Float64()
		return f
	case string:
		return ParseNumber(val)
	case time.Time:
		return float64(val.UnixMilli())
	default:
		return math.NaN()
	}
}

// ParseNumber converts numeric text to a float64. Surrounding whitespace is ignored,
// empty text is 0, "Infinity" and 0x/0o/0b prefixes are recognized. Anything else
// that is not a plain decimal literal is NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0

		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}

		if base != 0 {
			n, ok := new(big.Int).SetString(s[2:], base)
			if !ok {
				return math.NaN()
			}

			f, _ := new(big.Float).SetInt(n).Float64()

			return f
		}
	}

	digits := 0

	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.', r == 'e', r == 'E':
		case (r == '+' || r == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		default:
			return math.NaN()
		}
	}

	if digits == 0 {
		return math.NaN()
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}

	return f
}

// FormatNumber renders a float64 the way the formula language prints numbers.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		s = strings.Replace(s, "e-0", "e-", 1)

		return strings.Replace(s, "e+0", "e+", 1)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToString converts v to text, as used by string concatenation.
func ToString(v Value) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case undefined:
		return "undefined"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return FormatNumber(val)
	case *big.Int:
		return val.String()
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	case error:
		return val.Error()
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			if IsNullish(item) {
				continue
			}

			parts[i] = ToString(Normalize(item))
		}

		return strings.Join(parts, ",")
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, rv.Len())
		for i := range rv.Len() {
			parts[i] = ToString(Normalize(rv.Index(i).Interface()))
		}

		return strings.Join(parts, ",")
	}

	return "[object Object]"
}

// Truthy reports the boolean meaning of v.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, undefined:
		return false
	case bool:
		return val
	case float64:
		return val != 0 && !math.IsNaN(val)
	case *big.Int:
		return val.Sign() != 0
	case string:
		return val != ""
	default:
		return true
	}
}

// ToInt32 truncates a number to a signed 32-bit integer with wrap-around, as the
// bitwise operators require. NaN and infinities become 0.
func ToInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	t := math.Trunc(f)
	m := math.Mod(t, 1<<32)

	if m < 0 {
		m += 1 << 32
	}

	return int32(uint32(m))
}

// toNumeric converts v to either a float64 or a *big.Int.
func toNumeric(v Value) Value {
	if b, ok := v.(*big.Int); ok {
		return b
	}

	return ToNumber(v)
}
