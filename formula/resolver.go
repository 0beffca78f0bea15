package formula

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/shibukawa/tabformula/value"
)

var bigIntLiteral = regexp.MustCompile(`^[0-9]+n$`)

// ResolveLiteral converts a bare literal to a value: reserved words first, then
// numeric forms (decimal point, decimal comma, big integer suffix `n`, `\x`/`\b`/`\o`
// prefixes) and finally generic numeric coercion, which yields NaN for text that
// is not a number.
func ResolveLiteral(symbol string) value.Value {
	switch strings.ToLower(symbol) {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	case "undefined":
		return value.Undefined
	case "nan":
		return math.NaN()
	case "positive_infinity":
		return math.Inf(1)
	case "negative_infinity":
		return math.Inf(-1)
	}

	switch {
	case strings.Contains(symbol, "."):
		return parseFloat(symbol)
	case strings.Contains(symbol, ","):
		return parseFloat(strings.Replace(symbol, ",", ".", 1))
	case bigIntLiteral.MatchString(symbol):
		n, _ := new(big.Int).SetString(strings.TrimSuffix(symbol, "n"), 10)
		return n
	case len(symbol) > 2 && symbol[0] == '\\':
		switch symbol[1] {
		case 'x', 'X':
			return parseRadix(symbol[2:], 16)
		case 'b', 'B':
			return parseRadix(symbol[2:], 2)
		case 'o', 'O':
			return parseRadix(symbol[2:], 8)
		}
	}

	return value.ParseNumber(symbol)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return value.ParseNumber(s)
	}

	return f
}

func parseRadix(digits string, base int) float64 {
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return math.NaN()
	}

	f, _ := new(big.Float).SetInt(n).Float64()

	return f
}

// isTag reports whether the symbol has the {{name}} form.
func isTag(symbol string) bool {
	return strings.HasPrefix(symbol, "{{") && strings.HasSuffix(symbol, "}}") && len(symbol) >= 4
}

// resolveTag looks a tag up by field name first and by position in the field list
// second.
func (s *state) resolveTag(symbol string) (value.Value, error) {
	name := strings.TrimSpace(symbol[2 : len(symbol)-2])

	if v, ok := s.record[name]; ok {
		return value.Normalize(v), nil
	}

	if idx, err := strconv.Atoi(name); err == nil && idx >= 0 && idx < len(s.fields) {
		v, ok := s.record[s.fields[idx]]
		if !ok {
			return nil, nil
		}

		return value.Normalize(v), nil
	}

	return nil, fmt.Errorf("%w: %q is not referenced by the record", ErrFieldNotFound, name)
}

func (s *state) resolveSymbol(symbol string) (value.Value, error) {
	if isTag(symbol) {
		return s.resolveTag(symbol)
	}

	return ResolveLiteral(symbol), nil
}
